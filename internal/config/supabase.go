package config

import (
	"os"
	"sync"
)

type SupabaseConfig struct {
	URL           string
	Key           string
	ReportsBucket string
}

var (
	supabaseConfig *SupabaseConfig
	supabaseOnce   sync.Once
)

// LoadSupabaseConfig reads the object-store settings. When URL or Key is
// empty the storage adapter runs in local-only mode.
func LoadSupabaseConfig() *SupabaseConfig {
	supabaseOnce.Do(func() {
		key := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
		if key == "" {
			key = os.Getenv("SUPABASE_ANON_KEY")
		}
		bucket := os.Getenv("SUPABASE_BUCKET_REPORTS")
		if bucket == "" {
			bucket = "careerMentor"
		}
		supabaseConfig = &SupabaseConfig{
			URL:           os.Getenv("SUPABASE_URL"),
			Key:           key,
			ReportsBucket: bucket,
		}
	})
	return supabaseConfig
}
