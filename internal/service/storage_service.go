package service

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/careermentor/career-mentor/internal/config"
	"github.com/careermentor/career-mentor/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// signedURLTTL is how long a signed report link stays valid.
const signedURLTTL = 7 * 24 * time.Hour

type StorageServiceInterface interface {
	Put(localPath, sessionID string) *model.StorageMeta
}

// StorageService persists report artifacts. With no object store
// configured it hands back the local path; otherwise it replaces any
// prior object at the same key, uploads the file and signs a 7-day URL.
// Storage failure never fails the caller - it degrades to a local
// descriptor with a logged warning.
type StorageService struct {
	client *resty.Client
	url    string
	key    string
	bucket string
	logger *zap.Logger
}

func NewStorageService(logger *zap.Logger) *StorageService {
	cfg := config.LoadSupabaseConfig()
	s := &StorageService{
		url:    cfg.URL,
		key:    cfg.Key,
		bucket: cfg.ReportsBucket,
		logger: logger,
	}
	if s.Configured() {
		s.client = resty.New().
			SetBaseURL(cfg.URL+"/storage/v1").
			SetAuthToken(cfg.Key).
			SetTimeout(30 * time.Second)
	}
	return s
}

func (s *StorageService) Configured() bool {
	return s.url != "" && s.key != ""
}

func (s *StorageService) Put(localPath, sessionID string) *model.StorageMeta {
	local := &model.StorageMeta{Storage: "local", Path: localPath, URL: nil}
	if !s.Configured() {
		return local
	}

	// Per-session key prefix keeps artifacts from different sessions
	// from ever colliding.
	storageKey := fmt.Sprintf("%s/%s", sessionID, filepath.Base(localPath))

	data, err := os.ReadFile(localPath)
	if err != nil {
		s.logger.Warn("Storage upload skipped: cannot read artifact",
			zap.String("path", localPath), zap.Error(err))
		return local
	}

	if err := s.remove(storageKey); err != nil {
		s.logger.Warn("Failed to remove previous object", zap.String("key", storageKey), zap.Error(err))
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/pdf").
		SetHeader("x-upsert", "true").
		SetBody(data).
		Post(fmt.Sprintf("/object/%s/%s", s.bucket, storageKey))
	if err != nil || resp.IsError() {
		s.logger.Warn("Storage upload failed, falling back to local descriptor",
			zap.String("key", storageKey),
			zap.Int("status", statusOf(resp)),
			zap.Error(err))
		return local
	}

	signedURL, err := s.signURL(storageKey)
	if err != nil {
		s.logger.Warn("Signing URL failed, falling back to local descriptor",
			zap.String("key", storageKey), zap.Error(err))
		return local
	}

	return &model.StorageMeta{Storage: "supabase", Path: storageKey, URL: &signedURL}
}

// remove deletes a pre-existing object at the key; "not found" counts as
// success.
func (s *StorageService) remove(storageKey string) error {
	resp, err := s.client.R().Delete(fmt.Sprintf("/object/%s/%s", s.bucket, storageKey))
	if err != nil {
		return err
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("delete returned status %d", resp.StatusCode())
	}
	return nil
}

func (s *StorageService) signURL(storageKey string) (string, error) {
	resp, err := s.client.R().
		SetBody(map[string]int{"expiresIn": int(signedURLTTL.Seconds())}).
		Post(fmt.Sprintf("/object/sign/%s/%s", s.bucket, storageKey))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("sign returned status %d", resp.StatusCode())
	}
	signedPath := gjson.GetBytes(resp.Body(), "signedURL").String()
	if signedPath == "" {
		return "", fmt.Errorf("sign response missing signedURL")
	}
	return s.url + "/storage/v1" + signedPath, nil
}

func statusOf(resp *resty.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode()
}
