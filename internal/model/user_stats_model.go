package model

import (
	"encoding/json"
	"time"
)

const recentInterviewLimit = 10

// RecentInterview is one entry of the bounded recent-interviews ring.
type RecentInterview struct {
	Date      time.Time `json:"date"`
	Score     float64   `json:"score"`
	Questions int       `json:"questions"`
	SessionID string    `json:"session_id"`
}

// UserStats is the only state that outlives a session: one durable record
// per user, read-modify-written on every save call.
type UserStats struct {
	UserID              string    `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	InterviewsCompleted int       `json:"interviews_completed"`
	TotalScore          float64   `gorm:"type:float" json:"total_score"`
	AverageScore        float64   `gorm:"type:float" json:"average_score"`
	ATSScore            float64   `gorm:"type:float" json:"ats_score"`
	RecentInterviews    string    `gorm:"type:jsonb;default:'[]'" json:"-"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// Recent decodes the stored ring, newest first.
func (u *UserStats) Recent() []RecentInterview {
	var entries []RecentInterview
	if u.RecentInterviews != "" {
		_ = json.Unmarshal([]byte(u.RecentInterviews), &entries)
	}
	if entries == nil {
		entries = []RecentInterview{}
	}
	return entries
}

// PushRecent prepends an entry and trims the ring to the 10 most recent.
func (u *UserStats) PushRecent(entry RecentInterview) {
	entries := append([]RecentInterview{entry}, u.Recent()...)
	if len(entries) > recentInterviewLimit {
		entries = entries[:recentInterviewLimit]
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	u.RecentInterviews = string(raw)
}
