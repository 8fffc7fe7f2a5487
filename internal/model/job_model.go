package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// JobPosting is one entry of the job-description corpus the ATS analyzer
// retrieves context from by embedding similarity.
type JobPosting struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title     string          `json:"title"`
	Content   string          `gorm:"type:text" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (j *JobPosting) TableName() string {
	return "job_postings"
}
