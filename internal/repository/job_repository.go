package repository

import (
	"github.com/careermentor/career-mentor/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type JobRepositoryInterface interface {
	SearchJobs(embedding pgvector.Vector, topK int) ([]model.JobPosting, error)
	CreateJob(job *model.JobPosting) error
	UpdateJob(job *model.JobPosting) error
	GetJobs() ([]model.JobPosting, error)
}

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

// SearchJobs returns the postings nearest to the given embedding.
func (r *JobRepository) SearchJobs(embedding pgvector.Vector, topK int) ([]model.JobPosting, error) {
	var jobs []model.JobPosting

	err := r.db.Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM job_postings
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&jobs).Error

	return jobs, err
}

func (r *JobRepository) CreateJob(job *model.JobPosting) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) UpdateJob(job *model.JobPosting) error {
	return r.db.Save(job).Error
}

func (r *JobRepository) GetJobs() ([]model.JobPosting, error) {
	var jobs []model.JobPosting
	err := r.db.Find(&jobs).Error
	return jobs, err
}
