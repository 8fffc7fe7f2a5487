package repository

import (
	"errors"

	"github.com/careermentor/career-mentor/internal/model"
	"gorm.io/gorm"
)

// UserStatsRepositoryInterface is the read-modify-write contract for the
// per-user stats record. Any durable key-value store would satisfy it.
type UserStatsRepositoryInterface interface {
	FindOrInit(userID string) (*model.UserStats, error)
	Save(stats *model.UserStats) error
	Find(userID string) (*model.UserStats, error)
}

type UserStatsRepository struct {
	db *gorm.DB
}

func NewUserStatsRepository(db *gorm.DB) *UserStatsRepository {
	return &UserStatsRepository{db}
}

func (r *UserStatsRepository) FindOrInit(userID string) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.db.First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserStats{UserID: userID, RecentInterviews: "[]"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *UserStatsRepository) Save(stats *model.UserStats) error {
	return r.db.Save(stats).Error
}

func (r *UserStatsRepository) Find(userID string) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.db.First(&stats, "user_id = ?", userID).Error
	return &stats, err
}
