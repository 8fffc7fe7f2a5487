package dto

import (
	"time"

	"github.com/careermentor/career-mentor/internal/model"
)

type SessionDTO struct {
	SessionID string    `json:"session_id"`
	Questions []string  `json:"questions"`
	CreatedAt time.Time `json:"created_at"`
}

type SubmitAnswerRequest struct {
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
	Kind          string `json:"kind"`
	Answer        string `json:"answer"`
}

type SubmitAnswerDTO struct {
	Transcript string            `json:"transcript,omitempty"`
	Evaluation *model.Evaluation `json:"evaluation"`
}

type StartMonitoringRequest struct {
	SessionID string `json:"session_id"`
	Duration  int    `json:"duration"`
}

type RunATSCheckRequest struct {
	SessionID      string `json:"session_id"`
	JobDescription string `json:"job_description"`
}

type SessionIDRequest struct {
	SessionID string `json:"session_id"`
}

type SaveInterviewResultRequest struct {
	UserID    string  `json:"user_id"`
	Score     float64 `json:"score"`
	Questions int     `json:"questions"`
	SessionID string  `json:"session_id"`
}

type SaveATSResultRequest struct {
	UserID string  `json:"user_id"`
	Score  float64 `json:"score"`
}

type JobPostingRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UserStatsDTO struct {
	UserID              string                  `json:"user_id"`
	InterviewsCompleted int                     `json:"interviews_completed"`
	AverageScore        float64                 `json:"average_score"`
	ATSScore            float64                 `json:"ats_score"`
	RecentInterviews    []model.RecentInterview `json:"recent_interviews"`
}

func NewUserStatsDTO(stats *model.UserStats) UserStatsDTO {
	return UserStatsDTO{
		UserID:              stats.UserID,
		InterviewsCompleted: stats.InterviewsCompleted,
		AverageScore:        stats.AverageScore,
		ATSScore:            stats.ATSScore,
		RecentInterviews:    stats.Recent(),
	}
}
