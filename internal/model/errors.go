package model

import "errors"

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrInvalidQuestionIndex   = errors.New("invalid question index")
	ErrUnsupportedAnswerKind  = errors.New("unsupported answer kind")
	ErrReportGenerationFailed = errors.New("report generation failed")
	ErrReportNotFound         = errors.New("report not found")
	ErrMissingUserID          = errors.New("user_id is required")
	ErrMonitoringActive       = errors.New("monitoring already in progress")
	ErrMonitoringNotStarted   = errors.New("monitoring not started")
	ErrATSNotRun              = errors.New("ats analysis has not been run for this session")
)
