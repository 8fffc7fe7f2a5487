package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/careermentor/career-mentor/internal/model"
	"github.com/careermentor/career-mentor/internal/repository"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

type ATSServiceInterface interface {
	Analyze(ctx context.Context, resumeText, jobDescription string) (*model.ATSResult, error)
}

// ATSService scans a resume against a job description. Related postings
// from the corpus are retrieved by embedding similarity and injected into
// the prompt as additional context; retrieval failure only costs the
// extra context, never the analysis.
type ATSService struct {
	gemini GeminiServiceInterface
	jobs   repository.JobRepositoryInterface
	logger *zap.Logger
}

func NewATSService(gemini GeminiServiceInterface, jobs repository.JobRepositoryInterface, logger *zap.Logger) *ATSService {
	return &ATSService{gemini: gemini, jobs: jobs, logger: logger}
}

func (s *ATSService) Analyze(ctx context.Context, resumeText, jobDescription string) (*model.ATSResult, error) {
	jobContext := s.retrieveContext(ctx, resumeText)

	prompt := fmt.Sprintf(`
You are an applicant tracking system. Score how well the following resume matches the job description.

JOB DESCRIPTION:
%s
%s
RESUME:
%s

RESPONSE FORMAT (STRICT JSON ONLY, no markdown, no commentary):
{
  "overall_score": 72,
  "matched_keywords": ["..."],
  "missing_keywords": ["..."],
  "section_feedback": {"format": "...", "keywords": "...", "experience": "...", "skills": "..."},
  "summary": "..."
}
`, jobDescription, jobContext, resumeText)

	text, err := s.gemini.GenerateContent(ctx, DefaultModel, prompt)
	if err != nil {
		return nil, err
	}

	var result model.ATSResult
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse ATS response: %w", err)
	}
	if result.SectionFeedback == nil {
		result.SectionFeedback = map[string]string{}
	}
	return &result, nil
}

func (s *ATSService) retrieveContext(ctx context.Context, resumeText string) string {
	if s.jobs == nil {
		return ""
	}
	embedding, err := s.gemini.GenerateEmbedding(ctx, resumeText)
	if err != nil {
		s.logger.Warn("Resume embedding failed, analyzing without corpus context", zap.Error(err))
		return ""
	}
	postings, err := s.jobs.SearchJobs(pgvector.NewVector(embedding), 3)
	if err != nil || len(postings) == 0 {
		if err != nil {
			s.logger.Warn("Job corpus lookup failed", zap.Error(err))
		}
		return ""
	}

	jobContext := "\nRELATED POSTINGS FOR CALIBRATION:\n"
	for i, posting := range postings {
		jobContext += fmt.Sprintf("Posting %d: %s\n%s\n\n", i+1, posting.Title, truncate(posting.Content, 600))
	}
	return jobContext
}
