package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/careermentor/career-mentor/internal/model"
	"github.com/careermentor/career-mentor/internal/repository"
	"github.com/careermentor/career-mentor/internal/service"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// InterviewUsecase drives a session through its lifecycle stages. The
// collaborators behind the interfaces are assumed flaky: evaluator,
// transcription, question-generation and ATS failures are absorbed with
// documented fallbacks, only rendering failures and missing identifiers
// surface to the caller.
type InterviewUsecase struct {
	sessions  *repository.SessionRepository
	stats     repository.UserStatsRepositoryInterface
	jobs      repository.JobRepositoryInterface
	gemini    service.GeminiServiceInterface
	resume    service.ResumeServiceInterface
	questions service.QuestionServiceInterface
	evaluator service.EvaluatorServiceInterface
	ats       service.ATSServiceInterface
	monitor   service.MonitorServiceInterface
	storage   service.StorageServiceInterface
	renderer  service.ReportRendererInterface
	logger    *zap.Logger

	uploadDir  string
	reportsDir string
}

type InterviewUsecaseDeps struct {
	Sessions  *repository.SessionRepository
	Stats     repository.UserStatsRepositoryInterface
	Jobs      repository.JobRepositoryInterface
	Gemini    service.GeminiServiceInterface
	Resume    service.ResumeServiceInterface
	Questions service.QuestionServiceInterface
	Evaluator service.EvaluatorServiceInterface
	ATS       service.ATSServiceInterface
	Monitor   service.MonitorServiceInterface
	Storage   service.StorageServiceInterface
	Renderer  service.ReportRendererInterface
	Logger    *zap.Logger

	UploadDir  string
	ReportsDir string
}

func NewInterviewUsecase(deps InterviewUsecaseDeps) *InterviewUsecase {
	return &InterviewUsecase{
		sessions:   deps.Sessions,
		stats:      deps.Stats,
		jobs:       deps.Jobs,
		gemini:     deps.Gemini,
		resume:     deps.Resume,
		questions:  deps.Questions,
		evaluator:  deps.Evaluator,
		ats:        deps.ATS,
		monitor:    deps.Monitor,
		storage:    deps.Storage,
		renderer:   deps.Renderer,
		logger:     deps.Logger,
		uploadDir:  deps.UploadDir,
		reportsDir: deps.ReportsDir,
	}
}

// CreateSession accepts a resume upload and always yields a session:
// extraction failure degrades to empty resume text, generation failure
// to the default question set.
func (uc *InterviewUsecase) CreateSession(ctx context.Context, resumeBytes []byte, filename string) (*model.Session, error) {
	if err := os.MkdirAll(uc.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create upload dir: %w", err)
	}
	resumePath := filepath.Join(uc.uploadDir, fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(filename)))
	if err := os.WriteFile(resumePath, resumeBytes, 0o644); err != nil {
		return nil, fmt.Errorf("cannot save resume: %w", err)
	}

	resumeText, err := uc.resume.ExtractText(resumePath)
	if err != nil {
		uc.logger.Warn("Resume text extraction failed", zap.Error(err))
		resumeText = ""
	}

	questions, err := uc.questions.GenerateQuestions(ctx, resumeText)
	if err != nil || len(questions) == 0 {
		if err != nil {
			uc.logger.Warn("Question generation failed, using defaults", zap.Error(err))
		}
		questions = service.DefaultQuestions()
	}

	session := model.NewSession(uuid.NewString(), resumePath, resumeText, questions)
	uc.sessions.Create(session)
	uc.logger.Info("Session created",
		zap.String("sessionId", session.ID),
		zap.Int("questions", len(questions)))
	return session, nil
}

// AnswerSubmission is one submit-answer request.
type AnswerSubmission struct {
	SessionID     string
	QuestionIndex int
	Kind          model.AnswerKind
	Answer        string // text and code kinds
	Audio         []byte // audio kind
	AudioMime     string
}

// SubmitAnswer validates the submission, transcribes audio when needed,
// scores through the evaluator chain and appends answer plus evaluation
// as one atomic unit. On validation failure session state is untouched.
func (uc *InterviewUsecase) SubmitAnswer(ctx context.Context, sub AnswerSubmission) (string, *model.Evaluation, error) {
	session, err := uc.sessions.Get(sub.SessionID)
	if err != nil {
		return "", nil, err
	}
	if !sub.Kind.Valid() {
		return "", nil, fmt.Errorf("%w: %q", model.ErrUnsupportedAnswerKind, sub.Kind)
	}
	if sub.QuestionIndex < 0 || sub.QuestionIndex >= len(session.Questions) {
		return "", nil, fmt.Errorf("%w: %d", model.ErrInvalidQuestionIndex, sub.QuestionIndex)
	}

	answer := sub.Answer
	if sub.Kind == model.AnswerKindAudio {
		transcript, err := uc.gemini.TranscribeAudio(ctx, sub.Audio, sub.AudioMime)
		if err != nil {
			uc.logger.Warn("Audio transcription failed, using empty transcript",
				zap.String("sessionId", sub.SessionID), zap.Error(err))
			transcript = ""
		}
		answer = transcript
	}

	question := session.Questions[sub.QuestionIndex]
	evaluation := uc.evaluator.Evaluate(ctx, question, answer, session.ResumeText, sub.Kind)
	session.AppendSubmission(answer, evaluation)

	uc.logger.Info("Answer submitted",
		zap.String("sessionId", sub.SessionID),
		zap.Int("questionIndex", sub.QuestionIndex),
		zap.String("kind", string(sub.Kind)),
		zap.Float64("score", evaluation.OverallScore))
	return answer, evaluation, nil
}

// StartMonitoring schedules the time-boxed background capture and
// records the provisional artifact path so polling can begin right away.
// A second start while one is in flight is rejected.
func (uc *InterviewUsecase) StartMonitoring(sessionID string, durationSeconds int) (string, error) {
	session, err := uc.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	if durationSeconds <= 0 {
		durationSeconds = 180
	}

	provisionalPath, err := uc.monitor.Start(sessionID, time.Duration(durationSeconds)*time.Second, uc.reportsDir)
	if err != nil {
		return "", err
	}
	session.SetMonitoring(&model.MonitoringJob{
		Duration:   durationSeconds,
		ReportPath: provisionalPath,
	})
	return provisionalPath, nil
}

// MonitoringState is the polling response for check-monitoring-status.
type MonitoringState struct {
	Status string             `json:"status"`
	Report *model.StorageMeta `json:"report,omitempty"`
}

// CheckMonitoring is a cheap, non-blocking poll. On first confirmed
// readiness the artifact is persisted and the descriptor attached to the
// session; later calls return the same descriptor without re-uploading.
func (uc *InterviewUsecase) CheckMonitoring(sessionID string) (*MonitoringState, error) {
	session, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	job := session.Monitoring()
	if job == nil {
		return nil, model.ErrMonitoringNotStarted
	}
	if meta := session.MonitoringReport(); meta != nil {
		return &MonitoringState{Status: "ready", Report: meta}, nil
	}

	status := uc.monitor.Status(job.ReportPath)
	if status != service.MonitorReady {
		return &MonitoringState{Status: status.String()}, nil
	}

	meta := uc.storage.Put(job.ReportPath, sessionID)
	session.SetMonitoringReport(meta)
	return &MonitoringState{Status: "ready", Report: meta}, nil
}

// RunATSCheck analyzes the resume against a job description; analyzer
// failure degrades to the fixed neutral result so the operation never
// errors out to the client.
func (uc *InterviewUsecase) RunATSCheck(ctx context.Context, sessionID, jobDescription string) (*model.ATSResult, error) {
	session, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	result, err := uc.ats.Analyze(ctx, session.ResumeText, jobDescription)
	if err != nil {
		uc.logger.Warn("ATS analysis failed, assigning neutral result",
			zap.String("sessionId", sessionID), zap.Error(err))
		result = model.NeutralATSResult()
	}
	session.SetATSResult(result)
	return result, nil
}

// ReportResult is the response of the generate-report operations.
type ReportResult struct {
	ReportPath  string              `json:"report_path"`
	ReportURL   *string             `json:"report_url"`
	Meta        *model.StorageMeta  `json:"report_meta"`
	Evaluations []*model.Evaluation `json:"evaluations,omitempty"`
}

// GenerateReport assembles the session history into the comprehensive
// PDF. Only a rendering failure is fatal; storage unavailability
// degrades to a local-only descriptor.
func (uc *InterviewUsecase) GenerateReport(ctx context.Context, sessionID string) (*ReportResult, error) {
	session, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	answers, evaluations := session.Submissions()
	assessment := uc.finalAssessment(ctx, evaluations, session.ResumeText)

	reportPath, err := uc.renderer.RenderInterviewReport(&service.InterviewReportInput{
		Questions:   session.Questions,
		Answers:     answers,
		Evaluations: evaluations,
		Assessment:  assessment,
		ResumeText:  session.ResumeText,
		OutDir:      uc.reportsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrReportGenerationFailed, err)
	}

	meta := uc.storage.Put(reportPath, sessionID)
	session.SetReport(reportPath, meta)
	return &ReportResult{
		ReportPath:  reportPath,
		ReportURL:   meta.URL,
		Meta:        meta,
		Evaluations: evaluations,
	}, nil
}

// GenerateATSReport renders the ATS-specific report; its lifecycle is
// independent from the main report and requires a prior ATS check.
func (uc *InterviewUsecase) GenerateATSReport(sessionID string) (*ReportResult, error) {
	session, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	result := session.ATSResult()
	if result == nil {
		return nil, model.ErrATSNotRun
	}

	reportPath, err := uc.renderer.RenderATSReport(result, session.ResumeText, uc.reportsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrReportGenerationFailed, err)
	}

	meta := uc.storage.Put(reportPath, sessionID)
	session.SetATSReport(reportPath, meta)
	return &ReportResult{ReportPath: reportPath, ReportURL: meta.URL, Meta: meta}, nil
}

// DownloadTarget tells the transport layer how to serve a report: via a
// signed URL when the artifact lives remotely, otherwise the local path.
type DownloadTarget struct {
	SignedURL *string
	LocalPath string
}

func (uc *InterviewUsecase) DownloadReport(sessionID string) (*DownloadTarget, error) {
	session, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	path, meta := session.Report()
	return downloadTarget(path, meta)
}

func (uc *InterviewUsecase) DownloadATSReport(sessionID string) (*DownloadTarget, error) {
	session, err := uc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	path, meta := session.ATSReport()
	return downloadTarget(path, meta)
}

func downloadTarget(path string, meta *model.StorageMeta) (*DownloadTarget, error) {
	if meta != nil && meta.Storage == "supabase" && meta.URL != nil {
		return &DownloadTarget{SignedURL: meta.URL}, nil
	}
	if path == "" {
		return nil, model.ErrReportNotFound
	}
	if _, err := os.Stat(path); err != nil {
		return nil, model.ErrReportNotFound
	}
	return &DownloadTarget{LocalPath: path}, nil
}

// SaveInterviewResult read-modify-writes the per-user stats record.
func (uc *InterviewUsecase) SaveInterviewResult(userID string, score float64, questionCount int, sessionID string) (*model.UserStats, error) {
	if userID == "" {
		return nil, model.ErrMissingUserID
	}
	stats, err := uc.stats.FindOrInit(userID)
	if err != nil {
		return nil, err
	}

	stats.InterviewsCompleted++
	stats.TotalScore += score
	stats.AverageScore = round2(stats.TotalScore / float64(stats.InterviewsCompleted))
	stats.PushRecent(model.RecentInterview{
		Date:      time.Now().UTC(),
		Score:     score,
		Questions: questionCount,
		SessionID: sessionID,
	})

	if err := uc.stats.Save(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// SaveATSResult records the last ATS score for the user, last write wins.
func (uc *InterviewUsecase) SaveATSResult(userID string, score float64) (*model.UserStats, error) {
	if userID == "" {
		return nil, model.ErrMissingUserID
	}
	stats, err := uc.stats.FindOrInit(userID)
	if err != nil {
		return nil, err
	}
	stats.ATSScore = score
	if err := uc.stats.Save(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// AddJobPosting stores a job description with its embedding in the
// corpus the ATS analyzer retrieves calibration context from.
func (uc *InterviewUsecase) AddJobPosting(ctx context.Context, title, content string) (*model.JobPosting, error) {
	embedding, err := uc.gemini.GenerateEmbedding(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("cannot embed job posting: %w", err)
	}
	job := &model.JobPosting{
		Title:     title,
		Content:   content,
		Embedding: pgvector.NewVector(embedding),
	}
	if err := uc.jobs.CreateJob(job); err != nil {
		return nil, err
	}
	uc.logger.Info("Job posting added", zap.String("title", title))
	return job, nil
}

// RefreshJobEmbeddings backfills embeddings for postings that do not
// have one yet, e.g. after rows were bulk-inserted out of band.
func (uc *InterviewUsecase) RefreshJobEmbeddings(ctx context.Context) (int, error) {
	jobs, err := uc.jobs.GetJobs()
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range jobs {
		if len(jobs[i].Embedding.Slice()) > 0 {
			continue
		}
		embedding, err := uc.gemini.GenerateEmbedding(ctx, jobs[i].Content)
		if err != nil {
			return updated, fmt.Errorf("cannot embed posting %q: %w", jobs[i].Title, err)
		}
		jobs[i].Embedding = pgvector.NewVector(embedding)
		if err := uc.jobs.UpdateJob(&jobs[i]); err != nil {
			return updated, err
		}
		updated++
	}
	uc.logger.Info("Job embeddings refreshed", zap.Int("updated", updated))
	return updated, nil
}

func (uc *InterviewUsecase) GetUserStats(userID string) (*model.UserStats, error) {
	if userID == "" {
		return nil, model.ErrMissingUserID
	}
	return uc.stats.FindOrInit(userID)
}

// finalAssessment asks the model to summarize the interview, with a
// deterministic fallback derived from the average score.
func (uc *InterviewUsecase) finalAssessment(ctx context.Context, evaluations []*model.Evaluation, resumeText string) *model.FinalAssessment {
	var total float64
	summary := ""
	for i, eval := range evaluations {
		total += eval.OverallScore
		summary += fmt.Sprintf("Q%d score: %.0f/100\n", i+1, eval.OverallScore)
	}
	avg := 0.0
	if len(evaluations) > 0 {
		avg = total / float64(len(evaluations))
	}

	prompt := fmt.Sprintf(`
As a senior technical interviewer, provide a final assessment for this candidate.

CANDIDATE BACKGROUND:
%s

INTERVIEW PERFORMANCE SUMMARY:
Average Score: %.1f/100
%s

RESPONSE FORMAT (STRICT JSON ONLY, no markdown, no commentary):
{
  "final_recommendation": "Hire",
  "confidence_level": 7,
  "overall_assessment": "...",
  "key_strengths": ["..."],
  "development_areas": ["..."],
  "technical_level": "Mid",
  "communication_rating": 7,
  "problem_solving_rating": 7,
  "role_fit": "...",
  "next_steps": "..."
}
`, truncateRunes(resumeText, 800), avg, summary)

	text, err := uc.gemini.GenerateContent(ctx, service.DefaultModel, prompt)
	if err == nil {
		var assessment model.FinalAssessment
		if jsonErr := json.Unmarshal([]byte(service.StripCodeFences(text)), &assessment); jsonErr == nil && assessment.OverallAssessment != "" {
			return &assessment
		}
	} else {
		uc.logger.Warn("Final assessment generation failed, using derived assessment", zap.Error(err))
	}

	recommendation := "No Hire"
	if avg >= 50 {
		recommendation = "Maybe"
	}
	level := "Junior"
	if avg >= 60 {
		level = "Mid"
	}
	rating := int(math.Min(10, math.Max(1, avg/10)))
	return &model.FinalAssessment{
		FinalRecommendation:  recommendation,
		ConfidenceLevel:      6,
		OverallAssessment:    fmt.Sprintf("Candidate scored an average of %.1f/100 across all questions.", avg),
		KeyStrengths:         []string{"Participated in all questions", "Showed engagement"},
		DevelopmentAreas:     []string{"Technical depth", "Communication clarity"},
		TechnicalLevel:       level,
		CommunicationRating:  rating,
		ProblemSolvingRating: rating,
		RoleFit:              "Requires additional assessment and potential training",
		NextSteps:            "Additional technical assessment recommended",
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func truncateRunes(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
