package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/careermentor/career-mentor/internal/model"
	"github.com/careermentor/career-mentor/internal/repository"
	"github.com/careermentor/career-mentor/internal/service"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- fakes ----

type fakeGemini struct {
	contentText  string
	contentErr   error
	transcript   string
	audioErr     error
	embedding    []float32
	embeddingErr error
}

func (f *fakeGemini) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	return f.contentText, f.contentErr
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.embeddingErr != nil {
		return nil, f.embeddingErr
	}
	if f.embedding == nil {
		return nil, errors.New("not scripted")
	}
	return f.embedding, nil
}

func (f *fakeGemini) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f.transcript, f.audioErr
}

type fakeResume struct {
	text string
	err  error
}

func (f *fakeResume) ExtractText(path string) (string, error) { return f.text, f.err }

type fakeQuestions struct {
	questions []string
	err       error
}

func (f *fakeQuestions) GenerateQuestions(ctx context.Context, resumeText string) ([]string, error) {
	return f.questions, f.err
}

type fakeEvaluator struct {
	score float64
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, question, answer, resumeContext string, kind model.AnswerKind) *model.Evaluation {
	return &model.Evaluation{
		OverallScore:     f.score,
		CategoryScores:   map[string]float64{},
		Strengths:        []string{},
		Weaknesses:       []string{},
		DetailedFeedback: "scripted",
	}
}

type fakeATS struct {
	result *model.ATSResult
	err    error
}

func (f *fakeATS) Analyze(ctx context.Context, resumeText, jobDescription string) (*model.ATSResult, error) {
	return f.result, f.err
}

type fakeMonitor struct {
	status   service.MonitorStatus
	startErr error
	path     string
	starts   int
}

func (f *fakeMonitor) Start(sessionID string, duration time.Duration, outDir string) (string, error) {
	f.starts++
	if f.startErr != nil {
		return "", f.startErr
	}
	if f.path == "" {
		f.path = filepath.Join(outDir, "monitoring_report_"+sessionID+".pdf")
	}
	return f.path, nil
}

func (f *fakeMonitor) Status(provisionalPath string) service.MonitorStatus { return f.status }

type fakeStorage struct {
	puts int
}

func (f *fakeStorage) Put(localPath, sessionID string) *model.StorageMeta {
	f.puts++
	return &model.StorageMeta{Storage: "local", Path: localPath, URL: nil}
}

type fakeRenderer struct {
	interviewErr error
	atsErr       error
}

func (f *fakeRenderer) RenderInterviewReport(input *service.InterviewReportInput) (string, error) {
	if f.interviewErr != nil {
		return "", f.interviewErr
	}
	path := filepath.Join(input.OutDir, "comprehensive_interview_report_test.pdf")
	return path, os.WriteFile(path, []byte("pdf"), 0o644)
}

func (f *fakeRenderer) RenderATSReport(result *model.ATSResult, resumeText, outDir string) (string, error) {
	if f.atsErr != nil {
		return "", f.atsErr
	}
	path := filepath.Join(outDir, "ats_report_test.pdf")
	return path, os.WriteFile(path, []byte("pdf"), 0o644)
}

func (f *fakeRenderer) RenderMonitoringReport(sessionID string, duration time.Duration, path string) error {
	return os.WriteFile(path, []byte("pdf"), 0o644)
}

type fakeJobs struct {
	postings []model.JobPosting
	updates  int
}

func (f *fakeJobs) SearchJobs(embedding pgvector.Vector, topK int) ([]model.JobPosting, error) {
	if topK > len(f.postings) {
		topK = len(f.postings)
	}
	return f.postings[:topK], nil
}

func (f *fakeJobs) CreateJob(job *model.JobPosting) error {
	f.postings = append(f.postings, *job)
	return nil
}

func (f *fakeJobs) UpdateJob(job *model.JobPosting) error {
	f.updates++
	for i := range f.postings {
		if f.postings[i].Title == job.Title {
			f.postings[i] = *job
		}
	}
	return nil
}

func (f *fakeJobs) GetJobs() ([]model.JobPosting, error) {
	out := make([]model.JobPosting, len(f.postings))
	copy(out, f.postings)
	return out, nil
}

type fakeStats struct {
	records map[string]*model.UserStats
	saves   int
}

func newFakeStats() *fakeStats {
	return &fakeStats{records: make(map[string]*model.UserStats)}
}

func (f *fakeStats) FindOrInit(userID string) (*model.UserStats, error) {
	if stats, ok := f.records[userID]; ok {
		clone := *stats
		return &clone, nil
	}
	return &model.UserStats{UserID: userID, RecentInterviews: "[]"}, nil
}

func (f *fakeStats) Save(stats *model.UserStats) error {
	clone := *stats
	f.records[stats.UserID] = &clone
	f.saves++
	return nil
}

func (f *fakeStats) Find(userID string) (*model.UserStats, error) {
	stats, ok := f.records[userID]
	if !ok {
		return nil, errors.New("record not found")
	}
	return stats, nil
}

type ucFixture struct {
	uc        *InterviewUsecase
	sessions  *repository.SessionRepository
	stats     *fakeStats
	jobs      *fakeJobs
	gemini    *fakeGemini
	resume    *fakeResume
	questions *fakeQuestions
	monitor   *fakeMonitor
	storage   *fakeStorage
	renderer  *fakeRenderer
	ats       *fakeATS
}

func newFixture(t *testing.T) *ucFixture {
	t.Helper()
	f := &ucFixture{
		sessions:  repository.NewSessionRepository(),
		stats:     newFakeStats(),
		jobs:      &fakeJobs{},
		gemini:    &fakeGemini{contentErr: errors.New("model offline")},
		resume:    &fakeResume{text: "resume text"},
		questions: &fakeQuestions{questions: []string{"Q1", "Q2"}},
		monitor:   &fakeMonitor{status: service.MonitorRunning},
		storage:   &fakeStorage{},
		renderer:  &fakeRenderer{},
		ats:       &fakeATS{result: &model.ATSResult{OverallScore: 77, SectionFeedback: map[string]string{}}},
	}
	f.uc = NewInterviewUsecase(InterviewUsecaseDeps{
		Sessions:   f.sessions,
		Stats:      f.stats,
		Jobs:       f.jobs,
		Gemini:     f.gemini,
		Resume:     f.resume,
		Questions:  f.questions,
		Evaluator:  &fakeEvaluator{score: 70},
		ATS:        f.ats,
		Monitor:    f.monitor,
		Storage:    f.storage,
		Renderer:   f.renderer,
		Logger:     zap.NewNop(),
		UploadDir:  t.TempDir(),
		ReportsDir: t.TempDir(),
	})
	return f
}

func (f *ucFixture) createSession(t *testing.T) *model.Session {
	t.Helper()
	session, err := f.uc.CreateSession(context.Background(), []byte("%PDF-1.4"), "resume.pdf")
	require.NoError(t, err)
	return session
}

// ---- tests ----

func TestCreateSessionSavesResumeAndQuestions(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, []string{"Q1", "Q2"}, session.Questions)
	assert.FileExists(t, session.ResumePath)
	assert.Equal(t, "resume text", session.ResumeText)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestCreateSessionExtractionFailureUsesDefaults(t *testing.T) {
	f := newFixture(t)
	f.resume.err = errors.New("corrupt pdf")
	f.resume.text = ""
	f.questions.err = errors.New("no resume text")
	f.questions.questions = nil

	session := f.createSession(t)

	assert.Equal(t, "", session.ResumeText)
	assert.Equal(t, service.DefaultQuestions(), session.Questions)
	assert.Len(t, session.Questions, 3)
}

func TestCreateSessionEmptyQuestionListUsesDefaults(t *testing.T) {
	f := newFixture(t)
	f.questions.questions = []string{}

	session := f.createSession(t)
	assert.Equal(t, service.DefaultQuestions(), session.Questions)
}

func TestSubmitAnswerAppendsPairedRecords(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	answer, eval, err := f.uc.SubmitAnswer(context.Background(), AnswerSubmission{
		SessionID:     session.ID,
		QuestionIndex: 0,
		Kind:          model.AnswerKindText,
		Answer:        "my answer",
	})
	require.NoError(t, err)
	assert.Equal(t, "my answer", answer)
	assert.Equal(t, float64(70), eval.OverallScore)

	answers, evaluations := session.Submissions()
	assert.Len(t, answers, 1)
	assert.Len(t, evaluations, 1)
}

func TestSubmitAnswerInvalidIndexLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	for _, index := range []int{-1, len(session.Questions)} {
		_, _, err := f.uc.SubmitAnswer(context.Background(), AnswerSubmission{
			SessionID:     session.ID,
			QuestionIndex: index,
			Kind:          model.AnswerKindText,
			Answer:        "out of range",
		})
		assert.ErrorIs(t, err, model.ErrInvalidQuestionIndex)
	}

	answers, evaluations := session.Submissions()
	assert.Empty(t, answers)
	assert.Empty(t, evaluations)
}

func TestSubmitAnswerUnsupportedKind(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	_, _, err := f.uc.SubmitAnswer(context.Background(), AnswerSubmission{
		SessionID:     session.ID,
		QuestionIndex: 0,
		Kind:          model.AnswerKind("video"),
		Answer:        "x",
	})
	assert.ErrorIs(t, err, model.ErrUnsupportedAnswerKind)
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.uc.SubmitAnswer(context.Background(), AnswerSubmission{
		SessionID: "nope",
		Kind:      model.AnswerKindText,
	})
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSubmitAnswerAudioTranscriptionFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.gemini.audioErr = errors.New("transcription service down")
	session := f.createSession(t)

	answer, eval, err := f.uc.SubmitAnswer(context.Background(), AnswerSubmission{
		SessionID:     session.ID,
		QuestionIndex: 0,
		Kind:          model.AnswerKindAudio,
		Audio:         []byte{1, 2, 3},
		AudioMime:     "audio/wav",
	})
	require.NoError(t, err)
	assert.Equal(t, "", answer)
	require.NotNil(t, eval)

	answers, _ := session.Submissions()
	assert.Equal(t, []string{""}, answers)
}

func TestSubmitAnswerAudioUsesTranscript(t *testing.T) {
	f := newFixture(t)
	f.gemini.transcript = "spoken words"
	session := f.createSession(t)

	answer, _, err := f.uc.SubmitAnswer(context.Background(), AnswerSubmission{
		SessionID:     session.ID,
		QuestionIndex: 1,
		Kind:          model.AnswerKindAudio,
		Audio:         []byte{1},
	})
	require.NoError(t, err)
	assert.Equal(t, "spoken words", answer)
}

func TestStartMonitoringRecordsProvisionalPath(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	path, err := f.uc.StartMonitoring(session.ID, 120)
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	job := session.Monitoring()
	require.NotNil(t, job)
	assert.Equal(t, 120, job.Duration)
	assert.Equal(t, path, job.ReportPath)
}

func TestStartMonitoringDefaultsDuration(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	_, err := f.uc.StartMonitoring(session.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 180, session.Monitoring().Duration)
}

func TestCheckMonitoringBeforeStart(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	_, err := f.uc.CheckMonitoring(session.ID)
	assert.ErrorIs(t, err, model.ErrMonitoringNotStarted)
}

func TestCheckMonitoringRunningHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)
	_, err := f.uc.StartMonitoring(session.ID, 60)
	require.NoError(t, err)

	state, err := f.uc.CheckMonitoring(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "running", state.Status)
	assert.Nil(t, state.Report)
	assert.Equal(t, 0, f.storage.puts)
	assert.Nil(t, session.MonitoringReport())
}

func TestCheckMonitoringReadyStoresOnce(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)
	_, err := f.uc.StartMonitoring(session.ID, 60)
	require.NoError(t, err)

	f.monitor.status = service.MonitorReady

	state, err := f.uc.CheckMonitoring(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "ready", state.Status)
	require.NotNil(t, state.Report)
	assert.Equal(t, 1, f.storage.puts)

	// Polling again after absorption must not re-upload.
	again, err := f.uc.CheckMonitoring(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "ready", again.Status)
	assert.Equal(t, state.Report, again.Report)
	assert.Equal(t, 1, f.storage.puts)
}

func TestCheckMonitoringFailed(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)
	_, err := f.uc.StartMonitoring(session.ID, 60)
	require.NoError(t, err)

	f.monitor.status = service.MonitorFailed

	state, err := f.uc.CheckMonitoring(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", state.Status)
	assert.Nil(t, state.Report)
	assert.Equal(t, 0, f.storage.puts)
}

func TestRunATSCheckSuccess(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	result, err := f.uc.RunATSCheck(context.Background(), session.ID, "Go developer")
	require.NoError(t, err)
	assert.Equal(t, float64(77), result.OverallScore)
	assert.Same(t, result, session.ATSResult())
}

func TestRunATSCheckFailureAssignsNeutralResult(t *testing.T) {
	f := newFixture(t)
	f.ats.result = nil
	f.ats.err = errors.New("analyzer down")
	session := f.createSession(t)

	result, err := f.uc.RunATSCheck(context.Background(), session.ID, "Go developer")
	require.NoError(t, err)
	assert.Equal(t, float64(50), result.OverallScore)
	assert.Contains(t, result.SectionFeedback, "format")
	assert.Contains(t, result.SectionFeedback, "keywords")
	assert.Contains(t, result.SectionFeedback, "experience")
	assert.Contains(t, result.SectionFeedback, "skills")
}

func TestGenerateReportLocalDescriptor(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)
	_, _, err := f.uc.SubmitAnswer(context.Background(), AnswerSubmission{
		SessionID: session.ID, QuestionIndex: 0, Kind: model.AnswerKindText, Answer: "a",
	})
	require.NoError(t, err)

	result, err := f.uc.GenerateReport(context.Background(), session.ID)
	require.NoError(t, err)
	assert.FileExists(t, result.ReportPath)
	assert.Nil(t, result.ReportURL)
	assert.Equal(t, "local", result.Meta.Storage)
	assert.Len(t, result.Evaluations, 1)
}

func TestGenerateReportRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.renderer.interviewErr = errors.New("pdf writer broke")
	session := f.createSession(t)

	_, err := f.uc.GenerateReport(context.Background(), session.ID)
	assert.ErrorIs(t, err, model.ErrReportGenerationFailed)
}

func TestGenerateATSReportRequiresPriorCheck(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	_, err := f.uc.GenerateATSReport(session.ID)
	assert.ErrorIs(t, err, model.ErrATSNotRun)
}

func TestGenerateATSReportAfterCheck(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)
	_, err := f.uc.RunATSCheck(context.Background(), session.ID, "Go developer")
	require.NoError(t, err)

	result, err := f.uc.GenerateATSReport(session.ID)
	require.NoError(t, err)
	assert.FileExists(t, result.ReportPath)
}

func TestDownloadReportNotGenerated(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)

	_, err := f.uc.DownloadReport(session.ID)
	assert.ErrorIs(t, err, model.ErrReportNotFound)
}

func TestDownloadReportLocalPath(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)
	generated, err := f.uc.GenerateReport(context.Background(), session.ID)
	require.NoError(t, err)

	target, err := f.uc.DownloadReport(session.ID)
	require.NoError(t, err)
	assert.Nil(t, target.SignedURL)
	assert.Equal(t, generated.ReportPath, target.LocalPath)
}

func TestDownloadReportPrefersSignedURL(t *testing.T) {
	f := newFixture(t)
	session := f.createSession(t)
	url := "https://example.supabase.co/storage/v1/object/sign/careerMentor/x"
	session.SetReport("reports/report.pdf", &model.StorageMeta{
		Storage: "supabase", Path: session.ID + "/report.pdf", URL: &url,
	})

	target, err := f.uc.DownloadReport(session.ID)
	require.NoError(t, err)
	require.NotNil(t, target.SignedURL)
	assert.Equal(t, url, *target.SignedURL)
}

func TestSaveInterviewResultAccumulates(t *testing.T) {
	f := newFixture(t)

	first, err := f.uc.SaveInterviewResult("user-1", 80, 5, "sess-a")
	require.NoError(t, err)
	assert.Equal(t, 1, first.InterviewsCompleted)
	assert.Equal(t, float64(80), first.AverageScore)

	second, err := f.uc.SaveInterviewResult("user-1", 65, 3, "sess-b")
	require.NoError(t, err)
	assert.Equal(t, 2, second.InterviewsCompleted)
	assert.Equal(t, 72.5, second.AverageScore)

	recent := second.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "sess-b", recent[0].SessionID)
	assert.Equal(t, "sess-a", recent[1].SessionID)
}

func TestSaveInterviewResultRoundsAverage(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.SaveInterviewResult("user-2", 70, 3, "s1")
	require.NoError(t, err)
	_, err = f.uc.SaveInterviewResult("user-2", 70, 3, "s2")
	require.NoError(t, err)
	stats, err := f.uc.SaveInterviewResult("user-2", 80, 3, "s3")
	require.NoError(t, err)

	assert.Equal(t, 73.33, stats.AverageScore)
}

func TestSaveInterviewResultMissingUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.SaveInterviewResult("", 80, 5, "sess")
	assert.ErrorIs(t, err, model.ErrMissingUserID)
	assert.Equal(t, 0, f.stats.saves)
}

func TestSaveATSResultLastWriteWins(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.SaveATSResult("user-3", 60)
	require.NoError(t, err)
	stats, err := f.uc.SaveATSResult("user-3", 85)
	require.NoError(t, err)

	assert.Equal(t, float64(85), stats.ATSScore)
	assert.Equal(t, 0, stats.InterviewsCompleted)
}

func TestGetUserStatsMissingUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.GetUserStats("")
	assert.ErrorIs(t, err, model.ErrMissingUserID)
}

func TestAddJobPostingEmbedsAndStores(t *testing.T) {
	f := newFixture(t)
	f.gemini.embedding = []float32{0.1, 0.2, 0.3}

	job, err := f.uc.AddJobPosting(context.Background(), "Backend Engineer", "Go, Postgres, Docker")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, job.Embedding.Slice())
	require.Len(t, f.jobs.postings, 1)
}

func TestAddJobPostingEmbeddingFailure(t *testing.T) {
	f := newFixture(t)
	f.gemini.embeddingErr = errors.New("quota exceeded")

	_, err := f.uc.AddJobPosting(context.Background(), "Backend Engineer", "Go")
	assert.Error(t, err)
	assert.Empty(t, f.jobs.postings)
}

func TestRefreshJobEmbeddingsOnlyBackfillsMissing(t *testing.T) {
	f := newFixture(t)
	f.gemini.embedding = []float32{0.5, 0.5}
	f.jobs.postings = []model.JobPosting{
		{Title: "has embedding", Content: "x", Embedding: pgvector.NewVector([]float32{1, 2})},
		{Title: "missing embedding", Content: "y"},
	}

	updated, err := f.uc.RefreshJobEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, f.jobs.updates)
}
