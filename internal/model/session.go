package model

import (
	"sync"
	"time"
)

// MonitoringJob records an in-flight or finished monitoring capture.
type MonitoringJob struct {
	Duration   int    `json:"duration"`
	ReportPath string `json:"report_path"`
}

// StorageMeta describes where a generated artifact ended up.
// URL is only set for remote storage and is a time-limited signed link.
type StorageMeta struct {
	Storage string  `json:"storage"` // "local" or "supabase"
	Path    string  `json:"path"`
	URL     *string `json:"url"`
}

// Session is the unit of orchestration. Questions are fixed at creation;
// Answers and Evaluations are append-only and always equal in length.
// Every mutation goes through the methods below, which hold the
// per-session mutex. Sessions live only in process memory.
type Session struct {
	ID         string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	ResumePath string    `json:"resume_path"`
	ResumeText string    `json:"-"`
	Questions  []string  `json:"questions"`

	mu          sync.Mutex
	answers     []string
	evaluations []*Evaluation

	monitoring       *MonitoringJob
	monitoringReport *StorageMeta

	reportPath string
	reportMeta *StorageMeta

	atsResult     *ATSResult
	atsReportPath string
	atsReportMeta *StorageMeta
}

func NewSession(id, resumePath, resumeText string, questions []string) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		ResumePath: resumePath,
		ResumeText: resumeText,
		Questions:  questions,
	}
}

// AppendSubmission records an answer and its evaluation as one atomic unit,
// so the two sequences can never skew under concurrent submissions.
func (s *Session) AppendSubmission(answer string, eval *Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, answer)
	s.evaluations = append(s.evaluations, eval)
}

// Submissions returns copies of the answer and evaluation sequences.
func (s *Session) Submissions() ([]string, []*Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make([]string, len(s.answers))
	copy(answers, s.answers)
	evals := make([]*Evaluation, len(s.evaluations))
	copy(evals, s.evaluations)
	return answers, evals
}

func (s *Session) SubmissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// SetMonitoring attaches a freshly started monitoring job and resets any
// previously absorbed report. In-flight rejection is the runner's job.
func (s *Session) SetMonitoring(job *MonitoringJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitoring = job
	s.monitoringReport = nil
}

func (s *Session) Monitoring() *MonitoringJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitoring
}

func (s *Session) MonitoringReport() *StorageMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitoringReport
}

func (s *Session) SetMonitoringReport(meta *StorageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitoringReport = meta
}

func (s *Session) SetReport(path string, meta *StorageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportPath = path
	s.reportMeta = meta
}

func (s *Session) Report() (string, *StorageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportPath, s.reportMeta
}

func (s *Session) SetATSResult(result *ATSResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atsResult = result
}

func (s *Session) ATSResult() *ATSResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atsResult
}

func (s *Session) SetATSReport(path string, meta *StorageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atsReportPath = path
	s.atsReportMeta = meta
}

func (s *Session) ATSReport() (string, *StorageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atsReportPath, s.atsReportMeta
}
