package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/careermentor/career-mentor/internal/model"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

type ReportRendererInterface interface {
	RenderInterviewReport(input *InterviewReportInput) (string, error)
	RenderATSReport(result *model.ATSResult, resumeText, outDir string) (string, error)
	RenderMonitoringReport(sessionID string, duration time.Duration, path string) error
}

// InterviewReportInput bundles everything the comprehensive report needs.
type InterviewReportInput struct {
	Questions   []string
	Answers     []string
	Evaluations []*model.Evaluation
	Assessment  *model.FinalAssessment
	ResumeText  string
	OutDir      string
}

// ReportService renders PDF artifacts for the interview, ATS and
// monitoring flows.
type ReportService struct {
	logger *zap.Logger
}

func NewReportService(logger *zap.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) RenderInterviewReport(input *InterviewReportInput) (string, error) {
	if err := os.MkdirAll(input.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create reports dir: %w", err)
	}

	scores := make([]float64, 0, len(input.Evaluations))
	var total float64
	for _, eval := range input.Evaluations {
		scores = append(scores, eval.OverallScore)
		total += eval.OverallScore
	}
	avg := 0.0
	if len(scores) > 0 {
		avg = total / float64(len(scores))
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	// Cover
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "COMPREHENSIVE INTERVIEW ASSESSMENT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.Ln(6)
	pdf.CellFormat(0, 7, fmt.Sprintf("Date: %s", time.Now().Format("Monday, January 2, 2006 at 3:04 PM")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Average Score: %.1f%%", avg), "", 1, "L", false, 0, "")
	pdf.Ln(6)
	pdf.MultiCell(0, 6, cleanTextForPDF(input.Assessment.OverallAssessment), "", "L", false)

	// Key findings
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "KEY STRENGTHS:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, strength := range input.Assessment.KeyStrengths {
		pdf.CellFormat(0, 6, "- "+cleanTextForPDF(strength), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "DEVELOPMENT AREAS:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, area := range input.Assessment.DevelopmentAreas {
		pdf.CellFormat(0, 6, "- "+cleanTextForPDF(area), "", 1, "L", false, 0, "")
	}

	// Question-by-question analysis
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "DETAILED QUESTION ANALYSIS", "", 1, "L", false, 0, "")
	pdf.Ln(6)
	for i, question := range input.Questions {
		if i >= len(input.Answers) || i >= len(input.Evaluations) {
			break
		}
		eval := input.Evaluations[i]
		if pdf.GetY() > 240 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, cleanTextForPDF(fmt.Sprintf("Question %d: %s", i+1, question)), "", "L", false)
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Overall Score: %.0f/100", eval.OverallScore), "", 1, "L", false, 0, "")
		for category, score := range eval.CategoryScores {
			label := strings.Title(strings.ReplaceAll(category, "_", " "))
			pdf.CellFormat(0, 5, fmt.Sprintf("  - %s: %.0f", cleanTextForPDF(label), score), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 5, "Candidate's Answer:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, cleanTextForPDF(truncate(input.Answers[i], 400)), "", "L", false)
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 9)
		explanation := eval.DetailedExplanation
		if explanation == "" {
			explanation = eval.DetailedFeedback
		}
		pdf.MultiCell(0, 5, cleanTextForPDF(explanation), "", "L", false)
		if len(eval.ImprovementSuggestions) > 0 {
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(0, 5, "Improvement Suggestions:", "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			for _, suggestion := range capSlice(eval.ImprovementSuggestions, 5) {
				pdf.MultiCell(0, 5, " - "+cleanTextForPDF(suggestion), "", "L", false)
			}
		}
		pdf.Ln(4)
	}

	// Final recommendations
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "FINAL RECOMMENDATIONS", "", 1, "L", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, cleanTextForPDF(fmt.Sprintf("Recommendation: %s (confidence %d/10)",
		input.Assessment.FinalRecommendation, input.Assessment.ConfidenceLevel)), "", "L", false)
	pdf.MultiCell(0, 6, cleanTextForPDF("Next steps: "+input.Assessment.NextSteps), "", "L", false)

	reportPath := filepath.Join(input.OutDir,
		fmt.Sprintf("comprehensive_interview_report_%s.pdf", time.Now().Format("20060102_150405")))
	if err := pdf.OutputFileAndClose(reportPath); err != nil {
		return "", fmt.Errorf("error writing PDF: %w", err)
	}
	s.logger.Info("Interview report generated", zap.String("path", reportPath))
	return reportPath, nil
}

func (s *ReportService) RenderATSReport(result *model.ATSResult, resumeText, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create reports dir: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "ATS COMPATIBILITY REPORT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.Ln(6)
	pdf.CellFormat(0, 7, fmt.Sprintf("Date: %s", time.Now().Format("January 2, 2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("ATS Score: %.0f/100", result.OverallScore), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.MultiCell(0, 6, cleanTextForPDF(result.Summary), "", "L", false)

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "MATCHED KEYWORDS:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, cleanTextForPDF(strings.Join(result.MatchedKeywords, ", ")), "", "L", false)

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "MISSING KEYWORDS:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, cleanTextForPDF(strings.Join(result.MissingKeywords, ", ")), "", "L", false)

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "SECTION FEEDBACK:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for section, feedback := range result.SectionFeedback {
		pdf.MultiCell(0, 5, cleanTextForPDF(fmt.Sprintf("%s: %s", strings.Title(section), feedback)), "", "L", false)
	}

	reportPath := filepath.Join(outDir,
		fmt.Sprintf("ats_report_%s.pdf", time.Now().Format("20060102_150405")))
	if err := pdf.OutputFileAndClose(reportPath); err != nil {
		return "", fmt.Errorf("error writing PDF: %w", err)
	}
	s.logger.Info("ATS report generated", zap.String("path", reportPath))
	return reportPath, nil
}

// RenderMonitoringReport writes the artifact produced at the end of a
// monitoring capture window.
func (s *ReportService) RenderMonitoringReport(sessionID string, duration time.Duration, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create reports dir: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, "SESSION MONITORING REPORT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.Ln(6)
	pdf.CellFormat(0, 7, fmt.Sprintf("Session: %s", sessionID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Capture window: %s", duration), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Completed: %s", time.Now().Format(time.RFC1123)), "", 1, "L", false, 0, "")

	return pdf.OutputFileAndClose(path)
}

var pdfReplacements = strings.NewReplacer(
	"•", "- ", "✓", "+ ", "✗", "- ", "→", "-> ", "←", "<- ",
	"…", "...", "–", "-", "—", "-",
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
)

// cleanTextForPDF strips characters the core fonts cannot encode.
func cleanTextForPDF(text string) string {
	text = pdfReplacements.Replace(text)
	var b strings.Builder
	for _, r := range text {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func capSlice(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
