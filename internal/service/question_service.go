package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const maxGeneratedQuestions = 5

type QuestionServiceInterface interface {
	GenerateQuestions(ctx context.Context, resumeText string) ([]string, error)
}

// QuestionService derives interview questions from resume text.
type QuestionService struct {
	gemini GeminiServiceInterface
	logger *zap.Logger
}

func NewQuestionService(gemini GeminiServiceInterface, logger *zap.Logger) *QuestionService {
	return &QuestionService{gemini: gemini, logger: logger}
}

func (s *QuestionService) GenerateQuestions(ctx context.Context, resumeText string) ([]string, error) {
	prompt := fmt.Sprintf(`
As an expert technical interviewer, analyze the following resume and generate exactly 5 highly relevant, industry-standard interview questions tailored to the candidate's background:

RESUME:
%s

REQUIREMENTS:
- Generate exactly 5 questions
- 3 theoretical/conceptual questions related to their field
- 2 coding/problem-solving questions
- Questions should be easy but fair
- Focus on their mentioned skills and experience level
- Do not include any introduction text or explanatory headers
- Start directly with Question 1

FORMAT:
1. [First theoretical question]
2. [Second theoretical question]
3. [Third theoretical question]
4. [First coding question]
5. [Second coding question]

Return ONLY the numbered questions, nothing else:
`, resumeText)

	text, err := s.gemini.GenerateContent(ctx, DefaultModel, prompt)
	if err != nil {
		return nil, err
	}

	questions := ParseQuestions(text)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions parsed from model output")
	}
	s.logger.Info("Generated questions from resume", zap.Int("count", len(questions)))
	return questions, nil
}

var numberedLine = regexp.MustCompile(`^\d+\.`)

// ParseQuestions extracts numbered questions from model output, dropping
// headers and any introductory chatter.
func ParseQuestions(text string) []string {
	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLine.MatchString(line) && !strings.HasPrefix(line, "**") {
			continue
		}
		question := numberedLine.ReplaceAllString(line, "")
		question = regexp.MustCompile(`^\*\*[^*]*\*\*:?\s*`).ReplaceAllString(question, "")
		question = strings.TrimSpace(question)

		if len(question) <= 20 {
			continue
		}
		lower := strings.ToLower(question)
		skip := false
		for _, skipWord := range []string{"here are", "questions for", "tailored to", "interview questions"} {
			if strings.Contains(lower, skipWord) {
				skip = true
				break
			}
		}
		if !skip {
			questions = append(questions, question)
		}
	}
	if len(questions) > maxGeneratedQuestions {
		questions = questions[:maxGeneratedQuestions]
	}
	return questions
}

// DefaultQuestions is the fixed fallback set used when extraction or
// generation fails - uploading a resume must always yield a session.
func DefaultQuestions() []string {
	return []string{
		"Tell me about yourself",
		"Describe a project you built",
		"Explain a technical challenge you solved",
	}
}
