package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/careermentor/career-mentor/internal/model"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// fallbackScore is the baseline for exhausted evaluator chains. The
// legacy behavior scored audio submissions 0 here; a single baseline is
// used for every path now.
const fallbackScore = 50

type EvaluatorServiceInterface interface {
	Evaluate(ctx context.Context, question, answer, resumeContext string, kind model.AnswerKind) *model.Evaluation
}

// EvaluatorService scores an answer through an ordered chain of
// strategies, first success wins, and never fails the caller: when the
// whole chain is exhausted it returns a fixed safe record instead.
type EvaluatorService struct {
	gemini GeminiServiceInterface
	logger *zap.Logger
}

func NewEvaluatorService(gemini GeminiServiceInterface, logger *zap.Logger) *EvaluatorService {
	return &EvaluatorService{gemini: gemini, logger: logger}
}

type evaluatorStrategy struct {
	name string
	run  func(ctx context.Context) (any, error)
}

func (s *EvaluatorService) Evaluate(ctx context.Context, question, answer, resumeContext string, kind model.AnswerKind) *model.Evaluation {
	var chain []evaluatorStrategy
	if kind == model.AnswerKindCode {
		chain = []evaluatorStrategy{
			{"code", func(ctx context.Context) (any, error) {
				return s.evaluateCode(ctx, question, answer, resumeContext)
			}},
			{"general", func(ctx context.Context) (any, error) {
				return s.evaluateGeneral(ctx, question, answer, resumeContext)
			}},
		}
	} else {
		chain = []evaluatorStrategy{
			{"general", func(ctx context.Context) (any, error) {
				return s.evaluateGeneral(ctx, question, answer, resumeContext)
			}},
			{"baseline", func(ctx context.Context) (any, error) {
				return s.evaluateBaseline(ctx, answer)
			}},
		}
	}

	var lastErr error
	for _, strategy := range chain {
		raw, err := strategy.run(ctx)
		if err != nil {
			s.logger.Warn("Evaluator strategy failed",
				zap.String("strategy", strategy.name),
				zap.String("kind", string(kind)),
				zap.Error(err))
			lastErr = err
			continue
		}
		return Normalize(raw, "Evaluation fallback used")
	}

	return &model.Evaluation{
		OverallScore:     fallbackScore,
		CategoryScores:   map[string]float64{},
		Strengths:        []string{},
		Weaknesses:       []string{"Evaluation failed"},
		DetailedFeedback: lastErr.Error(),
	}
}

func (s *EvaluatorService) evaluateGeneral(ctx context.Context, question, answer, resumeContext string) (any, error) {
	prompt := fmt.Sprintf(`
As an expert technical interviewer, evaluate this candidate's answer comprehensively.

QUESTION: %s

CANDIDATE'S ANSWER: %s

CANDIDATE BACKGROUND: %s

EVALUATION CRITERIA:
1. Technical Accuracy (0-25 points)
2. Completeness & Depth (0-25 points)
3. Communication Clarity (0-20 points)
4. Problem-Solving Approach (0-20 points)
5. Relevance to Role (0-10 points)

RESPONSE FORMAT (STRICT JSON ONLY, no markdown, no commentary):
{
  "overall_score": 75,
  "category_scores": {"technical_accuracy": 18, "completeness": 20, "communication": 15, "problem_solving": 16, "relevance": 6},
  "strengths": ["..."],
  "weaknesses": ["..."],
  "detailed_feedback": "...",
  "detailed_explanation": "...",
  "improvement_suggestions": ["..."],
  "interviewer_notes": "...",
  "follow_up_questions": ["..."]
}
`, question, answer, truncate(resumeContext, 500))

	return s.gemini.GenerateContent(ctx, DefaultModel, prompt)
}

func (s *EvaluatorService) evaluateCode(ctx context.Context, question, code, resumeContext string) (any, error) {
	prompt := fmt.Sprintf(`
As a senior software engineering interviewer, evaluate the candidate's coding solution.

QUESTION: %s

CANDIDATE'S CODE:
%s

CANDIDATE BACKGROUND: %s

EVALUATION CRITERIA:
1. Correctness (0-40 points)
2. Efficiency (0-20 points)
3. Code Quality (0-15 points)
4. Edge Cases (0-15 points)
5. Communication (0-10 points)

RESPONSE FORMAT (STRICT JSON ONLY, no markdown, no commentary):
{
  "overall_score": 80,
  "category_scores": {"correctness": 30, "efficiency": 15, "code_quality": 12, "edge_cases": 10, "communication": 8},
  "strengths": ["..."],
  "weaknesses": ["..."],
  "detailed_feedback": "...",
  "detailed_explanation": "...",
  "improvement_suggestions": ["..."],
  "interviewer_notes": "...",
  "follow_up_questions": ["..."]
}
`, question, code, truncate(resumeContext, 500))

	return s.gemini.GenerateContent(ctx, DefaultModel, prompt)
}

// evaluateBaseline scores the answer on its own, with no question or
// resume context. Last resort before the fixed fallback record.
func (s *EvaluatorService) evaluateBaseline(ctx context.Context, answer string) (any, error) {
	prompt := fmt.Sprintf(`
Rate the following interview answer on overall quality.

ANSWER: %s

RESPONSE FORMAT (STRICT JSON ONLY):
{
  "overall_score": 60,
  "category_scores": {},
  "strengths": ["..."],
  "weaknesses": ["..."],
  "detailed_feedback": "...",
  "detailed_explanation": "..."
}
`, answer)

	return s.gemini.GenerateContent(ctx, DefaultModel, prompt)
}

// Normalize coerces any evaluator output into the canonical record. A
// record already in canonical shape passes through with missing fields
// filled; a string is parsed as JSON when possible and otherwise wrapped;
// anything else is stringified and wrapped.
func Normalize(raw any, fallbackNote string) *model.Evaluation {
	switch v := raw.(type) {
	case *model.Evaluation:
		if v != nil {
			fillDefaults(v)
			return v
		}
	case model.Evaluation:
		fillDefaults(&v)
		return &v
	case map[string]any:
		if encoded, err := json.Marshal(v); err == nil {
			if eval := parseEvaluation(string(encoded)); eval != nil {
				return eval
			}
		}
	case string:
		if eval := parseEvaluation(v); eval != nil {
			return eval
		}
		return wrapText(v, fallbackNote)
	}
	return wrapText(fmt.Sprintf("%v", raw), fallbackNote)
}

func parseEvaluation(text string) *model.Evaluation {
	trimmed := StripCodeFences(text)
	if trimmed == "" || !gjson.Valid(trimmed) || !gjson.Parse(trimmed).IsObject() {
		return nil
	}
	var eval model.Evaluation
	if err := json.Unmarshal([]byte(trimmed), &eval); err != nil {
		return nil
	}
	// Reject objects that carry none of the canonical keys.
	if !gjson.Get(trimmed, "overall_score").Exists() && !gjson.Get(trimmed, "detailed_feedback").Exists() {
		return nil
	}
	fillDefaults(&eval)
	return &eval
}

func wrapText(text, fallbackNote string) *model.Evaluation {
	feedback := text
	if feedback == "" {
		feedback = fallbackNote
	}
	return &model.Evaluation{
		OverallScore:        fallbackScore,
		CategoryScores:      map[string]float64{},
		Strengths:           []string{},
		Weaknesses:          []string{"No evaluation returned"},
		DetailedFeedback:    feedback,
		DetailedExplanation: "No structured evaluation returned from model.",
	}
}

func fillDefaults(eval *model.Evaluation) {
	if eval.CategoryScores == nil {
		eval.CategoryScores = map[string]float64{}
	}
	if eval.Strengths == nil {
		eval.Strengths = []string{}
	}
	if eval.Weaknesses == nil {
		eval.Weaknesses = []string{}
	}
	if eval.DetailedFeedback == "" {
		eval.DetailedFeedback = eval.DetailedExplanation
	}
	if eval.DetailedExplanation == "" {
		eval.DetailedExplanation = fmt.Sprintf(
			"This answer received a score of %.0f/100 based on technical accuracy, completeness, communication clarity, problem-solving approach, and relevance to the role.",
			eval.OverallScore)
	}
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
