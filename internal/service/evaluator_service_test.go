package service

import (
	"context"
	"errors"
	"testing"

	"github.com/careermentor/career-mentor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGemini scripts GenerateContent responses in order; an entry with a
// non-nil error simulates a failed strategy call.
type fakeGemini struct {
	responses []fakeGeminiResponse
	calls     int
	prompts   []string
}

type fakeGeminiResponse struct {
	text string
	err  error
}

func (f *fakeGemini) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.calls >= len(f.responses) {
		return "", errors.New("no scripted response")
	}
	r := f.responses[f.calls]
	f.calls++
	return r.text, r.err
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeGemini) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return "", errors.New("not scripted")
}

const validEvaluationJSON = `{
	"overall_score": 82,
	"category_scores": {"technical_accuracy": 20},
	"strengths": ["clear"],
	"weaknesses": [],
	"detailed_feedback": "Good answer.",
	"detailed_explanation": "Covers the core concepts."
}`

func TestEvaluateFirstStrategyWins(t *testing.T) {
	gemini := &fakeGemini{responses: []fakeGeminiResponse{
		{text: validEvaluationJSON},
	}}
	svc := NewEvaluatorService(gemini, zap.NewNop())

	eval := svc.Evaluate(context.Background(), "Q", "A", "", model.AnswerKindText)

	require.NotNil(t, eval)
	assert.Equal(t, float64(82), eval.OverallScore)
	assert.Equal(t, 1, gemini.calls)
}

func TestEvaluateFallsBackToNextStrategy(t *testing.T) {
	gemini := &fakeGemini{responses: []fakeGeminiResponse{
		{err: errors.New("model overloaded")},
		{text: validEvaluationJSON},
	}}
	svc := NewEvaluatorService(gemini, zap.NewNop())

	eval := svc.Evaluate(context.Background(), "Q", "A", "", model.AnswerKindText)

	assert.Equal(t, float64(82), eval.OverallScore)
	assert.Equal(t, 2, gemini.calls)
}

func TestEvaluateCodeKindUsesCodeThenGeneral(t *testing.T) {
	gemini := &fakeGemini{responses: []fakeGeminiResponse{
		{err: errors.New("code evaluator down")},
		{text: validEvaluationJSON},
	}}
	svc := NewEvaluatorService(gemini, zap.NewNop())

	eval := svc.Evaluate(context.Background(), "Implement X", "func x() {}", "", model.AnswerKindCode)

	require.Equal(t, 2, gemini.calls)
	assert.Contains(t, gemini.prompts[0], "coding solution")
	assert.Contains(t, gemini.prompts[1], "evaluate this candidate's answer")
	assert.Equal(t, float64(82), eval.OverallScore)
}

func TestEvaluateExhaustedChainReturnsSafeRecord(t *testing.T) {
	gemini := &fakeGemini{responses: []fakeGeminiResponse{
		{err: errors.New("first down")},
		{err: errors.New("second down")},
	}}
	svc := NewEvaluatorService(gemini, zap.NewNop())

	eval := svc.Evaluate(context.Background(), "Q", "A", "", model.AnswerKindText)

	require.NotNil(t, eval)
	assert.Equal(t, float64(fallbackScore), eval.OverallScore)
	assert.Equal(t, []string{"Evaluation failed"}, eval.Weaknesses)
	assert.Equal(t, "second down", eval.DetailedFeedback)
	assert.NotNil(t, eval.CategoryScores)
	assert.NotNil(t, eval.Strengths)
}

func TestNormalizeAcceptsCanonicalMap(t *testing.T) {
	eval := Normalize(map[string]any{
		"overall_score":     72.0,
		"detailed_feedback": "fine",
	}, "fallback")

	require.NotNil(t, eval)
	assert.Equal(t, float64(72), eval.OverallScore)
	assert.Equal(t, "fine", eval.DetailedFeedback)
	assert.NotNil(t, eval.CategoryScores)
	assert.NotNil(t, eval.Strengths)
	assert.NotNil(t, eval.Weaknesses)
	assert.NotEmpty(t, eval.DetailedExplanation)
}

func TestNormalizeParsesFencedJSONString(t *testing.T) {
	eval := Normalize("```json\n"+validEvaluationJSON+"\n```", "fallback")

	assert.Equal(t, float64(82), eval.OverallScore)
	assert.Equal(t, "Good answer.", eval.DetailedFeedback)
}

func TestNormalizeWrapsPlainText(t *testing.T) {
	eval := Normalize("The candidate did well overall.", "fallback")

	assert.Equal(t, float64(fallbackScore), eval.OverallScore)
	assert.Equal(t, "The candidate did well overall.", eval.DetailedFeedback)
	assert.Equal(t, []string{"No evaluation returned"}, eval.Weaknesses)
}

func TestNormalizeWrapsEmptyStringWithNote(t *testing.T) {
	eval := Normalize("", "Evaluation fallback used")

	assert.Equal(t, float64(fallbackScore), eval.OverallScore)
	assert.Equal(t, "Evaluation fallback used", eval.DetailedFeedback)
}

func TestNormalizeRejectsUnrelatedJSONObject(t *testing.T) {
	// Valid JSON but none of the canonical keys: wrapped, not parsed.
	eval := Normalize(`{"foo": "bar"}`, "fallback")

	assert.Equal(t, float64(fallbackScore), eval.OverallScore)
	assert.Equal(t, []string{"No evaluation returned"}, eval.Weaknesses)
}

func TestNormalizeStringifiesArbitraryValues(t *testing.T) {
	eval := Normalize(42, "fallback")

	assert.Equal(t, float64(fallbackScore), eval.OverallScore)
	assert.Equal(t, "42", eval.DetailedFeedback)
}

func TestNormalizePassesThroughEvaluation(t *testing.T) {
	in := &model.Evaluation{OverallScore: 91, DetailedFeedback: "excellent"}
	out := Normalize(in, "fallback")

	assert.Same(t, in, out)
	assert.NotNil(t, out.CategoryScores)
	assert.NotEmpty(t, out.DetailedExplanation)
}
