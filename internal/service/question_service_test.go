package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseQuestionsExtractsNumberedLines(t *testing.T) {
	text := `Here are the interview questions for the candidate:
1. Can you explain the difference between a process and a thread?
2. What is a deadlock and how would you prevent one in practice?
3. Short one
4. Describe how you would design a rate limiter for a public API.
`
	questions := ParseQuestions(text)

	require.Len(t, questions, 3)
	assert.Equal(t, "Can you explain the difference between a process and a thread?", questions[0])
	// "Short one" is below the minimum length and is dropped.
	assert.NotContains(t, questions, "Short one")
}

func TestParseQuestionsCapsAtFive(t *testing.T) {
	text := `1. What design patterns have you applied in production systems?
2. How does garbage collection work in managed runtimes generally?
3. Explain eventual consistency and where you would accept it.
4. Walk me through debugging a memory leak in a long-lived service.
5. How would you shard a relational database under write pressure?
6. What is your approach to writing integration tests for APIs?
`
	questions := ParseQuestions(text)
	assert.Len(t, questions, maxGeneratedQuestions)
}

func TestParseQuestionsSkipsChatter(t *testing.T) {
	text := `1. Here are questions for a backend developer role in detail
2. What trade-offs come with using message queues between services?`
	questions := ParseQuestions(text)

	require.Len(t, questions, 1)
	assert.Contains(t, questions[0], "message queues")
}

func TestGenerateQuestionsErrorsWhenNothingParses(t *testing.T) {
	gemini := &fakeGemini{responses: []fakeGeminiResponse{
		{text: "I cannot help with that."},
	}}
	svc := NewQuestionService(gemini, zap.NewNop())

	questions, err := svc.GenerateQuestions(context.Background(), "resume text")
	assert.Error(t, err)
	assert.Nil(t, questions)
}

func TestGenerateQuestionsPropagatesModelError(t *testing.T) {
	gemini := &fakeGemini{responses: []fakeGeminiResponse{
		{err: errors.New("quota exceeded")},
	}}
	svc := NewQuestionService(gemini, zap.NewNop())

	_, err := svc.GenerateQuestions(context.Background(), "resume text")
	assert.Error(t, err)
}

func TestDefaultQuestionsFixedSet(t *testing.T) {
	questions := DefaultQuestions()
	require.Len(t, questions, 3)
	assert.Equal(t, "Tell me about yourself", questions[0])
	assert.Equal(t, "Describe a project you built", questions[1])
	assert.Equal(t, "Explain a technical challenge you solved", questions[2])
}
