package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/careermentor/career-mentor/internal/config"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	embeddingModel     = "gemini-embedding-001"
	transcriptionModel = "gemini-2.5-flash"
)

type GeminiServiceInterface interface {
	GenerateContent(ctx context.Context, model string, prompt string) (string, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type GeminiService struct {
	Client            *genai.Client
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	logger            *zap.Logger
	consecutiveErrors int
	circuitBreakerMax int
}

func NewGeminiService(ctx context.Context, logger *zap.Logger) (*GeminiService, error) {
	apiKey := config.LoadGeminiConfig().APIKey
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiService{
		Client:            client,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    90 * time.Second,
		logger:            logger,
		circuitBreakerMax: 5,
	}, nil
}

// GenerateContent calls the model and returns the response text with any
// markdown code fences stripped, retrying transient failures.
func (s *GeminiService) GenerateContent(ctx context.Context, model string, prompt string) (string, error) {
	if model == "" {
		model = DefaultModel
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.3)),
	}
	result, err := s.generateWithRetry(ctx, model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", err
	}
	return StripCodeFences(result.Text()), nil
}

// TranscribeAudio sends raw audio to the model and returns the transcript.
func (s *GeminiService) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is empty")
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText("Transcribe this interview answer verbatim. Return only the spoken words, no commentary."),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}

	result, err := s.generateWithRetry(ctx, transcriptionModel, contents, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text()), nil
}

func (s *GeminiService) generateWithRetry(ctx context.Context, model string, contents []*genai.Content, genConfig *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if s.consecutiveErrors >= s.circuitBreakerMax {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.logger.Info("Retrying Gemini call",
				zap.Int("attempt", attempt),
				zap.Int("maxRetries", s.MaxRetries),
				zap.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.GenerateContent(timeoutCtx, model, contents, genConfig)
		if err == nil {
			s.consecutiveErrors = 0
			if err := s.validateGenerateResponse(result); err != nil {
				return nil, fmt.Errorf("invalid response: %w", err)
			}
			return result, nil
		}

		lastErr = err
		if !s.isRetryableError(err) {
			s.logger.Warn("Non-retryable Gemini error", zap.Error(err))
			s.consecutiveErrors++
			return nil, fmt.Errorf("generate content failed: %w", err)
		}
		s.logger.Warn("Retryable Gemini error", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.consecutiveErrors++
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateContent: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}
	if len(trimmedText) > 10000 {
		s.logger.Warn("Embedding input exceeds recommended limit, truncating",
			zap.Int("length", len(trimmedText)))
		trimmedText = trimmedText[:10000]
	}
	if s.consecutiveErrors >= s.circuitBreakerMax {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	content := []*genai.Content{genai.NewContentFromText(trimmedText, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.EmbedContent(timeoutCtx, embeddingModel, content, nil)
		if err == nil {
			s.consecutiveErrors = 0
			return s.validateEmbeddingResponse(result)
		}

		lastErr = err
		if !s.isRetryableError(err) {
			s.consecutiveErrors++
			return nil, fmt.Errorf("generate embedding failed: %w", err)
		}
	}

	s.consecutiveErrors++
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateEmbedding: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25)
	delay = delay - jitter/2 + time.Duration(float64(jitter)*0.5)
	return delay
}

func (s *GeminiService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}
	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF") {
		return true
	}
	return false
}

func (s *GeminiService) validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}

func (s *GeminiService) validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	embeddings := resp.Embeddings[0].Values
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}
	for i, val := range embeddings {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}
	return embeddings, nil
}

// StripCodeFences removes a surrounding markdown code fence, which the
// model tends to wrap JSON answers in despite instructions.
func StripCodeFences(text string) string {
	out := strings.TrimSpace(text)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}
