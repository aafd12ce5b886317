package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "fundrag/backend/pkg/errors"
	"fundrag/backend/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generation defaults, matching the answer style the prompt asks for
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 250
	DefaultMaxRetries  = 3
)

// LLMAdapter answers questions from an assembled context through an
// OpenAI-compatible endpoint (LiteLLM in deployment)
type LLMAdapter struct {
	client      *openai.Client
	model       string
	mu          sync.RWMutex // Protects model field for concurrent access
	temperature float32
	maxTokens   int
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
}

// Option configures an LLMAdapter
type Option func(*LLMAdapter)

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) Option {
	return func(a *LLMAdapter) { a.temperature = float32(t) }
}

// WithMaxTokens caps the answer length
func WithMaxTokens(n int) Option {
	return func(a *LLMAdapter) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithMaxRetries sets the number of attempts per request
func WithMaxRetries(n int) Option {
	return func(a *LLMAdapter) {
		if n > 0 {
			a.maxRetries = n
		}
	}
}

// NewLLMAdapter creates a new LLM adapter. baseURL is the server root; the
// OpenAI path prefix "/v1" is appended.
func NewLLMAdapter(baseURL, apiKey, modelID string, opts ...Option) *LLMAdapter {
	// For LiteLLM, we can use a dummy API key if not provided
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"

	a := &LLMAdapter{
		client:      openai.NewClientWithConfig(config),
		model:       modelID,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		maxRetries:  DefaultMaxRetries,
		backoff:     time.Second,
		logger:      logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetModel updates the model used by this adapter
func (a *LLMAdapter) SetModel(model string) {
	if model != "" {
		a.mu.Lock()
		a.model = model
		a.mu.Unlock()
		a.logger.Debug("LLM adapter model updated", zap.String("model", model))
	}
}

// GetModel returns the current model
func (a *LLMAdapter) GetModel() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model
}

// Generate asks the model to answer query using only contextText
func (a *LLMAdapter) Generate(ctx context.Context, contextText, query string) (string, error) {
	systemPrompt, userMsg := BuildPrompt(contextText, query)
	currentModel := a.GetModel()

	req := openai.ChatCompletionRequest{
		Model: currentModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}

	// Retry logic with linear backoff
	var resp openai.ChatCompletionResponse
	var err error
	attempts := 0
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * a.backoff
			a.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return "", apperrors.NewContextCancelled("llm generate", ctx.Err())
			case <-time.After(backoff):
			}
		}

		attempts++
		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", currentModel),
		)
		if ctx.Err() != nil {
			return "", apperrors.NewContextCancelled("llm generate", ctx.Err())
		}
		if !retryable(err) {
			break
		}
	}

	if err != nil {
		return "", apperrors.NewGeneratorFailed(currentModel, attempts, retryable(err), err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.ErrGeneratorEmpty
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		a.logger.Warn("LLM returned no text",
			zap.String("model", currentModel),
			zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		)
		return "", apperrors.ErrGeneratorEmpty
	}

	a.logger.Debug("LLM response generated",
		zap.String("model", currentModel),
		zap.Int("attempts", attempts),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return answer, nil
}

// retryable reports whether a failed request is worth repeating: network
// errors, rate limiting and server errors are, other client errors are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Non-JSON error bodies land here, often from a proxy in front of the model
		return reqErr.HTTPStatusCode == 0 || retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
