package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/metrics"
)

// Retry chain limits.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 200 * time.Millisecond
)

// CompleterConfig holds the chat completion provider settings.
type CompleterConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	FallbackModels []string
	MaxAttempts    int
	InitialBackoff time.Duration
	Logger         *zap.Logger
}

// Completer calls chat completions, walking a model chain on failure.
// Attempt i uses models[i % len(models)]; authentication failures stop the chain.
type Completer struct {
	client      *openai.Client
	models      []string
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

// NewCompleter creates a completion provider. Fallback models equal to the
// primary are skipped.
func NewCompleter(cfg *CompleterConfig) *Completer {
	models := []string{cfg.Model}
	for _, m := range cfg.FallbackModels {
		if m != "" && m != cfg.Model {
			models = append(models, m)
		}
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	wait := cfg.InitialBackoff
	if wait <= 0 {
		wait = DefaultInitialBackoff
	}
	return &Completer{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		models:      models,
		maxAttempts: attempts,
		backoff:     wait,
		logger:      cfg.Logger,
	}
}

// Models returns the model chain in attempt order.
func (c *Completer) Models() []string { return c.models }

// Complete implements domain.Completer. req.Model, when set, replaces the primary model.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	chain := c.models
	if req.Model != "" && req.Model != chain[0] {
		chain = append([]string{req.Model}, chain...)
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoff
	bo.MaxElapsedTime = 0

	attempt := 0
	var out domain.CompletionResult
	op := func() error {
		model := chain[attempt%len(chain)]
		attempt++

		res, err := c.completeOnce(ctx, model, messages, req)
		if err != nil {
			c.logger.Warn("Completion attempt failed",
				zap.String("model", model), zap.Int("attempt", attempt), zap.Error(err))
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = res
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx) //nolint:gosec // small positive int
	if err := backoff.Retry(op, policy); err != nil {
		return domain.CompletionResult{}, err
	}
	return out, nil
}

func (c *Completer) completeOnce(
	ctx context.Context, model string, messages []openai.ChatCompletionMessage, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      false,
	})
	metrics.CompletionRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError(err, domain.ErrCompletionProviderError, "completion")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.CompletionRequestsTotal.WithLabelValues(model, "empty").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrMalformedResponse)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(model, "success").Inc()
	return domain.CompletionResult{
		Content:          resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// isPermanent reports errors no other model can fix.
func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden
	}
	return false
}
