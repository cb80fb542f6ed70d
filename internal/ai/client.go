package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const apiVersion = "2024-08-01-preview"

// chatAPI is the subset of the chat completions service the client uses
type chatAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Narratives are short and should stay close to the numbers they describe
const (
	narrativeMaxTokens   = 200
	narrativeTemperature = 0.2
)

// OpenAIClient calls an Azure OpenAI chat deployment, retrying transient failures
type OpenAIClient struct {
	chat       chatAPI
	deployment string
	logger     *zap.Logger
	maxRetries int
	baseDelay  time.Duration
}

// NewOpenAIClient creates an Azure OpenAI client using the openai-go SDK with Azure extensions
func NewOpenAIClient(endpoint, apiKey, deployment string, logger *zap.Logger) (*OpenAIClient, error) {
	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, fmt.Errorf("endpoint, apiKey, and deployment are required")
	}

	client := openai.NewClient(
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
	)

	return &OpenAIClient{
		chat:       &client.Chat.Completions,
		deployment: deployment,
		logger:     logger.With(zap.String("deployment", deployment)),
		maxRetries: 3,
		baseDelay:  time.Second,
	}, nil
}

// Complete returns the first choice of a chat completion. Delays between
// attempts double from baseDelay and stop early when ctx ends.
func (c *OpenAIClient) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	started := time.Now()

	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			if waitErr := c.wait(ctx, attempt); waitErr != nil {
				return "", waitErr
			}
		}

		var text string
		text, err = c.complete(ctx, messages)
		if err == nil {
			c.logger.Debug("narrative completion finished",
				zap.Int("attempts", attempt),
				zap.Duration("elapsed", time.Since(started)),
			)
			return text, nil
		}
		if !isRetryable(ctx, err) {
			c.logger.Warn("narrative completion rejected", zap.Int("attempt", attempt), zap.Error(err))
			return "", fmt.Errorf("Azure OpenAI request failed: %w", err)
		}
		c.logger.Warn("narrative completion failed, will retry", zap.Int("attempt", attempt), zap.Error(err))
	}

	return "", fmt.Errorf("Azure OpenAI request failed after %d attempts: %w", c.maxRetries, err)
}

func (c *OpenAIClient) wait(ctx context.Context, attempt int) error {
	delay := c.baseDelay << (attempt - 2)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("Azure OpenAI request cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.deployment),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(narrativeMaxTokens),
		Temperature:         openai.Float(narrativeTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyCompletion
	}

	c.logger.Debug("narrative token usage",
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

var errEmptyCompletion = errors.New("empty completion returned")

// isRetryable reports whether err is worth another attempt. Auth and request
// errors are final; rate limits, server errors and network failures are not.
func isRetryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, errEmptyCompletion) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, final := range []string{"authentication", "unauthorized", "invalid", "bad request"} {
		if strings.Contains(errStr, final) {
			return false
		}
	}
	return true
}
