package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

const narratorPrompt = `You summarise personal health metrics for the person they belong to.
Write at most three short sentences in plain English. Use only the numbers provided.
Do not diagnose, do not mention medication, and do not invent data.`

// Completer produces a chat completion
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Narrator turns a formatted query result into a short readable summary
type Narrator struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewNarrator creates a narrator. A non-positive timeout defaults to 15s.
func NewNarrator(completer Completer, timeout time.Duration, logger *zap.Logger) *Narrator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Narrator{
		completer: completer,
		timeout:   timeout,
		logger:    logger,
	}
}

// Narrate describes result in a few sentences
func (n *Narrator) Narrate(ctx context.Context, result *model.QueryResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result is required")
	}

	facts, err := narrationFacts(result)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	text, err := n.completer.Complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(narratorPrompt),
		openai.UserMessage(facts),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate narrative: %w", err)
	}

	n.logger.Debug("narrative generated",
		zap.String("metric", string(result.Metric)),
		zap.Int("length", len(text)),
	)
	return strings.TrimSpace(text), nil
}

// narrationFacts renders the parts of a result the model may talk about
func narrationFacts(result *model.QueryResult) (string, error) {
	payload := map[string]any{
		"question":     result.Query,
		"metric":       result.Metric,
		"period":       result.TimePeriod,
		"records":      result.TotalRecords,
		"summary":      result.Summary,
		"daily_values": result.DailyData,
	}
	if len(result.Insights) > 0 {
		messages := make([]string, 0, len(result.Insights))
		for _, in := range result.Insights {
			messages = append(messages, in.Message)
		}
		payload["observations"] = messages
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode narrative facts: %w", err)
	}
	return string(raw), nil
}
