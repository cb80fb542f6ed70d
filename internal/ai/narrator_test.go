package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// MockCompleter is a mock implementation of Completer
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func sampleResult() *model.QueryResult {
	return &model.QueryResult{
		Query:        "show me steps last week",
		Metric:       model.MetricSteps,
		TimePeriod:   model.TimePeriod{Days: 7, Type: model.PeriodLast},
		TotalRecords: 7,
		Summary:      model.StepsSummary{Kind: model.SummaryKindSteps, TotalSteps: 14122, AveragePerDay: 2017},
		Insights:     []model.Insight{{Type: model.InsightWarning, Message: "Your step count is below recommended levels"}},
	}
}

func TestNarrator_Narrate(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []openai.ChatCompletionMessageParamUnion) bool {
		return len(msgs) == 2
	})).Return("  You averaged 2017 steps a day.  ", nil)

	n := NewNarrator(completer, 0, zap.NewNop())
	text, err := n.Narrate(context.Background(), sampleResult())

	require.NoError(t, err)
	assert.Equal(t, "You averaged 2017 steps a day.", text)
	completer.AssertExpectations(t)
}

func TestNarrator_PropagatesFailure(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	_, err := NewNarrator(completer, 0, zap.NewNop()).Narrate(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestNarrator_NilResult(t *testing.T) {
	_, err := NewNarrator(new(MockCompleter), 0, zap.NewNop()).Narrate(context.Background(), nil)
	assert.Error(t, err)
}

func TestNarrationFacts_IncludesObservations(t *testing.T) {
	facts, err := narrationFacts(sampleResult())
	require.NoError(t, err)
	assert.Contains(t, facts, `"observations":["Your step count is below recommended levels"]`)
	assert.Contains(t, facts, `"totalSteps":14122`)
}
