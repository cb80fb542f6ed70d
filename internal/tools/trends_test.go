package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func TestGetHealthTrends_TwoMetrics(t *testing.T) {
	d := newTestDispatcher(t, search.FixtureEngine{}, nil, nil)

	result, err := d.Execute(context.Background(), ToolGetHealthTrends, args(t, map[string]any{
		"metric_types": []string{"steps", "heart_rate", "steps"},
		"user_id":      "u1",
	}))
	require.NoError(t, err)

	res := result.(*GetHealthTrendsResult)
	assert.True(t, res.Degraded)
	assert.Equal(t, []model.MetricType{model.MetricSteps, model.MetricHeartRate}, res.MetricsAnalyzed)
	assert.Equal(t, "30_days", res.AnalysisPeriod)
	assert.Equal(t, DateRange{Start: "2024-05-29", End: "2024-06-27"}, res.DateRange)

	require.Contains(t, res.Trends, model.MetricSteps)
	assert.Equal(t, 7, res.Trends[model.MetricSteps].DataPoints)
	assert.Contains(t, res.Predictions, model.MetricHeartRate)

	require.Contains(t, res.Correlations, "steps_heart_rate")
	c := res.Correlations["steps_heart_rate"]
	assert.Equal(t, SourceMeasured, c.Source)
	assert.Equal(t, 7, c.DataPoints)
	require.NotNil(t, c.Coefficient)
	assert.InDelta(t, 0, *c.Coefficient, 1)

	assert.NotEmpty(t, res.Insights)
}

func TestGetHealthTrends_WithoutPredictions(t *testing.T) {
	d := newTestDispatcher(t, search.FixtureEngine{}, nil, nil)

	result, err := d.Execute(context.Background(), ToolGetHealthTrends, args(t, map[string]any{
		"metric_types":        []string{"sleep"},
		"analysis_period":     "90_days",
		"include_predictions": false,
		"user_id":             "u1",
	}))
	require.NoError(t, err)

	res := result.(*GetHealthTrendsResult)
	assert.Nil(t, res.Predictions)
	assert.Empty(t, res.Correlations)
	assert.Equal(t, "2024-03-30", res.DateRange.Start)
}

func TestGetHealthTrends_InvalidMetric(t *testing.T) {
	engine := new(MockEngine)
	d := newTestDispatcher(t, engine, nil, nil)

	_, err := d.Execute(context.Background(), ToolGetHealthTrends, args(t, map[string]any{
		"metric_types": []string{"calories"},
		"user_id":      "u1",
	}))
	// the enum rejects it before the tool runs
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = parseMetrics([]string{"steps", "calories"})
	assert.Equal(t, apperr.CodeInvalidMetric, apperr.CodeOf(err))
}

func TestTrendInsight(t *testing.T) {
	_, ok := trendInsight(model.MetricSteps, analytics.TrendAnalysis{Direction: "upward", Strength: 0.1})
	assert.False(t, ok)

	insight, ok := trendInsight(model.MetricHeartRate, analytics.TrendAnalysis{Direction: "downward", Strength: 0.5})
	require.True(t, ok)
	assert.Contains(t, insight.Message, "heart rate has been trending downward")

	_, ok = trendInsight(model.MetricSleep, analytics.TrendAnalysis{Direction: "stable", Strength: 0.9})
	assert.False(t, ok)
}
