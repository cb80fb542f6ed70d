package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func TestAggregateHealthMetrics_Steps(t *testing.T) {
	d := newTestDispatcher(t, search.FixtureEngine{}, nil, nil)

	result, err := d.Execute(context.Background(), ToolAggregateHealthMetrics, args(t, map[string]any{
		"metric_type": "steps",
		"time_period": "last_week",
		"user_id":     "u1",
	}))
	require.NoError(t, err)

	res := result.(*AggregateHealthMetricsResult)
	assert.Equal(t, model.MetricSteps, res.MetricType)
	assert.Equal(t, DateRange{Start: "2024-06-21", End: "2024-06-27"}, res.DateRange)

	assert.Equal(t, 14122.0, res.Summary.Total)
	assert.Equal(t, 2017.43, res.Summary.Average)
	assert.Equal(t, 892.0, res.Summary.Min)
	assert.Equal(t, 3421.0, res.Summary.Max)
	assert.Equal(t, 7, res.Summary.DaysWithData)

	assert.Equal(t, 7, res.StatisticalAnalysis.Count)
	assert.Equal(t, 1987.0, res.StatisticalAnalysis.Median)

	assert.Equal(t, "decreasing", res.Trends.Direction)
	assert.Equal(t, -9.66, res.Trends.ChangePercent)

	require.NotNil(t, res.Benchmarks)
	assert.Equal(t, "needs attention", res.Benchmarks.Rating)
	assert.Equal(t, 20.0, res.Benchmarks.Score)
}

func TestAggregateHealthMetrics_WorkoutsRatedPerWeek(t *testing.T) {
	d := newTestDispatcher(t, search.FixtureEngine{}, nil, nil)

	result, err := d.Execute(context.Background(), ToolAggregateHealthMetrics, args(t, map[string]any{
		"metric_type": "workouts",
		"time_period": "this_week",
		"user_id":     "u1",
	}))
	require.NoError(t, err)

	res := result.(*AggregateHealthMetricsResult)
	require.NotNil(t, res.Benchmarks)
	assert.Equal(t, 3.0, res.Benchmarks.Value)
	assert.Equal(t, "good", res.Benchmarks.Rating)
	assert.Equal(t, 80.0, res.Benchmarks.Score)
}

func TestAggregateHealthMetrics_WeightHasNoBenchmark(t *testing.T) {
	d := newTestDispatcher(t, search.FixtureEngine{}, nil, nil)

	result, err := d.Execute(context.Background(), ToolAggregateHealthMetrics, args(t, map[string]any{
		"metric_type": "weight",
		"time_period": "last_month",
		"user_id":     "u1",
	}))
	require.NoError(t, err)
	assert.Nil(t, result.(*AggregateHealthMetricsResult).Benchmarks)
}

func TestAggregateHealthMetrics_CustomPeriod(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Search", mock.Anything, mock.MatchedBy(func(req *query.SearchRequest) bool {
		return req.Range.Start.Format(query.DateLayout) == "2024-05-01" &&
			req.Range.End.Format(query.DateLayout) == "2024-05-31"
	})).Return(&model.SearchResponse{}, nil).Once()

	d := newTestDispatcher(t, engine, nil, nil)
	result, err := d.Execute(context.Background(), ToolAggregateHealthMetrics, args(t, map[string]any{
		"metric_type": "sleep",
		"time_period": "custom",
		"start_date":  "2024-05-01",
		"end_date":    "2024-05-31",
		"user_id":     "u1",
	}))
	require.NoError(t, err)

	res := result.(*AggregateHealthMetricsResult)
	assert.Equal(t, 0, res.StatisticalAnalysis.Count)
	assert.Nil(t, res.Benchmarks)
	engine.AssertExpectations(t)
}

func TestAggregateHealthMetrics_CustomPeriodErrors(t *testing.T) {
	engine := new(MockEngine)
	d := newTestDispatcher(t, engine, nil, nil)

	_, err := d.Execute(context.Background(), ToolAggregateHealthMetrics, args(t, map[string]any{
		"metric_type": "steps", "time_period": "custom", "end_date": "2024-05-31", "user_id": "u1",
	}))
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = d.Execute(context.Background(), ToolAggregateHealthMetrics, args(t, map[string]any{
		"metric_type": "steps", "time_period": "custom",
		"start_date": "2024-06-30", "end_date": "2024-06-01", "user_id": "u1",
	}))
	assert.Equal(t, apperr.CodeInvalidTimeRange, apperr.CodeOf(err))

	engine.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}
