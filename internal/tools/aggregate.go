package tools

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/formatter"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// AggregateSummary is the headline of an aggregation. Average is per day for
// summed metrics and per reading for sampled ones.
type AggregateSummary struct {
	TotalRecords int     `json:"total_records"`
	DaysWithData int     `json:"days_with_data"`
	Total        float64 `json:"total"`
	Average      float64 `json:"average"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Unit         string  `json:"unit"`
}

// BenchmarkResult rates an aggregate against reference bands
type BenchmarkResult struct {
	Value     float64             `json:"value"`
	Rating    string              `json:"rating"`
	Score     float64             `json:"score"`
	Reference analytics.Benchmark `json:"reference"`
}

// AggregateHealthMetricsResult is the response of aggregate_health_metrics
type AggregateHealthMetricsResult struct {
	Envelope
	MetricType          model.MetricType     `json:"metric_type"`
	TimePeriod          string               `json:"time_period"`
	DateRange           DateRange            `json:"date_range"`
	Summary             AggregateSummary     `json:"summary"`
	StatisticalAnalysis analytics.Statistics `json:"statistical_analysis"`
	Trends              analytics.HalfTrend  `json:"trends"`
	Benchmarks          *BenchmarkResult     `json:"benchmarks,omitempty"`
}

func (d *Dispatcher) aggregateHealthMetrics(ctx context.Context, raw json.RawMessage) (*outcome, error) {
	var args AggregateHealthMetricsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	metric, err := model.ParseMetricType(args.MetricType)
	if err != nil {
		return nil, &apperr.InvalidMetricError{Metric: args.MetricType}
	}
	userID, err := resolveUserID(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	rng, err := aggregationRange(args, d.now())
	if err != nil {
		return nil, err
	}

	series, err := d.fetchSeries(ctx, metric, userID, rng)
	if err != nil {
		return nil, err
	}
	values := series.values()

	result := &AggregateHealthMetricsResult{
		MetricType:          metric,
		TimePeriod:          args.TimePeriod,
		DateRange:           newDateRange(rng),
		Summary:             summarize(series),
		StatisticalAnalysis: analytics.Describe(values),
		Trends:              analytics.CompareHalves(values),
		Benchmarks:          benchmark(series, rng),
	}

	return &outcome{
		result:   result,
		degraded: series.resp.Degraded,
		audit: audit.Entry{
			UserID:        userID,
			OperationType: audit.OperationAggregate,
			ResourceType:  audit.ResourceHealthMetrics,
			ResourceID:    string(metric),
			AdditionalData: map[string]interface{}{
				"time_period": args.TimePeriod,
				"start":       result.DateRange.Start,
				"end":         result.DateRange.End,
			},
		},
	}, nil
}

func aggregationRange(args AggregateHealthMetricsArgs, now time.Time) (model.TimeRange, error) {
	if args.TimePeriod == "custom" {
		if args.StartDate == "" {
			return model.TimeRange{}, &apperr.InvalidArgumentError{Field: "start_date", Reason: "is required for a custom time period"}
		}
		if args.EndDate == "" {
			return model.TimeRange{}, &apperr.InvalidArgumentError{Field: "end_date", Reason: "is required for a custom time period"}
		}
		return query.ParseTimeRange(args.StartDate, args.EndDate)
	}

	period, ok := query.NamedPeriod(args.TimePeriod)
	if !ok {
		return model.TimeRange{}, &apperr.InvalidArgumentError{Field: "time_period", Reason: "is not a supported period"}
	}
	return query.Range(period, now), nil
}

func summarize(s *metricSeries) AggregateSummary {
	aggs := s.resp.Aggregations
	summary := AggregateSummary{
		TotalRecords: s.resp.Total,
		DaysWithData: len(s.points),
		Total:        analytics.Round(aggs.Sum, 2),
		Average:      analytics.Round(aggs.Avg, 2),
		Min:          aggs.Min,
		Max:          aggs.Max,
		Unit:         s.metric.Unit(),
	}

	if formatter.UsesDailySum(s.metric) && len(s.points) > 0 {
		values := s.values()
		summary.Average = analytics.Round(aggs.Sum/float64(len(values)), 2)
		summary.Min, summary.Max = values[0], values[0]
		for _, v := range values[1:] {
			summary.Min = math.Min(summary.Min, v)
			summary.Max = math.Max(summary.Max, v)
		}
	}
	return summary
}

// benchmark rates the period against reference bands. Workouts are rated
// as sessions per week, every other metric by its daily average.
func benchmark(s *metricSeries, rng model.TimeRange) *BenchmarkResult {
	ref, ok := analytics.BenchmarkFor(s.metric)
	if !ok || s.resp.Total == 0 {
		return nil
	}

	value := summarize(s).Average
	if s.metric == model.MetricWorkouts {
		weeks := math.Max(1, float64(rng.Days())/7)
		value = float64(s.resp.Total) / weeks
	}
	value = analytics.Round(value, 2)

	rating, _ := analytics.Rate(s.metric, value)
	score, _ := analytics.Score(s.metric, value)
	return &BenchmarkResult{
		Value:     value,
		Rating:    rating,
		Score:     score,
		Reference: ref,
	}
}
