package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// trendInsightStrength is the minimum strength for a directional trend to be reported
const trendInsightStrength = 0.3

// GetHealthTrendsResult is the response of get_health_trends
type GetHealthTrendsResult struct {
	Envelope
	MetricsAnalyzed []model.MetricType                           `json:"metrics_analyzed"`
	AnalysisPeriod  string                                       `json:"analysis_period"`
	DateRange       DateRange                                    `json:"date_range"`
	Trends          map[model.MetricType]analytics.TrendAnalysis `json:"trends"`
	Correlations    map[string]Correlation                       `json:"correlations"`
	Predictions     map[model.MetricType]analytics.Prediction    `json:"predictions,omitempty"`
	Insights        []model.Insight                              `json:"insights"`
}

func (d *Dispatcher) getHealthTrends(ctx context.Context, raw json.RawMessage) (*outcome, error) {
	var args GetHealthTrendsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	requested, err := parseMetrics(args.MetricTypes)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return nil, &apperr.InvalidArgumentError{Field: "metric_types", Reason: "must name at least one metric"}
	}

	userID, err := resolveUserID(ctx, args.UserID)
	if err != nil {
		return nil, err
	}

	periodName := args.AnalysisPeriod
	if periodName == "" {
		periodName = "30_days"
	}
	days, ok := query.AnalysisPeriodDays(periodName)
	if !ok {
		return nil, &apperr.InvalidArgumentError{Field: "analysis_period", Reason: "is not a supported period"}
	}
	period := model.TimePeriod{Days: days, Type: model.PeriodLast}
	rng := query.Range(period, d.now())

	result := &GetHealthTrendsResult{
		MetricsAnalyzed: requested,
		AnalysisPeriod:  periodName,
		DateRange:       newDateRange(rng),
		Trends:          make(map[model.MetricType]analytics.TrendAnalysis, len(requested)),
		Correlations:    make(map[string]Correlation),
		Insights:        []model.Insight{},
	}
	includePredictions := boolOr(args.IncludePredictions, true)
	if includePredictions {
		result.Predictions = make(map[model.MetricType]analytics.Prediction, len(requested))
	}

	degraded := false
	series := make([]*metricSeries, 0, len(requested))
	for _, metric := range requested {
		s, err := d.fetchSeries(ctx, metric, userID, rng)
		if err != nil {
			return nil, err
		}
		degraded = degraded || s.resp.Degraded
		series = append(series, s)

		values := s.values()
		trend := analytics.AnalyzeTrend(values)
		result.Trends[metric] = trend
		if includePredictions && len(values) > 0 {
			result.Predictions[metric] = analytics.Predict(values, trend)
		}

		formatted, err := d.formatter.Format(s.resp, model.ParsedQuery{
			OriginalQuery: fmt.Sprintf("%s last %d days", metricLabel(metric), days),
			Metric:        &metric,
			TimePeriod:    period,
		})
		if err != nil {
			return nil, err
		}
		result.Insights = append(result.Insights, formatted.Insights...)
		if insight, ok := trendInsight(metric, trend); ok {
			result.Insights = append(result.Insights, insight)
		}
	}

	for i := 0; i < len(series); i++ {
		for j := i + 1; j < len(series); j++ {
			key := string(series[i].metric) + "_" + string(series[j].metric)
			result.Correlations[key] = correlate(series[i], series[j], WindowDaily)
		}
	}

	return &outcome{
		result:   result,
		degraded: degraded,
		audit: audit.Entry{
			UserID:        userID,
			OperationType: audit.OperationAnalyze,
			ResourceType:  audit.ResourceHealthMetrics,
			ResourceID:    joinMetrics(requested),
			AdditionalData: map[string]interface{}{
				"analysis_period": periodName,
			},
		},
	}, nil
}

func trendInsight(metric model.MetricType, trend analytics.TrendAnalysis) (model.Insight, bool) {
	if trend.Strength < trendInsightStrength {
		return model.Insight{}, false
	}
	switch trend.Direction {
	case "upward":
		return model.Insight{
			Type:    model.InsightInfo,
			Message: fmt.Sprintf("Your %s has been trending upward recently", metricLabel(metric)),
		}, true
	case "downward":
		return model.Insight{
			Type:    model.InsightInfo,
			Message: fmt.Sprintf("Your %s has been trending downward recently", metricLabel(metric)),
		}, true
	default:
		return model.Insight{}, false
	}
}

func joinMetrics(ms []model.MetricType) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = string(m)
	}
	return strings.Join(names, ",")
}
