package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// Tool names
const (
	ToolSearchHealthData       = "search_health_data"
	ToolAggregateHealthMetrics = "aggregate_health_metrics"
	ToolGetHealthTrends        = "get_health_trends"
	ToolSearchFamilyHealth     = "search_family_health"
	ToolGetHealthCorrelations  = "get_health_correlations"
)

// SearchHealthDataArgs are the arguments of search_health_data
type SearchHealthDataArgs struct {
	Query           string `json:"query" jsonschema:"Natural language health question, e.g. 'show me steps last week' or 'heart rate this month'"`
	UserID          string `json:"user_id,omitempty" jsonschema:"User whose data is searched. Defaults to the authenticated user."`
	IncludeInsights *bool  `json:"include_insights,omitempty" jsonschema:"Whether to include generated insights. Default: true."`
}

// AggregateHealthMetricsArgs are the arguments of aggregate_health_metrics
type AggregateHealthMetricsArgs struct {
	MetricType string `json:"metric_type" jsonschema:"Health metric to aggregate"`
	TimePeriod string `json:"time_period" jsonschema:"Period to aggregate. Use custom together with start_date and end_date."`
	StartDate  string `json:"start_date,omitempty" jsonschema:"First day of a custom period. Format: YYYY-MM-DD."`
	EndDate    string `json:"end_date,omitempty" jsonschema:"Last day of a custom period, inclusive. Format: YYYY-MM-DD."`
	UserID     string `json:"user_id,omitempty" jsonschema:"User whose data is aggregated. Defaults to the authenticated user."`
}

// GetHealthTrendsArgs are the arguments of get_health_trends
type GetHealthTrendsArgs struct {
	MetricTypes        []string `json:"metric_types" jsonschema:"Health metrics to analyse for trends"`
	AnalysisPeriod     string   `json:"analysis_period,omitempty" jsonschema:"Lookback window for the analysis. Default: 30_days."`
	UserID             string   `json:"user_id,omitempty" jsonschema:"User whose data is analysed. Defaults to the authenticated user."`
	IncludePredictions *bool    `json:"include_predictions,omitempty" jsonschema:"Whether to include next-period predictions. Default: true."`
}

// SearchFamilyHealthArgs are the arguments of search_family_health
type SearchFamilyHealthArgs struct {
	FamilyID           string `json:"family_id" jsonschema:"Family whose consenting members are searched"`
	Query              string `json:"query" jsonschema:"Natural language health question, e.g. 'steps this month'"`
	PrivacyLevel       string `json:"privacy_level,omitempty" jsonschema:"Most detailed view the caller may receive. Default: summary_only."`
	IncludeMemberNames bool   `json:"include_member_names,omitempty" jsonschema:"Whether member names may be returned. Requires detailed or full privacy level."`
}

// GetHealthCorrelationsArgs are the arguments of get_health_correlations
type GetHealthCorrelationsArgs struct {
	PrimaryMetric      string   `json:"primary_metric" jsonschema:"Metric the others are compared against"`
	CorrelationMetrics []string `json:"correlation_metrics" jsonschema:"Metrics to correlate with the primary metric"`
	UserID             string   `json:"user_id,omitempty" jsonschema:"User whose data is analysed. Defaults to the authenticated user."`
	TimeWindow         string   `json:"time_window,omitempty" jsonschema:"Granularity the series are aligned on. Default: daily."`
}

var (
	timePeriods     = []any{"last_week", "this_week", "last_month", "this_month", "last_year", "custom"}
	analysisPeriods = []any{"30_days", "90_days", "6_months", "1_year"}
	privacyLevels   = []any{string(PrivacySummaryOnly), string(PrivacyAggregated), string(PrivacyDetailed), string(PrivacyFull)}
	timeWindows     = []any{string(WindowDaily), string(WindowWeekly), string(WindowMonthly)}
)

func metricEnum() []any {
	out := make([]any, 0, len(model.AllMetricTypes))
	for _, m := range model.AllMetricTypes {
		out = append(out, string(m))
	}
	return out
}

// schemaTweak adjusts a generated schema before it is resolved
type schemaTweak func(s *jsonschema.Schema)

func enumOf(property string, values []any) schemaTweak {
	return func(s *jsonschema.Schema) {
		s.Properties[property].Enum = values
	}
}

func itemsEnumOf(property string, values []any) schemaTweak {
	return func(s *jsonschema.Schema) {
		p := s.Properties[property]
		p.Items.Enum = values
		p.MinItems = jsonschema.Ptr(1)
	}
}

func defaultOf(property string, value any) schemaTweak {
	return func(s *jsonschema.Schema) {
		raw, _ := json.Marshal(value)
		s.Properties[property].Default = raw
	}
}

func newTool[T any](name, description string, run func(ctx context.Context, raw json.RawMessage) (*outcome, error), tweaks ...schemaTweak) (*Tool, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to derive schema for %s: %w", name, err)
	}
	for _, tweak := range tweaks {
		tweak(schema)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema for %s: %w", name, err)
	}
	return &Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
		resolved:    resolved,
		run:         run,
	}, nil
}

func (d *Dispatcher) registerTools() error {
	metrics := metricEnum()

	builders := []func() (*Tool, error){
		func() (*Tool, error) {
			return newTool[SearchHealthDataArgs](ToolSearchHealthData,
				"Search personal health data with a natural language question and get a summary, daily breakdown and insights",
				d.searchHealthData,
				defaultOf("include_insights", true),
			)
		},
		func() (*Tool, error) {
			return newTool[AggregateHealthMetricsArgs](ToolAggregateHealthMetrics,
				"Aggregate one health metric over a time period with statistical analysis, trend and benchmarks",
				d.aggregateHealthMetrics,
				enumOf("metric_type", metrics),
				enumOf("time_period", timePeriods),
			)
		},
		func() (*Tool, error) {
			return newTool[GetHealthTrendsArgs](ToolGetHealthTrends,
				"Analyse trends of several health metrics over time with cross-metric correlations and predictions",
				d.getHealthTrends,
				itemsEnumOf("metric_types", metrics),
				enumOf("analysis_period", analysisPeriods),
				defaultOf("analysis_period", "30_days"),
				defaultOf("include_predictions", true),
			)
		},
		func() (*Tool, error) {
			return newTool[SearchFamilyHealthArgs](ToolSearchFamilyHealth,
				"Search health data across consenting family members under an explicit privacy level",
				d.searchFamilyHealth,
				enumOf("privacy_level", privacyLevels),
				defaultOf("privacy_level", string(PrivacySummaryOnly)),
			)
		},
		func() (*Tool, error) {
			return newTool[GetHealthCorrelationsArgs](ToolGetHealthCorrelations,
				"Find correlations between a primary health metric and other metrics",
				d.getHealthCorrelations,
				enumOf("primary_metric", metrics),
				itemsEnumOf("correlation_metrics", metrics),
				enumOf("time_window", timeWindows),
				defaultOf("time_window", string(WindowDaily)),
			)
		},
	}

	for _, build := range builders {
		tool, err := build()
		if err != nil {
			return err
		}
		d.tools[tool.Name] = tool
	}
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
