package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// TimeWindow is the granularity series are aligned on before correlating
type TimeWindow string

const (
	WindowDaily   TimeWindow = "daily"
	WindowWeekly  TimeWindow = "weekly"
	WindowMonthly TimeWindow = "monthly"
)

// lookbackDays is how much history each window reads
var lookbackDays = map[TimeWindow]int{
	WindowDaily:   30,
	WindowWeekly:  84,
	WindowMonthly: 365,
}

// Correlation sources
const (
	SourceMeasured         = "measured"
	SourceReference        = "reference"
	SourceInsufficientData = "insufficient_data"
)

const (
	strongCorrelation      = 0.7
	recommendedCorrelation = 0.6
)

// Correlation relates two metrics
type Correlation struct {
	Coefficient    *float64 `json:"coefficient"`
	Strength       string   `json:"strength"`
	Direction      string   `json:"direction,omitempty"`
	Interpretation string   `json:"interpretation"`
	Source         string   `json:"source"`
	DataPoints     int      `json:"data_points"`
}

// CorrelationInsight notes a strong relationship
type CorrelationInsight struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Coefficient float64 `json:"correlation_coefficient"`
}

// Recommendation suggests an action based on a correlation
type Recommendation struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// GetHealthCorrelationsResult is the response of get_health_correlations
type GetHealthCorrelationsResult struct {
	Envelope
	PrimaryMetric      model.MetricType                 `json:"primary_metric"`
	CorrelationMetrics []model.MetricType               `json:"correlation_metrics"`
	TimeWindow         TimeWindow                       `json:"time_window"`
	DateRange          DateRange                        `json:"date_range"`
	Correlations       map[model.MetricType]Correlation `json:"correlations"`
	Insights           []CorrelationInsight             `json:"insights"`
	Recommendations    []Recommendation                 `json:"recommendations"`
}

func (d *Dispatcher) getHealthCorrelations(ctx context.Context, raw json.RawMessage) (*outcome, error) {
	var args GetHealthCorrelationsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	primary, err := model.ParseMetricType(args.PrimaryMetric)
	if err != nil {
		return nil, &apperr.InvalidMetricError{Metric: args.PrimaryMetric}
	}
	others, err := parseMetrics(args.CorrelationMetrics)
	if err != nil {
		return nil, err
	}
	others = without(others, primary)
	if len(others) == 0 {
		return nil, &apperr.InvalidArgumentError{Field: "correlation_metrics", Reason: "must name at least one metric other than primary_metric"}
	}

	userID, err := resolveUserID(ctx, args.UserID)
	if err != nil {
		return nil, err
	}

	window := TimeWindow(args.TimeWindow)
	if window == "" {
		window = WindowDaily
	}
	days, ok := lookbackDays[window]
	if !ok {
		return nil, &apperr.InvalidArgumentError{Field: "time_window", Reason: "is not a supported window"}
	}
	rng := query.Range(model.TimePeriod{Days: days, Type: model.PeriodLast}, d.now())

	base, err := d.fetchSeries(ctx, primary, userID, rng)
	if err != nil {
		return nil, err
	}
	degraded := base.resp.Degraded

	result := &GetHealthCorrelationsResult{
		PrimaryMetric:      primary,
		CorrelationMetrics: others,
		TimeWindow:         window,
		DateRange:          newDateRange(rng),
		Correlations:       make(map[model.MetricType]Correlation, len(others)),
		Insights:           []CorrelationInsight{},
		Recommendations:    []Recommendation{},
	}

	for _, metric := range others {
		series, err := d.fetchSeries(ctx, metric, userID, rng)
		if err != nil {
			return nil, err
		}
		degraded = degraded || series.resp.Degraded

		c := correlate(base, series, window)
		result.Correlations[metric] = c
		if c.Coefficient == nil {
			continue
		}

		r := *c.Coefficient
		if math.Abs(r) > strongCorrelation {
			result.Insights = append(result.Insights, CorrelationInsight{
				Type:        "strong_correlation",
				Message:     fmt.Sprintf("Strong %s correlation found between %s and %s", c.Direction, metricLabel(primary), metricLabel(metric)),
				Coefficient: r,
			})
		}
		if math.Abs(r) > recommendedCorrelation {
			result.Recommendations = append(result.Recommendations, recommend(primary, metric, r))
		}
	}

	return &outcome{
		result:   result,
		degraded: degraded,
		audit: audit.Entry{
			UserID:        userID,
			OperationType: audit.OperationAnalyze,
			ResourceType:  audit.ResourceHealthMetrics,
			ResourceID:    string(primary),
			AdditionalData: map[string]interface{}{
				"correlation_metrics": others,
				"time_window":         string(window),
			},
		},
	}, nil
}

// correlate computes Pearson's r over the windows both series have data for,
// falling back to the reference table when there are too few shared windows.
func correlate(a, b *metricSeries, window TimeWindow) Correlation {
	x, y := align(a, b, window)

	if r, ok := analytics.Pearson(x, y); ok {
		return describeCorrelation(analytics.Round(r, 3), SourceMeasured, len(x))
	}
	if r, ok := analytics.ReferenceCorrelation(a.metric, b.metric); ok {
		return describeCorrelation(r, SourceReference, len(x))
	}
	return Correlation{
		Strength:       "unknown",
		Interpretation: "Not enough overlapping data to estimate a correlation",
		Source:         SourceInsufficientData,
		DataPoints:     len(x),
	}
}

func describeCorrelation(r float64, source string, points int) Correlation {
	strength := analytics.Interpret(r)
	direction := "none"
	switch {
	case r > 0:
		direction = "positive"
	case r < 0:
		direction = "negative"
	}

	interpretation := "No meaningful correlation"
	if strength != "none" {
		interpretation = fmt.Sprintf("%s %s correlation", capitalize(strength), direction)
	}
	return Correlation{
		Coefficient:    &r,
		Strength:       strength,
		Direction:      direction,
		Interpretation: interpretation,
		Source:         source,
		DataPoints:     points,
	}
}

func recommend(primary, metric model.MetricType, r float64) Recommendation {
	if r > 0 {
		return Recommendation{
			Type:    "positive_correlation",
			Message: fmt.Sprintf("Improving %s may help improve %s", metricLabel(metric), metricLabel(primary)),
			Action:  fmt.Sprintf("Focus on activities that boost both %s and %s", metricLabel(primary), metricLabel(metric)),
		}
	}
	return Recommendation{
		Type:    "negative_correlation",
		Message: fmt.Sprintf("%s appears to move against %s", capitalize(metricLabel(metric)), metricLabel(primary)),
		Action:  fmt.Sprintf("Monitor %s when trying to improve %s", metricLabel(metric), metricLabel(primary)),
	}
}

// align buckets both series by window and returns the mean value of every
// bucket present in both, in chronological order
func align(a, b *metricSeries, window TimeWindow) ([]float64, []float64) {
	ma := bucketMeans(a.points, window)
	mb := bucketMeans(b.points, window)

	keys := make([]string, 0, len(ma))
	for k := range ma {
		if _, ok := mb[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	x := make([]float64, len(keys))
	y := make([]float64, len(keys))
	for i, k := range keys {
		x[i], y[i] = ma[k], mb[k]
	}
	return x, y
}

func bucketMeans(points []model.DailyPoint, window TimeWindow) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range points {
		date, err := time.Parse(query.DateLayout, p.Date)
		if err != nil {
			continue
		}
		key := bucketKey(date, window)
		sums[key] += p.Value
		counts[key]++
	}

	means := make(map[string]float64, len(sums))
	for k, sum := range sums {
		means[k] = sum / float64(counts[k])
	}
	return means
}

func bucketKey(date time.Time, window TimeWindow) string {
	switch window {
	case WindowWeekly:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case WindowMonthly:
		return date.Format("2006-01")
	default:
		return date.Format(query.DateLayout)
	}
}

func without(metrics []model.MetricType, drop model.MetricType) []model.MetricType {
	out := metrics[:0:0]
	for _, m := range metrics {
		if m != drop {
			out = append(out, m)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
