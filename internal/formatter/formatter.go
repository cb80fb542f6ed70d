package formatter

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

const dateLayout = "2006-01-02"

// Formatter turns raw search responses into summaries, insights and chart data
type Formatter struct {
	policy  Policy
	printer *message.Printer
}

// New creates a Formatter with the given thresholds
func New(policy Policy) *Formatter {
	return &Formatter{
		policy:  policy,
		printer: message.NewPrinter(language.English),
	}
}

// Policy returns the thresholds the formatter was built with
func (f *Formatter) Policy() Policy {
	return f.policy
}

// Format builds the metric-specific result for a parsed query. It has no side effects.
func (f *Formatter) Format(resp *model.SearchResponse, parsed model.ParsedQuery) (*model.QueryResult, error) {
	if parsed.Metric == nil {
		return nil, query.UnrecognizedMetric(parsed.OriginalQuery)
	}
	if resp == nil {
		resp = &model.SearchResponse{}
	}

	result := &model.QueryResult{
		Query:        parsed.OriginalQuery,
		Metric:       *parsed.Metric,
		TimePeriod:   parsed.TimePeriod,
		TotalRecords: resp.Total,
	}

	switch *parsed.Metric {
	case model.MetricSteps:
		f.formatSteps(resp, result)
	case model.MetricHeartRate:
		f.formatHeartRate(resp, result)
	case model.MetricWorkouts:
		f.formatWorkouts(resp, result)
	case model.MetricSleep, model.MetricWeight, model.MetricBloodPressure:
		f.formatGeneric(resp, result)
	default:
		return nil, &apperr.InvalidMetricError{Metric: string(*parsed.Metric)}
	}

	if result.DailyData == nil {
		result.DailyData = []model.DailyPoint{}
	}
	return result, nil
}

// DailyValues returns the per-day value series of a response in date order.
// Summed metrics use the bucket total, sampled metrics the bucket average.
func DailyValues(metric model.MetricType, resp *model.SearchResponse) []model.DailyPoint {
	if resp == nil {
		return nil
	}
	return dailyPoints(resp.Aggregations.Daily, UsesDailySum(metric))
}

// UsesDailySum reports whether a metric's daily value is the bucket sum rather than the average
func UsesDailySum(metric model.MetricType) bool {
	switch metric {
	case model.MetricSteps, model.MetricWorkouts, model.MetricSleep:
		return true
	default:
		return false
	}
}

func dailyPoints(buckets []model.DailyBucket, useSum bool) []model.DailyPoint {
	sorted := append([]model.DailyBucket(nil), buckets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	points := make([]model.DailyPoint, 0, len(sorted))
	for _, b := range sorted {
		value := b.Avg
		if useSum {
			value = b.Sum
		}
		date := b.Date.UTC()
		points = append(points, model.DailyPoint{
			Date:      date.Format(dateLayout),
			Value:     value,
			DayOfWeek: date.Weekday().String()[:3],
		})
	}
	return points
}

func pointValues(points []model.DailyPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

func pointLabels(points []model.DailyPoint) []string {
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.DayOfWeek
	}
	return labels
}

func floatPtr(v float64) *float64 {
	return &v
}
