package formatter

import (
	"math"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func (f *Formatter) formatHeartRate(resp *model.SearchResponse, result *model.QueryResult) {
	daily := dailyPoints(resp.Aggregations.Daily, false)
	average := resp.Aggregations.Avg

	result.Summary = model.HeartRateSummary{
		Kind:             model.SummaryKindHeartRate,
		AverageHeartRate: math.Round(average),
		MaxHeartRate:     math.Round(resp.Aggregations.Max),
		MinHeartRate:     math.Round(resp.Aggregations.Min),
		Unit:             "bpm",
	}
	result.DailyData = daily
	result.Insights = f.heartRateInsights(average)
	result.Visualization = model.Visualization{
		ChartType: "line",
		Labels:    pointLabels(daily),
		Data:      pointValues(daily),
		Color:     colorNeutral,
	}
}

func (f *Formatter) heartRateInsights(average float64) []model.Insight {
	p := f.policy
	avg := int64(math.Round(average))

	switch {
	case average > p.HeartRateHigh:
		return []model.Insight{{
			Type:           model.InsightWarning,
			Message:        f.printer.Sprintf("Your average heart rate (%d bpm) is elevated", avg),
			Recommendation: "Consider consulting with a healthcare provider",
		}}
	case average >= p.HeartRateLow:
		return []model.Insight{{
			Type:    model.InsightPositive,
			Message: f.printer.Sprintf("Your average heart rate (%d bpm) is within the normal range", avg),
		}}
	case average > 0:
		return []model.Insight{{
			Type:           model.InsightInfo,
			Message:        f.printer.Sprintf("Your average heart rate (%d bpm) is below the typical resting range", avg),
			Recommendation: "A low resting heart rate is common for athletes; mention it to a provider if you feel dizzy or tired",
		}}
	default:
		return nil
	}
}

// formatGeneric covers sleep, weight and blood pressure
func (f *Formatter) formatGeneric(resp *model.SearchResponse, result *model.QueryResult) {
	metric := result.Metric
	daily := dailyPoints(resp.Aggregations.Daily, UsesDailySum(metric))
	values := pointValues(daily)

	summary := model.GenericSummary{
		Kind:    model.SummaryKindGeneric,
		Metric:  metric,
		Average: resp.Aggregations.Avg,
		Max:     resp.Aggregations.Max,
		Min:     resp.Aggregations.Min,
		Total:   analytics.Round(resp.Aggregations.Sum, 1),
		Unit:    metric.Unit(),
	}
	if len(values) > 0 {
		stats := analytics.Describe(values)
		summary.Average, summary.Max, summary.Min = stats.Mean, stats.Max, stats.Min
	}
	average := summary.Average
	summary.Average = analytics.Round(summary.Average, 1)
	summary.Max = analytics.Round(summary.Max, 1)
	summary.Min = analytics.Round(summary.Min, 1)
	if len(values) >= 2 {
		summary.Change = floatPtr(analytics.Round(values[len(values)-1]-values[0], 1))
	}

	result.Summary = summary
	result.DailyData = daily
	result.Visualization = model.Visualization{
		ChartType: "line",
		Labels:    pointLabels(daily),
		Data:      values,
		Color:     colorNeutral,
	}

	switch metric {
	case model.MetricSleep:
		result.Insights = f.sleepInsights(average)
	case model.MetricBloodPressure:
		result.Insights = f.bloodPressureInsights(average)
	case model.MetricWeight:
		result.Insights = f.weightInsights(summary.Change)
	}
}

func (f *Formatter) sleepInsights(hours float64) []model.Insight {
	p := f.policy
	switch {
	case hours <= 0:
		return nil
	case hours < p.SleepLowHours:
		return []model.Insight{{
			Type:           model.InsightWarning,
			Message:        f.printer.Sprintf("You averaged %.1f hours of sleep", hours),
			Recommendation: f.printer.Sprintf("Adults need %.0f-%.0f hours of sleep; try a consistent bedtime", p.SleepLowHours, p.SleepHighHours),
		}}
	case hours <= p.SleepHighHours:
		return []model.Insight{{
			Type:    model.InsightPositive,
			Message: f.printer.Sprintf("You averaged %.1f hours of sleep, within the recommended range", hours),
		}}
	default:
		return []model.Insight{{
			Type:           model.InsightInfo,
			Message:        f.printer.Sprintf("You averaged %.1f hours of sleep", hours),
			Recommendation: f.printer.Sprintf("Regularly sleeping more than %.0f hours is worth mentioning to a provider", p.SleepHighHours),
		}}
	}
}

func (f *Formatter) bloodPressureInsights(systolic float64) []model.Insight {
	p := f.policy
	avg := int64(math.Round(systolic))
	switch {
	case systolic <= 0:
		return nil
	case systolic >= p.SystolicElevated:
		return []model.Insight{{
			Type:           model.InsightWarning,
			Message:        f.printer.Sprintf("Your average systolic pressure (%d mmHg) is elevated", avg),
			Recommendation: "Consider consulting with a healthcare provider",
		}}
	case systolic < p.SystolicNormal:
		return []model.Insight{{
			Type:    model.InsightPositive,
			Message: f.printer.Sprintf("Your average systolic pressure (%d mmHg) is in the normal range", avg),
		}}
	default:
		return []model.Insight{{
			Type:           model.InsightInfo,
			Message:        f.printer.Sprintf("Your average systolic pressure (%d mmHg) is slightly above normal", avg),
			Recommendation: "Reducing sodium and staying active can help",
		}}
	}
}

func (f *Formatter) weightInsights(change *float64) []model.Insight {
	if change == nil {
		return nil
	}
	return []model.Insight{{
		Type:    model.InsightInfo,
		Message: f.printer.Sprintf("Your weight changed by %+.1f kg over this period", *change),
	}}
}
