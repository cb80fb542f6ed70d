package formatter

import (
	"math"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func (f *Formatter) formatSteps(resp *model.SearchResponse, result *model.QueryResult) {
	daily := dailyPoints(resp.Aggregations.Daily, true)
	values := pointValues(daily)

	total := resp.Aggregations.Sum
	average := resp.Aggregations.Avg
	highest, lowest := resp.Aggregations.Max, resp.Aggregations.Min
	if len(values) > 0 {
		stats := analytics.Describe(values)
		average = total / float64(len(values))
		highest, lowest = stats.Max, stats.Min
	}

	result.Summary = model.StepsSummary{
		Kind:          model.SummaryKindSteps,
		TotalSteps:    math.Round(total),
		AveragePerDay: math.Round(average),
		HighestDay:    math.Round(highest),
		LowestDay:     math.Round(lowest),
		Unit:          "steps",
	}
	result.DailyData = daily
	result.Insights = f.stepsInsights(average, analytics.Variance(values))
	result.Visualization = model.Visualization{
		ChartType: "line",
		Labels:    pointLabels(daily),
		Data:      values,
		Goal:      floatPtr(f.policy.StepsDailyGoal),
		Color:     f.stepsColor(average),
	}
}

func (f *Formatter) stepsInsights(average, variance float64) []model.Insight {
	p := f.policy
	avg := int64(math.Round(average))

	var insights []model.Insight
	switch {
	case average < p.StepsLowAverage:
		insights = append(insights, model.Insight{
			Type: model.InsightWarning,
			Message: f.printer.Sprintf("Your average daily steps (%d) is below the recommended %d-%d steps",
				avg, int64(p.StepsOnTrack), int64(p.StepsDailyGoal)),
			Recommendation: "Try to increase daily walking activity",
		})
	case average >= p.StepsDailyGoal:
		insights = append(insights, model.Insight{
			Type:    model.InsightPositive,
			Message: f.printer.Sprintf("Great job! You're averaging %d steps per day", avg),
		})
	default:
		insights = append(insights, model.Insight{
			Type:           model.InsightInfo,
			Message:        f.printer.Sprintf("You're averaging %d steps per day", avg),
			Recommendation: f.printer.Sprintf("Try to reach %d steps daily for optimal health", int64(p.StepsDailyGoal)),
		})
	}

	if variance > p.StepsVarianceLimit {
		insights = append(insights, model.Insight{
			Type:           model.InsightInfo,
			Message:        "Your daily step count varies significantly",
			Recommendation: "Try to maintain more consistent daily activity levels",
		})
	}
	return insights
}

func (f *Formatter) stepsColor(average float64) string {
	switch {
	case average >= f.policy.StepsOnTrack:
		return colorGood
	case average >= f.policy.StepsLowAverage:
		return colorWarning
	default:
		return colorBad
	}
}
