package formatter

import (
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func (f *Formatter) formatWorkouts(resp *model.SearchResponse, result *model.QueryResult) {
	daily := dailyPoints(resp.Aggregations.Daily, true)
	count := resp.Total
	minutes := resp.Aggregations.Sum

	var averageDuration float64
	if count > 0 {
		averageDuration = analytics.Round(minutes/float64(count), 1)
	}

	types := make(map[string]int)
	for _, hit := range resp.Hits {
		kind := hit.WorkoutType
		if kind == "" {
			kind = "other"
		}
		types[kind]++
	}

	result.Summary = model.WorkoutSummary{
		Kind:            model.SummaryKindWorkouts,
		TotalWorkouts:   count,
		TotalMinutes:    analytics.Round(minutes, 1),
		AverageDuration: averageDuration,
		Unit:            "minutes",
	}
	result.WorkoutTypes = types
	result.DailyData = daily
	result.Insights = f.workoutInsights(count, result.TimePeriod.Days)
	result.Visualization = model.Visualization{
		ChartType: "bar",
		Labels:    pointLabels(daily),
		Data:      pointValues(daily),
		Color:     colorNeutral,
	}
}

// workoutTarget scales the weekly session target to the length of the period
func (f *Formatter) workoutTarget(days int) int {
	weeks := days / 7
	if weeks < 1 {
		weeks = 1
	}
	return f.policy.WorkoutsPerWeek * weeks
}

func (f *Formatter) workoutInsights(count, days int) []model.Insight {
	target := f.workoutTarget(days)
	if count < target {
		return []model.Insight{{
			Type:           model.InsightRecommendation,
			Message:        f.printer.Sprintf("You completed %d workouts in this period", count),
			Recommendation: f.printer.Sprintf("Aim for at least %d workout sessions per week", f.policy.WorkoutsPerWeek),
		}}
	}
	return []model.Insight{{
		Type:    model.InsightPositive,
		Message: f.printer.Sprintf("Great consistency! You completed %d workouts in this period", count),
	}}
}
