package query

import "github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"

// Example is a sample query shown to users
type Example struct {
	Query       string `json:"query"`
	Description string `json:"description"`
}

// Examples lists phrasings the parser understands
var Examples = []Example{
	{Query: "show me steps last week", Description: "Daily step counts for the previous 7 days"},
	{Query: "heart rate this month", Description: "Average, maximum and minimum heart rate for the current month"},
	{Query: "workouts last 30 days", Description: "Workout sessions, minutes and types over 30 days"},
	{Query: "sleep yesterday", Description: "Hours slept yesterday"},
	{Query: "weight last 6 months", Description: "Body weight trend over half a year"},
	{Query: "blood pressure past week", Description: "Systolic readings for the past week"},
	{Query: "footsteps today", Description: "Steps taken so far today"},
}

// suggestedExamples is how many examples an unrecognized query is answered with
const suggestedExamples = 2

// UnrecognizedMetric reports text that names no metric, suggesting known phrasings
func UnrecognizedMetric(text string) *apperr.UnrecognizedMetricError {
	suggestions := make([]string, 0, suggestedExamples)
	for _, ex := range Examples[:suggestedExamples] {
		suggestions = append(suggestions, ex.Query)
	}
	return &apperr.UnrecognizedMetricError{Query: text, Examples: suggestions}
}
