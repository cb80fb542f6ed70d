package query

import (
	"regexp"
	"strings"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

type metricPattern struct {
	metric  model.MetricType
	pattern *regexp.Regexp
}

// metricPatterns is evaluated in order and the first match wins, so
// "step activity" is steps while a bare "activity" is workouts.
var metricPatterns = []metricPattern{
	{model.MetricSteps, regexp.MustCompile(`(?i)\b(?:foot)?steps?\b(?:\s+(?:count|data|activity))?`)},
	{model.MetricHeartRate, regexp.MustCompile(`(?i)\b(?:heart\s*rate|pulse|bpm)\b`)},
	{model.MetricWorkouts, regexp.MustCompile(`(?i)\b(?:workouts?|exercises?|exercising|activity|activities|training)\b`)},
	{model.MetricSleep, regexp.MustCompile(`(?i)\b(?:sleep|slept|sleeping)\b`)},
	{model.MetricWeight, regexp.MustCompile(`(?i)\b(?:body\s+)?weight\b`)},
	{model.MetricBloodPressure, regexp.MustCompile(`(?i)\b(?:blood\s*pressure|bp)\b`)},
}

var (
	leadingFiller   = regexp.MustCompile(`(?i)^(?:(?:data|count|readings?|levels?|for|from|in|during|over|the|of)\s+)+`)
	requestPreamble = regexp.MustCompile(`(?i)^(?:(?:show|me|get|find|what|was|were|is|are|how|many|much|did|i|my|please|give)\s+)+`)
)

// Parse extracts the metric and the time phrase from free text.
// An unrecognized metric leaves Metric nil; the time period is always resolved.
func Parse(text string) model.ParsedQuery {
	parsed := model.ParsedQuery{OriginalQuery: text}
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))

	for _, mp := range metricPatterns {
		loc := mp.pattern.FindStringIndex(normalized)
		if loc == nil {
			continue
		}
		metric := mp.metric
		parsed.Metric = &metric
		parsed.TimePhrase = extractTimePhrase(normalized, loc)
		break
	}

	parsed.TimePeriod = Resolve(parsed.TimePhrase)
	return parsed
}

// DetectMetric returns the first metric family mentioned in text
func DetectMetric(text string) (model.MetricType, bool) {
	parsed := Parse(text)
	if parsed.Metric == nil {
		return "", false
	}
	return *parsed.Metric, true
}

// extractTimePhrase prefers the words after the metric and falls back to the words before it
func extractTimePhrase(text string, loc []int) string {
	after := strings.TrimSpace(text[loc[1]:])
	after = strings.TrimSpace(leadingFiller.ReplaceAllString(after+" ", ""))
	after = strings.TrimRight(after, "?.! ")
	if after != "" {
		return after
	}

	before := strings.TrimSpace(text[:loc[0]])
	before = strings.TrimSpace(requestPreamble.ReplaceAllString(before+" ", ""))
	return strings.TrimRight(before, "?.! ")
}
