package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantMetric model.MetricType
		wantPhrase string
		wantPeriod model.TimePeriod
	}{
		{
			name:       "steps last week",
			text:       "show me steps last week",
			wantMetric: model.MetricSteps,
			wantPhrase: "last week",
			wantPeriod: model.TimePeriod{Days: 7, Type: model.PeriodLast},
		},
		{
			name:       "case insensitive heart rate",
			text:       "Heart Rate this month",
			wantMetric: model.MetricHeartRate,
			wantPhrase: "this month",
			wantPeriod: model.TimePeriod{Days: 30, Type: model.PeriodCurrent},
		},
		{
			name:       "step activity resolves to steps",
			text:       "step activity last week",
			wantMetric: model.MetricSteps,
			wantPhrase: "last week",
			wantPeriod: model.TimePeriod{Days: 7, Type: model.PeriodLast},
		},
		{
			name:       "bare activity resolves to workouts",
			text:       "activity yesterday",
			wantMetric: model.MetricWorkouts,
			wantPhrase: "yesterday",
			wantPeriod: model.TimePeriod{Days: 1, Type: model.PeriodLast},
		},
		{
			name:       "weightlifting workouts resolves to workouts",
			text:       "weightlifting workouts this week",
			wantMetric: model.MetricWorkouts,
			wantPhrase: "this week",
			wantPeriod: model.TimePeriod{Days: 7, Type: model.PeriodCurrent},
		},
		{
			name:       "blood pressure",
			text:       "blood pressure past month",
			wantMetric: model.MetricBloodPressure,
			wantPhrase: "past month",
			wantPeriod: model.TimePeriod{Days: 30, Type: model.PeriodLast},
		},
		{
			name:       "bp abbreviation",
			text:       "bp today",
			wantMetric: model.MetricBloodPressure,
			wantPhrase: "today",
			wantPeriod: model.TimePeriod{Days: 1, Type: model.PeriodCurrent},
		},
		{
			name:       "bpm is heart rate",
			text:       "show me my bpm",
			wantMetric: model.MetricHeartRate,
			wantPhrase: "",
			wantPeriod: DefaultTimePeriod,
		},
		{
			name:       "footsteps with trailing words",
			text:       "how many footsteps did I take yesterday?",
			wantMetric: model.MetricSteps,
			wantPhrase: "did i take yesterday",
			wantPeriod: model.TimePeriod{Days: 1, Type: model.PeriodLast},
		},
		{
			name:       "time phrase before metric",
			text:       "last week steps",
			wantMetric: model.MetricSteps,
			wantPhrase: "last week",
			wantPeriod: model.TimePeriod{Days: 7, Type: model.PeriodLast},
		},
		{
			name:       "filler words stripped",
			text:       "body weight over the last 90 days",
			wantMetric: model.MetricWeight,
			wantPhrase: "last 90 days",
			wantPeriod: model.TimePeriod{Days: 90, Type: model.PeriodLast},
		},
		{
			name:       "arbitrary day count",
			text:       "what was my pulse in the last 14 days",
			wantMetric: model.MetricHeartRate,
			wantPhrase: "last 14 days",
			wantPeriod: model.TimePeriod{Days: 14, Type: model.PeriodLast},
		},
		{
			name:       "sleep without time phrase defaults",
			text:       "sleep",
			wantMetric: model.MetricSleep,
			wantPhrase: "",
			wantPeriod: DefaultTimePeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.text)

			require.NotNil(t, parsed.Metric)
			assert.Equal(t, tt.wantMetric, *parsed.Metric)
			assert.Equal(t, tt.wantPhrase, parsed.TimePhrase)
			assert.Equal(t, tt.wantPeriod, parsed.TimePeriod)
			assert.Equal(t, tt.text, parsed.OriginalQuery)
		})
	}
}

func TestParse_UnrecognizedMetric(t *testing.T) {
	for _, text := range []string{"how am I doing", "", "   ", "stepson visits last week", "bpx readings"} {
		t.Run(text, func(t *testing.T) {
			parsed := Parse(text)

			assert.Nil(t, parsed.Metric)
			assert.Equal(t, DefaultTimePeriod, parsed.TimePeriod)
		})
	}
}

func TestDetectMetric(t *testing.T) {
	metric, ok := DetectMetric("family steps this week")
	assert.True(t, ok)
	assert.Equal(t, model.MetricSteps, metric)

	_, ok = DetectMetric("family overview")
	assert.False(t, ok)
}
