package formatter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func parsedFor(metric model.MetricType, days int) model.ParsedQuery {
	return model.ParsedQuery{
		OriginalQuery: "show me " + string(metric) + " last week",
		Metric:        &metric,
		TimePhrase:    "last week",
		TimePeriod:    model.TimePeriod{Days: days, Type: model.PeriodLast},
	}
}

// dailyResponse builds a response with one bucket per value starting 2024-06-21
func dailyResponse(values []float64, total int) *model.SearchResponse {
	resp := &model.SearchResponse{Total: total}
	var sum float64
	resp.Aggregations.Min = values[0]
	resp.Aggregations.Max = values[0]
	for i, v := range values {
		resp.Aggregations.Daily = append(resp.Aggregations.Daily, model.DailyBucket{
			Date:  time.Date(2024, 6, 21+i, 0, 0, 0, 0, time.UTC),
			Sum:   v,
			Avg:   v,
			Count: 1,
		})
		sum += v
		if v < resp.Aggregations.Min {
			resp.Aggregations.Min = v
		}
		if v > resp.Aggregations.Max {
			resp.Aggregations.Max = v
		}
	}
	resp.Aggregations.Sum = sum
	resp.Aggregations.Avg = sum / float64(len(values))
	return resp
}

func TestFormat_StepsScenario(t *testing.T) {
	f := New(DefaultPolicy())
	resp := dailyResponse([]float64{1987, 2543, 1876, 3421, 892, 2156, 1247}, 7)

	result, err := f.Format(resp, parsedFor(model.MetricSteps, 7))
	require.NoError(t, err)

	summary, ok := result.Summary.(model.StepsSummary)
	require.True(t, ok)
	assert.Equal(t, model.StepsSummary{
		Kind:          model.SummaryKindSteps,
		TotalSteps:    14122,
		AveragePerDay: 2017,
		HighestDay:    3421,
		LowestDay:     892,
		Unit:          "steps",
	}, summary)

	require.Len(t, result.Insights, 1)
	assert.Equal(t, model.InsightWarning, result.Insights[0].Type)
	assert.Equal(t, "Your average daily steps (2,017) is below the recommended 8,000-10,000 steps", result.Insights[0].Message)
	assert.Equal(t, "Try to increase daily walking activity", result.Insights[0].Recommendation)

	assert.Equal(t, "line", result.Visualization.ChartType)
	assert.Equal(t, []string{"Fri", "Sat", "Sun", "Mon", "Tue", "Wed", "Thu"}, result.Visualization.Labels)
	require.NotNil(t, result.Visualization.Goal)
	assert.Equal(t, 10000.0, *result.Visualization.Goal)
	assert.Equal(t, "#dc3545", result.Visualization.Color)

	require.Len(t, result.DailyData, 7)
	assert.Equal(t, model.DailyPoint{Date: "2024-06-21", Value: 1987, DayOfWeek: "Fri"}, result.DailyData[0])
	assert.Equal(t, 7, result.TotalRecords)
}

func TestFormat_StepsBands(t *testing.T) {
	f := New(DefaultPolicy())

	tests := []struct {
		name        string
		daily       float64
		wantInsight model.InsightType
		wantColor   string
	}{
		{"goal met", 11000, model.InsightPositive, "#28a745"},
		{"on track", 8500, model.InsightInfo, "#28a745"},
		{"moderate", 6000, model.InsightInfo, "#ffc107"},
		{"exactly low threshold", 5000, model.InsightInfo, "#ffc107"},
		{"low", 4999, model.InsightWarning, "#dc3545"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := []float64{tt.daily, tt.daily, tt.daily}
			result, err := f.Format(dailyResponse(values, 3), parsedFor(model.MetricSteps, 3))
			require.NoError(t, err)

			require.Len(t, result.Insights, 1)
			assert.Equal(t, tt.wantInsight, result.Insights[0].Type)
			assert.Equal(t, tt.wantColor, result.Visualization.Color)
		})
	}
}

func TestFormat_ThresholdsUseUnroundedAverage(t *testing.T) {
	tests := []struct {
		name        string
		metric      model.MetricType
		values      []float64
		wantInsight model.InsightType
		wantColor   string
	}{
		{"steps just under the low cutoff", model.MetricSteps, []float64{4999, 5000}, model.InsightWarning, "#dc3545"},
		{"steps just under the goal", model.MetricSteps, []float64{9999, 10000}, model.InsightInfo, "#28a745"},
		{"heart rate just above the high cutoff", model.MetricHeartRate, []float64{100.4}, model.InsightWarning, ""},
		{"systolic just under elevated", model.MetricBloodPressure, []float64{129.92, 130}, model.InsightInfo, ""},
	}

	f := New(DefaultPolicy())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.Format(dailyResponse(tt.values, len(tt.values)), parsedFor(tt.metric, 7))
			require.NoError(t, err)

			require.NotEmpty(t, result.Insights)
			assert.Equal(t, tt.wantInsight, result.Insights[0].Type)
			if tt.wantColor != "" {
				assert.Equal(t, tt.wantColor, result.Visualization.Color)
			}
		})
	}
}

func TestFormat_StepsHighVariance(t *testing.T) {
	f := New(DefaultPolicy())
	resp := dailyResponse([]float64{500, 4500, 500, 4500}, 4)

	result, err := f.Format(resp, parsedFor(model.MetricSteps, 4))
	require.NoError(t, err)

	require.Len(t, result.Insights, 2)
	assert.Equal(t, model.InsightInfo, result.Insights[1].Type)
	assert.Equal(t, "Your daily step count varies significantly", result.Insights[1].Message)
}

func TestFormat_StepsWithoutBucketsUsesAggregations(t *testing.T) {
	f := New(DefaultPolicy())
	resp := &model.SearchResponse{Total: 2}
	resp.Aggregations = model.Aggregations{Sum: 20000, Avg: 10000, Max: 12000, Min: 8000}

	result, err := f.Format(resp, parsedFor(model.MetricSteps, 7))
	require.NoError(t, err)

	summary := result.Summary.(model.StepsSummary)
	assert.Equal(t, 10000.0, summary.AveragePerDay)
	assert.Equal(t, 12000.0, summary.HighestDay)
	assert.NotNil(t, result.DailyData)
	assert.Empty(t, result.DailyData)
}

func TestFormat_HeartRate(t *testing.T) {
	f := New(DefaultPolicy())

	tests := []struct {
		name    string
		average float64
		want    model.InsightType
	}{
		{"normal", 72, model.InsightPositive},
		{"elevated", 104, model.InsightWarning},
		{"low", 52, model.InsightInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &model.SearchResponse{Total: 15}
			resp.Aggregations = model.Aggregations{Sum: tt.average * 15, Avg: tt.average, Max: 85, Min: 62}

			result, err := f.Format(resp, parsedFor(model.MetricHeartRate, 7))
			require.NoError(t, err)

			summary := result.Summary.(model.HeartRateSummary)
			assert.Equal(t, tt.average, summary.AverageHeartRate)
			assert.Equal(t, 85.0, summary.MaxHeartRate)
			assert.Equal(t, 62.0, summary.MinHeartRate)
			assert.Equal(t, "bpm", summary.Unit)
			require.Len(t, result.Insights, 1)
			assert.Equal(t, tt.want, result.Insights[0].Type)
		})
	}
}

func TestFormat_Workouts(t *testing.T) {
	f := New(DefaultPolicy())
	resp := &model.SearchResponse{
		Total: 3,
		Hits: []model.HealthRecord{
			{MetricType: model.MetricWorkouts, Value: 30, WorkoutType: "running"},
			{MetricType: model.MetricWorkouts, Value: 45, WorkoutType: "cycling"},
			{MetricType: model.MetricWorkouts, Value: 25, WorkoutType: "walking"},
		},
	}
	resp.Aggregations = model.Aggregations{Sum: 100, Avg: 33.33, Max: 45, Min: 25}

	result, err := f.Format(resp, parsedFor(model.MetricWorkouts, 7))
	require.NoError(t, err)

	assert.Equal(t, model.WorkoutSummary{
		Kind:            model.SummaryKindWorkouts,
		TotalWorkouts:   3,
		TotalMinutes:    100,
		AverageDuration: 33.3,
		Unit:            "minutes",
	}, result.Summary)
	assert.Equal(t, map[string]int{"running": 1, "cycling": 1, "walking": 1}, result.WorkoutTypes)
	require.Len(t, result.Insights, 1)
	assert.Equal(t, model.InsightPositive, result.Insights[0].Type)
	assert.Equal(t, "bar", result.Visualization.ChartType)

	// three sessions over a month misses the scaled target
	monthly, err := f.Format(resp, parsedFor(model.MetricWorkouts, 30))
	require.NoError(t, err)
	assert.Equal(t, model.InsightRecommendation, monthly.Insights[0].Type)
	assert.Equal(t, "Aim for at least 3 workout sessions per week", monthly.Insights[0].Recommendation)
}

func TestFormat_GenericMetrics(t *testing.T) {
	f := New(DefaultPolicy())

	sleep, err := f.Format(dailyResponse([]float64{7.2, 6.8, 7.5, 6.5, 8.0, 7.1, 6.9}, 7), parsedFor(model.MetricSleep, 7))
	require.NoError(t, err)
	sleepSummary := sleep.Summary.(model.GenericSummary)
	assert.Equal(t, 7.1, sleepSummary.Average)
	assert.Equal(t, "hours", sleepSummary.Unit)
	assert.Equal(t, model.InsightPositive, sleep.Insights[0].Type)

	bp, err := f.Format(dailyResponse([]float64{122, 118, 125, 119, 121, 117, 120}, 7), parsedFor(model.MetricBloodPressure, 7))
	require.NoError(t, err)
	assert.Equal(t, 120.3, bp.Summary.(model.GenericSummary).Average)
	assert.Equal(t, model.InsightInfo, bp.Insights[0].Type)

	weight, err := f.Format(dailyResponse([]float64{72.4, 72.3, 72.5, 72.2, 72.1, 72.0, 71.9}, 7), parsedFor(model.MetricWeight, 7))
	require.NoError(t, err)
	change := weight.Summary.(model.GenericSummary).Change
	require.NotNil(t, change)
	assert.Equal(t, -0.5, *change)
	assert.Equal(t, "Your weight changed by -0.5 kg over this period", weight.Insights[0].Message)
}

func TestFormat_UnrecognizedMetric(t *testing.T) {
	f := New(DefaultPolicy())

	_, err := f.Format(&model.SearchResponse{}, model.ParsedQuery{OriginalQuery: "how am I"})

	var unrecognized *apperr.UnrecognizedMetricError
	assert.True(t, errors.As(err, &unrecognized))
}

func TestFormat_IsDeterministic(t *testing.T) {
	f := New(DefaultPolicy())
	resp := dailyResponse([]float64{1987, 2543, 1876, 3421, 892, 2156, 1247}, 7)

	first, err := f.Format(resp, parsedFor(model.MetricSteps, 7))
	require.NoError(t, err)
	second, err := f.Format(resp, parsedFor(model.MetricSteps, 7))
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Format() not deterministic (-first +second):\n%s", diff)
	}
}

func TestQueryResult_SummaryCarriesKind(t *testing.T) {
	f := New(DefaultPolicy())
	result, err := f.Format(dailyResponse([]float64{9000, 11000}, 2), parsedFor(model.MetricSteps, 2))
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, "steps", summary["kind"])
	assert.Equal(t, 20000.0, summary["totalSteps"])
}
