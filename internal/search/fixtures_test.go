package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

func TestFixture_Steps(t *testing.T) {
	resp, err := Fixture(model.MetricSteps)
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 14122.0, resp.Aggregations.Sum)
	assert.Equal(t, 892.0, resp.Aggregations.Min)
	assert.Equal(t, 3421.0, resp.Aggregations.Max)
	require.Len(t, resp.Aggregations.Daily, 7)
	assert.Equal(t, fixtureStart, resp.Aggregations.Daily[0].Date)

	for i := 1; i < len(resp.Hits); i++ {
		assert.True(t, resp.Hits[i-1].Timestamp.After(resp.Hits[i].Timestamp), "hits must be newest first")
	}
}

func TestFixture_HeartRate(t *testing.T) {
	resp, err := Fixture(model.MetricHeartRate)
	require.NoError(t, err)

	assert.Equal(t, 15, resp.Total)
	assert.Equal(t, 1080.0, resp.Aggregations.Sum)
	assert.Equal(t, 72.0, resp.Aggregations.Avg)
	assert.Equal(t, 62.0, resp.Aggregations.Min)
	assert.Equal(t, 85.0, resp.Aggregations.Max)
}

func TestFixture_Workouts(t *testing.T) {
	resp, err := Fixture(model.MetricWorkouts)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 100.0, resp.Aggregations.Sum)
	require.Len(t, resp.Hits, 3)
	assert.Equal(t, "walking", resp.Hits[0].WorkoutType)
	assert.Len(t, resp.Aggregations.Daily, 7)
}

func TestFixture_EveryMetric(t *testing.T) {
	for _, metric := range model.AllMetricTypes {
		resp, err := Fixture(metric)
		require.NoError(t, err, metric)
		assert.True(t, resp.Degraded)
		assert.NotEmpty(t, resp.Aggregations.Daily, metric)
	}

	_, err := Fixture(model.MetricType("glucose"))
	assert.Error(t, err)
}

func TestFamilyFixture(t *testing.T) {
	resp, err := FamilyFixture(model.MetricSteps)
	require.NoError(t, err)

	require.Len(t, resp.Aggregations.Members, 3)
	assert.Equal(t, "Alex", resp.Aggregations.Members[0].Name)
	assert.Equal(t, 9200.0, resp.Aggregations.Members[0].Avg)
	assert.Equal(t, 7600.0, resp.Aggregations.Min)
	assert.Equal(t, 9200.0, resp.Aggregations.Max)
	assert.Equal(t, 21, resp.Total)
	assert.True(t, resp.Degraded)
}

func TestFixtureEngine_RoutesByScope(t *testing.T) {
	req := testRequest()
	resp, err := FixtureEngine{}.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Aggregations.Members)

	req.UserID = ""
	req.FamilyID = "fam"
	resp, err = FixtureEngine{}.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, resp.Aggregations.Members, 3)
}
