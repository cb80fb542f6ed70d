package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// fixtureStart is the first day of every fixture series
var fixtureStart = time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

// fixtureDay is one day of sample data. value is the day total for summed
// metrics and the day average for sampled ones.
type fixtureDay struct {
	value       float64
	count       int
	workoutType string
}

type fixtureSeries struct {
	days   []fixtureDay
	summed bool
	// min and max override the bucket extremes when individual readings are known
	min, max float64
}

var fixtureData = map[model.MetricType]fixtureSeries{
	model.MetricSteps: {
		summed: true,
		days: []fixtureDay{
			{value: 1987, count: 1}, {value: 2543, count: 1}, {value: 1876, count: 1}, {value: 3421, count: 1},
			{value: 892, count: 1}, {value: 2156, count: 1}, {value: 1247, count: 1},
		},
	},
	model.MetricHeartRate: {
		days: []fixtureDay{
			{value: 70, count: 2}, {value: 74, count: 2}, {value: 71, count: 2}, {value: 73, count: 2},
			{value: 72, count: 2}, {value: 72, count: 2}, {value: 72, count: 3},
		},
		min: 62,
		max: 85,
	},
	model.MetricWorkouts: {
		summed: true,
		days: []fixtureDay{
			{value: 30, count: 1, workoutType: "running"}, {}, {value: 45, count: 1, workoutType: "cycling"}, {},
			{}, {value: 25, count: 1, workoutType: "walking"}, {},
		},
	},
	model.MetricSleep: {
		summed: true,
		days: []fixtureDay{
			{value: 7.2, count: 1}, {value: 6.8, count: 1}, {value: 7.5, count: 1}, {value: 6.5, count: 1},
			{value: 8.0, count: 1}, {value: 7.1, count: 1}, {value: 6.9, count: 1},
		},
	},
	model.MetricWeight: {
		days: []fixtureDay{
			{value: 72.4, count: 1}, {value: 72.3, count: 1}, {value: 72.5, count: 1}, {value: 72.2, count: 1},
			{value: 72.1, count: 1}, {value: 72.0, count: 1}, {value: 71.9, count: 1},
		},
	},
	model.MetricBloodPressure: {
		days: []fixtureDay{
			{value: 122, count: 1}, {value: 118, count: 1}, {value: 125, count: 1}, {value: 119, count: 1},
			{value: 121, count: 1}, {value: 117, count: 1}, {value: 120, count: 1},
		},
	},
}

type fixtureMember struct {
	id     string
	name   string
	factor float64
}

var fixtureMembers = []fixtureMember{
	{id: "member_1", name: "Alex", factor: 1.05},
	{id: "member_2", name: "Sam", factor: 1.0},
	{id: "member_3", name: "Jordan", factor: 0.9},
}

var fixtureFamilySteps = map[string]float64{
	"member_1": 9200,
	"member_2": 8800,
	"member_3": 7600,
}

// Fixture returns deterministic sample data for one user's metric.
// The response is always flagged as degraded.
func Fixture(metric model.MetricType) (*model.SearchResponse, error) {
	series, ok := fixtureData[metric]
	if !ok {
		return nil, fmt.Errorf("no fixture for metric %q", metric)
	}

	resp := &model.SearchResponse{Degraded: true}
	resp.Aggregations.Min = math.Inf(1)
	resp.Aggregations.Max = math.Inf(-1)

	for i, d := range series.days {
		date := fixtureStart.AddDate(0, 0, i)
		bucket := model.DailyBucket{Date: date, Count: d.count}
		if d.count > 0 {
			if series.summed {
				bucket.Sum = d.value
				bucket.Avg = d.value / float64(d.count)
			} else {
				bucket.Sum = d.value * float64(d.count)
				bucket.Avg = d.value
			}
			resp.Aggregations.Min = math.Min(resp.Aggregations.Min, bucket.Avg)
			resp.Aggregations.Max = math.Max(resp.Aggregations.Max, bucket.Avg)
			resp.Hits = append(resp.Hits, model.HealthRecord{
				UserID:      "fixture-user",
				MetricType:  metric,
				Value:       bucket.Avg,
				Unit:        metric.Unit(),
				Timestamp:   date.Add(12 * time.Hour),
				Source:      "fixture",
				WorkoutType: d.workoutType,
			})
		}
		resp.Total += d.count
		resp.Aggregations.Sum += bucket.Sum
		resp.Aggregations.Daily = append(resp.Aggregations.Daily, bucket)
	}

	if series.min != 0 || series.max != 0 {
		resp.Aggregations.Min, resp.Aggregations.Max = series.min, series.max
	}
	if resp.Total > 0 {
		resp.Aggregations.Avg = resp.Aggregations.Sum / float64(resp.Total)
	} else {
		resp.Aggregations.Min, resp.Aggregations.Max = 0, 0
	}

	sort.Slice(resp.Hits, func(i, j int) bool {
		return resp.Hits[i].Timestamp.After(resp.Hits[j].Timestamp)
	})
	return resp, nil
}

// FamilyFixture returns deterministic per-member sample data for a family search
func FamilyFixture(metric model.MetricType) (*model.SearchResponse, error) {
	base, err := Fixture(metric)
	if err != nil {
		return nil, err
	}

	resp := &model.SearchResponse{Degraded: true}
	resp.Aggregations.Min = math.Inf(1)
	resp.Aggregations.Max = math.Inf(-1)

	for _, m := range fixtureMembers {
		avg := base.Aggregations.Avg * m.factor
		if steps, ok := fixtureFamilySteps[m.id]; ok && metric == model.MetricSteps {
			avg = steps
		}
		avg = math.Round(avg*100) / 100

		docs := base.Total
		resp.Aggregations.Members = append(resp.Aggregations.Members, model.MemberBucket{
			MemberID: m.id,
			Name:     m.name,
			DocCount: docs,
			Sum:      avg * float64(docs),
			Avg:      avg,
		})
		resp.Total += docs
		resp.Aggregations.Sum += avg * float64(docs)
		resp.Aggregations.Min = math.Min(resp.Aggregations.Min, avg)
		resp.Aggregations.Max = math.Max(resp.Aggregations.Max, avg)
	}
	if resp.Total > 0 {
		resp.Aggregations.Avg = resp.Aggregations.Sum / float64(resp.Total)
	}

	members := float64(len(fixtureMembers))
	for _, b := range base.Aggregations.Daily {
		resp.Aggregations.Daily = append(resp.Aggregations.Daily, model.DailyBucket{
			Date:  b.Date,
			Sum:   b.Sum * members,
			Avg:   b.Avg,
			Count: b.Count * len(fixtureMembers),
		})
	}
	return resp, nil
}

// FixtureEngine serves fixture data for every request
type FixtureEngine struct{}

// Search returns the fixture matching the request's metric and scope
func (FixtureEngine) Search(_ context.Context, req *query.SearchRequest) (*model.SearchResponse, error) {
	if req.IsFamily() {
		return FamilyFixture(req.Metric)
	}
	return Fixture(req.Metric)
}
