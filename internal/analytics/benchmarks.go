package analytics

import (
	"math"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// Band is an inclusive value range; a zero Max means unbounded above
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max,omitempty"`
}

func (b Band) contains(v float64) bool {
	if v < b.Min {
		return false
	}
	return b.Max == 0 || v <= b.Max
}

// Benchmark holds the rating bands of one metric, best first
type Benchmark struct {
	Metric    model.MetricType `json:"metric"`
	Unit      string           `json:"unit"`
	Excellent Band             `json:"excellent"`
	Good      Band             `json:"good"`
	Fair      Band             `json:"fair"`
	Poor      Band             `json:"poor"`
}

var benchmarks = map[model.MetricType]Benchmark{
	model.MetricSteps: {
		Unit:      "steps/day",
		Excellent: Band{Min: 12000},
		Good:      Band{Min: 10000},
		Fair:      Band{Min: 7500},
		Poor:      Band{Min: 5000},
	},
	model.MetricHeartRate: {
		Unit:      "bpm",
		Excellent: Band{Min: 60, Max: 80},
		Good:      Band{Min: 60, Max: 90},
		Fair:      Band{Min: 50, Max: 100},
		Poor:      Band{Min: 40, Max: 120},
	},
	model.MetricWorkouts: {
		Unit:      "sessions/week",
		Excellent: Band{Min: 5},
		Good:      Band{Min: 3},
		Fair:      Band{Min: 2},
		Poor:      Band{Min: 1},
	},
	model.MetricSleep: {
		Unit:      "hours/night",
		Excellent: Band{Min: 7, Max: 9},
		Good:      Band{Min: 6.5, Max: 9.5},
		Fair:      Band{Min: 6, Max: 10},
		Poor:      Band{Min: 5, Max: 11},
	},
	model.MetricBloodPressure: {
		Unit:      "mmHg systolic",
		Excellent: Band{Min: 90, Max: 119},
		Good:      Band{Min: 90, Max: 129},
		Fair:      Band{Min: 90, Max: 139},
		Poor:      Band{Min: 80, Max: 159},
	},
}

// BenchmarkFor returns the rating bands of a metric; weight has none
func BenchmarkFor(metric model.MetricType) (Benchmark, bool) {
	b, ok := benchmarks[metric]
	if ok {
		b.Metric = metric
	}
	return b, ok
}

// Rate places a value in the best band that contains it
func Rate(metric model.MetricType, value float64) (string, bool) {
	b, ok := BenchmarkFor(metric)
	if !ok {
		return "", false
	}
	switch {
	case b.Excellent.contains(value):
		return "excellent", true
	case b.Good.contains(value):
		return "good", true
	case b.Fair.contains(value):
		return "fair", true
	case b.Poor.contains(value):
		return "poor", true
	default:
		return "needs attention", true
	}
}

var ratingScores = map[string]float64{
	"excellent":       100,
	"good":            80,
	"fair":            60,
	"poor":            40,
	"needs attention": 20,
}

// Score maps a value onto 0-100. Steps scale linearly against the good band.
func Score(metric model.MetricType, value float64) (float64, bool) {
	if metric == model.MetricSteps {
		b := benchmarks[model.MetricSteps]
		return math.Round(math.Min(value/b.Good.Min*100, 100)), true
	}
	rating, ok := Rate(metric, value)
	if !ok {
		return 0, false
	}
	return ratingScores[rating], true
}
