package analytics

import (
	"math"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// MinCorrelationPoints is the fewest paired observations Pearson is computed on
const MinCorrelationPoints = 3

// Pearson returns the correlation coefficient of two equally long series.
// ok is false when there are too few points or either series is constant.
func Pearson(x, y []float64) (r float64, ok bool) {
	if len(x) != len(y) || len(x) < MinCorrelationPoints {
		return 0, false
	}

	mx, my := Mean(x), Mean(y)
	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}

	r = cov / math.Sqrt(vx*vy)
	return math.Max(-1, math.Min(1, r)), true
}

// Interpret names the strength of a correlation coefficient
func Interpret(r float64) string {
	a := math.Abs(r)
	switch {
	case a > 0.8:
		return "very strong"
	case a > 0.6:
		return "strong"
	case a > 0.4:
		return "moderate"
	case a > 0.2:
		return "weak"
	default:
		return "none"
	}
}

type metricPair struct {
	a, b model.MetricType
}

// referenceCorrelations are population-level associations used when a user has too little data
var referenceCorrelations = map[metricPair]float64{
	{model.MetricSteps, model.MetricWorkouts}:     0.75,
	{model.MetricSteps, model.MetricSleep}:        0.45,
	{model.MetricHeartRate, model.MetricWorkouts}: 0.65,
	{model.MetricWorkouts, model.MetricSleep}:     -0.35,
}

// ReferenceCorrelation looks up the reference coefficient for a pair in either order
func ReferenceCorrelation(a, b model.MetricType) (float64, bool) {
	if r, ok := referenceCorrelations[metricPair{a, b}]; ok {
		return r, true
	}
	r, ok := referenceCorrelations[metricPair{b, a}]
	return r, ok
}
