package analytics

import (
	"math"
	"sort"
)

// Statistics describes a series of values
type Statistics struct {
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	StdDev   float64 `json:"std_dev"`
	Variance float64 `json:"variance"`
}

// Describe computes descriptive statistics using population variance
func Describe(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	stats := Statistics{
		Count:    len(values),
		Sum:      Sum(values),
		Mean:     Mean(values),
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Variance: Variance(values),
	}
	stats.StdDev = math.Sqrt(stats.Variance)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stats.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		stats.Median = sorted[mid]
	}

	return stats
}

// Sum adds up values
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or 0 for an empty series
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Variance returns the population variance, or 0 for an empty series
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}
	return squares / float64(len(values))
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
