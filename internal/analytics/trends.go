package analytics

import "math"

const (
	// halfTrendThreshold is the percent change between halves that counts as movement
	halfTrendThreshold = 5.0
	// directionWindow is how many trailing points decide the trend direction
	directionWindow = 7
)

// HalfTrend compares the first and second half of a series
type HalfTrend struct {
	Direction         string  `json:"direction"`
	ChangePercent     float64 `json:"change_percent"`
	FirstHalfAverage  float64 `json:"first_half_average"`
	SecondHalfAverage float64 `json:"second_half_average"`
}

// CompareHalves reports whether a series is increasing, decreasing or stable
func CompareHalves(values []float64) HalfTrend {
	if len(values) < 2 {
		return HalfTrend{Direction: "stable"}
	}

	mid := len(values) / 2
	first := Mean(values[:mid])
	second := Mean(values[mid:])

	trend := HalfTrend{
		Direction:         "stable",
		FirstHalfAverage:  Round(first, 2),
		SecondHalfAverage: Round(second, 2),
	}
	if first != 0 {
		trend.ChangePercent = Round((second-first)/first*100, 2)
	}

	switch {
	case trend.ChangePercent > halfTrendThreshold:
		trend.Direction = "increasing"
	case trend.ChangePercent < -halfTrendThreshold:
		trend.Direction = "decreasing"
	}
	return trend
}

// TrendAnalysis characterises the movement of a daily series
type TrendAnalysis struct {
	Direction    string  `json:"direction"`
	Strength     float64 `json:"strength"`
	Volatility   float64 `json:"volatility"`
	RecentChange float64 `json:"recent_change"`
	DataPoints   int     `json:"data_points"`
}

// AnalyzeTrend computes direction, strength, volatility and the latest change of a series
func AnalyzeTrend(values []float64) TrendAnalysis {
	return TrendAnalysis{
		Direction:    Direction(values),
		Strength:     Round(Strength(values), 3),
		Volatility:   Round(Volatility(values), 3),
		RecentChange: Round(RecentChange(values), 2),
		DataPoints:   len(values),
	}
}

// Direction looks at the trailing window and calls it upward when most steps increase
func Direction(values []float64) string {
	window := values
	if len(window) > directionWindow {
		window = window[len(window)-directionWindow:]
	}
	if len(window) < 2 {
		return "stable"
	}

	increases := 0
	for i := 1; i < len(window); i++ {
		if window[i] > window[i-1] {
			increases++
		}
	}

	ratio := float64(increases) / float64(len(window)-1)
	switch {
	case ratio > 0.6:
		return "upward"
	case ratio < 0.4:
		return "downward"
	default:
		return "stable"
	}
}

// Strength is the coefficient of variation capped at 1
func Strength(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return math.Min(math.Sqrt(Variance(values))/math.Abs(mean), 1)
}

// Volatility is the mean absolute relative change between consecutive points
func Volatility(values []float64) float64 {
	var total float64
	pairs := 0
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		total += math.Abs((values[i] - values[i-1]) / values[i-1])
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}

// RecentChange is the percent change of the last point against the one before it
func RecentChange(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	prev := values[len(values)-2]
	if prev == 0 {
		return 0
	}
	return (values[len(values)-1] - prev) / prev * 100
}

// Prediction estimates the next period's daily average
type Prediction struct {
	NextPeriodAverage float64 `json:"next_period_average"`
	Confidence        string  `json:"confidence"`
	ConfidenceScore   float64 `json:"confidence_score"`
	Basis             string  `json:"basis"`
}

// Predict projects the recent average forward along the trend direction
func Predict(values []float64, trend TrendAnalysis) Prediction {
	recent := values
	if len(recent) > directionWindow {
		recent = recent[len(recent)-directionWindow:]
	}

	multiplier := 1.0
	switch trend.Direction {
	case "upward":
		multiplier = 1.1
	case "downward":
		multiplier = 0.9
	}

	confidence := "low"
	switch {
	case trend.Strength > 0.7:
		confidence = "high"
	case trend.Strength > 0.4:
		confidence = "medium"
	}

	score := trend.Strength - 0.5*trend.Volatility
	score = math.Max(0, math.Min(1, score))

	return Prediction{
		NextPeriodAverage: Round(Mean(recent)*multiplier, 2),
		Confidence:        confidence,
		ConfidenceScore:   Round(score, 3),
		Basis:             "recent average adjusted by trend direction",
	}
}
