package formatter

// Policy holds the thresholds behind insights and chart colours.
// The values are product policy rather than clinical fact and can be overridden in config.
type Policy struct {
	StepsLowAverage    float64
	StepsOnTrack       float64
	StepsDailyGoal     float64
	StepsVarianceLimit float64
	HeartRateLow       float64
	HeartRateHigh      float64
	WorkoutsPerWeek    int
	SleepLowHours      float64
	SleepHighHours     float64
	SystolicNormal     float64
	SystolicElevated   float64
}

// DefaultPolicy returns the thresholds used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		StepsLowAverage:    5000,
		StepsOnTrack:       8000,
		StepsDailyGoal:     10000,
		StepsVarianceLimit: 1_000_000,
		HeartRateLow:       60,
		HeartRateHigh:      100,
		WorkoutsPerWeek:    3,
		SleepLowHours:      7,
		SleepHighHours:     9,
		SystolicNormal:     120,
		SystolicElevated:   130,
	}
}

const (
	colorGood    = "#28a745"
	colorWarning = "#ffc107"
	colorBad     = "#dc3545"
	colorNeutral = "#007bff"
)
