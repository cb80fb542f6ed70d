package model

import (
	"fmt"
	"strings"
	"time"
)

// MetricType identifies a family of health measurements
type MetricType string

const (
	MetricSteps         MetricType = "steps"
	MetricHeartRate     MetricType = "heart_rate"
	MetricWorkouts      MetricType = "workouts"
	MetricSleep         MetricType = "sleep"
	MetricWeight        MetricType = "weight"
	MetricBloodPressure MetricType = "blood_pressure"
)

// AllMetricTypes lists every supported metric family
var AllMetricTypes = []MetricType{
	MetricSteps,
	MetricHeartRate,
	MetricWorkouts,
	MetricSleep,
	MetricWeight,
	MetricBloodPressure,
}

// Valid reports whether m is one of the supported metric families
func (m MetricType) Valid() bool {
	for _, known := range AllMetricTypes {
		if m == known {
			return true
		}
	}
	return false
}

// Unit returns the display unit stored alongside values of this metric
func (m MetricType) Unit() string {
	switch m {
	case MetricSteps:
		return "steps"
	case MetricHeartRate:
		return "bpm"
	case MetricWorkouts:
		return "minutes"
	case MetricSleep:
		return "hours"
	case MetricWeight:
		return "kg"
	case MetricBloodPressure:
		return "mmHg"
	default:
		return ""
	}
}

// ParseMetricType converts an external string into a MetricType
func ParseMetricType(s string) (MetricType, error) {
	m := MetricType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown metric type: %q", s)
	}
	return m, nil
}

// PeriodType tells whether a time period ends yesterday or today
type PeriodType string

const (
	PeriodLast    PeriodType = "last"
	PeriodCurrent PeriodType = "current"
)

// TimePeriod is a relative window of whole days
type TimePeriod struct {
	Days int        `json:"days"`
	Type PeriodType `json:"type"`
}

// TimeRange is a concrete window of UTC calendar days, both ends inclusive
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by the range
func (r TimeRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// HealthRecord is a single stored measurement
type HealthRecord struct {
	UserID      string     `json:"user_id"`
	MetricType  MetricType `json:"type"`
	Value       float64    `json:"value"`
	Unit        string     `json:"unit,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Source      string     `json:"source,omitempty"`
	WorkoutType string     `json:"workout_type,omitempty"`
	MemberID    string     `json:"member_id,omitempty"`
}

// ParsedQuery is the structured form of a free-text health question
type ParsedQuery struct {
	OriginalQuery string      `json:"originalQuery"`
	Metric        *MetricType `json:"metric"`
	TimePhrase    string      `json:"timePhrase"`
	TimePeriod    TimePeriod  `json:"timePeriod"`
}

// SearchResponse is what a storage engine returns for a search request
type SearchResponse struct {
	Total        int            `json:"total"`
	Hits         []HealthRecord `json:"hits"`
	Aggregations Aggregations   `json:"aggregations"`
	Degraded     bool           `json:"degraded"`
}

// Aggregations holds the aggregation groups requested by the query builder
type Aggregations struct {
	Sum     float64        `json:"sum"`
	Avg     float64        `json:"avg"`
	Min     float64        `json:"min"`
	Max     float64        `json:"max"`
	Daily   []DailyBucket  `json:"daily"`
	Members []MemberBucket `json:"members,omitempty"`
}

// DailyBucket is one day of the daily_totals histogram
type DailyBucket struct {
	Date  time.Time `json:"date"`
	Sum   float64   `json:"sum"`
	Avg   float64   `json:"avg"`
	Count int       `json:"count"`
}

// MemberBucket is the per-member aggregate of a family search
type MemberBucket struct {
	MemberID string  `json:"member_id"`
	Name     string  `json:"name,omitempty"`
	DocCount int     `json:"doc_count"`
	Sum      float64 `json:"sum"`
	Avg      float64 `json:"avg"`
}

// SummaryKind discriminates the Summary variants
type SummaryKind string

const (
	SummaryKindSteps     SummaryKind = "steps"
	SummaryKindHeartRate SummaryKind = "heart_rate"
	SummaryKindWorkouts  SummaryKind = "workouts"
	SummaryKindGeneric   SummaryKind = "generic"
)

// Summary is the metric-specific headline of a query result
type Summary interface {
	SummaryKind() SummaryKind
}

// StepsSummary summarises step counts
type StepsSummary struct {
	Kind          SummaryKind `json:"kind"`
	TotalSteps    float64     `json:"totalSteps"`
	AveragePerDay float64     `json:"averagePerDay"`
	HighestDay    float64     `json:"highestDay"`
	LowestDay     float64     `json:"lowestDay"`
	Unit          string      `json:"unit"`
}

func (StepsSummary) SummaryKind() SummaryKind { return SummaryKindSteps }

// HeartRateSummary summarises heart rate readings
type HeartRateSummary struct {
	Kind             SummaryKind `json:"kind"`
	AverageHeartRate float64     `json:"averageHeartRate"`
	MaxHeartRate     float64     `json:"maxHeartRate"`
	MinHeartRate     float64     `json:"minHeartRate"`
	Unit             string      `json:"unit"`
}

func (HeartRateSummary) SummaryKind() SummaryKind { return SummaryKindHeartRate }

// WorkoutSummary summarises workout sessions
type WorkoutSummary struct {
	Kind            SummaryKind `json:"kind"`
	TotalWorkouts   int         `json:"totalWorkouts"`
	TotalMinutes    float64     `json:"totalMinutes"`
	AverageDuration float64     `json:"averageDuration"`
	Unit            string      `json:"unit"`
}

func (WorkoutSummary) SummaryKind() SummaryKind { return SummaryKindWorkouts }

// GenericSummary covers sleep, weight and blood pressure
type GenericSummary struct {
	Kind    SummaryKind `json:"kind"`
	Metric  MetricType  `json:"metric"`
	Average float64     `json:"average"`
	Max     float64     `json:"max"`
	Min     float64     `json:"min"`
	Total   float64     `json:"total"`
	Change  *float64    `json:"change,omitempty"`
	Unit    string      `json:"unit"`
}

func (GenericSummary) SummaryKind() SummaryKind { return SummaryKindGeneric }

// InsightType classifies an insight
type InsightType string

const (
	InsightWarning        InsightType = "warning"
	InsightPositive       InsightType = "positive"
	InsightInfo           InsightType = "info"
	InsightRecommendation InsightType = "recommendation"
)

// Insight is a human-readable observation about a result
type Insight struct {
	Type           InsightType `json:"type"`
	Message        string      `json:"message"`
	Recommendation string      `json:"recommendation,omitempty"`
}

// DailyPoint is one day of formatted output
type DailyPoint struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	DayOfWeek string  `json:"dayOfWeek"`
}

// Visualization describes how a client should chart the result
type Visualization struct {
	ChartType string    `json:"chartType"`
	Labels    []string  `json:"labels"`
	Data      []float64 `json:"data"`
	Goal      *float64  `json:"goal,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// QueryResult is the formatted answer to a natural-language health query
type QueryResult struct {
	Query         string         `json:"query"`
	Metric        MetricType     `json:"metric"`
	TimePeriod    TimePeriod     `json:"timePeriod"`
	TotalRecords  int            `json:"totalRecords"`
	Summary       Summary        `json:"summary"`
	DailyData     []DailyPoint   `json:"dailyData"`
	Insights      []Insight      `json:"insights,omitempty"`
	Visualization Visualization  `json:"visualization"`
	WorkoutTypes  map[string]int `json:"workoutTypes,omitempty"`
}
