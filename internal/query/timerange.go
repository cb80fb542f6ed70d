package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// DateLayout is the wire format of explicit calendar dates
const DateLayout = "2006-01-02"

// DefaultTimePeriod applies when no time phrase is recognized
var DefaultTimePeriod = model.TimePeriod{Days: 7, Type: model.PeriodLast}

type timePhrase struct {
	phrase string
	period model.TimePeriod
}

// timePhrases is matched by substring in order; the first entry found in the phrase wins.
var timePhrases = []timePhrase{
	{"last week", model.TimePeriod{Days: 7, Type: model.PeriodLast}},
	{"this week", model.TimePeriod{Days: 7, Type: model.PeriodCurrent}},
	{"past week", model.TimePeriod{Days: 7, Type: model.PeriodLast}},
	{"last month", model.TimePeriod{Days: 30, Type: model.PeriodLast}},
	{"this month", model.TimePeriod{Days: 30, Type: model.PeriodCurrent}},
	{"past month", model.TimePeriod{Days: 30, Type: model.PeriodLast}},
	{"last 7 days", model.TimePeriod{Days: 7, Type: model.PeriodLast}},
	{"past 7 days", model.TimePeriod{Days: 7, Type: model.PeriodLast}},
	{"last 30 days", model.TimePeriod{Days: 30, Type: model.PeriodLast}},
	{"past 30 days", model.TimePeriod{Days: 30, Type: model.PeriodLast}},
	{"last 90 days", model.TimePeriod{Days: 90, Type: model.PeriodLast}},
	{"last 3 months", model.TimePeriod{Days: 90, Type: model.PeriodLast}},
	{"last 6 months", model.TimePeriod{Days: 180, Type: model.PeriodLast}},
	{"yesterday", model.TimePeriod{Days: 1, Type: model.PeriodLast}},
	{"today", model.TimePeriod{Days: 1, Type: model.PeriodCurrent}},
	{"last year", model.TimePeriod{Days: 365, Type: model.PeriodLast}},
	{"this year", model.TimePeriod{Days: 365, Type: model.PeriodCurrent}},
}

var lastNDays = regexp.MustCompile(`\b(?:last|past)\s+(\d{1,4})\s+days?\b`)

// Resolve maps a time phrase to a relative period, defaulting to the last 7 days
func Resolve(phrase string) model.TimePeriod {
	normalized := strings.ToLower(strings.Join(strings.Fields(phrase), " "))
	if normalized == "" {
		return DefaultTimePeriod
	}

	for _, tp := range timePhrases {
		if strings.Contains(normalized, tp.phrase) {
			return tp.period
		}
	}

	if m := lastNDays.FindStringSubmatch(normalized); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil && days >= 1 {
			return model.TimePeriod{Days: days, Type: model.PeriodLast}
		}
	}

	return DefaultTimePeriod
}

// Range turns a relative period into concrete calendar days.
// A "last" period ends yesterday, a "current" period ends today.
func Range(period model.TimePeriod, now time.Time) model.TimeRange {
	days := period.Days
	if days < 1 {
		days = 1
	}

	end := truncateDay(now)
	if period.Type != model.PeriodCurrent {
		end = end.AddDate(0, 0, -1)
	}

	return model.TimeRange{
		Start: end.AddDate(0, 0, -(days - 1)),
		End:   end,
	}
}

// NewTimeRange validates an explicit range of calendar days
func NewTimeRange(start, end time.Time) (model.TimeRange, error) {
	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		return model.TimeRange{}, &apperr.InvalidTimeRangeError{
			Reason: "start date " + start.Format(DateLayout) + " is after end date " + end.Format(DateLayout),
		}
	}
	return model.TimeRange{Start: start, End: end}, nil
}

// ParseTimeRange parses YYYY-MM-DD bounds into a validated range
func ParseTimeRange(startDate, endDate string) (model.TimeRange, error) {
	if startDate == "" || endDate == "" {
		return model.TimeRange{}, &apperr.InvalidTimeRangeError{Reason: "start_date and end_date are required for a custom range"}
	}

	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return model.TimeRange{}, &apperr.InvalidTimeRangeError{Reason: "malformed start_date " + strconv.Quote(startDate)}
	}

	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return model.TimeRange{}, &apperr.InvalidTimeRangeError{Reason: "malformed end_date " + strconv.Quote(endDate)}
	}

	return NewTimeRange(start, end)
}

// namedPeriods maps the tool-facing period names to relative periods
var namedPeriods = map[string]model.TimePeriod{
	"last_week":  {Days: 7, Type: model.PeriodLast},
	"this_week":  {Days: 7, Type: model.PeriodCurrent},
	"last_month": {Days: 30, Type: model.PeriodLast},
	"this_month": {Days: 30, Type: model.PeriodCurrent},
	"last_year":  {Days: 365, Type: model.PeriodLast},
}

// NamedPeriod looks up a tool-facing period name such as "last_week"
func NamedPeriod(name string) (model.TimePeriod, bool) {
	period, ok := namedPeriods[name]
	return period, ok
}

// analysisPeriods maps trend-analysis window names to day counts
var analysisPeriods = map[string]int{
	"30_days":  30,
	"90_days":  90,
	"6_months": 180,
	"1_year":   365,
}

// AnalysisPeriodDays returns the length of a trend-analysis window
func AnalysisPeriodDays(name string) (int, bool) {
	days, ok := analysisPeriods[name]
	return days, ok
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
