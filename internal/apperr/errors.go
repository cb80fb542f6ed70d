package apperr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code is the stable, machine-readable identifier of an error kind
type Code string

const (
	CodeUnrecognizedMetric Code = "UNRECOGNIZED_METRIC"
	CodeInvalidMetric      Code = "INVALID_METRIC"
	CodeInvalidTimeRange   Code = "INVALID_TIME_RANGE"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeUnknownTool        Code = "UNKNOWN_TOOL"
	CodePrivacyViolation   Code = "PRIVACY_VIOLATION"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Coded is implemented by every error in this package
type Coded interface {
	error
	Code() Code
	Suggestion() string
}

// UnrecognizedMetricError means no metric family could be found in the query text
type UnrecognizedMetricError struct {
	Query string
	// Examples are phrasings offered back to the caller
	Examples []string
}

func (e *UnrecognizedMetricError) Error() string {
	return "could not understand the health metric requested"
}

func (e *UnrecognizedMetricError) Code() Code { return CodeUnrecognizedMetric }

func (e *UnrecognizedMetricError) Suggestion() string {
	if len(e.Examples) == 0 {
		return "Name a health metric such as steps, heart rate, workouts, sleep, weight or blood pressure"
	}
	quoted := make([]string, len(e.Examples))
	for i, ex := range e.Examples {
		quoted[i] = strconv.Quote(ex)
	}
	return "Try queries like " + strings.Join(quoted, " or ")
}

// InvalidMetricError means a metric was missing or unknown where one is required
type InvalidMetricError struct {
	Metric string
}

func (e *InvalidMetricError) Error() string {
	if e.Metric == "" {
		return "metric is required"
	}
	return fmt.Sprintf("invalid metric: %q", e.Metric)
}

func (e *InvalidMetricError) Code() Code { return CodeInvalidMetric }

func (e *InvalidMetricError) Suggestion() string {
	return "Use one of: steps, heart_rate, workouts, sleep, weight, blood_pressure"
}

// InvalidTimeRangeError means a custom date range was malformed or inverted
type InvalidTimeRangeError struct {
	Reason string
}

func (e *InvalidTimeRangeError) Error() string {
	return "invalid time range: " + e.Reason
}

func (e *InvalidTimeRangeError) Code() Code { return CodeInvalidTimeRange }

func (e *InvalidTimeRangeError) Suggestion() string {
	return "Provide start_date and end_date as YYYY-MM-DD with start_date on or before end_date"
}

// InvalidArgumentError means tool arguments failed validation
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Reason
	}
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Code() Code { return CodeInvalidArgument }

func (e *InvalidArgumentError) Suggestion() string {
	return "Check the tool input schema for required fields and allowed values"
}

// StorageUnavailableError means the search backend failed or timed out
type StorageUnavailableError struct {
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("health data storage unavailable: %v", e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func (e *StorageUnavailableError) Code() Code { return CodeStorageUnavailable }

func (e *StorageUnavailableError) Suggestion() string {
	return "Retry the request later"
}

// UnknownToolError means a tool name is not in the registry
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

func (e *UnknownToolError) Code() Code { return CodeUnknownTool }

func (e *UnknownToolError) Suggestion() string {
	return "List the available tools and call one of them by name"
}

// PrivacyViolationError means a response or request would cross a privacy boundary
type PrivacyViolationError struct {
	Reason string
}

func (e *PrivacyViolationError) Error() string {
	return "privacy violation: " + e.Reason
}

func (e *PrivacyViolationError) Code() Code { return CodePrivacyViolation }

func (e *PrivacyViolationError) Suggestion() string {
	return "Request a privacy level the caller is permitted to see"
}

// CodeOf returns the code of the first Coded error in err's chain, or CodeInternal
func CodeOf(err error) Code {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeInternal
}

// SuggestionOf returns the suggestion of the first Coded error in err's chain
func SuggestionOf(err error) string {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Suggestion()
	}
	return ""
}

// IsClientError reports whether err was caused by caller input rather than the service
func IsClientError(err error) bool {
	switch CodeOf(err) {
	case CodeUnrecognizedMetric, CodeInvalidMetric, CodeInvalidTimeRange, CodeInvalidArgument, CodeUnknownTool:
		return true
	default:
		return false
	}
}
