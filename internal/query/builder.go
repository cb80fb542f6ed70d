package query

import (
	"strings"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

const (
	// DefaultIndex holds per-user health metric documents
	DefaultIndex = "health-metrics"
	// MaxResults caps the hits returned by a single search
	MaxResults = 1000
	// maxFamilyMembers caps the by_member terms aggregation
	maxFamilyMembers = 50
)

// SearchRequest is a fully-specified search against the health metrics index
type SearchRequest struct {
	Index    string
	UserID   string
	FamilyID string
	Metric   model.MetricType
	Range    model.TimeRange
	Size     int
}

// IsFamily reports whether the request targets a whole family rather than one user
func (r *SearchRequest) IsFamily() bool {
	return r.FamilyID != ""
}

// Builder turns parsed queries into search requests
type Builder struct {
	index string
}

// NewBuilder creates a Builder targeting index, or DefaultIndex when empty
func NewBuilder(index string) *Builder {
	if index == "" {
		index = DefaultIndex
	}
	return &Builder{index: index}
}

// Build creates a request for the parsed query relative to now
func (b *Builder) Build(parsed model.ParsedQuery, userID string, now time.Time) (*SearchRequest, error) {
	if parsed.Metric == nil {
		return nil, &apperr.InvalidMetricError{}
	}
	return b.BuildRange(*parsed.Metric, userID, Range(parsed.TimePeriod, now))
}

// BuildRange creates a request for one user's metric over an explicit range
func (b *Builder) BuildRange(metric model.MetricType, userID string, rng model.TimeRange) (*SearchRequest, error) {
	if !metric.Valid() {
		return nil, &apperr.InvalidMetricError{Metric: string(metric)}
	}
	if strings.TrimSpace(userID) == "" {
		return nil, &apperr.InvalidArgumentError{Field: "user_id", Reason: "is required"}
	}
	if _, err := NewTimeRange(rng.Start, rng.End); err != nil {
		return nil, err
	}

	return &SearchRequest{
		Index:  b.index,
		UserID: userID,
		Metric: metric,
		Range:  rng,
		Size:   MaxResults,
	}, nil
}

// BuildFamily creates a request across every consenting member of a family
func (b *Builder) BuildFamily(metric model.MetricType, familyID string, rng model.TimeRange) (*SearchRequest, error) {
	if !metric.Valid() {
		return nil, &apperr.InvalidMetricError{Metric: string(metric)}
	}
	if strings.TrimSpace(familyID) == "" {
		return nil, &apperr.InvalidArgumentError{Field: "family_id", Reason: "is required"}
	}
	if _, err := NewTimeRange(rng.Start, rng.End); err != nil {
		return nil, err
	}

	return &SearchRequest{
		Index:    b.index,
		FamilyID: familyID,
		Metric:   metric,
		Range:    rng,
		Size:     MaxResults,
	}, nil
}

// Body renders the request as an OpenSearch query DSL document
func (r *SearchRequest) Body() map[string]any {
	must := make([]any, 0, 4)
	if r.IsFamily() {
		must = append(must,
			term("family_id.keyword", r.FamilyID),
			term("family_sharing", true),
		)
	} else {
		must = append(must, term("user_id.keyword", r.UserID))
	}
	must = append(must,
		term("type.keyword", string(r.Metric)),
		map[string]any{
			"range": map[string]any{
				"timestamp": map[string]any{
					"gte": r.Range.Start.Format(time.RFC3339),
					"lt":  r.Range.End.AddDate(0, 0, 1).Format(time.RFC3339),
				},
			},
		},
	)

	aggs := map[string]any{
		"daily_totals": map[string]any{
			"date_histogram": map[string]any{
				"field":             "timestamp",
				"calendar_interval": "day",
				"format":            "yyyy-MM-dd",
			},
			"aggs": map[string]any{
				"total_value": valueAgg("sum"),
				"avg_value":   valueAgg("avg"),
			},
		},
		"total_sum": valueAgg("sum"),
		"avg_value": valueAgg("avg"),
		"max_value": valueAgg("max"),
		"min_value": valueAgg("min"),
	}

	if r.IsFamily() {
		aggs["by_member"] = map[string]any{
			"terms": map[string]any{
				"field": "member_id.keyword",
				"size":  maxFamilyMembers,
			},
			"aggs": map[string]any{
				"member_total": valueAgg("sum"),
				"member_avg":   valueAgg("avg"),
				"member_name": map[string]any{
					"terms": map[string]any{"field": "member_name.keyword", "size": 1},
				},
			},
		}
	}

	size := r.Size
	if size <= 0 || size > MaxResults {
		size = MaxResults
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must},
		},
		"sort": []any{
			map[string]any{"timestamp": map[string]any{"order": "desc"}},
		},
		"size": size,
		"aggs": aggs,
	}
}

func term(field string, value any) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}

func valueAgg(kind string) map[string]any {
	return map[string]any{kind: map[string]any{"field": "value"}}
}
