package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/analytics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/formatter"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// PrivacyLevel is the most detailed family view a caller may receive
type PrivacyLevel string

const (
	PrivacySummaryOnly PrivacyLevel = "summary_only"
	PrivacyAggregated  PrivacyLevel = "aggregated"
	PrivacyDetailed    PrivacyLevel = "detailed"
	PrivacyFull        PrivacyLevel = "full"
)

var privacyRank = map[PrivacyLevel]int{
	PrivacySummaryOnly: 0,
	PrivacyAggregated:  1,
	PrivacyDetailed:    2,
	PrivacyFull:        3,
}

func (p PrivacyLevel) atLeast(other PrivacyLevel) bool {
	return privacyRank[p] >= privacyRank[other]
}

var privacyNotes = map[PrivacyLevel]string{
	PrivacySummaryOnly: "Only family-level summary figures are shown",
	PrivacyAggregated:  "Individual member data is aggregated to protect privacy",
	PrivacyDetailed:    "Per-member averages are shown without raw records",
	PrivacyFull:        "Per-member averages are shown with member identifiers",
}

// FamilySummary holds family-level headline figures
type FamilySummary struct {
	ActiveMembers     int      `json:"active_members"`
	FamilyAverage     float64  `json:"family_average"`
	FamilyHealthScore *float64 `json:"family_health_score,omitempty"`
	Unit              string   `json:"unit"`
}

// FamilyAggregate holds family totals across all members
type FamilyAggregate struct {
	TotalRecords  int     `json:"total_records"`
	FamilyTotal   float64 `json:"family_total"`
	FamilyAverage float64 `json:"family_average"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
}

// MemberSummary is one member's averages. Identity fields depend on the privacy level.
type MemberSummary struct {
	MemberID    string   `json:"member_id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Average     float64  `json:"average"`
	Records     int      `json:"records"`
	HealthScore *float64 `json:"health_score,omitempty"`
}

// FamilyResults is the privacy-scoped body of a family search
type FamilyResults struct {
	Metric            model.MetricType   `json:"metric"`
	TimePeriod        model.TimePeriod   `json:"time_period"`
	MembersCount      int                `json:"members_count"`
	Summary           FamilySummary      `json:"summary"`
	AggregatedMetrics *FamilyAggregate   `json:"aggregated_metrics,omitempty"`
	DailyData         []model.DailyPoint `json:"daily_data,omitempty"`
	MemberSummaries   []MemberSummary    `json:"member_summaries,omitempty"`
	Insights          []model.Insight    `json:"insights"`
	PrivacyNote       string             `json:"privacy_note"`
}

// SearchFamilyHealthResult is the response of search_family_health
type SearchFamilyHealthResult struct {
	Envelope
	FamilyID     string        `json:"family_id"`
	Query        string        `json:"query"`
	PrivacyLevel PrivacyLevel  `json:"privacy_level"`
	Results      FamilyResults `json:"results"`
}

func (d *Dispatcher) searchFamilyHealth(ctx context.Context, raw json.RawMessage) (*outcome, error) {
	var args SearchFamilyHealthArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	level := PrivacyLevel(args.PrivacyLevel)
	if level == "" {
		level = PrivacySummaryOnly
	}
	if _, ok := privacyRank[level]; !ok {
		return nil, &apperr.InvalidArgumentError{Field: "privacy_level", Reason: "is not a supported level"}
	}
	if args.IncludeMemberNames && !level.atLeast(PrivacyDetailed) {
		return nil, &apperr.PrivacyViolationError{Reason: fmt.Sprintf("member names are not available at privacy level %s", level)}
	}
	if err := authorizeFamily(ctx, args.FamilyID); err != nil {
		return nil, err
	}

	parsed := query.Parse(args.Query)
	if parsed.Metric == nil {
		return nil, query.UnrecognizedMetric(args.Query)
	}
	metric := *parsed.Metric

	req, err := d.builder.BuildFamily(metric, args.FamilyID, query.Range(parsed.TimePeriod, d.now()))
	if err != nil {
		return nil, err
	}
	resp, err := d.search(ctx, req)
	if err != nil {
		return nil, err
	}

	results := buildFamilyResults(d.formatter.Policy(), metric, parsed.TimePeriod, resp, level, args.IncludeMemberNames)
	if err := checkFamilyPrivacy(results, level, args.IncludeMemberNames); err != nil {
		return nil, err
	}

	return &outcome{
		result: &SearchFamilyHealthResult{
			FamilyID:     args.FamilyID,
			Query:        args.Query,
			PrivacyLevel: level,
			Results:      results,
		},
		degraded: resp.Degraded,
		audit: audit.Entry{
			OperationType: audit.OperationRead,
			ResourceType:  audit.ResourceFamilyHealth,
			ResourceID:    args.FamilyID,
			AdditionalData: map[string]interface{}{
				"metric":        string(metric),
				"privacy_level": string(level),
			},
		},
	}, nil
}

// buildFamilyResults only ever constructs the sections level allows
func buildFamilyResults(
	policy formatter.Policy,
	metric model.MetricType,
	period model.TimePeriod,
	resp *model.SearchResponse,
	level PrivacyLevel,
	includeNames bool,
) FamilyResults {
	members := resp.Aggregations.Members

	results := FamilyResults{
		Metric:       metric,
		TimePeriod:   period,
		MembersCount: len(members),
		Summary:      FamilySummary{Unit: metric.Unit()},
		PrivacyNote:  privacyNotes[level],
	}

	var scores []float64
	var averages []float64
	for _, m := range members {
		if m.DocCount == 0 {
			continue
		}
		results.Summary.ActiveMembers++
		averages = append(averages, m.Avg)
		if score, ok := analytics.Score(metric, m.Avg); ok {
			scores = append(scores, score)
		}
	}
	results.Summary.FamilyAverage = analytics.Round(analytics.Mean(averages), 2)
	if len(scores) > 0 {
		score := analytics.Round(analytics.Mean(scores), 0)
		results.Summary.FamilyHealthScore = &score
	}
	results.Insights = familyInsights(policy, metric, results.Summary)

	if level.atLeast(PrivacyAggregated) {
		results.AggregatedMetrics = &FamilyAggregate{
			TotalRecords:  resp.Total,
			FamilyTotal:   analytics.Round(resp.Aggregations.Sum, 2),
			FamilyAverage: analytics.Round(resp.Aggregations.Avg, 2),
			Min:           resp.Aggregations.Min,
			Max:           resp.Aggregations.Max,
		}
		results.DailyData = formatter.DailyValues(metric, resp)
	}

	if level.atLeast(PrivacyDetailed) {
		for _, m := range members {
			summary := MemberSummary{
				Average: analytics.Round(m.Avg, 2),
				Records: m.DocCount,
			}
			if score, ok := analytics.Score(metric, m.Avg); ok {
				summary.HealthScore = &score
			}
			switch {
			case level == PrivacyFull:
				summary.MemberID = m.MemberID
				if includeNames {
					summary.Name = m.Name
				}
			case includeNames:
				summary.Name = m.Name
			default:
				summary.MemberID = m.MemberID
			}
			results.MemberSummaries = append(results.MemberSummaries, summary)
		}
	}

	return results
}

// checkFamilyPrivacy rejects results that expose more than level allows.
// The whole response is refused rather than redacted.
func checkFamilyPrivacy(results FamilyResults, level PrivacyLevel, includeNames bool) error {
	if !level.atLeast(PrivacyAggregated) && (results.AggregatedMetrics != nil || len(results.DailyData) > 0) {
		return &apperr.PrivacyViolationError{Reason: "aggregated family data exceeds privacy level " + string(level)}
	}
	if !level.atLeast(PrivacyDetailed) && len(results.MemberSummaries) > 0 {
		return &apperr.PrivacyViolationError{Reason: "member data exceeds privacy level " + string(level)}
	}
	for _, m := range results.MemberSummaries {
		if m.Name != "" && !includeNames {
			return &apperr.PrivacyViolationError{Reason: "member names were not requested"}
		}
		if level != PrivacyFull && m.MemberID != "" && m.Name != "" {
			return &apperr.PrivacyViolationError{Reason: "member identity exceeds privacy level " + string(level)}
		}
	}
	return nil
}

func familyInsights(policy formatter.Policy, metric model.MetricType, summary FamilySummary) []model.Insight {
	insights := []model.Insight{}
	if summary.ActiveMembers == 0 {
		return append(insights, model.Insight{
			Type:    model.InsightInfo,
			Message: "No family members have shared data for this period",
		})
	}

	rating, ok := analytics.Rate(metric, summary.FamilyAverage)
	if !ok {
		return append(insights, model.Insight{
			Type:    model.InsightInfo,
			Message: fmt.Sprintf("Family %s data covers %d active members", metricLabel(metric), summary.ActiveMembers),
		})
	}

	message := fmt.Sprintf("The family's average %s is rated %s (%.0f %s)", metricLabel(metric), rating, summary.FamilyAverage, metric.Unit())
	switch rating {
	case "excellent", "good":
		insights = append(insights, model.Insight{Type: model.InsightPositive, Message: message})
	case "fair":
		insights = append(insights, model.Insight{Type: model.InsightInfo, Message: message})
	default:
		insights = append(insights, model.Insight{Type: model.InsightWarning, Message: message})
	}

	if metric == model.MetricSteps && summary.FamilyAverage < policy.StepsOnTrack {
		insights = append(insights, model.Insight{
			Type:           model.InsightRecommendation,
			Message:        "Family activity is below the daily step goal",
			Recommendation: "Consider planning more family outdoor activities",
		})
	}
	return insights
}
