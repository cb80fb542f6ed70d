package tools

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// SearchHealthDataResult is the response of search_health_data
type SearchHealthDataResult struct {
	Envelope
	*model.QueryResult
	Narrative string `json:"narrative,omitempty"`
}

func (d *Dispatcher) searchHealthData(ctx context.Context, raw json.RawMessage) (*outcome, error) {
	var args SearchHealthDataArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	userID, err := resolveUserID(ctx, args.UserID)
	if err != nil {
		return nil, err
	}

	parsed := query.Parse(args.Query)
	if parsed.Metric == nil {
		return nil, query.UnrecognizedMetric(args.Query)
	}

	req, err := d.builder.Build(parsed, userID, d.now())
	if err != nil {
		return nil, err
	}

	resp, err := d.search(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := d.formatter.Format(resp, parsed)
	if err != nil {
		return nil, err
	}

	includeInsights := boolOr(args.IncludeInsights, true)
	if !includeInsights {
		result.Insights = nil
	}

	out := &SearchHealthDataResult{QueryResult: result}
	if includeInsights && d.narrator != nil {
		narrative, err := d.narrator.Narrate(ctx, result)
		if err != nil {
			d.logger.Warn("narrative unavailable", zap.Error(err))
		} else {
			out.Narrative = narrative
		}
	}

	return &outcome{
		result:   out,
		degraded: resp.Degraded,
		audit: audit.Entry{
			UserID:        userID,
			OperationType: audit.OperationRead,
			ResourceType:  audit.ResourceHealthMetrics,
			ResourceID:    string(*parsed.Metric),
			AdditionalData: map[string]interface{}{
				"query":         args.Query,
				"total_records": result.TotalRecords,
			},
		},
	}, nil
}
