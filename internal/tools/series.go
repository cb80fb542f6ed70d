package tools

import (
	"context"
	"strings"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/formatter"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// DateRange is a date window rendered for responses
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newDateRange(rng model.TimeRange) DateRange {
	return DateRange{
		Start: rng.Start.Format(query.DateLayout),
		End:   rng.End.Format(query.DateLayout),
	}
}

// metricSeries is one metric's search response and its daily values
type metricSeries struct {
	metric model.MetricType
	resp   *model.SearchResponse
	points []model.DailyPoint
}

func (s *metricSeries) values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

func (d *Dispatcher) fetchSeries(ctx context.Context, metric model.MetricType, userID string, rng model.TimeRange) (*metricSeries, error) {
	req, err := d.builder.BuildRange(metric, userID, rng)
	if err != nil {
		return nil, err
	}
	resp, err := d.search(ctx, req)
	if err != nil {
		return nil, err
	}
	return &metricSeries{
		metric: metric,
		resp:   resp,
		points: formatter.DailyValues(metric, resp),
	}, nil
}

// parseMetrics converts and de-duplicates metric names, keeping their order
func parseMetrics(names []string) ([]model.MetricType, error) {
	seen := make(map[model.MetricType]bool, len(names))
	out := make([]model.MetricType, 0, len(names))
	for _, name := range names {
		m, err := model.ParseMetricType(name)
		if err != nil {
			return nil, &apperr.InvalidMetricError{Metric: name}
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

func metricLabel(m model.MetricType) string {
	return strings.ReplaceAll(string(m), "_", " ")
}
