package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

const maxResponseBytes = 32 << 20

// ClientConfig configures the OpenSearch REST client
type ClientConfig struct {
	Endpoint string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to an OpenSearch cluster over its REST API
type Client struct {
	baseURL    string
	username   string
	password   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an OpenSearch client. httpClient may be nil.
func NewClient(cfg ClientConfig, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("search endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    endpoint,
		username:   cfg.Username,
		password:   cfg.Password,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Search runs req against its index and parses hits and aggregations
func (c *Client) Search(ctx context.Context, req *query.SearchRequest) (*model.SearchResponse, error) {
	body, err := json.Marshal(req.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.resolvePath(req.Index, "_search"), body)
	if err != nil {
		return nil, err
	}

	resp, err := parseSearchResponse(raw)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("search completed",
		zap.String("index", req.Index),
		zap.String("metric", string(req.Metric)),
		zap.Int("total", resp.Total),
		zap.Int64("took_ms", gjson.GetBytes(raw, "took").Int()),
	)
	return resp, nil
}

// Health fetches the cluster health summary
func (c *Client) Health(ctx context.Context) (*ClusterHealth, error) {
	raw, err := c.do(ctx, http.MethodGet, c.resolvePath("_cluster", "health"), nil)
	if err != nil {
		return nil, err
	}
	doc := gjson.ParseBytes(raw)
	return &ClusterHealth{
		ClusterName: doc.Get("cluster_name").String(),
		Status:      doc.Get("status").String(),
		Nodes:       int(doc.Get("number_of_nodes").Int()),
	}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := gjson.GetBytes(raw, "error.reason").String()
		if reason == "" {
			reason = resp.Status
		}
		return nil, fmt.Errorf("opensearch returned %d: %s", resp.StatusCode, reason)
	}
	return raw, nil
}

func (c *Client) resolvePath(parts ...string) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + "/" + strings.Join(parts, "/")
	}
	u.Path = path.Join(append([]string{"/", u.Path}, parts...)...)
	return u.String()
}

func parseSearchResponse(raw []byte) (*model.SearchResponse, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid search response body")
	}
	doc := gjson.ParseBytes(raw)

	resp := &model.SearchResponse{}
	if total := doc.Get("hits.total"); total.IsObject() {
		resp.Total = int(total.Get("value").Int())
	} else {
		resp.Total = int(total.Int())
	}

	doc.Get("hits.hits").ForEach(func(_, hit gjson.Result) bool {
		src := hit.Get("_source")
		ts, _ := time.Parse(time.RFC3339, src.Get("timestamp").String())
		workoutType := src.Get("workout_type").String()
		if workoutType == "" {
			workoutType = src.Get("metadata.workout_type").String()
		}
		resp.Hits = append(resp.Hits, model.HealthRecord{
			UserID:      src.Get("user_id").String(),
			MetricType:  model.MetricType(src.Get("type").String()),
			Value:       src.Get("value").Float(),
			Unit:        src.Get("unit").String(),
			Timestamp:   ts,
			Source:      src.Get("source").String(),
			WorkoutType: workoutType,
			MemberID:    src.Get("member_id").String(),
		})
		return true
	})

	aggs := doc.Get("aggregations")
	resp.Aggregations.Sum = aggs.Get("total_sum.value").Float()
	resp.Aggregations.Avg = aggs.Get("avg_value.value").Float()
	resp.Aggregations.Max = aggs.Get("max_value.value").Float()
	resp.Aggregations.Min = aggs.Get("min_value.value").Float()

	aggs.Get("daily_totals.buckets").ForEach(func(_, b gjson.Result) bool {
		date, err := time.Parse(query.DateLayout, b.Get("key_as_string").String())
		if err != nil {
			date = time.UnixMilli(b.Get("key").Int()).UTC()
		}
		resp.Aggregations.Daily = append(resp.Aggregations.Daily, model.DailyBucket{
			Date:  date,
			Sum:   b.Get("total_value.value").Float(),
			Avg:   b.Get("avg_value.value").Float(),
			Count: int(b.Get("doc_count").Int()),
		})
		return true
	})

	aggs.Get("by_member.buckets").ForEach(func(_, b gjson.Result) bool {
		resp.Aggregations.Members = append(resp.Aggregations.Members, model.MemberBucket{
			MemberID: b.Get("key").String(),
			Name:     b.Get("member_name.buckets.0.key").String(),
			DocCount: int(b.Get("doc_count").Int()),
			Sum:      b.Get("member_total.value").Float(),
			Avg:      b.Get("member_avg.value").Float(),
		})
		return true
	})

	return resp, nil
}
