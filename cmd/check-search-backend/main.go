package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

const checkTimeout = 5 * time.Second

var defaultEndpoints = []string{"http://localhost:9200", "https://localhost:9200"}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	endpoints := defaultEndpoints
	if endpoint := os.Getenv("OPENSEARCH_ENDPOINT"); endpoint != "" {
		endpoints = append([]string{endpoint}, endpoints...)
	}

	index := os.Getenv("OPENSEARCH_INDEX")
	if index == "" {
		index = "health-metrics"
	}

	httpClient := &http.Client{}
	if os.Getenv("OPENSEARCH_INSECURE_SKIP_VERIFY") == "true" {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // local development clusters use self-signed certs
		}
	}

	ctx := context.Background()
	for _, endpoint := range endpoints {
		logger.Info("Checking search backend", zap.String("endpoint", endpoint))

		client, err := search.NewClient(search.ClientConfig{
			Endpoint: endpoint,
			Username: os.Getenv("OPENSEARCH_USERNAME"),
			Password: os.Getenv("OPENSEARCH_PASSWORD"),
			Timeout:  checkTimeout,
		}, httpClient, logger)
		if err != nil {
			logger.Error("Invalid endpoint", zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}

		if err := checkEndpoint(ctx, client, index, logger); err != nil {
			logger.Warn("Search backend not reachable", zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}

		logger.Info("✅ Search backend is ready", zap.String("endpoint", endpoint))
		return
	}

	logger.Error("No reachable search backend. Set OPENSEARCH_ENDPOINT or start a local cluster on port 9200")
	os.Exit(1)
}

// checkEndpoint reads cluster health and runs one sample steps query
func checkEndpoint(ctx context.Context, client *search.Client, index string, logger *zap.Logger) error {
	healthCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	health, err := client.Health(healthCtx)
	if err != nil {
		return fmt.Errorf("failed to read cluster health: %w", err)
	}
	logger.Info("Cluster health",
		zap.String("cluster_name", health.ClusterName),
		zap.String("status", health.Status),
		zap.Int("nodes", health.Nodes),
	)

	period := model.TimePeriod{Days: 7, Type: model.PeriodLast}
	req, err := query.NewBuilder(index).BuildRange(model.MetricSteps, "check", query.Range(period, time.Now()))
	if err != nil {
		return err
	}

	searchCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	resp, err := client.Search(searchCtx, req)
	if err != nil {
		// a missing index still proves the cluster answers queries
		logger.Warn("Sample query failed", zap.String("index", index), zap.Error(err))
		return nil
	}
	logger.Info("Sample query succeeded",
		zap.String("index", index),
		zap.Int("total", resp.Total),
		zap.Int("daily_buckets", len(resp.Aggregations.Daily)),
	)
	return nil
}
