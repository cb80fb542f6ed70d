package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// setupTestDB creates a PostgreSQL testcontainer and returns the connection pool
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("audit_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return pool, cleanup
}

func TestLogger_RecordAndRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	logger := NewLogger(pool, zap.NewNop())
	require.NoError(t, logger.EnsureSchema(ctx))
	require.NoError(t, logger.EnsureSchema(ctx))

	older := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	require.NoError(t, logger.Record(ctx, Entry{
		UserID:       "user-1",
		ResourceType: ResourceHealthMetrics,
		ResourceID:   "steps",
		Tool:         "search_health_data",
		Timestamp:    older,
	}))
	require.NoError(t, logger.Record(ctx, Entry{
		UserID:         "user-1",
		OperationType:  OperationAnalyze,
		ResourceType:   ResourceHealthMetrics,
		ResourceID:     "steps,sleep",
		Tool:           "get_health_trends",
		AdditionalData: map[string]interface{}{"analysis_period": "30_days"},
	}))
	require.NoError(t, logger.Record(ctx, Entry{UserID: "user-2", ResourceType: ResourceFamilyHealth}))

	entries, err := logger.Recent(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "get_health_trends", entries[0].Tool)
	assert.Equal(t, OperationAnalyze, entries[0].OperationType)
	assert.Equal(t, OperationRead, entries[1].OperationType)
	assert.NotEmpty(t, entries[1].ID)
	assert.True(t, entries[1].Timestamp.Equal(older))
}

func TestLogRecorder(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := NewLogRecorder(zap.New(core))

	require.NoError(t, rec.Record(context.Background(), Entry{
		UserID:       "user-1",
		ResourceType: ResourceHealthMetrics,
		Tool:         "search_health_data",
	}))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, "READ", fields["operation"])
	assert.NotEmpty(t, fields["id"])
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e := normalize(Entry{ID: "fixed", Timestamp: ts, OperationType: OperationAggregate})

	assert.Equal(t, "fixed", e.ID)
	assert.Equal(t, ts, e.Timestamp)
	assert.Equal(t, OperationAggregate, e.OperationType)
}
