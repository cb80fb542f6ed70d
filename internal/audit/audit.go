package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OperationType represents the type of operation performed
type OperationType string

const (
	OperationRead      OperationType = "READ"
	OperationAggregate OperationType = "AGGREGATE"
	OperationAnalyze   OperationType = "ANALYZE"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceHealthMetrics ResourceType = "health_metrics"
	ResourceFamilyHealth  ResourceType = "family_health"
)

// Entry represents one audit record for a data access
type Entry struct {
	ID             string
	UserID         string
	OperationType  OperationType
	ResourceType   ResourceType
	ResourceID     string
	Tool           string
	Timestamp      time.Time
	IPAddress      string
	UserAgent      string
	AdditionalData map[string]interface{}
}

// Recorder persists audit entries
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	operation_type TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id TEXT NOT NULL DEFAULT '',
	tool TEXT NOT NULL DEFAULT '',
	timestamp TIMESTAMPTZ NOT NULL,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	additional_data JSONB
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_user_time ON audit_logs (user_id, timestamp DESC);
`

// Logger writes audit entries to PostgreSQL
type Logger struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(db *pgxpool.Pool, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the audit table when it does not exist
func (l *Logger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Record stores an audit entry
func (l *Logger) Record(ctx context.Context, entry Entry) error {
	entry = normalize(entry)

	l.logger.Info("Audit log entry",
		zap.String("id", entry.ID),
		zap.String("user_id", entry.UserID),
		zap.String("operation", string(entry.OperationType)),
		zap.String("resource_type", string(entry.ResourceType)),
		zap.String("resource_id", entry.ResourceID),
		zap.String("tool", entry.Tool),
		zap.Time("timestamp", entry.Timestamp),
	)

	query := `
		INSERT INTO audit_logs (
			id, user_id, operation_type, resource_type, resource_id,
			tool, timestamp, ip_address, user_agent, additional_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := l.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.OperationType,
		entry.ResourceType,
		entry.ResourceID,
		entry.Tool,
		entry.Timestamp,
		entry.IPAddress,
		entry.UserAgent,
		entry.AdditionalData,
	)
	if err != nil {
		l.logger.Error("Failed to write audit log to database",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
			zap.String("tool", entry.Tool),
		)
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}

// Recent retrieves the latest audit entries for a user
func (l *Logger) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	query := `
		SELECT id, user_id, operation_type, resource_type, resource_id,
		       tool, timestamp, ip_address, user_agent
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := l.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.OperationType,
			&e.ResourceType,
			&e.ResourceID,
			&e.Tool,
			&e.Timestamp,
			&e.IPAddress,
			&e.UserAgent,
		)
		if err != nil {
			l.logger.Error("Failed to scan audit log", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// LogRecorder writes audit entries to the structured log only.
// Used when no audit database is configured.
type LogRecorder struct {
	logger *zap.Logger
}

// NewLogRecorder creates a log-only recorder
func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record logs the entry
func (r *LogRecorder) Record(_ context.Context, entry Entry) error {
	entry = normalize(entry)
	r.logger.Info("Audit log entry",
		zap.String("id", entry.ID),
		zap.String("user_id", entry.UserID),
		zap.String("operation", string(entry.OperationType)),
		zap.String("resource_type", string(entry.ResourceType)),
		zap.String("resource_id", entry.ResourceID),
		zap.String("tool", entry.Tool),
		zap.Time("timestamp", entry.Timestamp),
	)
	return nil
}

func normalize(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.OperationType == "" {
		entry.OperationType = OperationRead
	}
	return entry
}
