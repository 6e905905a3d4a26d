package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OperationType represents the type of operation performed
type OperationType string

const (
	OperationCreate  OperationType = "CREATE"
	OperationUpdate  OperationType = "UPDATE"
	OperationDelete  OperationType = "DELETE"
	OperationRead    OperationType = "READ"
	OperationAnalyze OperationType = "ANALYZE"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceVital  ResourceType = "vital_record"
	ResourceReport ResourceType = "report"
	ResourceUser   ResourceType = "user"
)

// Entry represents an audit log entry
type Entry struct {
	ID             string
	UserID         string
	OperationType  OperationType
	ResourceType   ResourceType
	ResourceID     string
	Timestamp      time.Time
	AdditionalData map[string]interface{}
}

// Logger records access to health data for traceability
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

// Log creates an audit log entry. Failures are reported to the caller
// but services treat them as non-fatal: an audit miss must not block a
// health-data operation.
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.logger.Info("audit",
		zap.String("user_id", entry.UserID),
		zap.String("operation", string(entry.OperationType)),
		zap.String("resource_type", string(entry.ResourceType)),
		zap.String("resource_id", entry.ResourceID),
	)

	var additional []byte
	if entry.AdditionalData != nil {
		data, err := json.Marshal(entry.AdditionalData)
		if err != nil {
			return fmt.Errorf("failed to marshal audit data: %w", err)
		}
		additional = data
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, operation_type, resource_type,
			resource_id, timestamp, additional_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := l.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.OperationType),
		string(entry.ResourceType),
		entry.ResourceID,
		entry.Timestamp,
		additional,
	)
	if err != nil {
		l.logger.Error("failed to persist audit log entry",
			zap.Error(err),
			zap.String("user_id", entry.UserID),
		)
		return fmt.Errorf("failed to persist audit log entry: %w", err)
	}

	return nil
}
