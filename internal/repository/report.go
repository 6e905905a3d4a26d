package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/healthvault/backend/pkg/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ReportRepository manages uploaded medical reports and their AI summaries
type ReportRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *pgxpool.Pool, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new report with its AI summary
func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	summary, err := marshalSummary(report.AISummary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reports (
			id, user_id, title, report_type, date,
			file_url, blob_path, ai_summary, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	_, err = r.db.Exec(ctx, query,
		report.ID,
		report.UserID,
		report.Title,
		string(report.ReportType),
		report.Date,
		report.FileURL,
		report.BlobPath,
		summary,
	)
	if err != nil {
		r.logger.Error("failed to save report",
			zap.Error(err),
			zap.String("user_id", report.UserID),
		)
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// FindByUserID returns all reports for a user, newest first
func (r *ReportRepository) FindByUserID(ctx context.Context, userID string) ([]model.Report, error) {
	query := `
		SELECT id, user_id, title, report_type, date,
		       file_url, blob_path, ai_summary, created_at
		FROM reports
		WHERE user_id = $1
		ORDER BY date DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to query reports",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// FindByID returns one report, or nil when not found
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	query := `
		SELECT id, user_id, title, report_type, date,
		       file_url, blob_path, ai_summary, created_at
		FROM reports
		WHERE id = $1
	`

	report, err := scanReport(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return report, nil
}

// Delete removes a report record
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete report",
			zap.Error(err),
			zap.String("report_id", id),
		)
		return fmt.Errorf("failed to delete report: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report not found: %s", id)
	}

	return nil
}

func scanReport(row pgx.Row) (*model.Report, error) {
	var report model.Report
	var reportType string
	var summary []byte

	err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.Title,
		&reportType,
		&report.Date,
		&report.FileURL,
		&report.BlobPath,
		&summary,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report row: %w", err)
	}

	report.ReportType = model.ReportType(reportType)

	if len(summary) > 0 {
		var analysis model.ReportAnalysis
		if err := json.Unmarshal(summary, &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal AI summary: %w", err)
		}
		report.AISummary = &analysis
	}

	return &report, nil
}

func marshalSummary(summary *model.ReportAnalysis) ([]byte, error) {
	if summary == nil {
		return nil, nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal AI summary: %w", err)
	}

	return data, nil
}
