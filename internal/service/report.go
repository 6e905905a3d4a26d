package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/healthvault/backend/internal/audit"
	"github.com/healthvault/backend/internal/storage"
	"github.com/healthvault/backend/pkg/model"
	"go.uber.org/zap"
)

// maxReportFileSize bounds uploaded report files at 10 MB
const maxReportFileSize = 10 << 20

// allowedReportExtensions are the file types the analysis pipeline can
// forward to the model
var allowedReportExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// ReportStore is the persistence capability the report service consumes
type ReportStore interface {
	Create(ctx context.Context, report *model.Report) error
	FindByUserID(ctx context.Context, userID string) ([]model.Report, error)
	FindByID(ctx context.Context, id string) (*model.Report, error)
	Delete(ctx context.Context, id string) error
}

// ReportAnalyzer produces a guaranteed-shape AI summary of a report
// file. It never fails; degraded results carry fallback provenance.
type ReportAnalyzer interface {
	AnalyzeReport(ctx context.Context, fileURL string, reportType model.ReportType) *model.ReportAnalysis
}

// ReportService manages uploaded medical reports: storage, AI
// summarization, and retrieval
type ReportService struct {
	repo     ReportStore
	blob     storage.BlobStorage
	analyzer ReportAnalyzer
	audit    AuditLogger
	logger   *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(repo ReportStore, blob storage.BlobStorage, analyzer ReportAnalyzer, auditLogger AuditLogger, logger *zap.Logger) *ReportService {
	return &ReportService{
		repo:     repo,
		blob:     blob,
		analyzer: analyzer,
		audit:    auditLogger,
		logger:   logger,
	}
}

// UploadReport stores a report file, runs the AI summary pipeline on
// it, and persists the report with its summary. The summary is always
// present: pipeline failures resolve to the fallback result, never to
// an upload error.
func (s *ReportService) UploadReport(ctx context.Context, userID, title string, reportType model.ReportType, date time.Time, filename string, data []byte) (*model.Report, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: report title is required", ErrValidation)
	}
	if !model.ValidReportType(reportType) {
		return nil, fmt.Errorf("%w: invalid report type: %q", ErrValidation, reportType)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: report file is empty", ErrValidation)
	}
	if len(data) > maxReportFileSize {
		return nil, fmt.Errorf("%w: report file exceeds %d bytes", ErrValidation, maxReportFileSize)
	}

	ext := strings.ToLower(path.Ext(filename))
	if !allowedReportExtensions[ext] {
		return nil, fmt.Errorf("%w: unsupported report file type: %q", ErrValidation, ext)
	}

	if date.IsZero() {
		date = time.Now()
	}

	reportID := uuid.New().String()
	blobFilename := fmt.Sprintf("%s%s", reportID, ext)
	contentType := storage.MIMETypeFromURL(blobFilename)

	blobPath, fileURL, err := s.blob.UploadFile(ctx, blobFilename, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store report file: %w", err)
	}

	summary := s.analyzer.AnalyzeReport(ctx, fileURL, reportType)

	report := &model.Report{
		ID:         reportID,
		UserID:     userID,
		Title:      title,
		ReportType: reportType,
		Date:       date,
		FileURL:    fileURL,
		BlobPath:   blobPath,
		AISummary:  summary,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationCreate, reportID)

	s.logger.Info("report uploaded and analyzed",
		zap.String("user_id", userID),
		zap.String("report_id", reportID),
		zap.String("report_type", string(reportType)),
		zap.String("model_used", summary.ModelUsed),
	)

	return report, nil
}

// GetReports returns all reports of a user, newest first
func (s *ReportService) GetReports(ctx context.Context, userID string) ([]model.Report, error) {
	reports, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	return reports, nil
}

// GetReport returns one report after checking ownership
func (s *ReportService) GetReport(ctx context.Context, userID, reportID string) (*model.Report, error) {
	report, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil {
		return nil, ErrNotFound
	}
	if report.UserID != userID {
		return nil, ErrNotAuthorized
	}

	return report, nil
}

// DownloadReportFile returns the stored file bytes of a report
func (s *ReportService) DownloadReportFile(ctx context.Context, userID, reportID string) ([]byte, string, error) {
	report, err := s.GetReport(ctx, userID, reportID)
	if err != nil {
		return nil, "", err
	}

	data, err := s.blob.DownloadFile(ctx, report.BlobPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download report file: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationRead, reportID)

	return data, storage.MIMETypeFromURL(report.BlobPath), nil
}

// DeleteReport removes a report and its stored file. A file-storage
// miss does not block deletion of the record.
func (s *ReportService) DeleteReport(ctx context.Context, userID, reportID string) error {
	report, err := s.GetReport(ctx, userID, reportID)
	if err != nil {
		return err
	}

	if err := s.blob.DeleteFile(ctx, report.BlobPath); err != nil {
		s.logger.Warn("failed to delete report file from storage",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
	}

	if err := s.repo.Delete(ctx, reportID); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationDelete, reportID)

	return nil
}

func (s *ReportService) auditLog(ctx context.Context, userID string, op audit.OperationType, resourceID string) {
	if s.audit == nil {
		return
	}

	err := s.audit.Log(ctx, audit.Entry{
		UserID:        userID,
		OperationType: op,
		ResourceType:  audit.ResourceReport,
		ResourceID:    resourceID,
	})
	if err != nil {
		s.logger.Error("audit logging failed", zap.Error(err))
	}
}
