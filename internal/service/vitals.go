package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/healthvault/backend/internal/audit"
	"github.com/healthvault/backend/pkg/model"
	"go.uber.org/zap"
)

// Service-level sentinel errors mapped to HTTP codes by the handlers
var (
	ErrNotFound      = errors.New("record not found")
	ErrNotAuthorized = errors.New("not authorized to access this record")
	ErrValidation    = errors.New("validation failed")
)

// VitalStore is the persistence capability the vitals service consumes
type VitalStore interface {
	Create(ctx context.Context, v *model.VitalRecord) error
	FindByUserID(ctx context.Context, userID string) ([]model.VitalRecord, error)
	FindByID(ctx context.Context, id string) (*model.VitalRecord, error)
	FindPrevious(ctx context.Context, userID string, before time.Time) (*model.VitalRecord, error)
	Update(ctx context.Context, v *model.VitalRecord) error
	Delete(ctx context.Context, id string) error
}

// VitalsAnalyzer produces a guaranteed-shape analysis for a snapshot.
// It never fails; degraded results carry fallback provenance.
type VitalsAnalyzer interface {
	AnalyzeVitals(ctx context.Context, snapshot, previous *model.VitalsSnapshot) *model.VitalsAnalysis
}

// AuditLogger records access to health data
type AuditLogger interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// VitalsService manages vitals entries and their AI analysis
type VitalsService struct {
	repo     VitalStore
	analyzer VitalsAnalyzer
	audit    AuditLogger
	logger   *zap.Logger
}

// NewVitalsService creates a new VitalsService
func NewVitalsService(repo VitalStore, analyzer VitalsAnalyzer, auditLogger AuditLogger, logger *zap.Logger) *VitalsService {
	return &VitalsService{
		repo:     repo,
		analyzer: analyzer,
		audit:    auditLogger,
		logger:   logger,
	}
}

// AddVital validates and persists a new vitals entry
func (s *VitalsService) AddVital(ctx context.Context, userID string, snapshot model.VitalsSnapshot) (*model.VitalRecord, error) {
	if err := validateSnapshot(&snapshot); err != nil {
		return nil, err
	}

	if snapshot.Date.IsZero() {
		snapshot.Date = time.Now()
	}

	record := &model.VitalRecord{
		ID:             uuid.New().String(),
		UserID:         userID,
		VitalsSnapshot: snapshot,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to add vitals: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationCreate, record.ID)

	s.logger.Info("vitals entry added",
		zap.String("user_id", userID),
		zap.String("vital_id", record.ID),
	)

	return record, nil
}

// GetVitals returns all vitals entries of a user, newest first
func (s *VitalsService) GetVitals(ctx context.Context, userID string) ([]model.VitalRecord, error) {
	records, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vitals: %w", err)
	}

	return records, nil
}

// GetVital returns one vitals entry after checking ownership
func (s *VitalsService) GetVital(ctx context.Context, userID, vitalID string) (*model.VitalRecord, error) {
	record, err := s.repo.FindByID(ctx, vitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vital: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if record.UserID != userID {
		return nil, ErrNotAuthorized
	}

	return record, nil
}

// UpdateVital rewrites an existing vitals entry after checking ownership
func (s *VitalsService) UpdateVital(ctx context.Context, userID, vitalID string, snapshot model.VitalsSnapshot) (*model.VitalRecord, error) {
	record, err := s.GetVital(ctx, userID, vitalID)
	if err != nil {
		return nil, err
	}

	if err := validateSnapshot(&snapshot); err != nil {
		return nil, err
	}

	if snapshot.Date.IsZero() {
		snapshot.Date = record.Date
	}

	record.VitalsSnapshot = snapshot

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update vitals: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationUpdate, vitalID)

	return record, nil
}

// DeleteVital removes a vitals entry after checking ownership
func (s *VitalsService) DeleteVital(ctx context.Context, userID, vitalID string) error {
	if _, err := s.GetVital(ctx, userID, vitalID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, vitalID); err != nil {
		return fmt.Errorf("failed to delete vitals: %w", err)
	}

	s.auditLog(ctx, userID, audit.OperationDelete, vitalID)

	return nil
}

// AnalyzeSnapshot runs the analysis pipeline on a transient snapshot.
// The result is returned to the caller and not persisted.
func (s *VitalsService) AnalyzeSnapshot(ctx context.Context, userID string, snapshot, previous *model.VitalsSnapshot) *model.VitalsAnalysis {
	analysis := s.analyzer.AnalyzeVitals(ctx, snapshot, previous)

	s.auditLog(ctx, userID, audit.OperationAnalyze, "")

	return analysis
}

// AnalyzeVital runs the analysis pipeline on a stored entry, using the
// user's next-older entry as the previous snapshot
func (s *VitalsService) AnalyzeVital(ctx context.Context, userID, vitalID string) (*model.VitalRecord, *model.VitalsAnalysis, error) {
	record, err := s.GetVital(ctx, userID, vitalID)
	if err != nil {
		return nil, nil, err
	}

	previousRecord, err := s.repo.FindPrevious(ctx, userID, record.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up previous vitals: %w", err)
	}

	var previous *model.VitalsSnapshot
	if previousRecord != nil {
		previous = &previousRecord.VitalsSnapshot
	}

	analysis := s.analyzer.AnalyzeVitals(ctx, &record.VitalsSnapshot, previous)

	s.auditLog(ctx, userID, audit.OperationAnalyze, vitalID)

	return record, analysis, nil
}

// validateSnapshot rejects physiologically impossible readings
func validateSnapshot(snapshot *model.VitalsSnapshot) error {
	if bp := snapshot.BloodPressure; bp != nil {
		if bp.Systolic < 70 || bp.Systolic > 250 {
			return fmt.Errorf("%w: invalid systolic value: %d (must be 70-250)", ErrValidation, bp.Systolic)
		}
		if bp.Diastolic < 40 || bp.Diastolic > 150 {
			return fmt.Errorf("%w: invalid diastolic value: %d (must be 40-150)", ErrValidation, bp.Diastolic)
		}
	}

	if snapshot.HeartRate != nil && (*snapshot.HeartRate < 20 || *snapshot.HeartRate > 250) {
		return fmt.Errorf("%w: invalid heart rate value: %g (must be 20-250)", ErrValidation, *snapshot.HeartRate)
	}

	if snapshot.Temperature != nil && (*snapshot.Temperature < 90 || *snapshot.Temperature > 110) {
		return fmt.Errorf("%w: invalid temperature value: %g°F (must be 90-110)", ErrValidation, *snapshot.Temperature)
	}

	return nil
}

// auditLog records an audit entry; failures are logged and swallowed
func (s *VitalsService) auditLog(ctx context.Context, userID string, op audit.OperationType, resourceID string) {
	if s.audit == nil {
		return
	}

	err := s.audit.Log(ctx, audit.Entry{
		UserID:        userID,
		OperationType: op,
		ResourceType:  audit.ResourceVital,
		ResourceID:    resourceID,
	})
	if err != nil {
		s.logger.Error("audit logging failed", zap.Error(err))
	}
}
