package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthvault/backend/internal/analysis"
	"github.com/healthvault/backend/internal/audit"
	"github.com/healthvault/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockVitalStore struct {
	mock.Mock
}

func (m *MockVitalStore) Create(ctx context.Context, v *model.VitalRecord) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVitalStore) FindByUserID(ctx context.Context, userID string) ([]model.VitalRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VitalRecord), args.Error(1)
}

func (m *MockVitalStore) FindByID(ctx context.Context, id string) (*model.VitalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VitalRecord), args.Error(1)
}

func (m *MockVitalStore) FindPrevious(ctx context.Context, userID string, before time.Time) (*model.VitalRecord, error) {
	args := m.Called(ctx, userID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VitalRecord), args.Error(1)
}

func (m *MockVitalStore) Update(ctx context.Context, v *model.VitalRecord) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVitalStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzeVitals(ctx context.Context, snapshot, previous *model.VitalsSnapshot) *model.VitalsAnalysis {
	args := m.Called(ctx, snapshot, previous)
	return args.Get(0).(*model.VitalsAnalysis)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func floatPtr(f float64) *float64 {
	return &f
}

func validSnapshot() model.VitalsSnapshot {
	return model.VitalsSnapshot{
		Date:          time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		BloodPressure: &model.BloodPressure{Systolic: 118, Diastolic: 76},
		HeartRate:     floatPtr(68),
	}
}

func newVitalsService(repo VitalStore, analyzer VitalsAnalyzer, auditLogger AuditLogger) *VitalsService {
	return NewVitalsService(repo, analyzer, auditLogger, zap.NewNop())
}

func TestAddVital_Success(t *testing.T) {
	repo := new(MockVitalStore)
	auditLogger := new(MockAuditLogger)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return(nil)

	svc := newVitalsService(repo, nil, auditLogger)

	record, err := svc.AddVital(context.Background(), "user-1", validSnapshot())

	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "user-1", record.UserID)
	repo.AssertExpectations(t)
	auditLogger.AssertCalled(t, "Log", mock.Anything, mock.MatchedBy(func(e audit.Entry) bool {
		return e.OperationType == audit.OperationCreate && e.ResourceType == audit.ResourceVital
	}))
}

func TestAddVital_DefaultsDate(t *testing.T) {
	repo := new(MockVitalStore)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newVitalsService(repo, nil, nil)

	snapshot := validSnapshot()
	snapshot.Date = time.Time{}

	record, err := svc.AddVital(context.Background(), "user-1", snapshot)

	require.NoError(t, err)
	assert.False(t, record.Date.IsZero())
}

func TestAddVital_ValidationErrors(t *testing.T) {
	svc := newVitalsService(new(MockVitalStore), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		snapshot model.VitalsSnapshot
	}{
		{"systolic too low", model.VitalsSnapshot{BloodPressure: &model.BloodPressure{Systolic: 60, Diastolic: 70}}},
		{"systolic too high", model.VitalsSnapshot{BloodPressure: &model.BloodPressure{Systolic: 260, Diastolic: 70}}},
		{"diastolic too low", model.VitalsSnapshot{BloodPressure: &model.BloodPressure{Systolic: 110, Diastolic: 30}}},
		{"heart rate too high", model.VitalsSnapshot{HeartRate: floatPtr(300)}},
		{"temperature too low", model.VitalsSnapshot{Temperature: floatPtr(80)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddVital(ctx, "user-1", tt.snapshot)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGetVital_NotFound(t *testing.T) {
	repo := new(MockVitalStore)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	svc := newVitalsService(repo, nil, nil)

	_, err := svc.GetVital(context.Background(), "user-1", "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetVital_WrongOwner(t *testing.T) {
	repo := new(MockVitalStore)
	repo.On("FindByID", mock.Anything, "v1").Return(&model.VitalRecord{
		ID:             "v1",
		UserID:         "someone-else",
		VitalsSnapshot: validSnapshot(),
	}, nil)

	svc := newVitalsService(repo, nil, nil)

	_, err := svc.GetVital(context.Background(), "user-1", "v1")

	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestUpdateVital_KeepsDateWhenOmitted(t *testing.T) {
	original := &model.VitalRecord{
		ID:             "v1",
		UserID:         "user-1",
		VitalsSnapshot: validSnapshot(),
	}

	repo := new(MockVitalStore)
	repo.On("FindByID", mock.Anything, "v1").Return(original, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	svc := newVitalsService(repo, nil, nil)

	updated := model.VitalsSnapshot{
		BloodPressure: &model.BloodPressure{Systolic: 130, Diastolic: 85},
	}

	record, err := svc.UpdateVital(context.Background(), "user-1", "v1", updated)

	require.NoError(t, err)
	assert.Equal(t, original.Date, record.Date)
	assert.Equal(t, 130, record.BloodPressure.Systolic)
}

func TestDeleteVital_ChecksOwnership(t *testing.T) {
	repo := new(MockVitalStore)
	repo.On("FindByID", mock.Anything, "v1").Return(&model.VitalRecord{
		ID:             "v1",
		UserID:         "someone-else",
		VitalsSnapshot: validSnapshot(),
	}, nil)

	svc := newVitalsService(repo, nil, nil)

	err := svc.DeleteVital(context.Background(), "user-1", "v1")

	assert.ErrorIs(t, err, ErrNotAuthorized)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAnalyzeVital_UsesPreviousEntry(t *testing.T) {
	record := &model.VitalRecord{
		ID:             "v2",
		UserID:         "user-1",
		VitalsSnapshot: validSnapshot(),
	}
	previousRecord := &model.VitalRecord{
		ID:     "v1",
		UserID: "user-1",
		VitalsSnapshot: model.VitalsSnapshot{
			Date:          record.Date.AddDate(0, 0, -7),
			BloodPressure: &model.BloodPressure{Systolic: 125, Diastolic: 82},
		},
	}

	repo := new(MockVitalStore)
	repo.On("FindByID", mock.Anything, "v2").Return(record, nil)
	repo.On("FindPrevious", mock.Anything, "user-1", record.Date).Return(previousRecord, nil)

	expected := analysis.FallbackVitals(&record.VitalsSnapshot, time.Now())
	analyzer := new(MockAnalyzer)
	analyzer.On("AnalyzeVitals", mock.Anything, &record.VitalsSnapshot, &previousRecord.VitalsSnapshot).Return(expected)

	auditLogger := new(MockAuditLogger)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return(nil)

	svc := newVitalsService(repo, analyzer, auditLogger)

	got, result, err := svc.AnalyzeVital(context.Background(), "user-1", "v2")

	require.NoError(t, err)
	assert.Equal(t, record, got)
	assert.Equal(t, expected, result)
	analyzer.AssertExpectations(t)
}

func TestAnalyzeVital_NoPreviousEntry(t *testing.T) {
	record := &model.VitalRecord{
		ID:             "v1",
		UserID:         "user-1",
		VitalsSnapshot: validSnapshot(),
	}

	repo := new(MockVitalStore)
	repo.On("FindByID", mock.Anything, "v1").Return(record, nil)
	repo.On("FindPrevious", mock.Anything, "user-1", record.Date).Return(nil, nil)

	expected := analysis.FallbackVitals(&record.VitalsSnapshot, time.Now())
	analyzer := new(MockAnalyzer)
	analyzer.On("AnalyzeVitals", mock.Anything, &record.VitalsSnapshot, (*model.VitalsSnapshot)(nil)).Return(expected)

	svc := newVitalsService(repo, analyzer, nil)

	_, result, err := svc.AnalyzeVital(context.Background(), "user-1", "v1")

	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestAnalyzeSnapshot_NotPersisted(t *testing.T) {
	snapshot := validSnapshot()
	expected := analysis.FallbackVitals(&snapshot, time.Now())

	analyzer := new(MockAnalyzer)
	analyzer.On("AnalyzeVitals", mock.Anything, &snapshot, (*model.VitalsSnapshot)(nil)).Return(expected)

	repo := new(MockVitalStore)

	svc := newVitalsService(repo, analyzer, nil)

	result := svc.AnalyzeSnapshot(context.Background(), "user-1", &snapshot, nil)

	assert.Equal(t, expected, result)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddVital_AuditFailureDoesNotBlock(t *testing.T) {
	repo := new(MockVitalStore)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	auditLogger := new(MockAuditLogger)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return(errors.New("audit table unavailable"))

	svc := newVitalsService(repo, nil, auditLogger)

	_, err := svc.AddVital(context.Background(), "user-1", validSnapshot())

	assert.NoError(t, err)
}
