package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthvault/backend/internal/security"
	"github.com/healthvault/backend/pkg/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// VitalRepository manages persisted vitals entries
type VitalRepository struct {
	db        *pgxpool.Pool
	encryptor *security.Encryptor // nil disables notes encryption
	logger    *zap.Logger
}

// NewVitalRepository creates a new VitalRepository. When encryptor is
// non-nil, free-text notes are encrypted at rest.
func NewVitalRepository(db *pgxpool.Pool, encryptor *security.Encryptor, logger *zap.Logger) *VitalRepository {
	return &VitalRepository{
		db:        db,
		encryptor: encryptor,
		logger:    logger,
	}
}

// Create inserts a new vitals record
func (r *VitalRepository) Create(ctx context.Context, v *model.VitalRecord) error {
	notes, err := r.encodeNotes(v.Notes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO vitals (
			id, user_id, date, systolic, diastolic,
			blood_sugar, weight, temperature, heart_rate, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`

	systolic, diastolic := bloodPressureColumns(v.BloodPressure)

	_, err = r.db.Exec(ctx, query,
		v.ID,
		v.UserID,
		v.Date,
		systolic,
		diastolic,
		v.BloodSugar,
		v.Weight,
		v.Temperature,
		v.HeartRate,
		notes,
	)
	if err != nil {
		r.logger.Error("failed to save vitals record",
			zap.Error(err),
			zap.String("user_id", v.UserID),
		)
		return fmt.Errorf("failed to save vitals record: %w", err)
	}

	return nil
}

// FindByUserID returns all vitals for a user, newest first
func (r *VitalRepository) FindByUserID(ctx context.Context, userID string) ([]model.VitalRecord, error) {
	query := `
		SELECT id, user_id, date, systolic, diastolic,
		       blood_sugar, weight, temperature, heart_rate, notes,
		       created_at, updated_at
		FROM vitals
		WHERE user_id = $1
		ORDER BY date DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to query vitals",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("failed to query vitals: %w", err)
	}
	defer rows.Close()

	var records []model.VitalRecord
	for rows.Next() {
		record, err := r.scanVital(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vitals: %w", err)
	}

	return records, nil
}

// FindByID returns one vitals record, or nil when not found
func (r *VitalRepository) FindByID(ctx context.Context, id string) (*model.VitalRecord, error) {
	query := `
		SELECT id, user_id, date, systolic, diastolic,
		       blood_sugar, weight, temperature, heart_rate, notes,
		       created_at, updated_at
		FROM vitals
		WHERE id = $1
	`

	record, err := r.scanVital(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// FindPrevious returns the most recent vitals record of the user dated
// strictly before the given time, or nil when there is none
func (r *VitalRepository) FindPrevious(ctx context.Context, userID string, before time.Time) (*model.VitalRecord, error) {
	query := `
		SELECT id, user_id, date, systolic, diastolic,
		       blood_sugar, weight, temperature, heart_rate, notes,
		       created_at, updated_at
		FROM vitals
		WHERE user_id = $1 AND date < $2
		ORDER BY date DESC
		LIMIT 1
	`

	record, err := r.scanVital(r.db.QueryRow(ctx, query, userID, before))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Update rewrites all mutable fields of a vitals record
func (r *VitalRepository) Update(ctx context.Context, v *model.VitalRecord) error {
	notes, err := r.encodeNotes(v.Notes)
	if err != nil {
		return err
	}

	query := `
		UPDATE vitals
		SET date = $2, systolic = $3, diastolic = $4,
		    blood_sugar = $5, weight = $6, temperature = $7,
		    heart_rate = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
	`

	systolic, diastolic := bloodPressureColumns(v.BloodPressure)

	tag, err := r.db.Exec(ctx, query,
		v.ID,
		v.Date,
		systolic,
		diastolic,
		v.BloodSugar,
		v.Weight,
		v.Temperature,
		v.HeartRate,
		notes,
	)
	if err != nil {
		r.logger.Error("failed to update vitals record",
			zap.Error(err),
			zap.String("vital_id", v.ID),
		)
		return fmt.Errorf("failed to update vitals record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vitals record not found: %s", v.ID)
	}

	return nil
}

// Delete removes a vitals record
func (r *VitalRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vitals WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete vitals record",
			zap.Error(err),
			zap.String("vital_id", id),
		)
		return fmt.Errorf("failed to delete vitals record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vitals record not found: %s", id)
	}

	return nil
}

// scanVital reads one row into a VitalRecord and decrypts notes
func (r *VitalRepository) scanVital(row pgx.Row) (*model.VitalRecord, error) {
	var record model.VitalRecord
	var systolic, diastolic *int
	var notes *string

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.Date,
		&systolic,
		&diastolic,
		&record.BloodSugar,
		&record.Weight,
		&record.Temperature,
		&record.HeartRate,
		&notes,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan vitals row: %w", err)
	}

	if systolic != nil && diastolic != nil {
		record.BloodPressure = &model.BloodPressure{
			Systolic:  *systolic,
			Diastolic: *diastolic,
		}
	}

	if notes != nil {
		decoded, err := r.decodeNotes(*notes)
		if err != nil {
			return nil, err
		}
		record.Notes = decoded
	}

	return &record, nil
}

func (r *VitalRepository) encodeNotes(notes string) (*string, error) {
	if notes == "" {
		return nil, nil
	}

	if r.encryptor == nil {
		return &notes, nil
	}

	encrypted, err := r.encryptor.Encrypt(notes)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt notes: %w", err)
	}

	return &encrypted, nil
}

func (r *VitalRepository) decodeNotes(stored string) (string, error) {
	if r.encryptor == nil {
		return stored, nil
	}

	decrypted, err := r.encryptor.Decrypt(stored)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt notes: %w", err)
	}

	return decrypted, nil
}

func bloodPressureColumns(bp *model.BloodPressure) (*int, *int) {
	if bp == nil {
		return nil, nil
	}
	return &bp.Systolic, &bp.Diastolic
}
