package pdf

import (
	"testing"
	"time"

	"github.com/healthvault/backend/internal/analysis"
	"github.com/healthvault/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func floatPtr(f float64) *float64 {
	return &f
}

func sampleRecord() *model.VitalRecord {
	return &model.VitalRecord{
		ID:     "v1",
		UserID: "user-1",
		VitalsSnapshot: model.VitalsSnapshot{
			Date:          time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			BloodPressure: &model.BloodPressure{Systolic: 118, Diastolic: 76},
			HeartRate:     floatPtr(68),
			Weight:        floatPtr(70),
		},
	}
}

func TestGenerate_ProducesPDF(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	record := sampleRecord()
	result := analysis.FallbackVitals(&record.VitalsSnapshot, time.Now())

	data, err := g.Generate(record, result)

	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerate_EmptySnapshot(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	record := &model.VitalRecord{
		ID:     "v2",
		UserID: "user-1",
		VitalsSnapshot: model.VitalsSnapshot{
			Date: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	result := analysis.FallbackVitals(&record.VitalsSnapshot, time.Now())

	data, err := g.Generate(record, result)

	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
