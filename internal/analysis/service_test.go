package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthvault/backend/internal/ai"
	"github.com/healthvault/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) ResolveModel(ctx context.Context, candidates []string) (string, error) {
	args := m.Called(ctx, candidates)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) Generate(ctx context.Context, modelID, prompt string, attachment *ai.Attachment) (string, error) {
	args := m.Called(ctx, modelID, prompt, attachment)
	return args.String(0), args.Error(1)
}

type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Download(ctx context.Context, fileURL string) ([]byte, string, error) {
	args := m.Called(ctx, fileURL)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func newTestService(client Completer, downloader Downloader) *Service {
	svc := NewService(client, downloader, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAnalyzeVitals_NoClientFallsBack(t *testing.T) {
	svc := newTestService(nil, nil)

	result := svc.AnalyzeVitals(context.Background(), bpSnapshot(118, 76), nil)

	require.NotNil(t, result)
	assert.Equal(t, FallbackModel, result.AIMetadata.Model)
}

func TestAnalyzeVitals_HappyPath(t *testing.T) {
	client := new(MockCompleter)
	client.On("ResolveModel", mock.Anything, vitalsModelChain).Return("gemini-2.5-flash", nil)
	client.On("Generate", mock.Anything, "gemini-2.5-flash", mock.Anything, (*ai.Attachment)(nil)).
		Return("```json\n{\"overallAssessment\": {\"score\": 88, \"status\": \"Excellent\"}}\n```", nil)

	svc := newTestService(client, nil)

	result := svc.AnalyzeVitals(context.Background(), bpSnapshot(118, 76), nil)

	require.NotNil(t, result)
	assert.Equal(t, 88, result.OverallAssessment.Score)
	assert.Equal(t, "gemini-2.5-flash", result.AIMetadata.Model)
	client.AssertExpectations(t)
}

func TestAnalyzeVitals_NoModelAvailableFallsBack(t *testing.T) {
	client := new(MockCompleter)
	client.On("ResolveModel", mock.Anything, vitalsModelChain).Return("", errors.New("all candidates failed"))

	svc := newTestService(client, nil)

	result := svc.AnalyzeVitals(context.Background(), bpSnapshot(118, 76), nil)

	require.NotNil(t, result)
	assert.Equal(t, FallbackModel, result.AIMetadata.Model)
	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeVitals_InvocationErrorFallsBack(t *testing.T) {
	client := new(MockCompleter)
	client.On("ResolveModel", mock.Anything, vitalsModelChain).Return("gemini-2.5-flash", nil)
	client.On("Generate", mock.Anything, "gemini-2.5-flash", mock.Anything, (*ai.Attachment)(nil)).
		Return("", errors.New("rate limited"))

	svc := newTestService(client, nil)

	result := svc.AnalyzeVitals(context.Background(), bpSnapshot(118, 76), nil)

	require.NotNil(t, result)
	assert.Equal(t, FallbackModel, result.AIMetadata.Model)
}

func TestAnalyzeVitals_UnparsableResponseFallsBack(t *testing.T) {
	client := new(MockCompleter)
	client.On("ResolveModel", mock.Anything, vitalsModelChain).Return("gemini-2.5-flash", nil)
	client.On("Generate", mock.Anything, "gemini-2.5-flash", mock.Anything, (*ai.Attachment)(nil)).
		Return("I'm sorry, I cannot comply with that request.", nil)

	svc := newTestService(client, nil)

	result := svc.AnalyzeVitals(context.Background(), bpSnapshot(118, 76), nil)

	require.NotNil(t, result)
	assert.Equal(t, FallbackModel, result.AIMetadata.Model)
	// fallback still reflects the snapshot, not a neutral default
	assert.Contains(t, result.MetricAnalysis, "bloodPressure")
}

func TestAnalyzeReport_HappyPath(t *testing.T) {
	downloader := new(MockDownloader)
	downloader.On("Download", mock.Anything, "https://blobs.example/reports/r1.pdf").
		Return([]byte("%PDF-1.4"), "application/pdf", nil)

	client := new(MockCompleter)
	client.On("ResolveModel", mock.Anything, reportModelChain).Return("gemini-2.5-flash", nil)
	client.On("Generate", mock.Anything, "gemini-2.5-flash", mock.Anything, mock.MatchedBy(func(a *ai.Attachment) bool {
		return a != nil && a.MIMEType == "application/pdf" && a.Filename == "report.pdf"
	})).Return(`{"english": "All values look normal."}`, nil)

	svc := newTestService(client, downloader)

	result := svc.AnalyzeReport(context.Background(), "https://blobs.example/reports/r1.pdf", model.ReportType("Blood Test"))

	require.NotNil(t, result)
	assert.Equal(t, "All values look normal.", result.English)
	assert.Equal(t, "gemini-2.5-flash", result.ModelUsed)
	client.AssertExpectations(t)
	downloader.AssertExpectations(t)
}

func TestAnalyzeReport_DownloadErrorFallsBack(t *testing.T) {
	downloader := new(MockDownloader)
	downloader.On("Download", mock.Anything, mock.Anything).
		Return(nil, "", errors.New("blob not found"))

	client := new(MockCompleter)

	svc := newTestService(client, downloader)

	result := svc.AnalyzeReport(context.Background(), "https://blobs.example/missing.pdf", model.ReportType("X-Ray"))

	require.NotNil(t, result)
	assert.Equal(t, FallbackModel, result.ModelUsed)
	client.AssertNotCalled(t, "ResolveModel", mock.Anything, mock.Anything)
}

func TestAnalyzeReport_NoClientFallsBack(t *testing.T) {
	svc := newTestService(nil, nil)

	result := svc.AnalyzeReport(context.Background(), "https://blobs.example/reports/r1.pdf", model.ReportType("MRI"))

	require.NotNil(t, result)
	assert.Equal(t, FallbackModel, result.ModelUsed)
}

func TestExtensionForMIME(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"image/webp", ".webp"},
		{"application/pdf", ".pdf"},
		{"application/octet-stream", ".pdf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionForMIME(tt.mimeType))
	}
}
