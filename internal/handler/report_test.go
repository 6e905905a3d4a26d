package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/healthvault/backend/internal/analysis"
	"github.com/healthvault/backend/internal/middleware"
	"github.com/healthvault/backend/internal/service"
	"github.com/healthvault/backend/internal/storage"
	"github.com/healthvault/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryReportStore is a map-backed ReportStore for handler tests
type memoryReportStore struct {
	reports map[string]*model.Report
}

func newMemoryReportStore() *memoryReportStore {
	return &memoryReportStore{reports: map[string]*model.Report{}}
}

func (s *memoryReportStore) Create(ctx context.Context, report *model.Report) error {
	clone := *report
	s.reports[report.ID] = &clone
	return nil
}

func (s *memoryReportStore) FindByUserID(ctx context.Context, userID string) ([]model.Report, error) {
	var out []model.Report
	for _, report := range s.reports {
		if report.UserID == userID {
			out = append(out, *report)
		}
	}
	return out, nil
}

func (s *memoryReportStore) FindByID(ctx context.Context, id string) (*model.Report, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	clone := *report
	return &clone, nil
}

func (s *memoryReportStore) Delete(ctx context.Context, id string) error {
	delete(s.reports, id)
	return nil
}

// newReportRouter wires the report handler against in-memory state and
// an unconfigured analysis pipeline (fallback path)
func newReportRouter(store *memoryReportStore, blob *storage.MockBlobClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	analyzer := analysis.NewService(nil, nil, logger)
	reportService := service.NewReportService(store, blob, analyzer, nil, logger)
	h := NewReportHandler(reportService, logger)

	r := gin.New()
	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.UserIdentityMiddleware())
	h.RegisterRoutes(apiV1)

	return r
}

func multipartUpload(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(file)
	require.NoError(t, err)

	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func uploadReport(t *testing.T, r *gin.Engine, userID string, fields map[string]string, filename string, file []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartUpload(t, fields, filename, file)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReportHandler_UploadAnalyzesWithFallback(t *testing.T) {
	store := newMemoryReportStore()
	blob := storage.NewMockBlobClient(zap.NewNop())
	r := newReportRouter(store, blob)

	fields := map[string]string{
		"title":      "Annual blood work",
		"reportType": "Blood Test",
		"date":       "2025-05-20",
	}
	w := uploadReport(t, r, "user-1", fields, "results.pdf", []byte("%PDF-1.4 data"))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "user-1", report.UserID)
	assert.Equal(t, model.ReportType("Blood Test"), report.ReportType)
	require.NotNil(t, report.AISummary)
	assert.Equal(t, analysis.FallbackModel, report.AISummary.ModelUsed)

	// file landed in blob storage
	assert.Len(t, blob.Storage, 1)
}

func TestReportHandler_UploadRejectsUnknownType(t *testing.T) {
	r := newReportRouter(newMemoryReportStore(), storage.NewMockBlobClient(zap.NewNop()))

	fields := map[string]string{
		"title":      "Mystery",
		"reportType": "Tarot Reading",
	}
	w := uploadReport(t, r, "user-1", fields, "results.pdf", []byte("data"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_UploadRejectsMissingFile(t *testing.T) {
	r := newReportRouter(newMemoryReportStore(), storage.NewMockBlobClient(zap.NewNop()))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "No file"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-ID", "user-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_DownloadFile(t *testing.T) {
	store := newMemoryReportStore()
	blob := storage.NewMockBlobClient(zap.NewNop())
	r := newReportRouter(store, blob)

	fields := map[string]string{
		"title":      "Scan",
		"reportType": "X-Ray Report",
	}
	w := uploadReport(t, r, "user-1", fields, "scan.png", []byte{0x89, 0x50, 0x4e, 0x47})
	require.Equal(t, http.StatusCreated, w.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+report.ID+"/file", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, rec.Body.Bytes())
}

func TestReportHandler_ListReportTypes(t *testing.T) {
	r := newReportRouter(newMemoryReportStore(), storage.NewMockBlobClient(zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/types", nil)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ReportTypes []model.ReportType `json:"reportTypes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.ReportTypes, 22)
	assert.Contains(t, resp.ReportTypes, model.ReportType("Other"))
}

func TestReportHandler_DeleteRemovesBlob(t *testing.T) {
	store := newMemoryReportStore()
	blob := storage.NewMockBlobClient(zap.NewNop())
	r := newReportRouter(store, blob)

	fields := map[string]string{
		"title":      "Old report",
		"reportType": "Other",
	}
	w := uploadReport(t, r, "user-1", fields, "old.pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusCreated, w.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reports/"+report.ID, nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, blob.Storage)
	assert.Empty(t, store.reports)
}
