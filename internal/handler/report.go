package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthvault/backend/internal/service"
	"github.com/healthvault/backend/pkg/model"
	"go.uber.org/zap"
)

// maxUploadBytes caps multipart report uploads at 10 MB
const maxUploadBytes = 10 << 20

// ReportHandler implements the report API endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the report endpoints on the given router group
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	reports.POST("", h.UploadReport)
	reports.GET("", h.ListReports)
	reports.GET("/types", h.ListReportTypes)
	reports.GET("/:id", h.GetReport)
	reports.GET("/:id/file", h.DownloadReportFile)
	reports.DELETE("/:id", h.DeleteReport)
}

// UploadReport accepts a multipart upload (file, title, reportType,
// date) and returns the stored report with its AI summary
func (h *ReportHandler) UploadReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Missing report file",
			Details: stringPtr(err.Error()),
		})
		return
	}

	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: fmt.Sprintf("Report file exceeds %d bytes", maxUploadBytes),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.logger.Error("failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to read uploaded file",
		})
		return
	}

	date := time.Now()
	if raw := c.PostForm("date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid date format, expected RFC 3339 or YYYY-MM-DD",
			})
			return
		}
		date = parsed
	}

	report, err := h.service.UploadReport(
		c.Request.Context(),
		userID,
		c.PostForm("title"),
		model.ReportType(c.PostForm("reportType")),
		date,
		fileHeader.Filename,
		data,
	)
	if err != nil {
		h.logger.Error("failed to upload report",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		writeServiceError(c, err, "Failed to upload report")
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports returns all reports of the user, newest first
func (h *ReportHandler) ListReports(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reports, err := h.service.GetReports(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list reports",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		writeServiceError(c, err, "Failed to list reports")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ListReportTypes returns the accepted report type labels
func (h *ReportHandler) ListReportTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reportTypes": model.ReportTypes})
}

// GetReport returns one report with its AI summary
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := h.service.GetReport(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Failed to get report")
		return
	}

	c.JSON(http.StatusOK, report)
}

// DownloadReportFile streams the original uploaded file
func (h *ReportHandler) DownloadReportFile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	data, contentType, err := h.service.DownloadReportFile(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Failed to download report file")
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

// DeleteReport removes a report and its stored file
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteReport(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeServiceError(c, err, "Failed to delete report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report deleted"})
}
