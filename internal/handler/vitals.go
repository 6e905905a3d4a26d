package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthvault/backend/internal/service"
	"github.com/healthvault/backend/pkg/model"
	"go.uber.org/zap"
)

// AnalysisPDFGenerator renders a vitals analysis as a downloadable PDF
type AnalysisPDFGenerator interface {
	Generate(record *model.VitalRecord, analysis *model.VitalsAnalysis) ([]byte, error)
}

// VitalsHandler implements the vitals API endpoints
type VitalsHandler struct {
	service *service.VitalsService
	pdf     AnalysisPDFGenerator
	logger  *zap.Logger
}

// NewVitalsHandler creates a new VitalsHandler
func NewVitalsHandler(service *service.VitalsService, pdf AnalysisPDFGenerator, logger *zap.Logger) *VitalsHandler {
	return &VitalsHandler{
		service: service,
		pdf:     pdf,
		logger:  logger,
	}
}

// RegisterRoutes mounts the vitals endpoints on the given router group
func (h *VitalsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	vitals := rg.Group("/vitals")
	vitals.POST("", h.AddVital)
	vitals.GET("", h.ListVitals)
	vitals.GET("/:id", h.GetVital)
	vitals.PUT("/:id", h.UpdateVital)
	vitals.DELETE("/:id", h.DeleteVital)
	vitals.POST("/analyze", h.AnalyzeSnapshot)
	vitals.POST("/:id/analyze", h.AnalyzeVital)
	vitals.GET("/:id/analysis/pdf", h.DownloadAnalysisPDF)
}

// AddVital records a new vitals entry
func (h *VitalsHandler) AddVital(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var snapshot model.VitalsSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	record, err := h.service.AddVital(c.Request.Context(), userID, snapshot)
	if err != nil {
		h.logger.Error("failed to add vitals",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		writeServiceError(c, err, "Failed to add vitals")
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ListVitals returns all vitals entries of the user, newest first
func (h *VitalsHandler) ListVitals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	records, err := h.service.GetVitals(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list vitals",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		writeServiceError(c, err, "Failed to list vitals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"vitals": records})
}

// GetVital returns one vitals entry
func (h *VitalsHandler) GetVital(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	record, err := h.service.GetVital(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Failed to get vitals entry")
		return
	}

	c.JSON(http.StatusOK, record)
}

// UpdateVital replaces the measurements of an existing entry
func (h *VitalsHandler) UpdateVital(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var snapshot model.VitalsSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	record, err := h.service.UpdateVital(c.Request.Context(), userID, c.Param("id"), snapshot)
	if err != nil {
		writeServiceError(c, err, "Failed to update vitals entry")
		return
	}

	c.JSON(http.StatusOK, record)
}

// DeleteVital removes a vitals entry
func (h *VitalsHandler) DeleteVital(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteVital(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeServiceError(c, err, "Failed to delete vitals entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vitals entry deleted"})
}

// analyzeSnapshotRequest carries a transient snapshot to analyze
// without persisting it
type analyzeSnapshotRequest struct {
	Current  *model.VitalsSnapshot `json:"current" binding:"required"`
	Previous *model.VitalsSnapshot `json:"previous"`
}

// AnalyzeSnapshot runs the analysis pipeline on a snapshot supplied in
// the request body. Nothing is stored; the analysis always succeeds.
func (h *VitalsHandler) AnalyzeSnapshot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req analyzeSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	analysis := h.service.AnalyzeSnapshot(c.Request.Context(), userID, req.Current, req.Previous)

	c.JSON(http.StatusOK, analysis)
}

// AnalyzeVital analyzes a stored vitals entry against the entry that
// precedes it
func (h *VitalsHandler) AnalyzeVital(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	_, analysis, err := h.service.AnalyzeVital(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Failed to analyze vitals entry")
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// DownloadAnalysisPDF renders the analysis of a stored entry as a PDF
func (h *VitalsHandler) DownloadAnalysisPDF(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	record, analysis, err := h.service.AnalyzeVital(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Failed to analyze vitals entry")
		return
	}

	data, err := h.pdf.Generate(record, analysis)
	if err != nil {
		h.logger.Error("failed to generate analysis PDF",
			zap.Error(err),
			zap.String("vital_id", record.ID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to generate PDF",
			Details: stringPtr(err.Error()),
		})
		return
	}

	filename := fmt.Sprintf("vitals-analysis-%s.pdf", record.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
