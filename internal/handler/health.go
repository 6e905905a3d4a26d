package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusHandler reports service liveness and dependency state
type StatusHandler struct {
	db           *pgxpool.Pool
	aiConfigured bool
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(db *pgxpool.Pool, aiConfigured bool) *StatusHandler {
	return &StatusHandler{
		db:           db,
		aiConfigured: aiConfigured,
	}
}

// Status answers the health check. The AI provider being unconfigured
// is reported but never degrades the service status: analysis falls
// back to rule-based results.
func (h *StatusHandler) Status(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"

	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	} else {
		dbStatus = "not configured"
	}

	aiStatus := "ok"
	if !h.aiConfigured {
		aiStatus = "not configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  dbStatus,
		"ai":        aiStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
