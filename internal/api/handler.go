package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/report"
	"atm-fleet-backend/internal/sdk"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	tasks   *tasks.Service
	sdk     *sdk.Service
	reports *report.Generator
	cfg     *config.Config
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, taskSvc *tasks.Service, sdkSvc *sdk.Service, reports *report.Generator, cfg *config.Config) *Handler {
	return &Handler{
		store:   s,
		tasks:   taskSvc,
		sdk:     sdkSvc,
		reports: reports,
		cfg:     cfg,
	}
}

// fail writes the normalized error envelope. Server-side failures collapse
// to a generic message so internals never leak.
func fail(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		message = "Internal Server Error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": true, "message": message})
}

// parseTimeQuery reads an optional RFC3339 query parameter.
func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid '"+key+"' timestamp format. Use RFC3339.")
		return nil, false
	}
	return &t, true
}
