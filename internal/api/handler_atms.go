package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/pagination"
	"atm-fleet-backend/internal/sdk"
	"atm-fleet-backend/internal/store"
)

type createATMRequest struct {
	Longitude float64 `json:"longitude" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
}

// CreateATM handles POST /api/atms: registers a terminal with an empty
// inventory snapshot.
func (h *Handler) CreateATM(c *gin.Context) {
	var req createATMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	atm := &model.ATM{
		ActivityStatus: model.ActivityOnline,
		HealthStatus:   model.HealthHealthy,
		Longitude:      req.Longitude,
		Latitude:       req.Latitude,
	}
	if err := h.store.CreateATM(c.Request.Context(), atm); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.store.CreateInventory(c.Request.Context(), &model.CashInventory{AtmID: atm.ID}); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, atm)
}

// GetATMs handles GET /api/atms with activity/health filters.
func (h *Handler) GetATMs(c *gin.Context) {
	page, err := h.store.ListATMs(c.Request.Context(), store.ATMFilter{
		ActivityStatus: model.ActivityStatus(c.Query("activityStatus")),
		HealthStatus:   model.HealthStatus(c.Query("healthStatus")),
	}, pagination.Parse(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, page)
}

// atmDetailResponse bundles an ATM with its current cash position and the
// last-day uptime figure.
type atmDetailResponse struct {
	*model.ATM
	CurrentInventory *model.CashInventory `json:"currentInventory"`
	UptimePercent    float64              `json:"uptimePercent"`
}

// GetATM handles GET /api/atms/:id.
func (h *Handler) GetATM(c *gin.Context) {
	ctx := c.Request.Context()

	atm, err := h.store.GetATM(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "ATM not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	inventory, err := h.store.CurrentInventory(ctx, atm.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	uptime, err := h.tasks.UptimePercent(ctx, atm.ID, h.cfg.Monitor.EvaluateInterval)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, atmDetailResponse{
		ATM:              atm,
		CurrentInventory: inventory,
		UptimePercent:    uptime,
	})
}

type refillRequest struct {
	N1000 int `json:"n1000" binding:"min=0"`
	N500  int `json:"n500" binding:"min=0"`
	N200  int `json:"n200" binding:"min=0"`
}

// RefillATM handles POST /api/atms/:id/refill (admin).
func (h *Handler) RefillATM(c *gin.Context) {
	var req refillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.N1000+req.N500+req.N200 == 0 {
		fail(c, http.StatusBadRequest, "Refill must add at least one note")
		return
	}

	if _, err := h.store.GetATM(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "ATM not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	inv, err := h.sdk.Refill(c.Request.Context(), c.Param("id"), sdk.Denominations{
		N1000: req.N1000,
		N500:  req.N500,
		N200:  req.N200,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, inv)
}
