package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/mw"
)

type activityRequest struct {
	ActivityStatus model.ActivityStatus `json:"activityStatus" binding:"required,oneof=ONLINE OFFLINE"`
}

// SetActivity handles PUT /api/engineers/activity: an engineer toggling
// whether they are available for assignment.
func (h *Handler) SetActivity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	identity, ok := mw.IdentityFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.store.SetUserActivity(c.Request.Context(), identity.UserID, req.ActivityStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"activityStatus": req.ActivityStatus})
}

type pushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256DH string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// SavePushSubscription handles POST /api/engineers/push-subscription,
// storing the browser push subscription used for assignment alerts.
func (h *Handler) SavePushSubscription(c *gin.Context) {
	var req pushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	identity, ok := mw.IdentityFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err := h.store.SetUserPushSubscription(c.Request.Context(), identity.UserID,
		req.Endpoint, req.Keys.P256DH, req.Keys.Auth)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
