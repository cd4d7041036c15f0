package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atm-fleet-backend/internal/sdk"
)

// Withdraw handles POST /api/sdk/withdraw. Business failures (wrong PIN,
// low cash, jams) come back as 200 with success=false so the terminal can
// render them; a retained card is the one hard 403.
func (h *Handler) Withdraw(c *gin.Context) {
	var req sdk.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.sdk.Withdraw(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, sdk.ErrCardRetained) {
			fail(c, http.StatusForbidden, "Card retained due to multiple wrong PIN attempts. Please contact your bank.")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

type endTransactionRequest struct {
	AtmID                    string `json:"atmId" binding:"required"`
	SimulateCardEjectFailure bool   `json:"simulateCardEjectFailure"`
}

// EndTransaction handles POST /api/sdk/end-transaction.
func (h *Handler) EndTransaction(c *gin.Context) {
	var req endTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.sdk.EndTransaction(c.Request.Context(), req.AtmID, req.SimulateCardEjectFailure))
}
