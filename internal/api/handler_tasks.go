package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/mw"
	"atm-fleet-backend/internal/pagination"
	"atm-fleet-backend/internal/tasks"
)

// GetTasks handles GET /api/tasks (admin): fleet-wide ticket listing.
func (h *Handler) GetTasks(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}

	page, err := h.tasks.ListTasks(c.Request.Context(), tasks.ListFilter{
		AssigneeID: c.Query("assignee"),
		AtmID:      c.Query("atm"),
		Status:     model.TaskStatus(c.Query("status")),
		From:       from,
		To:         to,
	}, pagination.Parse(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetEngineerTasks handles GET /api/engineers/tasks: the caller's own queue.
func (h *Handler) GetEngineerTasks(c *gin.Context) {
	id, ok := mw.IdentityFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	group := tasks.EngineerTaskGroup(c.Query("status"))
	if !tasks.ValidGroup(group) {
		fail(c, http.StatusBadRequest, "Unknown status filter")
		return
	}

	from, okFrom := parseTimeQuery(c, "from")
	if !okFrom {
		return
	}
	to, okTo := parseTimeQuery(c, "to")
	if !okTo {
		return
	}

	page, err := h.tasks.EngineerTasks(c.Request.Context(), id.UserID, group, from, to, pagination.Parse(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			fail(c, http.StatusNotFound, "Task not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, task)
}

// GetATMHistory handles GET /api/atms/:id/history.
func (h *Handler) GetATMHistory(c *gin.Context) {
	page, err := h.tasks.ATMHistory(c.Request.Context(), c.Param("id"), pagination.Parse(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, page)
}

type changeStatusRequest struct {
	Status       model.TaskStatus `json:"status" binding:"required"`
	EngineerNote string           `json:"engineerNote"`
}

// ChangeTaskStatus handles PUT /api/tasks/:id/status.
func (h *Handler) ChangeTaskStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status, req.EngineerNote)
	if err != nil {
		switch {
		case errors.Is(err, tasks.ErrTaskNotFound):
			fail(c, http.StatusNotFound, "Task not found")
		case errors.Is(err, tasks.ErrInvalidTransition):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, task)
}

// GetDiagnosticReport handles GET /api/tasks/:id/report.
func (h *Handler) GetDiagnosticReport(c *gin.Context) {
	rep, err := h.reports.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			fail(c, http.StatusNotFound, "Task not found")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, rep)
}
