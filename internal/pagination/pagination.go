package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Params holds the page/limit pair parsed from a request.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the paginated result wrapper every list endpoint returns. Keeping
// one explicit shape avoids callers having to probe whether they got a bare
// list or a wrapper.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Parse reads `page` and `limit` query params, falling back to defaults and
// clamping the limit.
func Parse(c *gin.Context) Params {
	page := 1
	if ps := c.Query("page"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			page = v
		}
	}

	limit := defaultLimit
	if ls := c.Query("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Params{Page: page, Limit: limit}
}
