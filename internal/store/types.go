package store

import (
	"time"

	"atm-fleet-backend/internal/model"
)

// ATMFilter narrows fleet listing queries. Zero-valued fields are ignored.
type ATMFilter struct {
	ActivityStatus model.ActivityStatus
	HealthStatus   model.HealthStatus
}

// TaskFilter narrows ticket listing queries. Zero-valued fields are ignored.
// Statuses matches tasks whose status trail contains any of the given
// statuses, mirroring how trail-based filters behave everywhere else.
type TaskFilter struct {
	AssigneeID string
	AtmID      string
	Statuses   []model.TaskStatus
	From       *time.Time
	To         *time.Time
}
