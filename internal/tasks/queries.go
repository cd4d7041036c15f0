package tasks

import (
	"context"
	"time"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/pagination"
	"atm-fleet-backend/internal/store"
)

// EngineerTaskGroup is the coarse status filter engineers browse their
// queue by.
type EngineerTaskGroup string

const (
	GroupAssigned   EngineerTaskGroup = "assigned"
	GroupActive     EngineerTaskGroup = "active"
	GroupResolved   EngineerTaskGroup = "resolved"
	GroupUnresolved EngineerTaskGroup = "unresolved"
	GroupReassigned EngineerTaskGroup = "reassigned"
)

var groupStatuses = map[EngineerTaskGroup][]model.TaskStatus{
	GroupAssigned:   {model.StatusAssigned},
	GroupActive:     {model.StatusInProgress},
	GroupResolved:   {model.StatusFixed},
	GroupUnresolved: {model.StatusUnresolved},
	GroupReassigned: {model.StatusReassigned},
}

// ValidGroup reports whether the group name is known.
func ValidGroup(g EngineerTaskGroup) bool {
	_, ok := groupStatuses[g]
	return ok
}

// EngineerTasks lists an engineer's own tickets by status group and
// optional date range, newest first.
func (s *Service) EngineerTasks(ctx context.Context, engineerID string, group EngineerTaskGroup, from, to *time.Time, p pagination.Params) (*pagination.Page[model.Task], error) {
	statuses := groupStatuses[group]
	return s.store.ListTasks(ctx, store.TaskFilter{
		AssigneeID: engineerID,
		Statuses:   statuses,
		From:       from,
		To:         to,
	}, p)
}

// ListFilter narrows the admin-wide ticket listing.
type ListFilter struct {
	AssigneeID string
	AtmID      string
	Status     model.TaskStatus
	From       *time.Time
	To         *time.Time
}

// ListTasks lists tickets across the fleet, newest first.
func (s *Service) ListTasks(ctx context.Context, filter ListFilter, p pagination.Params) (*pagination.Page[model.Task], error) {
	f := store.TaskFilter{
		AssigneeID: filter.AssigneeID,
		AtmID:      filter.AtmID,
		From:       filter.From,
		To:         filter.To,
	}
	if filter.Status != "" {
		f.Statuses = []model.TaskStatus{filter.Status}
	}
	return s.store.ListTasks(ctx, f, p)
}

// ATMHistory lists every ticket an ATM ever had, newest first.
func (s *Service) ATMHistory(ctx context.Context, atmID string, p pagination.Params) (*pagination.Page[model.Task], error) {
	return s.store.ListTasks(ctx, store.TaskFilter{AtmID: atmID}, p)
}
