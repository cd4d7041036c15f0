package tasks

import "atm-fleet-backend/internal/model"

// allowedTransitions is the directed graph of legal status changes.
// FIXED, UNRESOLVED and REASSIGNED are terminal.
var allowedTransitions = map[model.TaskStatus][]model.TaskStatus{
	model.StatusAssigned:   {model.StatusInProgress, model.StatusReassigned, model.StatusUnresolved},
	model.StatusInProgress: {model.StatusFixed, model.StatusReassigned, model.StatusUnresolved},
	model.StatusReassigned: {},
	model.StatusFixed:      {},
	model.StatusUnresolved: {},
}

// CanTransition reports whether a ticket may move from one status to
// another.
func CanTransition(from, to model.TaskStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
