package tasks

import "errors"

var (
	// ErrATMNotFound is returned when an operation references an unknown ATM.
	ErrATMNotFound = errors.New("ATM not found")
	// ErrTaskNotFound is returned when an operation references an unknown task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNoEngineers is returned when assignment finds no online engineer.
	ErrNoEngineers = errors.New("no available engineers found")
	// ErrInvalidTransition is returned for a status change outside the
	// allowed-transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
)
