package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/store"
)

// Notifier delivers assignment notices to engineers. Implementations are
// fire and forget; delivery failures never affect ticket workflows.
type Notifier interface {
	NotifyAssignment(engineer model.User, task model.Task)
}

// IssueReport is one fault or degraded-health observation entering the
// assignment engine.
type IssueReport struct {
	AtmID            string
	HealthStatus     model.HealthStatus
	TaskTitle        model.TaskTitle
	TaskType         model.TaskType
	IssueDescription string
}

// AssignmentResult is the outcome of registering an issue. AssignedTo is
// nil when the observation was attached to an already-open ticket.
type AssignmentResult struct {
	IssueLog          *model.IssueLog `json:"issueLog"`
	Task              *model.Task     `json:"task"`
	AssignedTo        *model.User     `json:"assignedTo"`
	EstimatedWorkload float64         `json:"estimatedWorkload"`
}

// Service is the task assignment and escalation engine.
type Service struct {
	store    store.Store
	notifier Notifier
}

// NewService creates the engine. The notifier may be nil, in which case
// assignment notices are skipped.
func NewService(st store.Store, notifier Notifier) *Service {
	return &Service{store: st, notifier: notifier}
}

// RegisterIssue persists an issue log for the observation and either
// attaches it to the open ticket for the same ATM and fault category, or
// creates and assigns a new ticket. Repeated faults of one category on one
// ATM never spawn duplicate open tickets.
func (s *Service) RegisterIssue(ctx context.Context, report IssueReport) (*AssignmentResult, error) {
	issue := &model.IssueLog{
		AtmID:        report.AtmID,
		HealthStatus: report.HealthStatus,
		Time:         time.Now().UTC(),
	}
	if err := s.store.CreateIssueLog(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to persist issue log: %w", err)
	}

	existing, err := s.store.OpenTaskByATMAndTitle(ctx, report.AtmID, report.TaskTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open tickets: %w", err)
	}
	if existing != nil {
		if err := s.store.AttachIssueToTask(ctx, issue.ID, existing.ID); err != nil {
			log.Printf("Warning: could not attach issue %s to task %s: %v", issue.ID, existing.ID, err)
		}
		return &AssignmentResult{IssueLog: issue, Task: existing}, nil
	}

	task, assignee, workload, err := s.createAndAssign(ctx, report)
	if err != nil {
		return nil, err
	}

	if err := s.store.AttachIssueToTask(ctx, issue.ID, task.ID); err != nil {
		log.Printf("Warning: could not attach issue %s to task %s: %v", issue.ID, task.ID, err)
	}

	if s.notifier != nil {
		s.notifier.NotifyAssignment(*assignee, *task)
	}

	return &AssignmentResult{
		IssueLog:          issue,
		Task:              task,
		AssignedTo:        assignee,
		EstimatedWorkload: workload,
	}, nil
}

// createAndAssign picks the least-loaded nearby online engineer and creates
// the ticket with its initial ASSIGNED trail entry.
func (s *Service) createAndAssign(ctx context.Context, report IssueReport) (*model.Task, *model.User, float64, error) {
	atm, err := s.store.GetATM(ctx, report.AtmID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, 0, ErrATMNotFound
		}
		return nil, nil, 0, err
	}

	engineers, err := s.store.NearestOnlineEngineers(ctx, atm.Longitude, atm.Latitude)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to query engineers: %w", err)
	}
	if len(engineers) == 0 {
		return nil, nil, 0, ErrNoEngineers
	}

	avgs, err := s.avgFixTimes(ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to compute fix-time averages: %w", err)
	}

	loads, err := s.workloads(ctx, engineers, avgs)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to compute engineer workloads: %w", err)
	}

	selected := leastLoaded(loads)

	now := time.Now().UTC()
	task := &model.Task{
		AssigneeID:       selected.engineer.ID,
		AtmID:            report.AtmID,
		TaskTitle:        report.TaskTitle,
		TaskType:         report.TaskType,
		IssueDescription: report.IssueDescription,
		StatusDetails: []model.StatusEntry{
			{Status: model.StatusAssigned, Time: now},
		},
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, nil, 0, fmt.Errorf("failed to create task: %w", err)
	}

	engineer := selected.engineer
	return task, &engineer, selected.total, nil
}

// ChangeStatus appends a status entry to a ticket's trail after validating
// the transition, then runs the escalation side effects. Side effects are
// best-effort: the status change itself is already committed and is not
// rolled back when rebalancing finds nobody to work with.
func (s *Service) ChangeStatus(ctx context.Context, taskID string, status model.TaskStatus, engineerNote string) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	current := task.CurrentStatus()
	if !CanTransition(current, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	if err := s.store.AppendStatus(ctx, taskID, status, time.Now().UTC(), engineerNote); err != nil {
		return nil, fmt.Errorf("failed to append status: %w", err)
	}

	switch status {
	case model.StatusFixed:
		s.closeOutATM(ctx, task)
		if err := s.rebalanceFromBusiest(ctx, task); err != nil {
			log.Printf("Warning: rebalancing after task %s skipped: %v", taskID, err)
		}
	case model.StatusUnresolved:
		if err := s.reassignToMostExperienced(ctx, task); err != nil {
			log.Printf("Warning: experience reassignment for task %s skipped: %v", taskID, err)
		}
	}

	return s.store.GetTask(ctx, taskID)
}

// closeOutATM forces the ATM back to HEALTHY when the fixed ticket was the
// last one open for it.
func (s *Service) closeOutATM(ctx context.Context, task *model.Task) {
	open, err := s.store.OpenTasksForATM(ctx, task.AtmID, task.ID)
	if err != nil {
		log.Printf("Warning: could not check open tickets for ATM %s: %v", task.AtmID, err)
		return
	}
	if len(open) > 0 {
		return
	}
	if err := s.store.ForceHealthy(ctx, task.AtmID); err != nil {
		log.Printf("Warning: could not reset ATM %s to healthy: %v", task.AtmID, err)
	}
}

// rebalanceFromBusiest transfers one small ticket from the most loaded
// nearby engineer to the engineer who just freed up capacity. A pure
// load-balancing move, not a proximity re-evaluation.
func (s *Service) rebalanceFromBusiest(ctx context.Context, completed *model.Task) error {
	atm, err := s.store.GetATM(ctx, completed.AtmID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	engineers, err := s.store.NearestOnlineEngineers(ctx, atm.Longitude, atm.Latitude)
	if err != nil {
		return err
	}

	var candidates []model.User
	for _, eng := range engineers {
		if eng.ID != completed.AssigneeID {
			candidates = append(candidates, eng)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	avgs, err := s.avgFixTimes(ctx)
	if err != nil {
		return err
	}
	loads, err := s.workloads(ctx, candidates, avgs)
	if err != nil {
		return err
	}

	top := busiest(loads)
	if len(top.tasks) == 0 {
		return nil
	}

	transfer := smallestEstimate(top.tasks)
	now := time.Now().UTC()
	if err := s.store.AppendStatus(ctx, transfer.task.ID, model.StatusReassigned, now, ""); err != nil {
		return fmt.Errorf("failed to mark task %s reassigned: %w", transfer.task.ID, err)
	}

	replacement := &model.Task{
		AssigneeID:       completed.AssigneeID,
		AtmID:            transfer.task.AtmID,
		TaskTitle:        transfer.task.TaskTitle,
		TaskType:         transfer.task.TaskType,
		IssueDescription: transfer.task.IssueDescription,
		StatusDetails: []model.StatusEntry{
			{Status: model.StatusAssigned, Time: now},
		},
	}
	if err := s.store.CreateTask(ctx, replacement); err != nil {
		return fmt.Errorf("failed to create replacement task: %w", err)
	}

	log.Printf("Rebalanced task %s from engineer %s to %s as %s",
		transfer.task.ID, top.engineer.ID, completed.AssigneeID, replacement.ID)
	return nil
}

// reassignToMostExperienced hands an unresolved fault to the nearby online
// engineer with the most fixed tickets of the same category. With no
// experience anywhere, the nearest engineer gets it.
func (s *Service) reassignToMostExperienced(ctx context.Context, unresolved *model.Task) error {
	atm, err := s.store.GetATM(ctx, unresolved.AtmID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	engineers, err := s.store.NearestOnlineEngineers(ctx, atm.Longitude, atm.Latitude)
	if err != nil {
		return err
	}
	if len(engineers) == 0 {
		return nil
	}

	best := engineers[0]
	var bestCount int64
	for i, eng := range engineers {
		count, err := s.store.CountFixedByAssigneeAndTitle(ctx, eng.ID, unresolved.TaskTitle)
		if err != nil {
			return err
		}
		if i == 0 || count > bestCount {
			best = eng
			bestCount = count
		}
	}

	now := time.Now().UTC()
	followUp := &model.Task{
		AssigneeID:       best.ID,
		AtmID:            unresolved.AtmID,
		TaskTitle:        unresolved.TaskTitle,
		TaskType:         unresolved.TaskType,
		IssueDescription: unresolved.IssueDescription,
		StatusDetails: []model.StatusEntry{
			{Status: model.StatusAssigned, Time: now},
		},
	}
	if err := s.store.CreateTask(ctx, followUp); err != nil {
		return fmt.Errorf("failed to create follow-up task: %w", err)
	}

	log.Printf("Unresolved task %s handed to engineer %s (%d prior fixes) as %s",
		unresolved.ID, best.ID, bestCount, followUp.ID)
	return nil
}

// GetTask loads a ticket with its trail and references.
func (s *Service) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}
