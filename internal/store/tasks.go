package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/pagination"
)

// Trail-based filters follow one convention: a task is "open" when no
// terminal status was ever appended, and "fixed" when a FIXED entry exists.
// Terminal statuses are only ever appended once, so containment and
// latest-entry checks agree.
const (
	trailContains    = "EXISTS (SELECT 1 FROM status_entries WHERE status_entries.task_id = tasks.id AND status_entries.status IN ?)"
	trailNotContains = "NOT EXISTS (SELECT 1 FROM status_entries WHERE status_entries.task_id = tasks.id AND status_entries.status IN ?)"
)

func (s *gormStore) CreateTask(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(task).Error
}

func (s *gormStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).
		Preload("StatusDetails", func(db *gorm.DB) *gorm.DB { return db.Order("status_entries.id ASC") }).
		Preload("ATM").
		Preload("Assignee").
		First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// OpenTaskByATMAndTitle returns the open ticket for the same ATM and fault
// category, or nil when none exists. Repeated faults attach to this ticket
// instead of spawning duplicates.
func (s *gormStore) OpenTaskByATMAndTitle(ctx context.Context, atmID string, title model.TaskTitle) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).
		Preload("StatusDetails", func(db *gorm.DB) *gorm.DB { return db.Order("status_entries.id ASC") }).
		Where("atm_id = ? AND task_title = ?", atmID, title).
		Where(trailNotContains, model.TerminalStatuses).
		Order("created_at DESC").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *gormStore) OpenTasksForATM(ctx context.Context, atmID, excludeTaskID string) ([]model.Task, error) {
	q := s.db.WithContext(ctx).
		Preload("StatusDetails", func(db *gorm.DB) *gorm.DB { return db.Order("status_entries.id ASC") }).
		Where("atm_id = ?", atmID).
		Where(trailNotContains, model.TerminalStatuses)
	if excludeTaskID != "" {
		q = q.Where("id <> ?", excludeTaskID)
	}

	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormStore) OpenTasksByAssignee(ctx context.Context, assigneeID string) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).
		Preload("StatusDetails", func(db *gorm.DB) *gorm.DB { return db.Order("status_entries.id ASC") }).
		Where("assignee_id = ?", assigneeID).
		Where(trailNotContains, model.TerminalStatuses).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// AppendStatus adds a trail entry and stores the engineer's note in one
// transaction. Transition validity is the caller's concern.
func (s *gormStore) AppendStatus(ctx context.Context, taskID string, status model.TaskStatus, at time.Time, engineerNote string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := model.StatusEntry{TaskID: taskID, Status: status, Time: at}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		updates := map[string]any{"updated_at": at}
		if engineerNote != "" {
			updates["engineer_note"] = engineerNote
		}
		return tx.Model(&model.Task{}).Where("id = ?", taskID).Updates(updates).Error
	})
}

// FixedTasks returns every task whose trail reached FIXED, with trails
// loaded. The fix-time averages are computed in the application over this
// result rather than in a storage-side pipeline.
func (s *gormStore) FixedTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).
		Preload("StatusDetails", func(db *gorm.DB) *gorm.DB { return db.Order("status_entries.id ASC") }).
		Where(trailContains, []model.TaskStatus{model.StatusFixed}).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormStore) FixedTasksByTitle(ctx context.Context, title model.TaskTitle, limit int) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.WithContext(ctx).
		Preload("StatusDetails", func(db *gorm.DB) *gorm.DB { return db.Order("status_entries.id ASC") }).
		Where("task_title = ?", title).
		Where(trailContains, []model.TaskStatus{model.StatusFixed}).
		Order("created_at DESC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormStore) CountFixedByAssigneeAndTitle(ctx context.Context, assigneeID string, title model.TaskTitle) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("assignee_id = ? AND task_title = ?", assigneeID, title).
		Where(trailContains, []model.TaskStatus{model.StatusFixed}).
		Count(&count).Error
	return count, err
}

func (s *gormStore) ListTasks(ctx context.Context, filter TaskFilter, p pagination.Params) (*pagination.Page[model.Task], error) {
	q := s.db.WithContext(ctx).Model(&model.Task{})
	if filter.AssigneeID != "" {
		q = q.Where("assignee_id = ?", filter.AssigneeID)
	}
	if filter.AtmID != "" {
		q = q.Where("atm_id = ?", filter.AtmID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where(trailContains, filter.Statuses)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var tasks []model.Task
	err := q.
		Preload("StatusDetails", func(db *gorm.DB) *gorm.DB { return db.Order("status_entries.id ASC") }).
		Preload("ATM").
		Preload("Assignee").
		Order("created_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return &pagination.Page[model.Task]{Data: tasks, Page: p.Page, Limit: p.Limit, Total: total}, nil
}
