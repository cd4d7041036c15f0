package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"atm-fleet-backend/internal/model"
)

func (s *gormStore) CreateIssueLog(ctx context.Context, issue *model.IssueLog) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if issue.Time.IsZero() {
		issue.Time = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(issue).Error
}

func (s *gormStore) AttachIssueToTask(ctx context.Context, issueID, taskID string) error {
	return s.db.WithContext(ctx).Model(&model.IssueLog{}).
		Where("id = ?", issueID).
		Update("task_id", taskID).Error
}

func (s *gormStore) RecentIssueLogs(ctx context.Context, atmID string, limit int) ([]model.IssueLog, error) {
	var issues []model.IssueLog
	err := s.db.WithContext(ctx).
		Where("atm_id = ?", atmID).
		Order("time DESC").
		Limit(limit).
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *gormStore) IssueLogsSince(ctx context.Context, atmID string, since time.Time) ([]model.IssueLog, error) {
	var issues []model.IssueLog
	err := s.db.WithContext(ctx).
		Where("atm_id = ? AND time >= ?", atmID, since).
		Order("time ASC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}
