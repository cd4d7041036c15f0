package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/pagination"
)

func (s *gormStore) CreateATM(ctx context.Context, atm *model.ATM) error {
	if atm.ID == "" {
		atm.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(atm).Error
}

func (s *gormStore) GetATM(ctx context.Context, id string) (*model.ATM, error) {
	var atm model.ATM
	if err := s.db.WithContext(ctx).First(&atm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &atm, nil
}

func (s *gormStore) ListATMs(ctx context.Context, filter ATMFilter, p pagination.Params) (*pagination.Page[model.ATM], error) {
	q := s.db.WithContext(ctx).Model(&model.ATM{})
	if filter.ActivityStatus != "" {
		q = q.Where("activity_status = ?", filter.ActivityStatus)
	}
	if filter.HealthStatus != "" {
		q = q.Where("health_status = ?", filter.HealthStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var atms []model.ATM
	if err := q.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset()).Find(&atms).Error; err != nil {
		return nil, err
	}

	return &pagination.Page[model.ATM]{Data: atms, Page: p.Page, Limit: p.Limit, Total: total}, nil
}

func (s *gormStore) AllATMs(ctx context.Context) ([]model.ATM, error) {
	var atms []model.ATM
	if err := s.db.WithContext(ctx).Find(&atms).Error; err != nil {
		return nil, err
	}
	return atms, nil
}

func (s *gormStore) OnlineATMs(ctx context.Context) ([]model.ATM, error) {
	var atms []model.ATM
	if err := s.db.WithContext(ctx).Where("activity_status = ?", model.ActivityOnline).Find(&atms).Error; err != nil {
		return nil, err
	}
	return atms, nil
}

// RecordLiveness refreshes the ATM's liveness timestamp and marks it
// HEALTHY, clearing the missed-evaluation counter.
func (s *gormStore) RecordLiveness(ctx context.Context, atmID string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.ATM{}).
		Where("id = ?", atmID).
		Updates(map[string]any{
			"last_liveness_at": at,
			"health_status":    model.HealthHealthy,
			"miss_count":       0,
		}).Error
}

// SetHealthStatus transitions an ATM's health tier conditionally on its
// prior value, so concurrent monitor cycles cannot clobber each other. It
// reports whether the row was actually updated.
func (s *gormStore) SetHealthStatus(ctx context.Context, atmID string, from, to model.HealthStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.ATM{}).
		Where("id = ? AND health_status = ?", atmID, from).
		Update("health_status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update health status for ATM %s: %w", atmID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ForceHealthy unconditionally resets the ATM to HEALTHY. Used when the
// last open ticket for an ATM closes.
func (s *gormStore) ForceHealthy(ctx context.Context, atmID string) error {
	return s.db.WithContext(ctx).Model(&model.ATM{}).
		Where("id = ?", atmID).
		Update("health_status", model.HealthHealthy).Error
}

func (s *gormStore) IncrementMissCount(ctx context.Context, atmID string) error {
	return s.db.WithContext(ctx).Model(&model.ATM{}).
		Where("id = ?", atmID).
		Update("miss_count", gorm.Expr("miss_count + 1")).Error
}
