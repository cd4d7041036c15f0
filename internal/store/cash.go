package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
)

// CurrentInventory returns the newest inventory snapshot for an ATM, or
// gorm.ErrRecordNotFound when none was ever created.
func (s *gormStore) CurrentInventory(ctx context.Context, atmID string) (*model.CashInventory, error) {
	var inv model.CashInventory
	err := s.db.WithContext(ctx).
		Where("atm_id = ?", atmID).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// RecordCashMovement appends a transaction record and the resulting
// inventory snapshot atomically. Inventories are never updated in place.
func (s *gormStore) RecordCashMovement(ctx context.Context, txn *model.Transaction, next *model.CashInventory) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

func (s *gormStore) CreateInventory(ctx context.Context, inv *model.CashInventory) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(inv).Error
}
