package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"atm-fleet-backend/internal/model"
)

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) SetUserActivity(ctx context.Context, id string, status model.ActivityStatus) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("activity_status", status).Error
}

func (s *gormStore) SetUserPushSubscription(ctx context.Context, id, endpoint, p256dh, auth string) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"push_endpoint": endpoint,
			"push_p256dh":   p256dh,
			"push_auth":     auth,
		}).Error
}

// NearestOnlineEngineers returns online engineers ordered nearest-first to
// the given coordinates. Squared planar distance is enough for ordering and
// keeps the expression portable across postgres and sqlite.
func (s *gormStore) NearestOnlineEngineers(ctx context.Context, lng, lat float64) ([]model.User, error) {
	var engineers []model.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND activity_status = ?", model.RoleEngineer, model.ActivityOnline).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                "((longitude - ?) * (longitude - ?) + (latitude - ?) * (latitude - ?)) ASC",
				Vars:               []any{lng, lng, lat, lat},
				WithoutParentheses: true,
			},
		}).
		Find(&engineers).Error
	if err != nil {
		return nil, err
	}
	return engineers, nil
}
