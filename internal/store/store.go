package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/pagination"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetUserActivity(ctx context.Context, id string, status model.ActivityStatus) error
	SetUserPushSubscription(ctx context.Context, id, endpoint, p256dh, auth string) error
	NearestOnlineEngineers(ctx context.Context, lng, lat float64) ([]model.User, error)

	// ATMs
	CreateATM(ctx context.Context, atm *model.ATM) error
	GetATM(ctx context.Context, id string) (*model.ATM, error)
	ListATMs(ctx context.Context, filter ATMFilter, p pagination.Params) (*pagination.Page[model.ATM], error)
	AllATMs(ctx context.Context) ([]model.ATM, error)
	OnlineATMs(ctx context.Context) ([]model.ATM, error)
	RecordLiveness(ctx context.Context, atmID string, at time.Time) error
	SetHealthStatus(ctx context.Context, atmID string, from, to model.HealthStatus) (bool, error)
	ForceHealthy(ctx context.Context, atmID string) error
	IncrementMissCount(ctx context.Context, atmID string) error

	// Cash
	CurrentInventory(ctx context.Context, atmID string) (*model.CashInventory, error)
	RecordCashMovement(ctx context.Context, txn *model.Transaction, next *model.CashInventory) error
	CreateInventory(ctx context.Context, inv *model.CashInventory) error

	// Issue logs
	CreateIssueLog(ctx context.Context, issue *model.IssueLog) error
	AttachIssueToTask(ctx context.Context, issueID, taskID string) error
	RecentIssueLogs(ctx context.Context, atmID string, limit int) ([]model.IssueLog, error)
	IssueLogsSince(ctx context.Context, atmID string, since time.Time) ([]model.IssueLog, error)

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	OpenTaskByATMAndTitle(ctx context.Context, atmID string, title model.TaskTitle) (*model.Task, error)
	OpenTasksForATM(ctx context.Context, atmID, excludeTaskID string) ([]model.Task, error)
	OpenTasksByAssignee(ctx context.Context, assigneeID string) ([]model.Task, error)
	AppendStatus(ctx context.Context, taskID string, status model.TaskStatus, at time.Time, engineerNote string) error
	FixedTasks(ctx context.Context) ([]model.Task, error)
	FixedTasksByTitle(ctx context.Context, title model.TaskTitle, limit int) ([]model.Task, error)
	CountFixedByAssigneeAndTitle(ctx context.Context, assigneeID string, title model.TaskTitle) (int64, error)
	ListTasks(ctx context.Context, filter TaskFilter, p pagination.Params) (*pagination.Page[model.Task], error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for migrations and tests.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
