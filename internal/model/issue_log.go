package model

import "time"

// IssueLog is a raw fault or health observation. One row is written for
// every observation, whether or not it spawns a new task; TaskID points at
// the ticket the observation was attached to, when any.
type IssueLog struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	AtmID        string       `gorm:"size:36;index;not null" json:"atmId"`
	HealthStatus HealthStatus `gorm:"size:16;not null" json:"healthStatus"`
	Time         time.Time    `gorm:"not null;index" json:"time"`
	TaskID       *string      `gorm:"size:36;index" json:"taskId"`

	ATM  *ATM  `gorm:"foreignKey:AtmID" json:"atm,omitempty"`
	Task *Task `gorm:"foreignKey:TaskID" json:"-"`
}
