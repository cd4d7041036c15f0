package model

import "time"

// ActivityStatus marks whether a terminal or user is reachable at all.
type ActivityStatus string

const (
	ActivityOnline  ActivityStatus = "ONLINE"
	ActivityOffline ActivityStatus = "OFFLINE"
)

// HealthStatus is the liveness-derived health tier of an ATM.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthWarning  HealthStatus = "WARNING"
	HealthCritical HealthStatus = "CRITICAL"
	HealthDegraded HealthStatus = "DEGRADED"
)

// ATM represents a cash-dispensing terminal tracked by the fleet.
// HealthStatus is maintained by the health monitor from LastLivenessAt,
// except when forced HEALTHY after the last open ticket for the ATM closes.
type ATM struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	ActivityStatus ActivityStatus `gorm:"size:16;not null;default:ONLINE" json:"activityStatus"`
	HealthStatus   HealthStatus   `gorm:"size:16;not null;default:HEALTHY" json:"healthStatus"`
	Longitude      float64        `gorm:"not null" json:"longitude"`
	Latitude       float64        `gorm:"not null" json:"latitude"`
	LastLivenessAt *time.Time     `json:"lastLivenessAt"`
	MissCount      int            `gorm:"not null;default:0" json:"missCount"`
	CreatedAt      time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updatedAt"`
}
