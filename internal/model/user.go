package model

import "time"

// UserRole gates what a user may do. Only engineers receive assignments.
type UserRole string

const (
	RoleEngineer UserRole = "ENGINEER"
	RoleAdmin    UserRole = "ADMIN"
)

// User is an account in the system. Engineers toggle themselves
// online/offline and carry a web push subscription plus a phone number for
// assignment notifications. The assignment engine reads them, never writes.
type User struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	Email          string         `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Name           string         `gorm:"size:256" json:"name"`
	Role           UserRole       `gorm:"size:16;index;not null" json:"role"`
	ActivityStatus ActivityStatus `gorm:"size:16;not null;default:OFFLINE" json:"activityStatus"`
	Longitude      float64        `json:"longitude"`
	Latitude       float64        `json:"latitude"`
	PushEndpoint   string         `gorm:"size:512" json:"-"`
	PushP256DH     string         `gorm:"column:push_p256dh;size:256" json:"-"`
	PushAuth       string         `gorm:"size:256" json:"-"`
	PhoneNumber    string         `gorm:"size:32" json:"phoneNumber"`
	CreatedAt      time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updatedAt"`
}

// HasPushSubscription reports whether the user can receive web push.
func (u *User) HasPushSubscription() bool {
	return u.PushEndpoint != "" && u.PushP256DH != "" && u.PushAuth != ""
}
