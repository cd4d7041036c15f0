package model

import "time"

// TaskStatus is a single state in a ticket's lifecycle.
type TaskStatus string

const (
	StatusAssigned   TaskStatus = "ASSIGNED"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusFixed      TaskStatus = "FIXED"
	StatusReassigned TaskStatus = "REASSIGNED"
	StatusUnresolved TaskStatus = "UNRESOLVED"
)

// TaskTitle is the fault category a ticket tracks.
type TaskTitle string

const (
	TitleNetworkOutage    TaskTitle = "NETWORK_OUTAGE"
	TitleLowCash          TaskTitle = "LOW_CASH"
	TitleCardJammed       TaskTitle = "CARD_JAMMED"
	TitleCardRetained     TaskTitle = "CARD_RETAINED"
	TitleCardEjectFailure TaskTitle = "CARD_EJECT_FAILURE"
	TitleCashJammed       TaskTitle = "CASH_JAMMED"
)

// TaskType classifies the kind of intervention a ticket needs.
type TaskType string

const (
	TypeSoftware TaskType = "SOFTWARE"
	TypeHardware TaskType = "HARDWARE"
)

// Task is a maintenance ticket assigned to a field engineer. Its status
// trail is append-only; the last entry is the current status and the first
// entry is always ASSIGNED at the task's creation time.
type Task struct {
	ID               string        `gorm:"primaryKey;size:36" json:"id"`
	AssigneeID       string        `gorm:"size:36;index;not null" json:"assigneeId"`
	AtmID            string        `gorm:"size:36;index;not null" json:"atmId"`
	TaskTitle        TaskTitle     `gorm:"size:32;index;not null" json:"taskTitle"`
	TaskType         TaskType      `gorm:"size:16;not null" json:"taskType"`
	IssueDescription string        `json:"issueDescription"`
	EngineerNote     string        `json:"engineerNote"`
	StatusDetails    []StatusEntry `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"statusDetails"`
	CreatedAt        time.Time     `gorm:"not null;index" json:"createdAt"`
	UpdatedAt        time.Time     `gorm:"not null" json:"updatedAt"`

	Assignee *User `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	ATM      *ATM  `gorm:"foreignKey:AtmID" json:"atm,omitempty"`
}

// StatusEntry is one step in a task's status trail.
type StatusEntry struct {
	ID     int64      `gorm:"primaryKey;autoIncrement" json:"-"`
	TaskID string     `gorm:"size:36;index;not null" json:"-"`
	Status TaskStatus `gorm:"size:16;not null" json:"status"`
	Time   time.Time  `gorm:"not null" json:"time"`
}

// CurrentStatus returns the last entry of the status trail. Tasks are
// created with a non-empty trail, so the zero value only appears for rows
// loaded without their entries.
func (t *Task) CurrentStatus() TaskStatus {
	if len(t.StatusDetails) == 0 {
		return ""
	}
	return t.StatusDetails[len(t.StatusDetails)-1].Status
}

// StatusTime returns the time of the first trail entry with the given
// status, and false when the trail never reached it.
func (t *Task) StatusTime(status TaskStatus) (time.Time, bool) {
	for _, e := range t.StatusDetails {
		if e.Status == status {
			return e.Time, true
		}
	}
	return time.Time{}, false
}

// OpenStatuses are the trail states in which a ticket still counts as open.
var OpenStatuses = []TaskStatus{StatusAssigned, StatusInProgress}

// TerminalStatuses are the trail states with no outgoing transitions.
var TerminalStatuses = []TaskStatus{StatusFixed, StatusUnresolved, StatusReassigned}
