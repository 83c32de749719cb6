package core

import (
	"strings"
	"time"
)

// Priority levels used by project tracker tasks.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
)

// Task is a read-only project tracker item.
type Task struct {
	ID       string    `json:"key" yaml:"key"`
	Title    string    `json:"summary" yaml:"summary"`
	Priority string    `json:"priority" yaml:"priority"`
	Due      time.Time `json:"due_date" yaml:"due_date"`
	Status   string    `json:"status" yaml:"status"`
	Assignee string    `json:"assignee" yaml:"assignee"`
}

// PriorityRank orders priorities from most (0) to least urgent. Unknown
// priorities rank after Low.
func (t Task) PriorityRank() int {
	switch strings.ToLower(t.Priority) {
	case "critical", "highest":
		return 0
	case "high":
		return 1
	case "medium":
		return 2
	case "low", "lowest":
		return 3
	default:
		return 4
	}
}

// Done reports whether the task is closed.
func (t Task) Done() bool {
	switch strings.ToLower(t.Status) {
	case "done", "closed", "resolved":
		return true
	}
	return false
}

// CalendarEvent is a read-only calendar entry.
type CalendarEvent struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Start     time.Time `json:"start_time" yaml:"start_time"`
	End       time.Time `json:"end_time" yaml:"end_time"`
	Attendees []string  `json:"attendees" yaml:"attendees"`
	Type      string    `json:"type,omitempty" yaml:"type,omitempty"`
}

// Busy reports whether the event blocks the attendee's time. Events typed
// "available" are free slots.
func (e CalendarEvent) Busy() bool {
	return !strings.EqualFold(e.Type, "available")
}

// Covers reports whether t falls inside [Start, End).
func (e CalendarEvent) Covers(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// HasAttendee reports whether userID attends the event.
func (e CalendarEvent) HasAttendee(userID string) bool {
	for _, a := range e.Attendees {
		if a == userID {
			return true
		}
	}
	return false
}
