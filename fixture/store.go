package fixture

import (
	"sort"

	"github.com/hupe1980/rephrase/core"
)

// DefaultOwner owns every record that names no assignee or attendee. It is
// the user id requests fall back to when they name none.
const DefaultOwner = "default_user"

// Store serves tasks and calendar events keyed by user.
//
// A task belongs to its assignee and an event to each of its attendees.
// Records without an owner belong to DefaultOwner. Users that own nothing see
// empty sets.
type Store struct {
	tasks  map[string][]core.Task
	events map[string][]core.CalendarEvent
}

// New builds a store from in-memory fixtures. The inputs are copied.
func New(tasks []core.Task, events []core.CalendarEvent) *Store {
	s := &Store{
		tasks:  make(map[string][]core.Task),
		events: make(map[string][]core.CalendarEvent),
	}

	for _, t := range tasks {
		owner := t.Assignee
		if owner == "" {
			owner = DefaultOwner
		}
		s.tasks[owner] = append(s.tasks[owner], t)
	}

	for _, e := range events {
		e.Attendees = append([]string(nil), e.Attendees...)
		owners := e.Attendees
		if len(owners) == 0 {
			owners = []string{DefaultOwner}
		}
		seen := make(map[string]struct{}, len(owners))
		for _, a := range owners {
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			s.events[a] = append(s.events[a], e)
		}
	}

	return s
}

// TasksForUser returns the user's tasks ordered by priority, due date and id.
// Unknown users get an empty slice.
func (s *Store) TasksForUser(userID string) []core.Task {
	own := s.tasks[userID]
	out := make([]core.Task, 0, len(own))
	out = append(out, own...)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PriorityRank() != b.PriorityRank() {
			return a.PriorityRank() < b.PriorityRank()
		}
		if !a.Due.Equal(b.Due) {
			return a.Due.Before(b.Due)
		}
		return a.ID < b.ID
	})
	return out
}

// EventsForUser returns the user's events ordered by start time and id.
// Unknown users get an empty slice.
func (s *Store) EventsForUser(userID string) []core.CalendarEvent {
	own := s.events[userID]
	out := make([]core.CalendarEvent, 0, len(own))
	for _, e := range own {
		e.Attendees = append([]string(nil), e.Attendees...)
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Counts reports the number of distinct tasks and events held.
func (s *Store) Counts() (tasks, events int) {
	for _, ts := range s.tasks {
		tasks += len(ts)
	}

	ids := make(map[string]struct{})
	for _, es := range s.events {
		for _, e := range es {
			ids[e.ID] = struct{}{}
		}
	}
	return tasks, len(ids)
}
