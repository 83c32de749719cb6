package testutil

import (
	"time"

	"github.com/hupe1980/rephrase/core"
)

// TaskBuilder provides a fluent helper for constructing tasks in tests.
// Example:
//
//	task := NewTaskBuilder("PROJ-1").Title("Fix login bug").DueAt(now).Build()
//
// Chain only the parts you need; an open High priority task is the default.
type TaskBuilder struct {
	task core.Task
}

// NewTaskBuilder creates a builder for a task with the given id.
func NewTaskBuilder(id string) *TaskBuilder {
	return &TaskBuilder{task: core.Task{
		ID:       id,
		Title:    id,
		Priority: core.PriorityHigh,
		Status:   "In Progress",
	}}
}

// Title sets the task summary (chainable).
func (b *TaskBuilder) Title(t string) *TaskBuilder { b.task.Title = t; return b }

// Priority sets the priority label (chainable).
func (b *TaskBuilder) Priority(p string) *TaskBuilder { b.task.Priority = p; return b }

// DueAt sets the deadline (chainable).
func (b *TaskBuilder) DueAt(t time.Time) *TaskBuilder { b.task.Due = t; return b }

// Status sets the workflow status (chainable).
func (b *TaskBuilder) Status(s string) *TaskBuilder { b.task.Status = s; return b }

// Assignee sets the owning user (chainable).
func (b *TaskBuilder) Assignee(u string) *TaskBuilder { b.task.Assignee = u; return b }

// Build returns the task.
func (b *TaskBuilder) Build() core.Task { return b.task }

// EventBuilder provides a fluent helper for constructing calendar events.
// Example:
//
//	ev := NewEventBuilder("ev-1").Title("Standup").Between(start, end).Attendees("alice").Build()
type EventBuilder struct {
	event core.CalendarEvent
}

// NewEventBuilder creates a builder for a busy event with the given id.
func NewEventBuilder(id string) *EventBuilder {
	return &EventBuilder{event: core.CalendarEvent{ID: id, Title: id}}
}

// Title sets the event title (chainable).
func (b *EventBuilder) Title(t string) *EventBuilder { b.event.Title = t; return b }

// Between sets start and end (chainable).
func (b *EventBuilder) Between(start, end time.Time) *EventBuilder {
	b.event.Start, b.event.End = start, end
	return b
}

// Attendees appends attendee ids (chainable).
func (b *EventBuilder) Attendees(ids ...string) *EventBuilder {
	b.event.Attendees = append(b.event.Attendees, ids...)
	return b
}

// Available marks the event as a free slot (chainable).
func (b *EventBuilder) Available() *EventBuilder { b.event.Type = "available"; return b }

// Build returns the event.
func (b *EventBuilder) Build() core.CalendarEvent {
	e := b.event
	e.Attendees = append([]string(nil), e.Attendees...)
	return e
}
