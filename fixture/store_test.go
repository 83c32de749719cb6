package fixture

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rephrase/core"
)

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func taskID(t core.Task) string           { return t.ID }
func eventID(e core.CalendarEvent) string { return e.ID }

func TestLoad(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "tasks.json"), filepath.Join("testdata", "events.yaml"))
	require.NoError(t, err)

	t.Run("tasks sorted by priority then due", func(t *testing.T) {
		assert.Equal(t, []string{"PROJ-1", "PROJ-7"}, ids(s.TasksForUser("alice"), taskID))
		assert.Equal(t, []string{"PROJ-3"}, ids(s.TasksForUser("bob"), taskID))
	})

	t.Run("events sorted by start", func(t *testing.T) {
		evs := s.EventsForUser("alice")
		assert.Equal(t, []string{"ev-1", "ev-2"}, ids(evs, eventID))
		assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), evs[1].Start.UTC())
	})

	t.Run("ownerless records belong to the default owner", func(t *testing.T) {
		assert.Equal(t, []string{"OPS-2"}, ids(s.TasksForUser(DefaultOwner), taskID))

		evs := s.EventsForUser(DefaultOwner)
		assert.Equal(t, []string{"ev-3"}, ids(evs, eventID))
		assert.False(t, evs[0].Busy())
		assert.Empty(t, evs[0].Attendees)
	})

	t.Run("unknown user", func(t *testing.T) {
		tasks := s.TasksForUser("nobody")
		require.NotNil(t, tasks)
		assert.Empty(t, tasks)

		events := s.EventsForUser("nobody")
		require.NotNil(t, events)
		assert.Empty(t, events)
	})

	t.Run("counts", func(t *testing.T) {
		tasks, events := s.Counts()
		assert.Equal(t, 4, tasks)
		assert.Equal(t, 3, events)
	})
}

func TestLoad_ShippedFixtures(t *testing.T) {
	s, err := Load(filepath.Join("..", "data", "tasks.json"), filepath.Join("..", "data", "calendar.json"))
	require.NoError(t, err)

	assert.Len(t, s.TasksForUser(DefaultOwner), 3)
	assert.Len(t, s.EventsForUser(DefaultOwner), 4)

	assert.Empty(t, s.TasksForUser("no-such-user"))
	assert.Empty(t, s.EventsForUser("no-such-user"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.json"), "")
	assert.Error(t, err)

	_, err = Load(filepath.Join("testdata", "unsupported.txt"), "")
	assert.ErrorContains(t, err, "unsupported fixture format")
}

func TestLoad_EmptyPaths(t *testing.T) {
	s, err := Load("", "")
	require.NoError(t, err)
	assert.Empty(t, s.TasksForUser("alice"))
	assert.Empty(t, s.EventsForUser("alice"))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New(
		[]core.Task{{ID: "T-1", Title: "a", Assignee: "u"}},
		[]core.CalendarEvent{{ID: "E-1", Title: "b", Attendees: []string{"u"}}},
	)

	tasks := s.TasksForUser("u")
	tasks[0].Title = "mutated"
	events := s.EventsForUser("u")
	events[0].Attendees[0] = "mallory"

	assert.Equal(t, "a", s.TasksForUser("u")[0].Title)
	assert.Equal(t, []string{"u"}, s.EventsForUser("u")[0].Attendees)
}

func TestStore_EmptyFixtures(t *testing.T) {
	s := New(nil, nil)
	assert.NotNil(t, s.TasksForUser("u"))
	assert.NotNil(t, s.EventsForUser("u"))
}
