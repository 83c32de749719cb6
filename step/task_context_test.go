package step

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rephrase/core"
)

func fixtureTasks() []core.Task {
	return []core.Task{
		{ID: "PROJ-1", Title: "Fix login timeout bug", Priority: core.PriorityHigh, Due: at(17, 0), Status: "In Progress"},
		{ID: "PROJ-2", Title: "Migrate billing service", Priority: core.PriorityCritical, Due: at(17, 0).AddDate(0, 0, 1), Status: "In Review"},
		{ID: "PROJ-3", Title: "Billing dashboard polish", Priority: core.PriorityLow, Due: at(17, 0).AddDate(0, 0, 5), Status: "To Do"},
		{ID: "PROJ-4", Title: "Login page copy", Priority: core.PriorityMedium, Due: at(12, 0), Status: "Done"},
	}
}

func TestMatchTask(t *testing.T) {
	now := at(10, 0)

	tests := []struct {
		name   string
		text   string
		wantID string
		wantOK bool
	}{
		{name: "deadline cue today", text: "Need this today", wantID: "PROJ-1", wantOK: true},
		{name: "deadline cue tomorrow", text: "Can you have it ready tomorrow?", wantID: "PROJ-2", wantOK: true},
		{name: "keyword overlap", text: "How is the billing migration going?", wantID: "PROJ-2", wantOK: true},
		{name: "more overlap wins over priority", text: "is the billing dashboard ready", wantID: "PROJ-3", wantOK: true},
		{name: "id mention", text: "any news on proj-3", wantID: "PROJ-3", wantOK: true},
		{name: "done tasks ignored", text: "login page copy", wantID: "PROJ-1", wantOK: true},
		{name: "no relation", text: "Update?", wantOK: false},
		{name: "lunch", text: "Lunch at noon?", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, ok := MatchTask(tt.text, fixtureTasks(), now)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, task.ID)
			}
		})
	}
}

func TestMatchTask_Deterministic(t *testing.T) {
	tasks := fixtureTasks()
	reversed := make([]core.Task, len(tasks))
	for i, task := range tasks {
		reversed[len(tasks)-1-i] = task
	}

	a, _ := MatchTask("billing", tasks, at(10, 0))
	b, _ := MatchTask("billing", reversed, at(10, 0))
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "PROJ-2", a.ID)
}

func TestTaskContext_NoMatchSkipsOracle(t *testing.T) {
	o := &fixedOracle{reply: "should not be used"}

	res, err := NewTaskContext(o).Run(context.Background(), Input{Text: "Update?", Tasks: fixtureTasks(), Now: at(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, "Update?", res.Text)
	assert.False(t, res.Changed)
	assert.Nil(t, res.Task)
	assert.Zero(t, o.calls.Load())
}

func TestTaskContext_AppendsReference(t *testing.T) {
	o := &fixedOracle{reply: "Could you prioritise this today please?"}

	res, err := NewTaskContext(o).Run(context.Background(), Input{Text: "Need this today", Tasks: fixtureTasks(), Now: at(10, 0)})
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, "Could you prioritise this today please? (PROJ-1 is due Mar 10, 5:00 PM)", res.Text)
	require.NotNil(t, res.Task)
	assert.Equal(t, "PROJ-1", res.Task.ID)
	assert.Contains(t, o.prompts[0].User, "PROJ-1: Fix login timeout bug (Due: Mar 10, 5:00 PM, Priority: High)")
}

func TestTaskContext_KeepsOracleReference(t *testing.T) {
	o := &fixedOracle{reply: "Need PROJ-1 (login timeout) wrapped up by Mar 10, 5:00 PM today."}

	res, err := NewTaskContext(o).Run(context.Background(), Input{Text: "Need this today", Tasks: fixtureTasks(), Now: at(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, "Need PROJ-1 (login timeout) wrapped up by Mar 10, 5:00 PM today.", res.Text)
}

func TestTaskContext_UsesClockLocation(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, berlin)
	tasks := []core.Task{{ID: "T-9", Title: "Quarterly report", Due: time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC), Status: "Open"}}

	// 23:30 UTC is already the next day in CET.
	_, ok := MatchTask("need it today", tasks, now)
	assert.False(t, ok)
	_, ok = MatchTask("need it tomorrow", tasks, now)
	assert.True(t, ok)
}

func TestTaskContext_OracleFailure(t *testing.T) {
	o := &fixedOracle{err: errors.New("429 too many requests")}

	_, err := NewTaskContext(o).Run(context.Background(), Input{Text: "Need this today", Tasks: fixtureTasks(), Now: at(10, 0)})

	var stepErr *Error
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, core.TierTask, stepErr.Tier)
}
