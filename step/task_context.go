package step

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/internal/util"
	"github.com/hupe1980/rephrase/oracle"
)

// DeadlineLayout formats task deadlines in prompts and reference clauses.
const DeadlineLayout = "Jan 2, 3:04 PM"

var (
	todayCues    = []string{"today", "tonight", "eod", "asap", "deadline", "due", "urgent"}
	tomorrowCues = []string{"tomorrow"}
)

// TaskContextOptions configure the task-context step.
type TaskContextOptions struct {
	Temperature *float64
}

// TaskContext injects task id and deadline into messages that relate to one
// of the author's open tasks.
type TaskContext struct {
	oracle oracle.Oracle
	opts   TaskContextOptions
}

// NewTaskContext creates the step.
func NewTaskContext(o oracle.Oracle, optFns ...func(o *TaskContextOptions)) *TaskContext {
	opts := TaskContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TaskContext{oracle: o, opts: opts}
}

// Tier implements Step.
func (s *TaskContext) Tier() core.Tier { return core.TierTask }

// Run implements Step. Messages that match no open task are returned
// unchanged without consulting the oracle.
func (s *TaskContext) Run(ctx context.Context, in Input) (*Result, error) {
	task, ok := MatchTask(in.Text, in.Tasks, in.Now)
	if !ok {
		return unchanged(s.Tier(), in.Text), nil
	}

	loc := in.Now.Location()
	deadline := task.Due.In(loc).Format(DeadlineLayout)

	prompt, err := util.Render(taskUser, struct {
		Text     string
		Task     core.Task
		Deadline string
	}{in.Text, task, deadline})
	if err != nil {
		return nil, fail(s.Tier(), err)
	}

	raw, err := s.oracle.Complete(ctx, oracle.Prompt{
		System:      taskSystem,
		User:        prompt,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, fail(s.Tier(), err)
	}

	text := cleanRewrite(raw)
	if text == "" {
		text = in.Text
	}
	lower := strings.ToLower(text)
	if !strings.Contains(lower, strings.ToLower(task.ID)) || !strings.Contains(lower, strings.ToLower(deadline)) {
		text = fmt.Sprintf("%s (%s is due %s)", strings.TrimSpace(text), task.ID, deadline)
	}

	return &Result{
		Tier:    s.Tier(),
		Text:    text,
		Changed: Changed(in.Text, text),
		Task: &core.TaskRef{
			ID:       task.ID,
			Title:    task.Title,
			Priority: task.Priority,
			Due:      task.Due,
		},
	}, nil
}

// MatchTask picks the open task a message most plausibly refers to. A task
// qualifies when the message shares a keyword with its title, mentions its
// id, or carries a deadline cue for the day the task is due. Candidates are
// ranked by keyword overlap, then priority, due date and id, so the result
// depends only on the inputs.
func MatchTask(text string, tasks []core.Task, now time.Time) (core.Task, bool) {
	tokens := tokenize(text)
	words := keywords(text)

	var cueDay time.Time
	switch {
	case hasToken(tokens, tomorrowCues...):
		cueDay = now.AddDate(0, 0, 1)
	case hasToken(tokens, todayCues...) || containsPhrase(tokens, "end of day"):
		cueDay = now
	}

	type candidate struct {
		task    core.Task
		overlap int
	}

	var candidates []candidate
	for _, t := range tasks {
		if t.Done() {
			continue
		}

		overlap := 0
		for w := range keywords(t.Title) {
			if _, ok := words[w]; ok {
				overlap++
			}
		}
		if t.ID != "" && containsPhrase(tokens, t.ID) {
			overlap += 2
		}

		dueMatch := !cueDay.IsZero() && !t.Due.IsZero() && sameDay(t.Due.In(now.Location()), cueDay)
		if overlap == 0 && !dueMatch {
			continue
		}
		candidates = append(candidates, candidate{task: t, overlap: overlap})
	}

	if len(candidates) == 0 {
		return core.Task{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		if a.task.PriorityRank() != b.task.PriorityRank() {
			return a.task.PriorityRank() < b.task.PriorityRank()
		}
		if !a.task.Due.Equal(b.task.Due) {
			return a.task.Due.Before(b.task.Due)
		}
		return a.task.ID < b.task.ID
	})
	return candidates[0].task, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
