package coordinator

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/fixture"
	"github.com/hupe1980/rephrase/history"
	"github.com/hupe1980/rephrase/internal/testutil"
	"github.com/hupe1980/rephrase/oracle"
	"github.com/hupe1980/rephrase/step"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockStep is a testify mock of step.Step.
type mockStep struct {
	mock.Mock
	tier core.Tier
}

func (m *mockStep) Tier() core.Tier { return m.tier }

func (m *mockStep) Run(ctx context.Context, in step.Input) (*step.Result, error) {
	args := m.Called(ctx, in)
	if fn, ok := args.Get(0).(func(context.Context, step.Input) *step.Result); ok {
		return fn(ctx, in), args.Error(1)
	}
	res, _ := args.Get(0).(*step.Result)
	return res, args.Error(1)
}

func changed(tier core.Tier, text string) *mockStep {
	s := &mockStep{tier: tier}
	s.On("Run", mock.Anything, mock.Anything).Return(&step.Result{Tier: tier, Text: text, Changed: true}, nil)
	return s
}

func same(tier core.Tier) *mockStep {
	s := &mockStep{tier: tier}
	s.On("Run", mock.Anything, mock.Anything).Return(func(_ context.Context, in step.Input) *step.Result {
		return &step.Result{Tier: tier, Text: in.Text}
	}, nil)
	return s
}

func failing(tier core.Tier) *mockStep {
	s := &mockStep{tier: tier}
	s.On("Run", mock.Anything, mock.Anything).Return(nil, &step.Error{Tier: tier, Err: errors.New("oracle unreachable")})
	return s
}

// sleepy wraps a step and delays it by a random amount while honoring ctx.
type sleepy struct {
	step.Step
	rnd *rand.Rand
}

func (s sleepy) Run(ctx context.Context, in step.Input) (*step.Result, error) {
	select {
	case <-time.After(time.Duration(s.rnd.Intn(5)) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Step.Run(ctx, in)
}

type blockingStep struct{ tier core.Tier }

func (b blockingStep) Tier() core.Tier { return b.tier }

func (b blockingStep) Run(ctx context.Context, _ step.Input) (*step.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestCoordinator(t *testing.T, steps []step.Step, optFns ...func(o *Options)) *Coordinator {
	t.Helper()
	fns := append([]func(o *Options){func(o *Options) { o.Steps = steps }}, optFns...)
	c, err := New(oracle.Func(func(context.Context, oracle.Prompt) (string, error) {
		return "", errors.New("unused")
	}), fixture.New(nil, nil), fns...)
	require.NoError(t, err)
	return c
}

func fullRequest(msg string) Request {
	return Request{UserID: "alice", Message: msg, IncludeTasks: true, IncludeCalendar: true}
}

func TestMerge_Precedence(t *testing.T) {
	ok := func(text string) Outcome { return Outcome{Result: &step.Result{Text: text, Changed: true}} }
	noop := Outcome{Result: &step.Result{Text: "orig"}}
	failed := Outcome{Err: errors.New("x")}

	tests := []struct {
		name       string
		outcomes   map[core.Tier]Outcome
		wantText   string
		wantWinner core.Tier
	}{
		{
			name: "task beats everything",
			outcomes: map[core.Tier]Outcome{
				core.TierTask: ok("task"), core.TierCalendar: ok("cal"), core.TierTone: ok("tone"), core.TierClarity: ok("clar"),
			},
			wantText: "task", wantWinner: core.TierTask,
		},
		{
			name: "unchanged task is ineligible",
			outcomes: map[core.Tier]Outcome{
				core.TierTask: noop, core.TierCalendar: ok("cal"), core.TierTone: ok("tone"),
			},
			wantText: "cal", wantWinner: core.TierCalendar,
		},
		{
			name: "failed tiers are absent",
			outcomes: map[core.Tier]Outcome{
				core.TierTask: failed, core.TierCalendar: failed, core.TierTone: failed, core.TierClarity: ok("clar"),
			},
			wantText: "clar", wantWinner: core.TierClarity,
		},
		{
			name: "tone over clarity",
			outcomes: map[core.Tier]Outcome{
				core.TierTone: ok("tone"), core.TierClarity: ok("clar"), core.TierTask: {Skipped: true},
			},
			wantText: "tone", wantWinner: core.TierTone,
		},
		{
			name: "nothing changed",
			outcomes: map[core.Tier]Outcome{
				core.TierTone: noop, core.TierClarity: noop,
			},
			wantText: "orig", wantWinner: core.TierOriginal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, winner := Merge("orig", core.Tiers, tt.outcomes)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantWinner, winner)
		})
	}
}

func TestRephrase_OrderIndependent(t *testing.T) {
	// rand.Rand is not safe for concurrent use, so every step gets its own.
	steps := []step.Step{
		sleepy{changed(core.TierTask, "task"), rand.New(rand.NewSource(1))},
		sleepy{changed(core.TierCalendar, "cal"), rand.New(rand.NewSource(2))},
		sleepy{changed(core.TierTone, "tone"), rand.New(rand.NewSource(3))},
		sleepy{changed(core.TierClarity, "clar"), rand.New(rand.NewSource(4))},
	}

	c := newTestCoordinator(t, steps)
	for i := 0; i < 20; i++ {
		s, err := c.Rephrase(context.Background(), fullRequest("msg"))
		require.NoError(t, err)
		assert.Equal(t, core.TierTask, s.Winner)
		assert.Equal(t, "task", s.Text)
	}
}

func TestRephrase_AllStepsFailed(t *testing.T) {
	c := newTestCoordinator(t, []step.Step{
		failing(core.TierTask), failing(core.TierCalendar), failing(core.TierTone), failing(core.TierClarity),
	})

	s, err := c.Rephrase(context.Background(), fullRequest("Update?"))
	assert.Nil(t, s)
	require.ErrorIs(t, err, ErrAllStepsFailed)

	var stepErr *step.Error
	assert.ErrorAs(t, err, &stepErr)
}

func TestRephrase_AllInvokedFailedWithGatedTiers(t *testing.T) {
	task := &mockStep{tier: core.TierTask}
	c := newTestCoordinator(t, []step.Step{task, failing(core.TierTone), failing(core.TierClarity)})

	_, err := c.Rephrase(context.Background(), Request{Message: "Update?"})
	assert.ErrorIs(t, err, ErrAllStepsFailed)
	task.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRephrase_PartialFailureDegrades(t *testing.T) {
	c := newTestCoordinator(t, []step.Step{
		failing(core.TierTask), same(core.TierCalendar), failing(core.TierTone), changed(core.TierClarity, "Could you share the status?"),
	})

	s, err := c.Rephrase(context.Background(), fullRequest("Update?"))
	require.NoError(t, err)
	assert.Equal(t, core.TierClarity, s.Winner)
	assert.Equal(t, core.StepFailed, s.Analysis.Steps[core.TierTask])
	assert.Equal(t, core.StepUnchanged, s.Analysis.Steps[core.TierCalendar])
	assert.Contains(t, s.Analysis.Errors[core.TierTone], "oracle unreachable")
}

func TestRephrase_NoChangeFallsBackToOriginal(t *testing.T) {
	c := newTestCoordinator(t, []step.Step{
		same(core.TierTask), same(core.TierCalendar), same(core.TierTone), same(core.TierClarity),
	})

	s, err := c.Rephrase(context.Background(), fullRequest("  Ship it  "))
	require.NoError(t, err)
	assert.Equal(t, core.TierOriginal, s.Winner)
	assert.Equal(t, "Ship it", s.Text)
}

func TestRephrase_GatedSteps(t *testing.T) {
	task := &mockStep{tier: core.TierTask}
	cal := &mockStep{tier: core.TierCalendar}
	c := newTestCoordinator(t, []step.Step{task, cal, changed(core.TierTone, "tone"), same(core.TierClarity)})

	s, err := c.Rephrase(context.Background(), Request{UserID: "alice", Message: "Need this today"})
	require.NoError(t, err)

	task.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	cal.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	assert.Nil(t, s.Analysis.MatchedTask)
	assert.Empty(t, s.Analysis.TaskRewrite)
	assert.Equal(t, core.StepSkipped, s.Analysis.Steps[core.TierTask])
	assert.Equal(t, core.StepSkipped, s.Analysis.Steps[core.TierCalendar])
	assert.Equal(t, core.TierTone, s.Winner)
}

func TestRephrase_StepTimeout(t *testing.T) {
	c := newTestCoordinator(t,
		[]step.Step{blockingStep{core.TierTask}, same(core.TierCalendar), changed(core.TierTone, "tone"), same(core.TierClarity)},
		func(o *Options) { o.StepTimeout = 20 * time.Millisecond },
	)

	s, err := c.Rephrase(context.Background(), fullRequest("Need this today"))
	require.NoError(t, err)
	assert.Equal(t, core.TierTone, s.Winner)
	assert.Equal(t, core.StepFailed, s.Analysis.Steps[core.TierTask])
	assert.Contains(t, s.Analysis.Errors[core.TierTask], context.DeadlineExceeded.Error())
}

func TestRephrase_CustomPrecedence(t *testing.T) {
	c := newTestCoordinator(t,
		[]step.Step{changed(core.TierTask, "task"), changed(core.TierCalendar, "cal"), changed(core.TierTone, "tone"), changed(core.TierClarity, "clar")},
		func(o *Options) { o.Precedence = []core.Tier{core.TierCalendar, core.TierTask} },
	)

	s, err := c.Rephrase(context.Background(), fullRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, core.TierCalendar, s.Winner)
	assert.Equal(t, []core.Tier{core.TierCalendar, core.TierTask}, c.Precedence())
}

func TestRephrase_EmptyMessage(t *testing.T) {
	c := newTestCoordinator(t, nil)
	_, err := c.Rephrase(context.Background(), fullRequest("   "))
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestNew_Validation(t *testing.T) {
	o := oracle.Func(func(context.Context, oracle.Prompt) (string, error) { return "", nil })

	_, err := New(o, fixture.New(nil, nil), func(o *Options) { o.StepTimeout = 0 })
	assert.Error(t, err)

	_, err = New(o, fixture.New(nil, nil), func(o *Options) { o.Precedence = []core.Tier{"jira"} })
	assert.Error(t, err)

	_, err = New(o, fixture.New(nil, nil), func(o *Options) { o.Precedence = []core.Tier{core.TierTone, core.TierTone} })
	assert.Error(t, err)

	_, err = New(o, fixture.New(nil, nil), func(o *Options) { o.Precedence = nil })
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	tone := &mockStep{tier: core.TierTone}
	tone.On("Run", mock.Anything, mock.MatchedBy(func(in step.Input) bool { return len(in.History) == 1 })).
		Return(&step.Result{Tier: core.TierTone, Text: "Any update?", Changed: true, Tone: core.ToneCasual, Intent: "question"}, nil)
	score := 3
	clarity := &mockStep{tier: core.TierClarity}
	clarity.On("Run", mock.Anything, mock.Anything).
		Return(&step.Result{Tier: core.TierClarity, Text: "Update?", NoChange: true, ClarityScore: &score}, nil)
	task := &mockStep{tier: core.TierTask}

	c := newTestCoordinator(t, []step.Step{tone, clarity, task})
	a, err := c.Analyze(context.Background(), "Update?", []core.ConversationTurn{{Role: core.RoleCounterpart, Text: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, core.ToneCasual, a.Tone)
	assert.Equal(t, "question", a.Intent)
	assert.True(t, a.ClarityNoChange)
	assert.Empty(t, a.ClarityRewrite)
	require.NotNil(t, a.ClarityScore)
	assert.Equal(t, 3, *a.ClarityScore)
	task.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	tone.AssertExpectations(t)
}

func TestAnalyze_BothFail(t *testing.T) {
	c := newTestCoordinator(t, []step.Step{failing(core.TierTone), failing(core.TierClarity)})
	_, err := c.Analyze(context.Background(), "Update?", nil)
	assert.ErrorIs(t, err, ErrAllStepsFailed)
}

func TestParseConfidence(t *testing.T) {
	assert.InDelta(t, 0.85, ParseConfidence("0.85"), 1e-9)
	assert.InDelta(t, 0.9, ParseConfidence("Score: 0.9 overall"), 1e-9)
	assert.InDelta(t, 1.0, ParseConfidence("1"), 1e-9)
	assert.InDelta(t, DefaultConfidence, ParseConfidence("very good"), 1e-9)
	assert.InDelta(t, 0.75, ParseConfidence("Confidence: 0.75."), 1e-9)
	assert.InDelta(t, 1.0, ParseConfidence("1.0"), 1e-9)

	for _, reply := range []string{"10/10", "Score: 9", "100", "19 out of 20"} {
		assert.InDelta(t, DefaultConfidence, ParseConfidence(reply), 1e-9, reply)
	}
}

func TestRephrase_ConfidenceAndCompletion(t *testing.T) {
	store := history.NewInMemoryStore()
	for _, msg := range []string{"can we move the standup to tomorrow", "can we move the retro", "please move the standup to tomorrow"} {
		_, err := store.Append(context.Background(), "alice", msg)
		require.NoError(t, err)
	}

	o := oracle.Func(func(_ context.Context, p oracle.Prompt) (string, error) {
		if strings.Contains(p.User, "confidence score") {
			return "0.92", nil
		}
		return "", errors.New("unexpected prompt")
	})

	c, err := New(o, fixture.New(nil, nil), func(opts *Options) {
		opts.Steps = []step.Step{changed(core.TierTone, "Could we move the standup?"), same(core.TierClarity)}
		opts.ScoreConfidence = true
		opts.History = store
	})
	require.NoError(t, err)

	s, err := c.Rephrase(context.Background(), Request{Message: "can we move"})
	require.NoError(t, err)
	require.NotNil(t, s.Confidence)
	assert.InDelta(t, 0.92, *s.Confidence, 1e-9)
	assert.Equal(t, "the standup to tomorrow", s.Completion)
	assert.Equal(t, "the standup to tomorrow", c.Complete(context.Background(), "can we move"))
}

func TestRephrase_ConfidenceFailureIsBestEffort(t *testing.T) {
	o := oracle.Func(func(context.Context, oracle.Prompt) (string, error) { return "", errors.New("quota") })
	c, err := New(o, fixture.New(nil, nil), func(opts *Options) {
		opts.Steps = []step.Step{changed(core.TierTone, "tone"), same(core.TierClarity)}
		opts.ScoreConfidence = true
	})
	require.NoError(t, err)

	s, err := c.Rephrase(context.Background(), Request{Message: "x"})
	require.NoError(t, err)
	assert.Nil(t, s.Confidence)
	assert.Empty(t, s.Completion)
}

func TestRephrase_ConfidenceBoundedByStepTimeout(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, p oracle.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c, err := New(o, fixture.New(nil, nil), func(opts *Options) {
		opts.Steps = []step.Step{changed(core.TierTone, "Could you take a look?"), same(core.TierClarity)}
		opts.ScoreConfidence = true
		opts.StepTimeout = 50 * time.Millisecond
	})
	require.NoError(t, err)

	start := time.Now()
	s, err := c.Rephrase(context.Background(), Request{Message: "look at this"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "Could you take a look?", s.Text)
	assert.Nil(t, s.Confidence)
}

// scenarioOracle answers each step's prompt the way a cooperative model would.
func scenarioOracle(t *testing.T) oracle.Oracle {
	return oracle.Func(func(_ context.Context, p oracle.Prompt) (string, error) {
		switch {
		case strings.Contains(p.User, `"tone": "one of`):
			return `{"intent":"request","tone":"casual","tone_issues":["terse"],"rewrite":"Hi! Could you share a quick update when you get a chance?"}`, nil
		case strings.Contains(p.User, `"improved_version"`):
			return `{"clarity_score":3,"issues":["no subject"],"vague_terms":["this"],"improved_version":"Could you share the latest status of the project?"}`, nil
		case strings.Contains(p.User, "Related task:"):
			return "Could you prioritise the login timeout fix? It is due today.", nil
		case strings.Contains(p.User, "Current Calendar:"):
			return "I'm in sprint planning right now. Could we talk at 3:00 PM instead?", nil
		}
		t.Errorf("unexpected prompt: %s", p.User)
		return "", errors.New("unexpected prompt")
	})
}

func TestRephrase_Scenarios(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 20, 0, 0, time.UTC)

	store := fixture.New(
		[]core.Task{
			testutil.NewTaskBuilder("PROJ-1").Title("Fix login timeout bug").DueAt(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)).Assignee("alice").Build(),
		},
		[]core.CalendarEvent{
			testutil.NewEventBuilder("ev-1").Title("Sprint planning").Between(now.Add(-20*time.Minute), now.Add(40*time.Minute)).Attendees("alice").Build(),
		},
	)

	newC := func(t *testing.T) *Coordinator {
		c, err := New(scenarioOracle(t), store, func(o *Options) { o.Clock = func() time.Time { return now } })
		require.NoError(t, err)
		return c
	}

	t.Run("Update? is driven by tone and clarity", func(t *testing.T) {
		s, err := newC(t).Rephrase(context.Background(), Request{UserID: "bob", Message: "Update?", IncludeTasks: true, IncludeCalendar: true})
		require.NoError(t, err)
		assert.Equal(t, core.TierTone, s.Winner)
		assert.NotEmpty(t, s.Text)
		assert.NotEqual(t, "Update?", s.Text)
		assert.Equal(t, core.StepUnchanged, s.Analysis.Steps[core.TierTask])
		assert.Equal(t, core.StepUnchanged, s.Analysis.Steps[core.TierCalendar])
		assert.NotEmpty(t, s.Analysis.ClarityRewrite)
	})

	t.Run("Need this today references the task deadline", func(t *testing.T) {
		s, err := newC(t).Rephrase(context.Background(), fullRequest("Need this today"))
		require.NoError(t, err)
		assert.Equal(t, core.TierTask, s.Winner)
		assert.Contains(t, s.Text, "PROJ-1 is due Mar 10, 5:00 PM")
		require.NotNil(t, s.Analysis.MatchedTask)
		assert.Equal(t, "PROJ-1", s.Analysis.MatchedTask.ID)
	})

	t.Run("Can we talk now? proposes the end of the meeting", func(t *testing.T) {
		s, err := newC(t).Rephrase(context.Background(), fullRequest("Can we talk now?"))
		require.NoError(t, err)
		assert.Equal(t, core.TierCalendar, s.Winner)
		assert.Contains(t, s.Text, "3:00 PM")
		require.NotNil(t, s.Analysis.MatchedEvent)
		assert.Equal(t, now.Add(40*time.Minute), s.Analysis.MatchedEvent.FreeAfter)
	})

	t.Run("include_jira false never consults tasks", func(t *testing.T) {
		s, err := newC(t).Rephrase(context.Background(), Request{UserID: "alice", Message: "Need this today", IncludeCalendar: true})
		require.NoError(t, err)
		assert.NotEqual(t, core.TierTask, s.Winner)
		assert.Nil(t, s.Analysis.MatchedTask)
		assert.NotContains(t, s.Text, "PROJ-1")
	})
}
