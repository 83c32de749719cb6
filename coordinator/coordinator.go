package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/fixture"
	"github.com/hupe1980/rephrase/history"
	"github.com/hupe1980/rephrase/logging"
	"github.com/hupe1980/rephrase/oracle"
	"github.com/hupe1980/rephrase/step"
	"github.com/hupe1980/rephrase/suggest"
)

var (
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrAllStepsFailed is returned when no invoked step succeeded. The
	// request may be retried.
	ErrAllStepsFailed = errors.New("all rewrite steps failed")
)

// DefaultStepTimeout bounds a single step when no timeout is configured.
const DefaultStepTimeout = 15 * time.Second

// DefaultUserID is used when a request names no user. It owns the fixtures
// that name no assignee or attendee.
const DefaultUserID = fixture.DefaultOwner

// ContextSource serves the fixtures a request is enriched with.
type ContextSource interface {
	TasksForUser(userID string) []core.Task
	EventsForUser(userID string) []core.CalendarEvent
}

// Request is one rephrase call.
type Request struct {
	UserID          string
	Message         string
	History         []core.ConversationTurn
	IncludeTasks    bool
	IncludeCalendar bool
}

// Options configure a Coordinator.
type Options struct {
	Logger logging.Logger
	// StepTimeout bounds every step invocation.
	StepTimeout time.Duration
	// Precedence orders tiers for the merge, highest first.
	Precedence []core.Tier
	Clock      func() time.Time
	// Steps replaces the default steps built from the oracle.
	Steps []step.Step
	// Temperature is passed to every default step.
	Temperature *float64
	// HistoryTurns caps the conversation turns the tone step sees.
	HistoryTurns int
	// ScoreConfidence asks the oracle to rate the merged text.
	ScoreConfidence bool
	// History enables autocomplete completions drawn from sent messages.
	History         history.Store
	CompletionWords int
}

// Coordinator merges rewrite steps into suggestions. It is safe for
// concurrent use.
type Coordinator struct {
	oracle  oracle.Oracle
	context ContextSource
	steps   map[core.Tier]step.Step
	opts    Options
}

// New builds a Coordinator with the four default steps over o.
func New(o oracle.Oracle, src ContextSource, optFns ...func(o *Options)) (*Coordinator, error) {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		StepTimeout:     DefaultStepTimeout,
		Precedence:      core.Tiers,
		Clock:           time.Now,
		CompletionWords: suggest.DefaultMaxWords,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.StepTimeout <= 0 {
		return nil, fmt.Errorf("step timeout must be positive, got %s", opts.StepTimeout)
	}
	if err := validatePrecedence(opts.Precedence); err != nil {
		return nil, err
	}

	steps := opts.Steps
	if steps == nil {
		steps = []step.Step{
			step.NewTaskContext(o, func(so *step.TaskContextOptions) { so.Temperature = opts.Temperature }),
			step.NewCalendarContext(o, func(so *step.CalendarContextOptions) { so.Temperature = opts.Temperature }),
			step.NewIntentTone(o, func(so *step.IntentToneOptions) {
				so.Temperature = opts.Temperature
				if opts.HistoryTurns > 0 {
					so.HistoryTurns = opts.HistoryTurns
				}
			}),
			step.NewClarity(o, func(so *step.ClarityOptions) { so.Temperature = opts.Temperature }),
		}
	}

	c := &Coordinator{
		oracle:  o,
		context: src,
		steps:   make(map[core.Tier]step.Step, len(steps)),
		opts:    opts,
	}
	for _, s := range steps {
		c.steps[s.Tier()] = s
	}
	return c, nil
}

func validatePrecedence(p []core.Tier) error {
	if len(p) == 0 {
		return errors.New("precedence must name at least one tier")
	}
	seen := make(map[core.Tier]bool, len(p))
	for _, t := range p {
		if parsed, err := core.ParseTier(string(t)); err != nil || parsed != t {
			return fmt.Errorf("precedence: unknown tier %q", t)
		}
		if seen[t] {
			return fmt.Errorf("precedence: duplicate tier %q", t)
		}
		seen[t] = true
	}
	return nil
}

// Precedence returns the merge order in use.
func (c *Coordinator) Precedence() []core.Tier {
	return append([]core.Tier(nil), c.opts.Precedence...)
}

// Rephrase runs every enabled step and merges the results.
func (c *Coordinator) Rephrase(ctx context.Context, req Request) (*core.Suggestion, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}

	start := time.Now()
	in := step.Input{
		Text:    text,
		History: req.History,
		Now:     c.opts.Clock(),
	}

	tiers := []core.Tier{core.TierTone, core.TierClarity}
	skipped := map[core.Tier]bool{}
	if req.IncludeTasks {
		in.Tasks = c.context.TasksForUser(req.UserID)
		tiers = append(tiers, core.TierTask)
	} else {
		skipped[core.TierTask] = true
	}
	if req.IncludeCalendar {
		in.Events = c.context.EventsForUser(req.UserID)
		tiers = append(tiers, core.TierCalendar)
	} else {
		skipped[core.TierCalendar] = true
	}

	outcomes := c.runSteps(ctx, tiers, in)
	for tier := range skipped {
		if _, ok := c.steps[tier]; ok {
			outcomes[tier] = Outcome{Skipped: true}
		}
	}

	if err := allFailed(outcomes); err != nil {
		c.logMerge(core.TierOriginal, outcomes, time.Since(start))
		return nil, err
	}

	merged, winner := Merge(text, c.opts.Precedence, outcomes)
	c.logMerge(winner, outcomes, time.Since(start))

	s := &core.Suggestion{
		Original: text,
		Text:     merged,
		Winner:   winner,
		Analysis: buildAnalysis(outcomes),
	}

	if c.opts.ScoreConfidence {
		if score, err := scoreConfidence(ctx, c.oracle, c.opts.StepTimeout, text, merged); err != nil {
			c.opts.Logger.Warn("confidence scoring failed", "error", err)
		} else {
			s.Confidence = &score
		}
	}

	if c.opts.History != nil {
		s.Completion = c.complete(ctx, text)
	}

	return s, nil
}

// Analyze runs only the tone and clarity steps and returns their analysis
// without merging a rewrite.
func (c *Coordinator) Analyze(ctx context.Context, text string, turns []core.ConversationTurn) (*core.Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	outcomes := c.runSteps(ctx, []core.Tier{core.TierTone, core.TierClarity}, step.Input{
		Text:    text,
		History: turns,
		Now:     c.opts.Clock(),
	})
	if err := allFailed(outcomes); err != nil {
		return nil, err
	}

	a := buildAnalysis(outcomes)
	return &a, nil
}

// Complete returns an autocomplete continuation for a partially typed
// message. It is empty when no history store is configured.
func (c *Coordinator) Complete(ctx context.Context, partial string) string {
	if c.opts.History == nil {
		return ""
	}
	return c.complete(ctx, partial)
}

func (c *Coordinator) complete(ctx context.Context, text string) string {
	msgs, err := c.opts.History.List(ctx)
	if err != nil {
		c.opts.Logger.Warn("history unavailable for completion", "error", err)
		return ""
	}
	return suggest.Complete(history.Texts(msgs), text, c.opts.CompletionWords)
}

// runSteps dispatches the requested tiers concurrently. Tiers without a
// registered step are left out of the result.
func (c *Coordinator) runSteps(ctx context.Context, tiers []core.Tier, in step.Input) map[core.Tier]Outcome {
	results := make([]Outcome, len(tiers))

	var g errgroup.Group
	for i, tier := range tiers {
		s, ok := c.steps[tier]
		if !ok {
			continue
		}
		g.Go(func() error {
			results[i] = c.runStep(ctx, s, in)
			return nil
		})
	}
	_ = g.Wait() // step failures are carried in the outcomes

	outcomes := make(map[core.Tier]Outcome, len(tiers))
	for i, tier := range tiers {
		if _, ok := c.steps[tier]; ok {
			outcomes[tier] = results[i]
		}
	}
	return outcomes
}

type stepLogger interface {
	LogStep(tier string, dur time.Duration, status string, err error)
}

// runStep runs s under the step timeout. A step that ignores its context is
// abandoned when the deadline passes; its late result is discarded.
func (c *Coordinator) runStep(ctx context.Context, s step.Step, in step.Input) Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.opts.StepTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan Outcome, 1)
	go func() {
		res, err := s.Run(ctx, in)
		done <- Outcome{Result: res, Err: err}
	}()

	var out Outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = Outcome{Err: &step.Error{Tier: s.Tier(), Err: ctx.Err()}}
	}
	if out.Err == nil && out.Result == nil {
		out.Err = &step.Error{Tier: s.Tier(), Err: errors.New("step returned no result")}
	}

	if l, ok := c.opts.Logger.(stepLogger); ok {
		l.LogStep(string(s.Tier()), time.Since(start), string(out.Status()), out.Err)
	}
	return out
}

func allFailed(outcomes map[core.Tier]Outcome) error {
	var (
		invoked int
		errs    []error
	)
	for _, o := range outcomes {
		if o.Skipped {
			continue
		}
		invoked++
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	if invoked == 0 || len(errs) < invoked {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrAllStepsFailed, errors.Join(errs...))
}

type mergeLogger interface {
	LogMerge(winner string, fired, failed int, dur time.Duration)
}

func (c *Coordinator) logMerge(winner core.Tier, outcomes map[core.Tier]Outcome, dur time.Duration) {
	var fired, failed int
	for _, o := range outcomes {
		switch o.Status() {
		case core.StepOK, core.StepUnchanged:
			fired++
		case core.StepFailed:
			failed++
		}
	}

	if l, ok := c.opts.Logger.(mergeLogger); ok {
		l.LogMerge(string(winner), fired, failed, dur)
		return
	}
	c.opts.Logger.Debug("suggestion merged", "winner", winner, "fired", fired, "failed", failed)
}
