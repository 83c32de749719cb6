package step

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/rephrase/core"
)

// ErrMalformedResponse is returned when the oracle output cannot be decoded
// into the shape a step expects.
var ErrMalformedResponse = errors.New("malformed oracle response")

// Error is a recoverable failure of a single step.
type Error struct {
	Tier core.Tier
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s step: %v", e.Tier, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func fail(tier core.Tier, err error) error {
	return &Error{Tier: tier, Err: err}
}

// Input carries everything a step may look at. Each step reads only the
// fields it needs.
type Input struct {
	Text    string
	History []core.ConversationTurn
	Tasks   []core.Task
	Events  []core.CalendarEvent
	Now     time.Time
}

// Result is the outcome of one successful step.
type Result struct {
	Tier core.Tier
	// Text is the candidate rewrite. It equals the input when the step made no
	// change.
	Text    string
	Changed bool

	Intent     string
	Tone       core.Tone
	ToneIssues []string

	ClarityScore  *int
	ClarityIssues []string
	VagueTerms    []string
	NoChange      bool

	Task  *core.TaskRef
	Event *core.EventRef
}

// Step is a single rewrite step.
type Step interface {
	Tier() core.Tier
	Run(ctx context.Context, in Input) (*Result, error)
}

func unchanged(tier core.Tier, text string) *Result {
	return &Result{Tier: tier, Text: text}
}

// Changed reports whether out differs from in after collapsing whitespace.
func Changed(in, out string) bool {
	return normalizeSpace(in) != normalizeSpace(out)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sameIgnoringCase compares two texts ignoring whitespace layout and case.
func sameIgnoringCase(a, b string) bool {
	return strings.EqualFold(normalizeSpace(a), normalizeSpace(b))
}
