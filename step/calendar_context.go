package step

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/internal/util"
	"github.com/hupe1980/rephrase/oracle"
)

// TimeLayout formats the proposed alternative time.
const TimeLayout = "3:04 PM"

var (
	// DefaultMeetingKeywords signal a request to meet or talk.
	DefaultMeetingKeywords = []string{"talk", "meet", "meeting", "call", "discuss", "chat", "connect", "sync"}
	// DefaultImmediacyKeywords signal a request for an immediate response.
	DefaultImmediacyKeywords = []string{"now", "asap", "urgent", "immediately", "right away"}
)

// CalendarContextOptions configure the calendar-context step.
type CalendarContextOptions struct {
	MeetingKeywords   []string
	ImmediacyKeywords []string
	Temperature       *float64
}

// CalendarContext defers meeting requests made while the author is busy to
// the end of the current busy window.
type CalendarContext struct {
	oracle oracle.Oracle
	opts   CalendarContextOptions
}

// NewCalendarContext creates the step.
func NewCalendarContext(o oracle.Oracle, optFns ...func(o *CalendarContextOptions)) *CalendarContext {
	opts := CalendarContextOptions{
		MeetingKeywords:   DefaultMeetingKeywords,
		ImmediacyKeywords: DefaultImmediacyKeywords,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CalendarContext{oracle: o, opts: opts}
}

// Tier implements Step.
func (s *CalendarContext) Tier() core.Tier { return core.TierCalendar }

// Triggered reports whether text asks to meet or asks for an immediate
// response.
func (s *CalendarContext) Triggered(text string) bool {
	tokens := tokenize(text)
	for _, kw := range append(append([]string(nil), s.opts.MeetingKeywords...), s.opts.ImmediacyKeywords...) {
		if containsPhrase(tokens, kw) {
			return true
		}
	}
	return false
}

type eventLine struct {
	Title, Start, End string
}

// Run implements Step. Messages that do not ask for a meeting, or that are
// written while the author is free, are returned unchanged without consulting
// the oracle.
func (s *CalendarContext) Run(ctx context.Context, in Input) (*Result, error) {
	if !s.Triggered(in.Text) {
		return unchanged(s.Tier(), in.Text), nil
	}

	current, freeAfter, busy := BusyWindow(in.Events, in.Now)
	if !busy {
		return unchanged(s.Tier(), in.Text), nil
	}

	loc := in.Now.Location()
	free := freeAfter.In(loc).Format(TimeLayout)

	lines := make([]eventLine, 0, len(in.Events))
	for _, e := range in.Events {
		if !e.Busy() || !sameDay(e.Start.In(loc), in.Now) {
			continue
		}
		lines = append(lines, eventLine{
			Title: e.Title,
			Start: e.Start.In(loc).Format(TimeLayout),
			End:   e.End.In(loc).Format(TimeLayout),
		})
	}

	prompt, err := util.Render(calendarUser, struct {
		Text      string
		Events    []eventLine
		FreeAfter string
	}{in.Text, lines, free})
	if err != nil {
		return nil, fail(s.Tier(), err)
	}

	raw, err := s.oracle.Complete(ctx, oracle.Prompt{
		System:      calendarSystem,
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
	if !strings.Contains(strings.ToLower(text), strings.ToLower(free)) {
		text = fmt.Sprintf("%s (free after %s)", strings.TrimSpace(text), free)
	}

	return &Result{
		Tier:    s.Tier(),
		Text:    text,
		Changed: Changed(in.Text, text),
		Event: &core.EventRef{
			ID:        current.ID,
			Title:     current.Title,
			Start:     current.Start,
			End:       current.End,
			FreeAfter: freeAfter,
		},
	}, nil
}

// BusyWindow finds the busy event covering now and extends the window across
// busy events that overlap it or start exactly when it ends. It returns the
// covering event and the time the author becomes free.
func BusyWindow(events []core.CalendarEvent, now time.Time) (core.CalendarEvent, time.Time, bool) {
	var (
		current core.CalendarEvent
		found   bool
	)
	for _, e := range events {
		if !e.Busy() || !e.Covers(now) {
			continue
		}
		// Prefer the event that ends last; ties go to the lowest id.
		if !found || e.End.After(current.End) || (e.End.Equal(current.End) && e.ID < current.ID) {
			current, found = e, true
		}
	}
	if !found {
		return core.CalendarEvent{}, time.Time{}, false
	}

	end := current.End
	for extended := true; extended; {
		extended = false
		for _, e := range events {
			if !e.Busy() || e.Start.After(end) || !e.End.After(end) {
				continue
			}
			end = e.End
			extended = true
		}
	}
	return current, end, true
}
