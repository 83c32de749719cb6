package step

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/internal/util"
	"github.com/hupe1980/rephrase/oracle"
)

// IntentToneOptions configure the intent/tone step.
type IntentToneOptions struct {
	// HistoryTurns is how many trailing turns are rendered into the prompt.
	HistoryTurns int
	Temperature  *float64
}

// IntentTone classifies tone and proposes a tone-adjusted rewrite.
type IntentTone struct {
	oracle oracle.Oracle
	opts   IntentToneOptions
}

// NewIntentTone creates the step.
func NewIntentTone(o oracle.Oracle, optFns ...func(o *IntentToneOptions)) *IntentTone {
	opts := IntentToneOptions{HistoryTurns: 5}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &IntentTone{oracle: o, opts: opts}
}

// Tier implements Step.
func (s *IntentTone) Tier() core.Tier { return core.TierTone }

type intentToneReply struct {
	Intent         string     `json:"intent"`
	DetectedIntent string     `json:"detected_intent"`
	Tone           string     `json:"tone"`
	DetectedTone   string     `json:"detected_tone"`
	Rewrite        string     `json:"rewrite"`
	ToneIssues     stringList `json:"tone_issues"`
}

// Run implements Step.
func (s *IntentTone) Run(ctx context.Context, in Input) (*Result, error) {
	prompt, err := util.Render(intentToneUser, struct {
		Text    string
		History []core.ConversationTurn
	}{in.Text, core.LastTurns(in.History, s.opts.HistoryTurns)})
	if err != nil {
		return nil, fail(s.Tier(), err)
	}

	raw, err := s.oracle.Complete(ctx, oracle.Prompt{
		System:      intentToneSystem,
		User:        prompt,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, fail(s.Tier(), err)
	}

	var reply intentToneReply
	if err := decodeJSON(raw, &reply); err != nil {
		return nil, fail(s.Tier(), err)
	}

	label := firstNonEmpty(reply.Tone, reply.DetectedTone)
	tone, err := core.ParseTone(label)
	if err != nil {
		return nil, fail(s.Tier(), fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}

	rewrite := cleanRewrite(reply.Rewrite)
	if rewrite == "" {
		return nil, fail(s.Tier(), fmt.Errorf("%w: empty rewrite", ErrMalformedResponse))
	}

	return &Result{
		Tier:       s.Tier(),
		Text:       rewrite,
		Changed:    Changed(in.Text, rewrite),
		Intent:     firstNonEmpty(reply.Intent, reply.DetectedIntent),
		Tone:       tone,
		ToneIssues: reply.ToneIssues,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
