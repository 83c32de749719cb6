package step

import (
	"context"
	"math"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/internal/util"
	"github.com/hupe1980/rephrase/oracle"
)

// ClarityOptions configure the clarity step.
type ClarityOptions struct {
	Temperature *float64
}

// Clarity rewrites vague messages into concrete ones. It looks at the message
// text only.
type Clarity struct {
	oracle oracle.Oracle
	opts   ClarityOptions
}

// NewClarity creates the step.
func NewClarity(o oracle.Oracle, optFns ...func(o *ClarityOptions)) *Clarity {
	opts := ClarityOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Clarity{oracle: o, opts: opts}
}

// Tier implements Step.
func (s *Clarity) Tier() core.Tier { return core.TierClarity }

type clarityReply struct {
	Score           *float64   `json:"clarity_score"`
	Issues          stringList `json:"issues"`
	VagueTerms      stringList `json:"vague_terms"`
	MissingContext  stringList `json:"missing_context"`
	ImprovedVersion string     `json:"improved_version"`
}

// Run implements Step. When the oracle cannot improve the text the input is
// returned with NoChange set.
func (s *Clarity) Run(ctx context.Context, in Input) (*Result, error) {
	prompt, err := util.Render(clarityUser, struct{ Text string }{in.Text})
	if err != nil {
		return nil, fail(s.Tier(), err)
	}

	raw, err := s.oracle.Complete(ctx, oracle.Prompt{
		System:      claritySystem,
		User:        prompt,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, fail(s.Tier(), err)
	}

	var reply clarityReply
	if err := decodeJSON(raw, &reply); err != nil {
		return nil, fail(s.Tier(), err)
	}

	res := &Result{
		Tier:          s.Tier(),
		ClarityIssues: append(reply.Issues, reply.MissingContext...),
		VagueTerms:    reply.VagueTerms,
	}
	if reply.Score != nil {
		score := int(math.Round(math.Max(0, math.Min(10, *reply.Score))))
		res.ClarityScore = &score
	}

	improved := cleanRewrite(reply.ImprovedVersion)
	if improved == "" || sameIgnoringCase(improved, in.Text) {
		res.Text = in.Text
		res.NoChange = true
		return res, nil
	}

	res.Text = improved
	res.Changed = Changed(in.Text, improved)
	return res, nil
}
