package coordinator

import (
	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/step"
)

// Outcome is what one tier produced for a request.
type Outcome struct {
	Result *step.Result
	Err    error
	// Skipped tiers were gated off and never invoked.
	Skipped bool
}

// Status summarizes the outcome.
func (o Outcome) Status() core.StepStatus {
	switch {
	case o.Skipped:
		return core.StepSkipped
	case o.Err != nil || o.Result == nil:
		return core.StepFailed
	case o.Result.Changed:
		return core.StepOK
	default:
		return core.StepUnchanged
	}
}

// Merge picks the first tier in precedence whose step succeeded and changed
// the text. Tiers missing from outcomes count as absent. When no tier
// qualifies the original text wins.
func Merge(original string, precedence []core.Tier, outcomes map[core.Tier]Outcome) (string, core.Tier) {
	for _, tier := range precedence {
		o, ok := outcomes[tier]
		if !ok || o.Status() != core.StepOK {
			continue
		}
		return o.Result.Text, tier
	}
	return original, core.TierOriginal
}

// buildAnalysis records the contribution of every tier that ran, whether or
// not it won.
func buildAnalysis(outcomes map[core.Tier]Outcome) core.Analysis {
	a := core.Analysis{
		Steps: make(map[core.Tier]core.StepStatus, len(outcomes)),
	}

	for tier, o := range outcomes {
		a.Steps[tier] = o.Status()
		if o.Err != nil {
			if a.Errors == nil {
				a.Errors = make(map[core.Tier]string)
			}
			a.Errors[tier] = o.Err.Error()
		}
		if o.Result == nil {
			continue
		}

		r := o.Result
		switch tier {
		case core.TierTone:
			a.Intent = r.Intent
			a.Tone = r.Tone
			a.ToneIssues = r.ToneIssues
			a.ToneRewrite = r.Text
		case core.TierClarity:
			a.ClarityScore = r.ClarityScore
			a.ClarityIssues = r.ClarityIssues
			a.VagueTerms = r.VagueTerms
			a.ClarityNoChange = r.NoChange
			if !r.NoChange {
				a.ClarityRewrite = r.Text
			}
		case core.TierTask:
			a.MatchedTask = r.Task
			if r.Changed {
				a.TaskRewrite = r.Text
			}
		case core.TierCalendar:
			a.MatchedEvent = r.Event
			if r.Changed {
				a.CalendarRewrite = r.Text
			}
		}
	}
	return a
}
