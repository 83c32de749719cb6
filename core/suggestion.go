package core

import (
	"fmt"
	"strings"
	"time"
)

// Tone is the register detected for a message.
type Tone string

const (
	ToneUrgent  Tone = "urgent"
	ToneCasual  Tone = "casual"
	ToneFormal  Tone = "formal"
	ToneNeutral Tone = "neutral"
)

// ParseTone maps a label onto the fixed tone set.
func ParseTone(s string) (Tone, error) {
	switch t := Tone(strings.ToLower(strings.TrimSpace(s))); t {
	case ToneUrgent, ToneCasual, ToneFormal, ToneNeutral:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tone %q", s)
	}
}

// Tier identifies one rewrite step in the merge precedence.
type Tier string

const (
	TierTask     Tier = "task"
	TierCalendar Tier = "calendar"
	TierTone     Tier = "tone"
	TierClarity  Tier = "clarity"
	// TierOriginal marks a suggestion that fell back to the input text.
	TierOriginal Tier = "original"
)

// Tiers lists every rewrite tier in default precedence order.
var Tiers = []Tier{TierTask, TierCalendar, TierTone, TierClarity}

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	// Accept the project tracker's product name as an alias.
	if t == "jira" {
		return TierTask, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// StepStatus reports what happened to one tier during a request.
type StepStatus string

const (
	StepOK        StepStatus = "ok"
	StepUnchanged StepStatus = "unchanged"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// TaskRef points at the task a rewrite referenced.
type TaskRef struct {
	ID       string    `json:"key"`
	Title    string    `json:"summary"`
	Priority string    `json:"priority"`
	Due      time.Time `json:"due_date"`
}

// EventRef points at the busy window a rewrite deferred around.
type EventRef struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	FreeAfter time.Time `json:"free_after"`
}

// Analysis collects the contribution of every tier that ran, regardless of
// which one won the merge.
type Analysis struct {
	Intent        string   `json:"intent,omitempty"`
	Tone          Tone     `json:"tone,omitempty"`
	ToneIssues    []string `json:"tone_issues,omitempty"`
	ToneRewrite   string   `json:"tone_rewrite,omitempty"`
	ClarityScore  *int     `json:"clarity_score,omitempty"`
	ClarityIssues []string `json:"clarity_issues,omitempty"`
	VagueTerms    []string `json:"vague_terms,omitempty"`
	// ClarityRewrite is empty when ClarityNoChange is set.
	ClarityRewrite  string              `json:"clarity_rewrite,omitempty"`
	ClarityNoChange bool                `json:"clarity_no_change,omitempty"`
	MatchedTask     *TaskRef            `json:"matched_task,omitempty"`
	TaskRewrite     string              `json:"task_rewrite,omitempty"`
	MatchedEvent    *EventRef           `json:"matched_event,omitempty"`
	CalendarRewrite string              `json:"calendar_rewrite,omitempty"`
	Steps           map[Tier]StepStatus `json:"steps"`
	Errors          map[Tier]string     `json:"errors,omitempty"`
}

// Suggestion is the merged rewrite returned for a single request. It is
// never cached; sending it turns the text into a Message.
type Suggestion struct {
	Original   string   `json:"original"`
	Text       string   `json:"rephrased"`
	Winner     Tier     `json:"winner"`
	Analysis   Analysis `json:"analysis"`
	Confidence *float64 `json:"confidence,omitempty"`
	// Completion is an autocomplete continuation drawn from sent history.
	Completion string `json:"contextual_suggestion,omitempty"`
}
