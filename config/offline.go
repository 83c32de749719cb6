package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/rephrase/model"
)

var (
	quotedMessage = regexp.MustCompile(`(?m)^(?:Original message|Message): "((?:[^"\\]|\\.)*)"`)
	busyUntil     = regexp.MustCompile(`busy until ([0-9]{1,2}:[0-9]{2} [AP]M)`)
	relatedTask   = regexp.MustCompile(`(?m)^- ([A-Z][A-Z0-9]*-[0-9]+): .*\(Due: ([^,]+, [^,]+),`)
)

// NewOfflineModel returns a deterministic stand-in provider so the service
// runs without credentials. It recognizes each step's prompt and answers in
// the expected shape with simple rule based rewrites.
func NewOfflineModel() *model.MockModel {
	m := model.NewMockModel("offline")
	m.SetHandler(func(req model.Request) (string, error) {
		return offlineReply(req.LastUserText()), nil
	})
	return m
}

func offlineReply(prompt string) string {
	msg := ""
	if m := quotedMessage.FindStringSubmatch(prompt); m != nil {
		msg = strings.ReplaceAll(m[1], `\"`, `"`)
	}
	polite := politeVersion(msg)

	switch {
	case strings.Contains(prompt, `"tone": "one of`):
		tone := "neutral"
		if strings.ContainsAny(msg, "!") || strings.Contains(strings.ToLower(msg), "asap") {
			tone = "urgent"
		}
		return fmt.Sprintf(`{"intent":"request","tone":%q,"tone_issues":[],"rewrite":%q}`, tone, polite)
	case strings.Contains(prompt, `"improved_version"`):
		score := 7
		if len(strings.Fields(msg)) < 3 {
			score = 2
		}
		return fmt.Sprintf(`{"clarity_score":%d,"issues":[],"vague_terms":[],"improved_version":%q}`, score, polite)
	case strings.Contains(prompt, "Related task:"):
		if m := relatedTask.FindStringSubmatch(prompt); m != nil {
			return fmt.Sprintf("%s Regarding %s, it is due %s.", polite, m[1], m[2])
		}
		return polite
	case strings.Contains(prompt, "Current Calendar:"):
		if m := busyUntil.FindStringSubmatch(prompt); m != nil {
			return fmt.Sprintf("I'm tied up right now. Could we connect at %s instead?", m[1])
		}
		return polite
	case strings.Contains(prompt, "confidence score"):
		return "0.8"
	default:
		return polite
	}
}

func politeVersion(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "Could you share more details when you have a moment?"
	}
	r := []rune(strings.TrimRight(msg, "?!. "))
	if len(r) == 0 {
		return "Could you share more details when you have a moment?"
	}
	return fmt.Sprintf("Hi! %s, when you have a moment? Thanks!", strings.ToUpper(string(r[0]))+string(r[1:]))
}
