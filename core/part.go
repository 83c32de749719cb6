package core

import "strings"

// Part is one segment of a prompt or model reply. Only text parts exist
// today; the interface keeps provider adapters closed over the set.
type Part interface{ isPart() }

// TextPart is a plain text segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// Content is the text a single role contributed to an oracle exchange.
type Content struct {
	Role  string `json:"role,omitempty"` // system, user or assistant
	Parts []Part `json:"parts"`
}

// NewTextContent builds a single-part text content for role.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}
