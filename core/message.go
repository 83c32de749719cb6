package core

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is a sent chat message owned by the history store. It is created on
// append and never mutated afterwards.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Role identifies who authored a conversation turn.
type Role string

const (
	// RoleAuthor is the user composing the message being rephrased.
	RoleAuthor Role = "author"
	// RoleCounterpart is anyone else in the conversation.
	RoleCounterpart Role = "counterpart"
)

// ConversationTurn is one prior utterance supplied by the client. Turns are
// built per request and never persisted.
type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts both {role,text} and the {role,content} shape used by
// chat front-ends. "user" and "author" map to RoleAuthor; anything else is a
// counterpart.
func (t *ConversationTurn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string `json:"role"`
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Role = ParseRole(raw.Role)
	t.Text = raw.Text
	if t.Text == "" {
		t.Text = raw.Content
	}
	return nil
}

// ParseRole normalizes a client supplied role label.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "author", "me":
		return RoleAuthor
	default:
		return RoleCounterpart
	}
}

// LastTurns returns at most n trailing turns. n <= 0 returns all turns.
func LastTurns(turns []ConversationTurn, n int) []ConversationTurn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
