// Package suggest offers autocomplete continuations for a partially typed
// message, learned from the author's sent history with a trigram model.
package suggest

import (
	"strings"
)

// DefaultMaxWords bounds a completion when the caller passes zero.
const DefaultMaxWords = 10

type prefix [2]string

// Model is a trigram successor table. It is immutable once built.
type Model struct {
	next map[prefix]map[string]int
}

// Build trains a model from message texts. Messages shorter than three
// tokens carry no trigram and are ignored.
func Build(messages []string) *Model {
	m := &Model{next: make(map[prefix]map[string]int)}
	for _, msg := range messages {
		tokens := Normalize(msg)
		for i := 0; i+2 < len(tokens); i++ {
			p := prefix{tokens[i], tokens[i+1]}
			if m.next[p] == nil {
				m.next[p] = make(map[string]int)
			}
			m.next[p][tokens[i+2]]++
		}
	}
	return m
}

// Len reports the number of distinct prefixes.
func (m *Model) Len() int { return len(m.next) }

// Complete greedily extends the last two words of input with their most
// frequent successor. Ties go to the lexicographically smallest word so the
// result is stable across runs. It returns "" when input has fewer than two
// words or its tail was never seen.
func (m *Model) Complete(input string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	tokens := Normalize(input)
	if len(tokens) < 2 {
		return ""
	}

	p := prefix{tokens[len(tokens)-2], tokens[len(tokens)-1]}
	var out []string
	for len(out) < maxWords {
		word, ok := m.best(p)
		if !ok {
			break
		}
		out = append(out, word)
		p = prefix{p[1], word}
	}
	return strings.Join(out, " ")
}

func (m *Model) best(p prefix) (string, bool) {
	var (
		word  string
		count int
	)
	for w, c := range m.next[p] {
		if c > count || (c == count && w < word) {
			word, count = w, c
		}
	}
	return word, count > 0
}

// Complete builds a throwaway model from messages and completes input.
func Complete(messages []string, input string, maxWords int) string {
	return Build(messages).Complete(input, maxWords)
}

// Normalize lowercases text, drops everything except ASCII letters, digits
// and whitespace, and splits on whitespace.
func Normalize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
