package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/rephrase/core"
)

var (
	// ErrPersist wraps every failure to durably record or read the log.
	ErrPersist = errors.New("history persistence failed")
	// ErrEmptyText is returned when appending a blank message.
	ErrEmptyText = errors.New("message text must not be empty")
)

// DefaultSender is recorded when a send names no sender.
const DefaultSender = "user"

// Store is an append-only message log.
type Store interface {
	// Append records a message and returns it with id and timestamp assigned.
	Append(ctx context.Context, sender, text string) (*core.Message, error)
	// List returns every message in insertion order.
	List(ctx context.Context) ([]*core.Message, error)
}

// Options are shared by every backend.
type Options struct {
	// Clock stamps new messages. Defaults to time.Now.
	Clock func() time.Time
	// NewID assigns message ids. Defaults to random UUIDs.
	NewID func() string
}

// DefaultOptions applies optFns on top of the defaults.
func DefaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Clock: time.Now,
		NewID: uuid.NewString,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// NewMessage validates input and builds the record a backend persists.
func (o Options) NewMessage(sender, text string) (*core.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if strings.TrimSpace(sender) == "" {
		sender = DefaultSender
	}
	return &core.Message{
		ID:        o.NewID(),
		Sender:    sender,
		Text:      text,
		Timestamp: o.Clock().UTC(),
	}, nil
}

// Persist wraps err as a persistence failure.
func Persist(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersist, op, err)
}

// Texts extracts message bodies, oldest first.
func Texts(msgs []*core.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func clone(m *core.Message) *core.Message {
	c := *m
	return &c
}
