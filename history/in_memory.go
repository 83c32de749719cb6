package history

import (
	"context"
	"sync"

	"github.com/hupe1980/rephrase/core"
)

// InMemoryStore is a volatile Store kept in a process local slice. It is safe
// for concurrent use and suited to tests and demo servers. Returned messages
// are copies.
type InMemoryStore struct {
	opts Options

	mu       sync.RWMutex
	messages []*core.Message
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	return &InMemoryStore{opts: DefaultOptions(optFns...)}
}

// Append implements Store.
func (s *InMemoryStore) Append(ctx context.Context, sender, text string) (*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := s.opts.NewMessage(sender, text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return clone(msg), nil
}

// List implements Store.
func (s *InMemoryStore) List(ctx context.Context) ([]*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, clone(m))
	}
	return out, nil
}
