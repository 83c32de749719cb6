// Package redis provides a history.Store backed by a Redis list. Each append
// is a single RPUSH, which Redis executes atomically, so concurrent writers
// from several processes never interleave records.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/history"
)

// DefaultKey is the list holding the log.
const DefaultKey = "rephrase:history"

var _ history.Store = (*Store)(nil)

// Options configure the Redis store.
type Options struct {
	history.Options
	Key string
}

// Store keeps the message log in one Redis list.
type Store struct {
	client goredis.UniversalClient
	opts   Options
}

// New wraps an existing client.
func New(client goredis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{Options: history.DefaultOptions(), Key: DefaultKey}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

// Dial parses a redis:// URL, connects and pings the server.
func Dial(ctx context.Context, url string, optFns ...func(o *Options)) (*Store, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	c := goredis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, history.Persist("ping", err)
	}
	return New(c, optFns...), nil
}

// Append implements history.Store.
func (s *Store) Append(ctx context.Context, sender, text string) (*core.Message, error) {
	msg, err := s.opts.NewMessage(sender, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, history.Persist("encode", err)
	}
	if err := s.client.RPush(ctx, s.opts.Key, data).Err(); err != nil {
		return nil, history.Persist("rpush", err)
	}
	return msg, nil
}

// List implements history.Store.
func (s *Store) List(ctx context.Context) ([]*core.Message, error) {
	raw, err := s.client.LRange(ctx, s.opts.Key, 0, -1).Result()
	if err != nil {
		return nil, history.Persist("lrange", err)
	}

	msgs := make([]*core.Message, 0, len(raw))
	for _, r := range raw {
		var m core.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, history.Persist("decode", err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
