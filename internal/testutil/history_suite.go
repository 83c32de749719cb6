package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/history"
)

// HistoryFactory builds an empty store wired to the given options.
type HistoryFactory func(t *testing.T, optFns ...func(o *history.Options)) history.Store

// RunHistoryStoreSuite exercises the behavior every history backend must
// share: assigned ids and timestamps, insertion order, unmodified round
// trips, input validation and serialized concurrent appends.
func RunHistoryStoreSuite(t *testing.T, newStore HistoryFactory) {
	t.Helper()

	t.Run("round trip in append order", func(t *testing.T) {
		clock := NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
		n := 0
		s := newStore(t, func(o *history.Options) {
			o.Clock = clock.Tick(time.Second)
			o.NewID = func() string { n++; return fmt.Sprintf("msg-%d", n) }
		})
		ctx := context.Background()

		first, err := s.Append(ctx, "alice", "Can we move the standup?")
		require.NoError(t, err)
		second, err := s.Append(ctx, "bob", "Sure, 10:30 works 👍")
		require.NoError(t, err)

		assert.Equal(t, "msg-1", first.ID)
		assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 1, 0, time.UTC), second.Timestamp)

		got, err := s.List(ctx)
		require.NoError(t, err)

		want := []*core.Message{first, second}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("default sender", func(t *testing.T) {
		s := newStore(t)
		msg, err := s.Append(context.Background(), "  ", "hello")
		require.NoError(t, err)
		assert.Equal(t, history.DefaultSender, msg.Sender)
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.Timestamp.IsZero())
	})

	t.Run("empty text rejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Append(context.Background(), "alice", " \n ")
		assert.ErrorIs(t, err, history.ErrEmptyText)

		msgs, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("empty list", func(t *testing.T) {
		msgs, err := newStore(t).List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("concurrent appends are atomic", func(t *testing.T) {
		s := newStore(t)
		const writers = 16

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.Append(context.Background(), "w", fmt.Sprintf("message %02d", i))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		msgs, err := s.List(context.Background())
		require.NoError(t, err)
		require.Len(t, msgs, writers)

		seen := make(map[string]bool)
		for _, m := range msgs {
			seen[m.Text] = true
		}
		assert.Len(t, seen, writers)
	})
}
