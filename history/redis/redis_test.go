package redis

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/rephrase/history"
	"github.com/hupe1980/rephrase/internal/testutil"
)

func TestStore_InProcess(t *testing.T) {
	mr := miniredis.RunT(t)

	testutil.RunHistoryStoreSuite(t, func(t *testing.T, optFns ...func(o *history.Options)) history.Store {
		s, err := Dial(context.Background(), "redis://"+mr.Addr(), func(o *Options) {
			o.Key = "rephrase:test:" + uuid.NewString()
			for _, fn := range optFns {
				fn(&o.Options)
			}
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_ListLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), func(o *Options) { o.Key = "chat" })
	defer s.Close()

	ctx := context.Background()
	for _, text := range []string{"first", "second", "third"} {
		_, err := s.Append(ctx, "alice", text)
		require.NoError(t, err)
	}

	raw, err := mr.List("chat")
	require.NoError(t, err)
	require.Len(t, raw, 3)
	assert.Contains(t, raw[0], `"message":"first"`)
	assert.Contains(t, raw[2], `"message":"third"`)

	msgs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, history.Texts(msgs))
}

func TestStore_CorruptRecord(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := mr.Push(DefaultKey, "{not json")
	require.NoError(t, err)

	s := New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	defer s.Close()

	_, err = s.List(context.Background())
	assert.ErrorIs(t, err, history.ErrPersist)
}

// Integration tests run against REDIS_URL and are skipped without it.
func redisURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	return url
}

func TestStore(t *testing.T) {
	url := redisURL(t)

	testutil.RunHistoryStoreSuite(t, func(t *testing.T, optFns ...func(o *history.Options)) history.Store {
		key := "rephrase:test:" + uuid.NewString()
		s, err := Dial(context.Background(), url, func(o *Options) {
			o.Key = key
			for _, fn := range optFns {
				fn(&o.Options)
			}
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.client.Del(context.Background(), key).Err()
			_ = s.Close()
		})
		return s
	})
}

func TestDial_BadURL(t *testing.T) {
	_, err := Dial(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestStore_Unreachable(t *testing.T) {
	s := New(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}))
	defer s.Close()

	_, err := s.Append(context.Background(), "alice", "hello")
	assert.ErrorIs(t, err, history.ErrPersist)

	_, err = s.List(context.Background())
	assert.ErrorIs(t, err, history.ErrPersist)
}
