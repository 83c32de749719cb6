package history

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/rephrase/core"
)

// JSONFileStore persists the log as a flat JSON array of
// {id, sender, message, timestamp} records. Every append rewrites the file
// through a temporary file and an atomic rename, so readers never see a
// partially written array. Appends are serialized by a mutex; the store
// assumes it is the only writer of path.
type JSONFileStore struct {
	path string
	opts Options

	mu sync.Mutex
}

// NewJSONFileStore opens (or lazily creates) the log at path. An existing
// file must hold a JSON array.
func NewJSONFileStore(path string, optFns ...func(o *Options)) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path, opts: DefaultOptions(optFns...)}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *JSONFileStore) Path() string { return s.path }

// Append implements Store.
func (s *JSONFileStore) Append(ctx context.Context, sender, text string) (*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := s.opts.NewMessage(sender, text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := s.write(append(msgs, msg)); err != nil {
		return nil, err
	}
	return clone(msg), nil
}

// List implements Store.
func (s *JSONFileStore) List(ctx context.Context) ([]*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *JSONFileStore) read() ([]*core.Message, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*core.Message{}, nil
	}
	if err != nil {
		return nil, Persist("read", err)
	}
	if len(data) == 0 {
		return []*core.Message{}, nil
	}

	var msgs []*core.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, Persist("decode", err)
	}
	if msgs == nil {
		msgs = []*core.Message{}
	}
	return msgs, nil
}

func (s *JSONFileStore) write(msgs []*core.Message) error {
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return Persist("encode", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Persist("mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return Persist("create temp", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Persist("write", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Persist("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return Persist("close", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return Persist("rename", err)
	}
	return nil
}
