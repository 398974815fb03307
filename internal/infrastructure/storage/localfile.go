package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const localFile = "state.json"

// LocalFileStore is the plain key-value backend for ordinary local state
// (active location id, tool-cart draft). Values are stored as-is in a small
// JSON document.
type LocalFileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewLocalFileStore opens (or creates) the state file in dir.
func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create state dir: %w", err)
	}

	s := &LocalFileStore{
		path:   filepath.Join(dir, localFile),
		values: map[string]string{},
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run.
	case err != nil:
		return nil, fmt.Errorf("storage: read state file: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.values); err != nil {
			return nil, fmt.Errorf("storage: parse state file: %w", err)
		}
	}
	return s, nil
}

func (s *LocalFileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *LocalFileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

func (s *LocalFileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flushLocked()
}

func (s *LocalFileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode state file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("storage: write state file: %w", err)
	}
	return nil
}
