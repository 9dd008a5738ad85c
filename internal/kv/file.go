package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/and161185/voicenotes/internal/errs"
)

// FileName is the document name used inside the config directory.
const FileName = "store.json"

// File keeps all keys in one JSON document, rewritten atomically on every change.
// Memory only reflects a change once the document has been renamed into place.
type File struct {
	path string

	mu     sync.Mutex
	loaded bool
	m      map[string]string
}

// NewFile returns a store backed by path. The file is created on first write.
func NewFile(path string) *File { return &File{path: path} }

// DefaultDir returns $XDG_CONFIG_HOME/voicenotes or ~/.config/voicenotes.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "voicenotes")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "voicenotes")
}

func (s *File) load() error {
	if s.loaded {
		return nil
	}
	b, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.m = map[string]string{}
	case err != nil:
		return fmt.Errorf("read store: %w", err)
	default:
		m := map[string]string{}
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("decode store: %w", err)
		}
		s.m = m
	}
	s.loaded = true
	return nil
}

func (s *File) flush(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()
	if err := f.Chmod(0o600); err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("chmod store: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}
	f.Close()
	return os.Rename(tmp, s.path)
}

func (s *File) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return "", err
	}
	v, ok := s.m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (s *File) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	next := maps.Clone(s.m)
	next[key] = value
	if err := s.flush(next); err != nil {
		return err
	}
	s.m = next
	return nil
}

func (s *File) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.m[key]; !ok {
		return nil
	}
	next := maps.Clone(s.m)
	delete(next, key)
	if err := s.flush(next); err != nil {
		return err
	}
	s.m = next
	return nil
}

func (s *File) Close() error { return nil }
