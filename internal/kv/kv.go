// Package kv provides the persistent key-value store used for tokens and caches.
package kv

import (
	"context"
	"io"
	"sync"

	"github.com/and161185/voicenotes/internal/errs"
)

// Store is a durable string-keyed string store.
type Store interface {
	// Get returns the value for key or errs.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// StoreCloser is a Store that holds resources.
type StoreCloser interface {
	Store
	io.Closer
}

// Memory is an in-process Store. It does not survive restarts.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory { return &Memory{m: map[string]string{}} }

func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Memory) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

func (s *Memory) Close() error { return nil }
