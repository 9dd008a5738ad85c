package kv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/and161185/voicenotes/internal/crypto/sealbox"
	"github.com/and161185/voicenotes/internal/errs"
)

// SaltKey holds the Argon2id salt of a sealed store in the inner store.
const SaltKey = "seal_salt"

// Sealed encrypts every value before handing it to the inner store.
type Sealed struct {
	inner      Store
	passphrase []byte

	mu  sync.Mutex
	key []byte
}

// NewSealed wraps inner; the key is derived lazily on first access.
func NewSealed(inner Store, passphrase string) *Sealed {
	return &Sealed{inner: inner, passphrase: []byte(passphrase)}
}

func (s *Sealed) deriveKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return s.key, nil
	}

	var salt []byte
	enc, err := s.inner.Get(ctx, SaltKey)
	switch {
	case err == nil:
		salt, err = base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("decode seal salt: %w", err)
		}
	case errors.Is(err, errs.ErrNotFound):
		salt, err = sealbox.Rand(sealbox.SaltLen)
		if err != nil {
			return nil, err
		}
		if err := s.inner.Set(ctx, SaltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
			return nil, fmt.Errorf("store seal salt: %w", err)
		}
	default:
		return nil, err
	}

	s.key = sealbox.DeriveKey(s.passphrase, salt)
	return s.key, nil
}

func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	enc, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	k, err := s.deriveKey(ctx)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode sealed %q: %w", key, err)
	}
	pt, err := sealbox.Open(k, []byte(key), raw)
	if err != nil {
		return "", fmt.Errorf("open sealed %q: %w", key, err)
	}
	return string(pt), nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	k, err := s.deriveKey(ctx)
	if err != nil {
		return err
	}
	sealed, err := sealbox.Seal(k, []byte(key), []byte(value))
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

func (s *Sealed) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

// Close closes the inner store when it holds resources.
func (s *Sealed) Close() error {
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
