// Package session holds the authenticated state shared by the API client and services.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/kv"
	"github.com/and161185/voicenotes/internal/model"
)

// Persisted keys.
const (
	KeyTokens = "auth_tokens"
	KeyEmail  = "user_email"
)

// Session owns the token pair and announces unilateral invalidation to subscribers.
// It is safe for concurrent use.
type Session struct {
	store kv.Store
	log   *zap.Logger

	mu     sync.RWMutex
	tokens model.Tokens

	subMu  sync.Mutex
	subs   map[uint64]func(authenticated bool)
	nextID uint64
}

// New constructs a Session and loads persisted tokens before returning,
// so IsAuthenticated is accurate immediately. A failed load is logged and
// leaves the session logged out.
func New(ctx context.Context, store kv.Store, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{store: store, log: log, subs: map[uint64]func(bool){}}
	if err := s.load(ctx); err != nil && !errors.Is(err, errs.ErrNotFound) {
		log.Warn("failed to load tokens", zap.Error(err))
	}
	return s
}

func (s *Session) load(ctx context.Context) error {
	raw, err := s.store.Get(ctx, KeyTokens)
	if err != nil {
		return err
	}
	var t model.Tokens
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return fmt.Errorf("decode tokens: %w", err)
	}
	if t.Empty() {
		return nil
	}
	t.ExpiresAt = model.AccessExpiry(t.AccessToken)

	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return nil
}

// Tokens returns a copy of the held tokens and whether any are held.
func (s *Session) Tokens() (model.Tokens, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens, !s.tokens.Empty()
}

// IsAuthenticated reports whether tokens are held in memory. It is not validated server-side.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.Tokens()
	return ok
}

// ExpiresAt returns the access token expiry when it is a JWT carrying exp.
func (s *Session) ExpiresAt() (time.Time, bool) {
	t, ok := s.Tokens()
	if !ok || t.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return t.ExpiresAt, true
}

// SetTokens replaces the in-memory tokens and persists them (and email, if non-empty).
// Memory is updated first, so requests built afterwards use the new token even if
// persisting fails. A non-empty email marks a sign-in: once persisted, subscribers
// are told authenticated=true. Token rotation passes no email and notifies nobody.
func (s *Session) SetTokens(ctx context.Context, t model.Tokens, email string) error {
	t.ExpiresAt = model.AccessExpiry(t.AccessToken)

	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()

	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyTokens, string(b)); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	if email != "" {
		if err := s.store.Set(ctx, KeyEmail, email); err != nil {
			return fmt.Errorf("persist email: %w", err)
		}
		s.notify(true)
	}
	return nil
}

// ClearTokens drops tokens from memory and removes persisted tokens and email.
func (s *Session) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = model.Tokens{}
	s.mu.Unlock()

	return errors.Join(
		s.store.Remove(ctx, KeyTokens),
		s.store.Remove(ctx, KeyEmail),
	)
}

// StoredEmail is a best-effort read of the email saved at login.
func (s *Session) StoredEmail(ctx context.Context) (string, bool) {
	v, err := s.store.Get(ctx, KeyEmail)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("failed to get stored email", zap.Error(err))
		}
		return "", false
	}
	return v, true
}

// Subscribe registers fn for auth status changes. Every subscriber is kept;
// the returned func removes this one.
func (s *Session) Subscribe(fn func(authenticated bool)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Session) notify(authenticated bool) {
	s.subMu.Lock()
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(authenticated)
	}
}

// Invalidate ends the session on the client's own decision: tokens are cleared
// and every subscriber is told authenticated=false.
func (s *Session) Invalidate(ctx context.Context) {
	if err := s.ClearTokens(ctx); err != nil {
		s.log.Warn("failed to clear persisted tokens", zap.Error(err))
	}
	s.notify(false)
}
