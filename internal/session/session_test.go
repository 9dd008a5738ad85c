package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/kv"
	"github.com/and161185/voicenotes/internal/model"
)

type failingStore struct {
	kv.Store
	getErr error
	setErr error
}

func (f failingStore) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f failingStore) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func TestNew_LoadsPersistedTokensSynchronously(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, KeyTokens, `{"access_token":"A1","refresh_token":"R1"}`))

	s := New(ctx, store, nil)
	require.True(t, s.IsAuthenticated())
	tok, ok := s.Tokens()
	require.True(t, ok)
	require.Equal(t, "A1", tok.AccessToken)
	require.Equal(t, "R1", tok.RefreshToken)
}

func TestNew_NoOrBadPersistedTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	require.False(t, New(ctx, kv.NewMemory(), nil).IsAuthenticated())

	bad := kv.NewMemory()
	require.NoError(t, bad.Set(ctx, KeyTokens, "{oops"))
	require.False(t, New(ctx, bad, nil).IsAuthenticated())

	broken := failingStore{Store: kv.NewMemory(), getErr: errors.New("disk")}
	require.False(t, New(ctx, broken, nil).IsAuthenticated())
}

func TestSetTokens_PersistsTokensAndEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(ctx, store, nil)

	require.NoError(t, s.SetTokens(ctx, model.Tokens{AccessToken: "A1", RefreshToken: "R1"}, "a@b.com"))

	raw, err := store.Get(ctx, KeyTokens)
	require.NoError(t, err)
	require.JSONEq(t, `{"access_token":"A1","refresh_token":"R1"}`, raw)
	email, ok := s.StoredEmail(ctx)
	require.True(t, ok)
	require.Equal(t, "a@b.com", email)

	// no email leaves the stored one in place
	require.NoError(t, s.SetTokens(ctx, model.Tokens{AccessToken: "A2", RefreshToken: "R2"}, ""))
	email, _ = s.StoredEmail(ctx)
	require.Equal(t, "a@b.com", email)
}

func TestSetTokens_PersistFailureKeepsMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(ctx, failingStore{Store: kv.NewMemory(), setErr: errors.New("full")}, nil)

	err := s.SetTokens(ctx, model.Tokens{AccessToken: "A", RefreshToken: "R"}, "")
	require.Error(t, err)
	require.True(t, s.IsAuthenticated())
}

func TestSetTokens_ParsesJWTExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(ctx, kv.NewMemory(), nil)

	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, ok := s.ExpiresAt()
	require.False(t, ok)

	require.NoError(t, s.SetTokens(ctx, model.Tokens{AccessToken: signed, RefreshToken: "R"}, ""))
	got, ok := s.ExpiresAt()
	require.True(t, ok)
	require.True(t, got.Equal(exp))
}

func TestClearTokens_RemovesEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(ctx, store, nil)
	require.NoError(t, s.SetTokens(ctx, model.Tokens{AccessToken: "A", RefreshToken: "R"}, "a@b.com"))

	require.NoError(t, s.ClearTokens(ctx))
	require.False(t, s.IsAuthenticated())
	_, err := store.Get(ctx, KeyTokens)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, ok := s.StoredEmail(ctx)
	require.False(t, ok)
}

func TestStoredEmail_SwallowsErrors(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), failingStore{Store: kv.NewMemory(), getErr: errors.New("io")}, nil)
	email, ok := s.StoredEmail(context.Background())
	require.False(t, ok)
	require.Empty(t, email)
}

func TestSubscribe_AllSubscribersNotifiedAndUnsubscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(ctx, kv.NewMemory(), nil)
	require.NoError(t, s.SetTokens(ctx, model.Tokens{AccessToken: "A", RefreshToken: "R"}, ""))

	var a, b []bool
	unsubA := s.Subscribe(func(v bool) { a = append(a, v) })
	s.Subscribe(func(v bool) { b = append(b, v) })

	s.Invalidate(ctx)
	require.Equal(t, []bool{false}, a)
	require.Equal(t, []bool{false}, b)
	require.False(t, s.IsAuthenticated())

	unsubA()
	unsubA()
	s.Invalidate(ctx)
	require.Equal(t, []bool{false}, a)
	require.Equal(t, []bool{false, false}, b)
}

func TestSetTokens_SignInNotifiesRotationDoesNot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(ctx, kv.NewMemory(), nil)

	var seen []bool
	s.Subscribe(func(v bool) { seen = append(seen, v) })

	require.NoError(t, s.SetTokens(ctx, model.Tokens{AccessToken: "A1", RefreshToken: "R1"}, "a@b.com"))
	require.Equal(t, []bool{true}, seen)

	require.NoError(t, s.SetTokens(ctx, model.Tokens{AccessToken: "A2", RefreshToken: "R2"}, ""))
	require.Equal(t, []bool{true}, seen)

	failing := New(ctx, failingStore{Store: kv.NewMemory(), setErr: errors.New("full")}, nil)
	var none []bool
	failing.Subscribe(func(v bool) { none = append(none, v) })
	require.Error(t, failing.SetTokens(ctx, model.Tokens{AccessToken: "A", RefreshToken: "R"}, "a@b.com"))
	require.Empty(t, none)
}
