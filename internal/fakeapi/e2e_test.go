package fakeapi_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/and161185/voicenotes/internal/apiclient"
	"github.com/and161185/voicenotes/internal/app"
	"github.com/and161185/voicenotes/internal/config"
	"github.com/and161185/voicenotes/internal/fakeapi"
	"github.com/and161185/voicenotes/internal/kv"
	"github.com/and161185/voicenotes/internal/model"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newApp(t *testing.T, baseURL string, expired *atomic.Int32) *app.App {
	t.Helper()
	cfg := &config.Config{
		BaseURL:             baseURL,
		HTTPTimeout:         5 * time.Second,
		RateLimitBurst:      1,
		TranscriptsCacheTTL: 5 * time.Minute,
	}
	a := app.New(context.Background(), cfg, kv.NewMemory(), zaptest.NewLogger(t), app.Options{
		OnSessionExpired: func() { expired.Add(1) },
	})
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestEndToEnd(t *testing.T) {
	for _, envelope := range []bool{true, false} {
		name := "bare"
		if envelope {
			name = "enveloped"
		}
		t.Run(name, func(t *testing.T) {
			clk := &clock{t: time.Now()}
			srv := httptest.NewServer(fakeapi.New(fakeapi.Options{
				SignKey:    []byte("e2e"),
				AccessTTL:  time.Minute,
				Envelope:   envelope,
				BcryptCost: bcrypt.MinCost,
				Logger:     zaptest.NewLogger(t),
				Now:        clk.now,
			}).Handler())
			t.Cleanup(srv.Close)
			ctx := context.Background()

			var expired atomic.Int32
			a := newApp(t, srv.URL, &expired)

			res, err := a.Auth.Register(ctx, model.RegisterRequest{Email: "Ann@Example.com", Password: "pw", FirstName: "Ann"})
			require.NoError(t, err)
			require.Equal(t, "Ann@Example.com", res.Email)
			require.True(t, a.Auth.IsAuthenticated())

			u, err := a.Profile.GetUserProfile(ctx)
			require.NoError(t, err)
			require.Equal(t, "ann@example.com", u.Email)
			require.Equal(t, "Ann", u.FirstName)

			p := u.Profile()
			p.NickName = "annie"
			p.Gender = model.GenderFemale
			u, err = a.Profile.UpdateUserProfile(ctx, p)
			require.NoError(t, err)
			require.Equal(t, "annie", u.NickName)
			require.Equal(t, model.GenderFemale, u.Gender)

			tr, err := a.Transcripts.CreateTranscript(ctx, model.TranscriptCreate{
				Title:   "Standup",
				Content: "Shipped the parser. Next we fix the flaky test.",
			})
			require.NoError(t, err)
			require.NotEmpty(t, tr.ID)

			list, err := a.Transcripts.GetTranscripts(ctx, true)
			require.NoError(t, err)
			require.Len(t, list, 1)

			none, err := a.Notes.GetNoteByTranscriptID(ctx, tr.ID)
			require.NoError(t, err)
			require.Nil(t, none)

			n, err := a.Transcripts.GenerateNote(ctx, tr.ID)
			require.NoError(t, err)
			require.Equal(t, "Notes: Standup", n.Title)

			byTr, err := a.Notes.GetNoteByTranscriptID(ctx, tr.ID)
			require.NoError(t, err)
			require.Equal(t, n.ID, byTr.ID)

			qs, err := a.Notes.GenerateQuestions(ctx, n.ID)
			require.NoError(t, err)
			require.NotEmpty(t, qs)

			require.NoError(t, a.Notes.UpdateWithAnswer(ctx, n.ID, qs[0], "It parses notes."))
			n, err = a.Notes.GetNote(ctx, n.ID)
			require.NoError(t, err)
			require.Contains(t, n.Content, "A: It parses notes.")

			// access token expires server-side; the next call refreshes and replays
			stale, _ := a.Auth.CurrentTokens()
			clk.advance(2 * time.Minute)
			list, err = a.Transcripts.GetTranscripts(ctx, false)
			require.NoError(t, err)
			require.Len(t, list, 1)
			fresh, ok := a.Auth.CurrentTokens()
			require.True(t, ok)
			require.NotEqual(t, stale.AccessToken, fresh.AccessToken)
			require.NotEqual(t, stale.RefreshToken, fresh.RefreshToken)
			require.Zero(t, expired.Load())

			// a second device holding the rotated-out pair cannot refresh
			var otherExpired atomic.Int32
			other := newApp(t, srv.URL, &otherExpired)
			require.NoError(t, other.Client.SetTokens(ctx, stale, "ann@example.com"))
			_, err = other.Transcripts.GetTranscripts(ctx, false)
			require.True(t, apiclient.IsSessionExpired(err))
			require.False(t, other.Auth.IsAuthenticated())
			require.EqualValues(t, 1, otherExpired.Load())

			require.NoError(t, a.Transcripts.DeleteTranscript(ctx, tr.ID))
			list, err = a.Transcripts.GetTranscripts(ctx, true)
			require.NoError(t, err)
			require.Empty(t, list)
			gone, err := a.Notes.GetNoteByTranscriptID(ctx, tr.ID)
			require.NoError(t, err)
			require.Nil(t, gone)

			require.NoError(t, a.Logout(ctx))
			require.False(t, a.Auth.IsAuthenticated())
			require.Zero(t, expired.Load())
		})
	}
}

func TestEndToEnd_BadLoginDoesNotEndSession(t *testing.T) {
	srv := httptest.NewServer(fakeapi.New(fakeapi.Options{BcryptCost: bcrypt.MinCost}).Handler())
	t.Cleanup(srv.Close)
	ctx := context.Background()

	var expired atomic.Int32
	a := newApp(t, srv.URL, &expired)
	_, err := a.Auth.Register(ctx, model.RegisterRequest{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	_, err = a.Auth.Login(ctx, "a@b.com", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid credentials")
	require.False(t, apiclient.IsSessionExpired(err))
	require.Zero(t, expired.Load())
}

func TestEndToEnd_SwitchingAccountsDropsCachedTranscripts(t *testing.T) {
	srv := httptest.NewServer(fakeapi.New(fakeapi.Options{BcryptCost: bcrypt.MinCost}).Handler())
	t.Cleanup(srv.Close)
	ctx := context.Background()

	var expired atomic.Int32
	a := newApp(t, srv.URL, &expired)
	_, err := a.Auth.Register(ctx, model.RegisterRequest{Email: "b@x.com", Password: "pw"})
	require.NoError(t, err)
	_, err = a.Auth.Register(ctx, model.RegisterRequest{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = a.Transcripts.CreateTranscript(ctx, model.TranscriptCreate{Title: "A secret", Content: "private"})
	require.NoError(t, err)
	list, err := a.Transcripts.GetTranscripts(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = a.Auth.Login(ctx, "b@x.com", "pw")
	require.NoError(t, err)
	list, err = a.Transcripts.GetTranscripts(ctx, true)
	require.NoError(t, err)
	require.Empty(t, list)
	require.Zero(t, expired.Load())
}
