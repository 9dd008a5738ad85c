// Package app wires the session, API client and domain services together.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/voicenotes/internal/apiclient"
	"github.com/and161185/voicenotes/internal/config"
	"github.com/and161185/voicenotes/internal/kv"
	"github.com/and161185/voicenotes/internal/limiter"
	"github.com/and161185/voicenotes/internal/service"
	"github.com/and161185/voicenotes/internal/session"
)

// App is the upstream application state: one session, one client, the services.
type App struct {
	Session *session.Session
	Client  *apiclient.Client

	Auth        *service.AuthServiceImpl
	Transcripts *service.TranscriptsServiceImpl
	Notes       *service.NotesServiceImpl
	Profile     *service.UserProfileServiceImpl

	store kv.StoreCloser
	log   *zap.Logger
	unsub []func()
}

// Options configures New beyond the config file.
type Options struct {
	// Client overrides the HTTP client built from the config.
	Client apiclient.Option
	// OnSessionExpired runs after the session is invalidated and the cache dropped.
	OnSessionExpired func()
}

// Open builds an App from cfg, opening the configured store.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	store, err := kv.Open(ctx, cfg.Store())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return New(ctx, cfg, store, log, opts), nil
}

// New builds an App over an already opened store; Close closes it.
func New(ctx context.Context, cfg *config.Config, store kv.StoreCloser, log *zap.Logger, opts Options) *App {
	if log == nil {
		log = zap.NewNop()
	}
	sess := session.New(ctx, store, log.Named("session"))

	copts := []apiclient.Option{
		apiclient.WithLogger(log.Named("api")),
		apiclient.WithThrottle(limiter.NewRate(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		apiclient.WithHTTPClient(apiclient.NewHTTPClient(cfg.HTTPTimeout, log.Named("http"))),
	}
	if opts.Client != nil {
		copts = append(copts, opts.Client)
	}
	client := apiclient.New(cfg.BaseURL, sess, copts...)

	a := &App{
		Session:     sess,
		Client:      client,
		Auth:        service.NewAuthService(client, log.Named("auth")),
		Transcripts: service.NewTranscriptsService(client, store, cfg.TranscriptsCacheTTL, log.Named("transcripts")),
		Notes:       service.NewNotesService(client, log.Named("notes")),
		Profile:     service.NewUserProfileService(client),
		store:       store,
		log:         log,
	}

	a.unsub = append(a.unsub, sess.Subscribe(func(authenticated bool) {
		// a new sign-in may be a different account
		if authenticated {
			a.log.Info("signed in, dropping cached transcripts")
		} else {
			a.log.Info("session ended, dropping cached transcripts")
		}
		if err := a.Transcripts.ClearCache(context.Background()); err != nil {
			a.log.Warn("failed to clear transcripts cache", zap.Error(err))
		}
		if !authenticated && opts.OnSessionExpired != nil {
			opts.OnSessionExpired()
		}
	}))
	return a
}

// Logout ends the session locally and drops user data cached on this device.
func (a *App) Logout(ctx context.Context) error {
	return errors.Join(
		a.Auth.Logout(ctx),
		a.Transcripts.ClearCache(ctx),
	)
}

// Close unsubscribes from the session and closes the store.
func (a *App) Close() error {
	for _, u := range a.unsub {
		u()
	}
	a.unsub = nil
	return a.store.Close()
}
