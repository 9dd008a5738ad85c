package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/voicenotes/internal/apiclient"
	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/model"
)

// AuthResult is what a successful login or registration yields.
type AuthResult struct {
	Email  string
	Tokens model.Tokens
}

// AuthService defines account and token operations.
type AuthService interface {
	// Login exchanges credentials for tokens and adopts them.
	Login(ctx context.Context, email, password string) (AuthResult, error)
	// Register creates an account and logs into it.
	Register(ctx context.Context, req model.RegisterRequest) (AuthResult, error)
	// Logout forgets tokens locally; no server call is made.
	Logout(ctx context.Context) error
	// RefreshTokens exchanges the held refresh token for a new pair.
	RefreshTokens(ctx context.Context) (model.Tokens, error)
	// IsAuthenticated reports whether tokens are held. It is not validated server-side.
	IsAuthenticated() bool
	// CurrentTokens returns the held tokens, if any.
	CurrentTokens() (model.Tokens, bool)
}

type AuthServiceImpl struct {
	api AuthAPI
	log *zap.Logger
}

// NewAuthService constructs AuthService over the API client.
func NewAuthService(api AuthAPI, log *zap.Logger) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{api: api, log: log}
}

// Login posts credentials. Both bare and enveloped token bodies are accepted.
// Auth endpoints never enter the refresh cycle.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if email == "" || password == "" {
		return AuthResult{}, errors.New("validation: empty email/password")
	}
	tokens, err := fetch[model.Tokens](apiclient.NoRefresh(ctx), s.api, http.MethodPost, "/auth/login",
		model.LoginRequest{Email: email, Password: password}, "login failed")
	if err != nil {
		return AuthResult{}, err
	}
	if tokens.AccessToken == "" {
		return AuthResult{}, fmt.Errorf("login failed: %w", errs.ErrUnexpectedResponse)
	}

	if err := s.api.SetTokens(ctx, tokens, email); err != nil {
		// roll back so a failed login never leaves tokens behind
		_ = s.api.ClearTokens(ctx)
		return AuthResult{}, fmt.Errorf("store tokens: %w", err)
	}
	s.log.Info("logged in")
	return AuthResult{Email: email, Tokens: tokens}, nil
}

// Register creates the account, then logs in with the same credentials.
// A failing auto-login yields an error matching errs.ErrAutoLoginFailed and sets no tokens.
func (s *AuthServiceImpl) Register(ctx context.Context, req model.RegisterRequest) (AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return AuthResult{}, errors.New("validation: empty email/password")
	}
	if err := req.Gender.Validate(); err != nil {
		return AuthResult{}, err
	}
	if err := exec(apiclient.NoRefresh(ctx), s.api, http.MethodPost, "/auth/register", req, "registration failed"); err != nil {
		return AuthResult{}, err
	}
	s.log.Info("registered, logging in")

	res, err := s.Login(ctx, req.Email, req.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: %w", errs.ErrAutoLoginFailed, err)
	}
	return res, nil
}

// Logout clears tokens locally.
func (s *AuthServiceImpl) Logout(ctx context.Context) error {
	if err := s.api.ClearTokens(ctx); err != nil {
		s.log.Warn("logout: failed to clear persisted tokens", zap.Error(err))
		return err
	}
	return nil
}

// RefreshTokens fails fast with errs.ErrNoRefreshToken when none is held.
func (s *AuthServiceImpl) RefreshTokens(ctx context.Context) (model.Tokens, error) {
	cur, ok := s.api.Tokens()
	if !ok || cur.RefreshToken == "" {
		return model.Tokens{}, errs.ErrNoRefreshToken
	}

	resp, err := s.api.Do(apiclient.NoRefresh(ctx), http.MethodPost, apiclient.RefreshPath,
		map[string]string{"refresh_token": cur.RefreshToken})
	if err != nil {
		return model.Tokens{}, err
	}
	if !resp.OK() {
		return model.Tokens{}, &errs.APIError{StatusCode: resp.StatusCode, Message: "token refresh failed"}
	}
	var t model.Tokens
	if err := resp.Decode(&t); err != nil {
		return model.Tokens{}, fmt.Errorf("token refresh failed: %w", err)
	}
	if t.AccessToken == "" {
		return model.Tokens{}, fmt.Errorf("token refresh failed: %w", errs.ErrUnexpectedResponse)
	}
	if t.RefreshToken == "" {
		t.RefreshToken = cur.RefreshToken
	}
	if err := s.api.SetTokens(ctx, t, ""); err != nil {
		return model.Tokens{}, fmt.Errorf("store tokens: %w", err)
	}
	return t, nil
}

// IsAuthenticated reports whether tokens are held in memory.
func (s *AuthServiceImpl) IsAuthenticated() bool {
	_, ok := s.api.Tokens()
	return ok
}

// CurrentTokens returns the held tokens.
func (s *AuthServiceImpl) CurrentTokens() (model.Tokens, bool) {
	return s.api.Tokens()
}
