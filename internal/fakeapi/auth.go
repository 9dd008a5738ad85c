package fakeapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/and161185/voicenotes/internal/crypto/sealbox"
	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/limiter"
	"github.com/and161185/voicenotes/internal/model"
)

var (
	errRateLimited = errors.New("too many failed logins")
	errValidation  = errors.New("validation")
)

// auth registers accounts and issues HS256 access tokens with single-use refresh tokens.
type auth struct {
	store     *store
	signKey   []byte
	accessTTL time.Duration
	cost      int
	lock      *limiter.Lockout
	now       func() time.Time
}

func (a *auth) register(req model.RegisterRequest) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", errValidation)
	}
	if err := req.Gender.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errValidation, err)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return nil, err
	}

	now := a.now().UTC()
	u := model.User{
		ID:        uid.String(),
		Email:     email,
		Name:      req.Name,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		NickName:  req.NickName,
		Language:  req.Language,
		Gender:    req.Gender,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.createUser(&account{user: u, hash: hash}); err != nil {
		return nil, err
	}
	return &u, nil
}

// login checks the lockout before the password so blocked accounts learn nothing.
func (a *auth) login(email, password string) (model.Tokens, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if ok, _ := a.lock.Allow(email); !ok {
		return model.Tokens{}, errRateLimited
	}

	acc, err := a.store.userByEmail(email)
	if err != nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		if blocked, _ := a.lock.Failure(email); blocked {
			return model.Tokens{}, errRateLimited
		}
		return model.Tokens{}, errs.ErrUnauthorized
	}
	a.lock.Success(email)
	return a.issue(uuid.FromStringOrNil(acc.user.ID))
}

// refresh rotates the pair: the presented refresh token stops working.
func (a *auth) refresh(token string) (model.Tokens, error) {
	uid, ok := a.store.takeRefresh(token)
	if !ok {
		return model.Tokens{}, errs.ErrUnauthorized
	}
	if _, err := a.store.userByID(uid); err != nil {
		return model.Tokens{}, errs.ErrUnauthorized
	}
	return a.issue(uid)
}

func (a *auth) issue(userID uuid.UUID) (model.Tokens, error) {
	now := a.now()
	exp := now.Add(a.accessTTL)
	jti, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, err
	}
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ID:        jti.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signKey)
	if err != nil {
		return model.Tokens{}, err
	}

	raw, err := sealbox.Rand(32)
	if err != nil {
		return model.Tokens{}, err
	}
	refresh := base64.RawURLEncoding.EncodeToString(raw)
	a.store.putRefresh(refresh, userID)

	return model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

// verify checks an HS256 access token and returns its subject.
func (a *auth) verify(tok string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return a.signKey, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("bad subject")
	}
	return id, nil
}

func bearerToken(header string) (string, bool) {
	v := strings.TrimSpace(header)
	if len(v) < 7 || !strings.EqualFold(v[:7], "bearer ") {
		return "", false
	}
	t := strings.TrimSpace(v[7:])
	return t, t != ""
}
