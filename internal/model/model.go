// Package model defines domain entities exchanged with the notes backend.
package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens is the bearer credential pair issued by login/register/refresh.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"-"` // access token expiry (for diagnostics)
}

// Empty reports whether no access token is present.
func (t Tokens) Empty() bool { return t.AccessToken == "" }

// AccessExpiry parses exp from the access token without verifying the signature.
// Opaque (non-JWT) tokens yield the zero time.
func AccessExpiry(access string) time.Time {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(access, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Transcript is a captured (typed or dictated) text owned by a user.
type Transcript struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	NoteID    string    `json:"note_id,omitempty"`
	Note      *Note     `json:"note,omitempty"` // denormalized when the backend embeds it
}

// Note is an AI-generated note derived from exactly one transcript.
type Note struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	UserID       string    `json:"user_id"`
	TranscriptID string    `json:"transcript_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// User is the account document returned by the profile endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	NickName  string    `json:"nick_name,omitempty"`
	Language  string    `json:"language,omitempty"`
	Gender    Gender    `json:"gender"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile is the editable part of User; it is always sent as a whole.
type UserProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	NickName  string `json:"nick_name"`
	Language  string `json:"language"`
	Gender    Gender `json:"gender"`
}

// Profile extracts the editable fields of u.
func (u User) Profile() UserProfile {
	return UserProfile{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		NickName:  u.NickName,
		Language:  u.Language,
		Gender:    u.Gender,
	}
}

// LoginRequest carries credentials for /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries account data for /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	NickName  string `json:"nick_name,omitempty"`
	Language  string `json:"language,omitempty"`
	Gender    Gender `json:"gender"`
}

// TranscriptCreate is the payload for creating a transcript.
type TranscriptCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TranscriptUpdate is a partial update; nil fields are left untouched.
type TranscriptUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// NoteUpdate is a partial update; nil fields are left untouched.
type NoteUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Answer appends a question/answer pair to a note.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Page is the paginated list envelope used by collection endpoints.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// CachedCollection is a timestamped snapshot of a collection.
type CachedCollection[T any] struct {
	Data      []T   `json:"data"`
	Timestamp int64 `json:"timestamp"` // epoch millis
}

// Valid reports whether the snapshot is younger than ttl at now.
func (c CachedCollection[T]) Valid(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-c.Timestamp < ttl.Milliseconds()
}
