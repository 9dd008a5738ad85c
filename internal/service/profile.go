package service

import (
	"context"
	"net/http"

	"github.com/and161185/voicenotes/internal/model"
)

// UserProfileService reads and replaces the profile document.
type UserProfileService interface {
	GetUserProfile(ctx context.Context) (*model.User, error)
	UpdateUserProfile(ctx context.Context, p model.UserProfile) (*model.User, error)
}

type UserProfileServiceImpl struct {
	api API
}

// NewUserProfileService constructs UserProfileService.
func NewUserProfileService(api API) *UserProfileServiceImpl {
	return &UserProfileServiceImpl{api: api}
}

const profilePath = "/users/profile"

// GetUserProfile fetches the current user.
func (s *UserProfileServiceImpl) GetUserProfile(ctx context.Context) (*model.User, error) {
	u, err := fetch[model.User](ctx, s.api, http.MethodGet, profilePath, nil, "failed to fetch user profile")
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserProfile sends the whole profile and returns the stored user.
func (s *UserProfileServiceImpl) UpdateUserProfile(ctx context.Context, p model.UserProfile) (*model.User, error) {
	if err := p.Gender.Validate(); err != nil {
		return nil, err
	}
	u, err := fetch[model.User](ctx, s.api, http.MethodPut, profilePath, p, "failed to update user profile")
	if err != nil {
		return nil, err
	}
	return &u, nil
}
