// Package service contains the domain services layered over the API client.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/and161185/voicenotes/internal/apiclient"
	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/model"
)

// API sends requests to the backend. *apiclient.Client implements it.
type API interface {
	Do(ctx context.Context, method, path string, body any) (*apiclient.Response, error)
}

// TokenHolder owns the session tokens. *apiclient.Client implements it.
type TokenHolder interface {
	SetTokens(ctx context.Context, t model.Tokens, email string) error
	ClearTokens(ctx context.Context) error
	Tokens() (model.Tokens, bool)
}

// AuthAPI is what AuthService needs from the client.
type AuthAPI interface {
	API
	TokenHolder
}

var _ AuthAPI = (*apiclient.Client)(nil)

// fetch performs a request and decodes the normalized data on 2xx.
func fetch[T any](ctx context.Context, api API, method, path string, body any, fallback string) (T, error) {
	var out T
	resp, err := api.Do(ctx, method, path, body)
	if err != nil {
		return out, err
	}
	if err := resp.Err(fallback); err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, fmt.Errorf("%s: %w", fallback, err)
	}
	return out, nil
}

// exec performs a request whose 2xx body is ignored.
func exec(ctx context.Context, api API, method, path string, body any, fallback string) error {
	resp, err := api.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return resp.Err(fallback)
}

// decodeList accepts a bare array or a paginated {"data": [...]} object.
func decodeList[T any](resp *apiclient.Response) ([]T, error) {
	raw := bytes.TrimSpace(resp.Envelope.Data)
	if len(raw) > 0 && raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrUnexpectedResponse, err)
		}
		return list, nil
	}

	var page struct {
		Data json.RawMessage `json:"data"`
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errs.ErrUnexpectedResponse
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnexpectedResponse, err)
	}
	inner := bytes.TrimSpace(page.Data)
	if len(inner) == 0 || inner[0] != '[' {
		return nil, errs.ErrUnexpectedResponse
	}
	var list []T
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnexpectedResponse, err)
	}
	return list, nil
}
