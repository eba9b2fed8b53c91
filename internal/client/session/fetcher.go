// Copyright (c) 2026 Voxdesk. All rights reserved.

package session

import (
	"context"

	"github.com/anujmtekyz/voxdesk/internal/client"
)

// APIFetcher adapts [*client.Client] to the [Fetcher] contract.
type APIFetcher struct {
	client *client.Client
}

// NewAPIFetcher wraps an API client for use by the [Controller].
func NewAPIFetcher(c *client.Client) *APIFetcher {
	return &APIFetcher{client: c}
}

// CurrentUser implements [Fetcher].
func (f *APIFetcher) CurrentUser(ctx context.Context) (*User, error) {
	profile, err := f.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:          profile.ID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		Role:        profile.Role,
	}, nil
}

// Refresh implements [Fetcher].
func (f *APIFetcher) Refresh(ctx context.Context) error {
	_, err := f.client.Refresh(ctx)
	return err
}

// Logout implements [Fetcher].
func (f *APIFetcher) Logout(ctx context.Context) error {
	return f.client.Logout(ctx)
}

// Unauthorized implements [Fetcher].
func (f *APIFetcher) Unauthorized(err error) bool {
	return client.IsUnauthorized(err)
}
