// Copyright (c) 2026 Voxdesk. All rights reserved.

/*
Package client provides a Go client for the Voxdesk API.

It mirrors what the browser app does: the refresh token travels in an
HttpOnly cookie managed by the jar, the access token is held in memory and
sent as a Bearer header. The client is the transport used by the session
controller and by smoke tooling.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// APIError is a decoded error envelope from the server.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// User is the client-side view of a user profile.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// Session is the payload returned by login and refresh.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

// Client talks to the Voxdesk API.
//
// # Concurrency
//
// Client is safe for concurrent use; the access token is read and replaced
// whole under the callers' happens-before (the session controller serializes
// refreshes).
type Client struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. The cookie jar is
// still installed when the given client has none.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New constructs a [Client] for the given base URL.
func New(baseURL string, options ...Option) (*Client, error) {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}

	for _, option := range options {
		option(client)
	}

	if client.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client_cookie_jar_failed: %w", err)
		}
		client.httpClient.Jar = jar
	}

	return client, nil
}

// AccessToken returns the in-memory access token, empty before login.
func (c *Client) AccessToken() string {
	return c.accessToken
}

// SetAccessToken replaces the in-memory access token.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// # Auth Operations

// Login authenticates and stores the returned access token. The refresh
// cookie lands in the jar.
func (c *Client) Login(ctx context.Context, login, password string) (*Session, error) {
	session := &Session{}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"login":    login,
		"password": password,
	}, session)
	if err != nil {
		return nil, err
	}

	c.accessToken = session.AccessToken
	return session, nil
}

// Refresh rotates the session using the refresh cookie in the jar and stores
// the new access token.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	session := &Session{}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", struct{}{}, session); err != nil {
		return nil, err
	}

	c.accessToken = session.AccessToken
	return session, nil
}

// Logout revokes the session server-side and drops the local access token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.accessToken = ""
	return err
}

// CurrentUser fetches the authenticated profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	user := &User{}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ForgotPassword starts the password recovery flow.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword completes the password recovery flow.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", map[string]string{
		"token":    token,
		"password": password,
	}, nil)
}

// ChangePassword updates the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/users/me/change-password", map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}

// # Transport

// do executes one JSON round trip. A non-2xx response decodes into [APIError].
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client_encode_failed: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client_request_failed: %w", err)
	}

	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("client_transport_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: response.StatusCode}
		if err := json.NewDecoder(response.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(response.StatusCode)
		}
		return apiErr
	}

	if target == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("client_decode_failed: %w", err)
	}

	return nil
}

// IsUnauthorized reports whether err is an [APIError] with status 401.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}
