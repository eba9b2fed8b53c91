// Copyright (c) 2026 Voxdesk. All rights reserved.

package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anujmtekyz/voxdesk/internal/client"
)

// newTestServer serves a minimal slice of the API surface for transport tests.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body.Password != "correct horse" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"statusCode": 401,
				"message":    "Invalid login credentials",
			})
			return
		}

		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "rt-1", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "at-1",
			"refreshToken": "rt-1",
			"user":         map[string]string{"id": "user-1", "username": "ava"},
		})
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"statusCode": 401,
				"message":    "Invalid or expired token",
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "username": "ava"})
	})

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("refresh_token")
		if err != nil || cookie.Value != "rt-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"statusCode": 401,
				"message":    "Invalid or expired refresh token",
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "at-2",
			"refreshToken": "rt-2",
			"user":         map[string]string{"id": "user-1"},
		})
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

/*
TestClient_LoginAndProfile verifies the bearer header plumbing and the cookie
jar round trip.
*/
func TestClient_LoginAndProfile(t *testing.T) {
	server := newTestServer(t)
	apiClient, err := client.New(server.URL)
	require.NoError(t, err)

	session, err := apiClient.Login(context.Background(), "ava", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "at-1", session.AccessToken)
	assert.Equal(t, "at-1", apiClient.AccessToken())
	require.NotNil(t, session.User)
	assert.Equal(t, "user-1", session.User.ID)

	user, err := apiClient.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ava", user.Username)

	// The refresh cookie from login travels via the jar.
	refreshed, err := apiClient.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-2", refreshed.AccessToken)
	assert.Equal(t, "at-2", apiClient.AccessToken())
}

/*
TestClient_ErrorEnvelope verifies non-2xx responses decode into [client.APIError].
*/
func TestClient_ErrorEnvelope(t *testing.T) {
	server := newTestServer(t)
	apiClient, err := client.New(server.URL)
	require.NoError(t, err)

	_, err = apiClient.Login(context.Background(), "ava", "wrong")
	require.Error(t, err)

	apiErr, ok := err.(*client.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
	assert.True(t, client.IsUnauthorized(err))
	assert.Empty(t, apiClient.AccessToken())
}

/*
TestClient_Logout verifies logout clears the held access token even when the
server declines.
*/
func TestClient_Logout(t *testing.T) {
	server := newTestServer(t)
	apiClient, err := client.New(server.URL)
	require.NoError(t, err)

	_, err = apiClient.Login(context.Background(), "ava", "correct horse")
	require.NoError(t, err)

	require.NoError(t, apiClient.Logout(context.Background()))
	assert.Empty(t, apiClient.AccessToken())
}

/*
TestIsUnauthorized distinguishes credential rejections from other failures.
*/
func TestIsUnauthorized(t *testing.T) {
	assert.True(t, client.IsUnauthorized(&client.APIError{StatusCode: 401}))
	assert.False(t, client.IsUnauthorized(&client.APIError{StatusCode: 500}))
	assert.False(t, client.IsUnauthorized(context.Canceled))
	assert.False(t, client.IsUnauthorized(nil))
}
