// Copyright (c) 2026 Voxdesk. All rights reserved.

// Command smoke-auth exercises the session lifecycle against a running
// Voxdesk instance: login, authenticated fetch, refresh rotation, reuse
// rejection, and logout. Intended for post-deploy verification.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anujmtekyz/voxdesk/internal/client"
)

func main() {
	baseURL := os.Getenv("VOXDESK_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	login := os.Getenv("VOXDESK_SMOKE_LOGIN")
	password := os.Getenv("VOXDESK_SMOKE_PASSWORD")
	if login == "" || password == "" {
		log.Fatal("VOXDESK_SMOKE_LOGIN and VOXDESK_SMOKE_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apiClient, err := client.New(baseURL)
	if err != nil {
		log.Fatalf("construct client: %v", err)
	}

	// Login establishes the chain and the refresh cookie.
	session, err := apiClient.Login(ctx, login, password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		log.Fatal("login returned an incomplete token pair")
	}

	// The access token must authenticate an API call.
	user, err := apiClient.CurrentUser(ctx)
	if err != nil {
		log.Fatalf("fetch profile: %v", err)
	}

	// Rotation: each refresh must supersede the previous token.
	firstRefreshToken := session.RefreshToken
	rotated, err := apiClient.Refresh(ctx)
	if err != nil {
		log.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == firstRefreshToken {
		log.Fatal("refresh did not rotate the token")
	}

	// Replaying the superseded token must be rejected and revoke the chain.
	if err := replayRefresh(ctx, baseURL, firstRefreshToken); err == nil {
		log.Fatal("stale refresh token was accepted")
	}

	// The rotated token is part of the revoked chain now.
	if _, err := apiClient.Refresh(ctx); err == nil {
		log.Fatal("refresh succeeded after reuse-triggered revocation")
	}

	// Re-login and clean up.
	if _, err := apiClient.Login(ctx, login, password); err != nil {
		log.Fatalf("re-login after revocation: %v", err)
	}
	if err := apiClient.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}

	fmt.Printf("✅ auth smoke test passed: user=%s\n", user.ID)
}

// replayRefresh presents a specific refresh token from a separate cookie
// context, simulating a stolen credential.
func replayRefresh(ctx context.Context, baseURL, refreshToken string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/auth/refresh",
		strings.NewReader(fmt.Sprintf(`{"refreshToken":%q}`, refreshToken)))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := (&http.Client{Timeout: 15 * time.Second}).Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		return fmt.Errorf("refresh rejected: %d", response.StatusCode)
	}
	return nil
}
