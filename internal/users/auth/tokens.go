// Copyright (c) 2026 Voxdesk. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anujmtekyz/voxdesk/internal/platform/sec"
)

// ErrTokenReused signals presentation of an already-superseded refresh token.
//
// A benign race (double-submission of a refresh) is indistinguishable from a
// replayed stolen token, so both fail closed: the caller is expected to
// revoke the whole chain for the subject.
var ErrTokenReused = errors.New("auth: refresh token reused")

// TokenSigner is the signing contract the manager needs from [sec.TokenService].
type TokenSigner interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
	GenerateRefreshToken(userID string, generation int64, timeToLive time.Duration) (string, error)
	VerifyAccessToken(tokenString string) (*sec.AuthClaims, error)
	VerifyRefreshToken(tokenString string) (*sec.RefreshClaims, error)
}

// TokenManager owns the session-token lifecycle: issuance, stateless access
// validation, refresh-token rotation with reuse detection, and revocation.
//
// # Rotation design
//
// Access tokens are stateless so per-request authorization stays cheap.
// Refresh tokens carry an incrementing generation claim and are rotated on
// every use; the latest generation per subject lives in the [RotationStore].
// A captured-and-replayed refresh token is therefore detectable by generation
// mismatch without maintaining a token blacklist.
type TokenManager struct {
	signer     TokenSigner
	rotation   RotationStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// TokenManagerConfig overrides the default token lifetimes. Zero values fall
// back to [AccessTokenTTL] and [RefreshTokenTTL].
type TokenManagerConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// NewTokenManager constructs a [TokenManager] with its dependencies.
func NewTokenManager(signer TokenSigner, rotation RotationStore, cfg TokenManagerConfig) *TokenManager {
	accessTTL := cfg.AccessTokenTTL
	if accessTTL == 0 {
		accessTTL = AccessTokenTTL
	}

	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL == 0 {
		refreshTTL = RefreshTokenTTL
	}

	return &TokenManager{
		signer:     signer,
		rotation:   rotation,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue starts a fresh rotation chain for the user and mints the initial
// token pair. Any previous chain for the subject is replaced; its tokens can
// never match the new chain's generations.
func (manager *TokenManager) Issue(ctx context.Context, user *User) (*TokenPair, error) {
	generation, err := manager.rotation.Start(ctx, user.ID, manager.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("token_manager_start_rotation_failed: %w", err)
	}

	return manager.Mint(user, generation)
}

// Mint signs a new access/refresh pair at the given rotation generation.
//
// Minting is pure: it performs no store access and assumes the caller has
// already established the generation in the rotation chain.
func (manager *TokenManager) Mint(user *User, generation int64) (*TokenPair, error) {
	accessToken, err := manager.signer.GenerateAccessToken(user.ID, user.Username, string(user.Role), manager.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("token_manager_access_token_failed: %w", err)
	}

	refreshToken, err := manager.signer.GenerateRefreshToken(user.ID, generation, manager.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("token_manager_refresh_token_failed: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: time.Now().Add(manager.refreshTTL),
	}, nil
}

// Refresh validates a presented refresh token and advances the rotation chain.
//
// # Returns
//   - userID: the verified subject, available even when the error is
//     [ErrTokenReused] so the caller can revoke the chain.
//   - generation: the advanced generation to mint the next pair with.
//   - error: [sec.ErrTokenInvalid], [sec.ErrTokenExpired], or [ErrTokenReused].
//
// # Atomicity
//
// The compare-and-advance happens inside the store; of two concurrent calls
// presenting the same stale token, exactly one wins. The loser surfaces
// [ErrTokenReused].
func (manager *TokenManager) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := manager.signer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", 0, err
	}

	newGeneration, err := manager.rotation.Advance(ctx, claims.UserID, claims.Generation, manager.refreshTTL)
	if err != nil {
		switch {
		case errors.Is(err, ErrRotationConflict):
			return claims.UserID, 0, ErrTokenReused
		case errors.Is(err, ErrRotationStateMissing):
			// Chain revoked or never started: invalid, not reuse.
			return claims.UserID, 0, sec.ErrTokenInvalid
		default:
			return "", 0, fmt.Errorf("token_manager_advance_failed: %w", err)
		}
	}

	return claims.UserID, newGeneration, nil
}

// ValidateAccess verifies an access token. Pure signature + expiry + type
// check, no store lookup.
func (manager *TokenManager) ValidateAccess(accessToken string) (*sec.AuthClaims, error) {
	return manager.signer.VerifyAccessToken(accessToken)
}

// Revoke invalidates every refresh-token generation for a subject
// (logout-everywhere, or triggered by reuse detection).
func (manager *TokenManager) Revoke(ctx context.Context, userID string) error {
	if err := manager.rotation.Revoke(ctx, userID); err != nil {
		return fmt.Errorf("token_manager_revoke_failed: %w", err)
	}
	return nil
}
