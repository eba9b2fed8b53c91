// Copyright (c) 2026 Voxdesk. All rights reserved.

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anujmtekyz/voxdesk/internal/platform/sec"
	"github.com/anujmtekyz/voxdesk/internal/users/auth"
)

// memoryRotationStore is an in-memory RotationStore with the same
// compare-and-advance and tombstone semantics as the Redis implementation.
// A negative value marks a revoked chain that reached generation -(v)-1.
type memoryRotationStore struct {
	mu          sync.Mutex
	generations map[string]int64
}

func newMemoryRotationStore() *memoryRotationStore {
	return &memoryRotationStore{generations: make(map[string]int64)}
}

func (store *memoryRotationStore) Start(_ context.Context, userID string, _ time.Duration) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	start := int64(0)
	if current, ok := store.generations[userID]; ok {
		if current < 0 {
			start = -current
		} else {
			start = current + 1
		}
	}
	store.generations[userID] = start
	return start, nil
}

func (store *memoryRotationStore) Advance(_ context.Context, userID string, presented int64, _ time.Duration) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, ok := store.generations[userID]
	if !ok || current < 0 {
		return 0, auth.ErrRotationStateMissing
	}
	if current != presented {
		return 0, auth.ErrRotationConflict
	}
	store.generations[userID] = current + 1
	return current + 1, nil
}

func (store *memoryRotationStore) Revoke(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if current, ok := store.generations[userID]; ok && current >= 0 {
		store.generations[userID] = -(current + 1)
	}
	return nil
}

func newTestManager(t *testing.T, rotation auth.RotationStore) *auth.TokenManager {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "voxdesk.test")
	return auth.NewTokenManager(signer, rotation, auth.TokenManagerConfig{})
}

func testUser() *auth.User {
	return &auth.User{
		ID:       "user-1",
		Username: "ava",
		Role:     sec.RoleMember,
		IsActive: true,
	}
}

/*
TestTokenManager_IssueAndRefresh walks the happy path: issue, refresh, and a
second refresh with the rotated token.
*/
func TestTokenManager_IssueAndRefresh(t *testing.T) {
	rotation := newMemoryRotationStore()
	manager := newTestManager(t, rotation)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, generation, err := manager.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, int64(1), generation)

	rotated, err := manager.Mint(testUser(), generation)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, generation, err = manager.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(2), generation)
}

/*
TestTokenManager_ReuseDetection ensures a superseded refresh token fails with
ErrTokenReused and still reports the subject.
*/
func TestTokenManager_ReuseDetection(t *testing.T) {
	rotation := newMemoryRotationStore()
	manager := newTestManager(t, rotation)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)

	// First use rotates.
	_, _, err = manager.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// Second use of the same token is reuse.
	userID, _, err := manager.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenReused)
	assert.Equal(t, "user-1", userID)
}

/*
TestTokenManager_RevokedChain ensures a refresh after Revoke fails as invalid,
not as reuse.
*/
func TestTokenManager_RevokedChain(t *testing.T) {
	rotation := newMemoryRotationStore()
	manager := newTestManager(t, rotation)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, "user-1"))

	_, _, err = manager.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenManager_ReuseThenRevokeKillsRotatedToken models the theft scenario:
after reuse is detected and the chain revoked, the legitimately rotated token
is dead too.
*/
func TestTokenManager_ReuseThenRevokeKillsRotatedToken(t *testing.T) {
	rotation := newMemoryRotationStore()
	manager := newTestManager(t, rotation)
	ctx := context.Background()

	pair, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)

	_, generation, err := manager.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	rotated, err := manager.Mint(testUser(), generation)
	require.NoError(t, err)

	// Replay of the old token: reuse detected, caller revokes.
	userID, _, err := manager.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenReused)
	require.NoError(t, manager.Revoke(ctx, userID))

	// The rotated token was part of the same chain.
	_, _, err = manager.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenManager_FreshLoginReplacesChain ensures a new Issue invalidates
tokens from the previous chain.
*/
func TestTokenManager_FreshLoginReplacesChain(t *testing.T) {
	rotation := newMemoryRotationStore()
	manager := newTestManager(t, rotation)
	ctx := context.Background()

	first, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)

	// Fresh login opens a new chain past the old one.
	second, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)

	// The second login's token works.
	_, _, err = manager.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)

	// The first login's token belongs to the replaced chain.
	_, _, err = manager.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenReused)
}

/*
TestTokenManager_RevokeThenReloginOldTokenStaysDead ensures a token captured
before a logout never validates against a chain opened after it.
*/
func TestTokenManager_RevokeThenReloginOldTokenStaysDead(t *testing.T) {
	rotation := newMemoryRotationStore()
	manager := newTestManager(t, rotation)
	ctx := context.Background()

	captured, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, "user-1"))

	// Re-login continues the generation sequence past the revoked chain.
	fresh, err := manager.Issue(ctx, testUser())
	require.NoError(t, err)

	_, _, err = manager.Refresh(ctx, captured.RefreshToken)
	require.Error(t, err)

	_, _, err = manager.Refresh(ctx, fresh.RefreshToken)
	assert.NoError(t, err)
}
