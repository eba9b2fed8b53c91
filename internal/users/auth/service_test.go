// Copyright (c) 2026 Voxdesk. All rights reserved.

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anujmtekyz/voxdesk/internal/platform/apperr"
	"github.com/anujmtekyz/voxdesk/internal/platform/sec"
	"github.com/anujmtekyz/voxdesk/internal/users/auth"
)

// # Test Fakes

// memoryUserRepository is a map-backed UserRepository.
type memoryUserRepository struct {
	users map[string]*auth.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*auth.User)}
}

func (repo *memoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repo *memoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (repo *memoryUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User not found with this username")
}

func (repo *memoryUserRepository) Create(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user
	return nil
}

func (repo *memoryUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	if user, ok := repo.users[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repo *memoryUserRepository) SoftDelete(_ context.Context, id string) error {
	delete(repo.users, id)
	return nil
}

// memoryResetRegistry is a map-backed ResetTokenRegistry with real
// consume-once semantics.
type memoryResetRegistry struct {
	entries map[string]*resetEntry
}

type resetEntry struct {
	userID    string
	expiresAt time.Time
	consumed  bool
}

func newMemoryResetRegistry() *memoryResetRegistry {
	return &memoryResetRegistry{entries: make(map[string]*resetEntry)}
}

func (registry *memoryResetRegistry) Replace(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	for hash, entry := range registry.entries {
		if entry.userID == userID && !entry.consumed {
			delete(registry.entries, hash)
		}
	}
	registry.entries[tokenHash] = &resetEntry{userID: userID, expiresAt: expiresAt}
	return nil
}

func (registry *memoryResetRegistry) Consume(_ context.Context, tokenHash string) (string, error) {
	entry, ok := registry.entries[tokenHash]
	if !ok {
		return "", auth.ErrResetNotFound
	}
	if entry.consumed {
		return "", auth.ErrResetAlreadyUsed
	}
	if time.Now().After(entry.expiresAt) {
		return "", auth.ErrResetExpired
	}
	entry.consumed = true
	return entry.userID, nil
}

// # Fixture

type serviceFixture struct {
	service  *auth.Service
	users    *memoryUserRepository
	resets   *memoryResetRegistry
	rotation *memoryRotationStore
	manager  *auth.TokenManager
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	users := newMemoryUserRepository()
	resets := newMemoryResetRegistry()
	rotation := newMemoryRotationStore()
	manager := newTestManager(t, rotation)

	return &serviceFixture{
		service:  auth.NewService(users, resets, manager),
		users:    users,
		resets:   resets,
		rotation: rotation,
		manager:  manager,
	}
}

func (fixture *serviceFixture) registerUser(t *testing.T, password string) *auth.User {
	t.Helper()
	user, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Username:    "ava",
		Email:       "ava@voxdesk.app",
		Password:    password,
		DisplayName: "Ava",
	})
	require.NoError(t, err)
	return user
}

// # Login

/*
TestService_Login_Success verifies a valid login returns a full session.
*/
func TestService_Login_Success(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "hunter2hunter2")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login:    "ava@voxdesk.app",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "ava", session.User.Username)
}

/*
TestService_Login_GenericFailures ensures unknown users, wrong passwords, and
suspended accounts all produce the identical Unauthorized message.
*/
func TestService_Login_GenericFailures(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.registerUser(t, "hunter2hunter2")

	cases := []struct {
		name  string
		setup func()
		input auth.LoginInput
	}{
		{
			name:  "unknown_user",
			setup: func() {},
			input: auth.LoginInput{Login: "nobody@voxdesk.app", Password: "whatever123"},
		},
		{
			name:  "wrong_password",
			setup: func() {},
			input: auth.LoginInput{Login: "ava@voxdesk.app", Password: "wrong-password"},
		},
		{
			name:  "suspended_account",
			setup: func() { user.IsActive = false },
			input: auth.LoginInput{Login: "ava@voxdesk.app", Password: "hunter2hunter2"},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			_, err := fixture.service.Login(context.Background(), tt.input)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "UNAUTHORIZED", ae.Code)
			assert.Equal(t, "Invalid login credentials", ae.Message)
		})
	}
}

// # Refresh

/*
TestService_RefreshSession_Rotation verifies the happy rotation path.
*/
func TestService_RefreshSession_Rotation(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "hunter2hunter2")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Login: "ava", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	rotated, err := fixture.service.RefreshSession(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, session.User.ID, rotated.User.ID)
}

/*
TestService_RefreshSession_ReuseRevokesChain verifies that replaying a
superseded refresh token returns a generic 401 and kills the whole chain.
*/
func TestService_RefreshSession_ReuseRevokesChain(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "hunter2hunter2")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login: "ava", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	rotated, err := fixture.service.RefreshSession(ctx, session.RefreshToken)
	require.NoError(t, err)

	// Replay the superseded token.
	_, err = fixture.service.RefreshSession(ctx, session.RefreshToken)
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)

	// The legitimately rotated token is dead too.
	_, err = fixture.service.RefreshSession(ctx, rotated.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

/*
TestService_RefreshSession_GarbageToken ensures malformed tokens get the same
generic Unauthorized as any other failure.
*/
func TestService_RefreshSession_GarbageToken(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.RefreshSession(context.Background(), "not-a-token")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}

// # Logout

/*
TestService_Logout_Idempotent verifies logout succeeds with dead or garbage
tokens and revokes live chains.
*/
func TestService_Logout_Idempotent(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "hunter2hunter2")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login: "ava", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(ctx, session.RefreshToken))

	// The chain is gone.
	_, err = fixture.service.RefreshSession(ctx, session.RefreshToken)
	require.Error(t, err)

	// Logging out again, or with garbage, still succeeds.
	assert.NoError(t, fixture.service.Logout(ctx, session.RefreshToken))
	assert.NoError(t, fixture.service.Logout(ctx, "not-a-token"))
}

// # Password Recovery

/*
TestService_PasswordReset_FullFlow walks request → consume → login with the
new password, and verifies single use.
*/
func TestService_PasswordReset_FullFlow(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "old-password-1")
	ctx := context.Background()

	token, err := fixture.service.RequestPasswordReset(ctx, "ava@voxdesk.app")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, fixture.service.ResetPassword(ctx, token, "new-password-1"))

	// Old password is dead, new one works.
	_, err = fixture.service.Login(ctx, auth.LoginInput{Login: "ava", Password: "old-password-1"})
	require.Error(t, err)
	_, err = fixture.service.Login(ctx, auth.LoginInput{Login: "ava", Password: "new-password-1"})
	require.NoError(t, err)

	// Second consume of the same token: already used.
	err = fixture.service.ResetPassword(ctx, token, "another-password-1")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "BAD_REQUEST", ae.Code)
}

/*
TestService_PasswordReset_RevokesSessions ensures a completed reset kills
outstanding refresh chains.
*/
func TestService_PasswordReset_RevokesSessions(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "old-password-1")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login: "ava", Password: "old-password-1",
	})
	require.NoError(t, err)

	token, err := fixture.service.RequestPasswordReset(ctx, "ava@voxdesk.app")
	require.NoError(t, err)
	require.NoError(t, fixture.service.ResetPassword(ctx, token, "new-password-1"))

	_, err = fixture.service.RefreshSession(ctx, session.RefreshToken)
	require.Error(t, err)
}

/*
TestService_PasswordReset_UnknownEmail verifies the anti-enumeration
behavior: no token, no error.
*/
func TestService_PasswordReset_UnknownEmail(t *testing.T) {
	fixture := newServiceFixture(t)

	token, err := fixture.service.RequestPasswordReset(context.Background(), "nobody@voxdesk.app")
	assert.NoError(t, err)
	assert.Empty(t, token)
}

/*
TestService_PasswordReset_UnknownToken maps to NOT_FOUND.
*/
func TestService_PasswordReset_UnknownToken(t *testing.T) {
	fixture := newServiceFixture(t)

	err := fixture.service.ResetPassword(context.Background(), "no-such-token", "new-password-1")
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

/*
TestService_PasswordReset_NewRequestSupersedes ensures a second request
invalidates the first token.
*/
func TestService_PasswordReset_NewRequestSupersedes(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "old-password-1")
	ctx := context.Background()

	first, err := fixture.service.RequestPasswordReset(ctx, "ava@voxdesk.app")
	require.NoError(t, err)
	second, err := fixture.service.RequestPasswordReset(ctx, "ava@voxdesk.app")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// The superseded token no longer exists.
	err = fixture.service.ResetPassword(ctx, first, "new-password-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	require.NoError(t, fixture.service.ResetPassword(ctx, second, "new-password-1"))
}

// # Change Password

/*
TestService_ChangePassword verifies the current-password check and that
existing sessions survive the change.
*/
func TestService_ChangePassword(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.registerUser(t, "old-password-1")
	ctx := context.Background()

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login: "ava", Password: "old-password-1",
	})
	require.NoError(t, err)

	// Wrong current password is rejected.
	err = fixture.service.ChangePassword(ctx, user.ID, "wrong-password", "new-password-1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// Correct current password succeeds.
	require.NoError(t, fixture.service.ChangePassword(ctx, user.ID, "old-password-1", "new-password-1"))

	// The session keeps working.
	_, err = fixture.service.RefreshSession(ctx, session.RefreshToken)
	assert.NoError(t, err)

	// And the new password logs in.
	_, err = fixture.service.Login(ctx, auth.LoginInput{Login: "ava", Password: "new-password-1"})
	assert.NoError(t, err)
}

// # Registration

/*
TestService_Register_Conflicts verifies duplicate email and username are
rejected with CONFLICT.
*/
func TestService_Register_Conflicts(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.registerUser(t, "hunter2hunter2")
	ctx := context.Background()

	_, err := fixture.service.Register(ctx, auth.RegisterInput{
		Username: "someone-else",
		Email:    "ava@voxdesk.app",
		Password: "hunter2hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	_, err = fixture.service.Register(ctx, auth.RegisterInput{
		Username: "ava",
		Email:    "other@voxdesk.app",
		Password: "hunter2hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

/*
TestService_Register_HashesPassword ensures the plaintext never lands in the
store and role defaults to member.
*/
func TestService_Register_HashesPassword(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.registerUser(t, "hunter2hunter2")

	stored := fixture.users.users[user.ID]
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("hunter2hunter2", stored.PasswordHash))
	assert.Equal(t, sec.RoleMember, stored.Role)
	assert.True(t, stored.IsActive)
}
