// Copyright (c) 2026 Voxdesk. All rights reserved.

/*
Package auth implements the session and identity lifecycle for Voxdesk.

It handles user registration, credential verification, access/refresh token
issuance with rotation-based reuse detection, and the password recovery flow.

Architecture:

  - Service: Orchestrates business logic (Register, Login, password flows).
  - TokenManager: Owns the token lifecycle and the rotation chain.
  - Repositories: Abstracted interfaces for Postgres (Users, Reset tokens)
    and Redis (Rotation state).
  - Security: Leverages Bcrypt hashing and RSA-signed JWTs.

The package ensures that token-layer failure details never leak past the API
boundary: callers see a single generic Unauthorized.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anujmtekyz/voxdesk/internal/platform/apperr"
	"github.com/anujmtekyz/voxdesk/internal/platform/ctxutil"
	"github.com/anujmtekyz/voxdesk/internal/platform/sec"
	"github.com/anujmtekyz/voxdesk/pkg/uuid"
)

// # Contracts & Types

// SessionTokens defines the token-lifecycle contract the service depends on.
type SessionTokens interface {
	// Issue starts a fresh rotation chain for the user and mints the
	// initial token pair.
	Issue(ctx context.Context, user *User) (*TokenPair, error)

	// Mint signs a new pair at an already-established rotation generation.
	Mint(user *User, generation int64) (*TokenPair, error)

	// Refresh validates a refresh token and advances the rotation chain.
	// On [ErrTokenReused] the returned userID is still valid so the caller
	// can revoke the chain.
	Refresh(ctx context.Context, refreshToken string) (string, int64, error)

	// Revoke invalidates every refresh token for the subject.
	Revoke(ctx context.Context, userID string) error
}

// Service implements session and identity use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// rotation, or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	resetRegistry  ResetTokenRegistry
	sessionTokens  SessionTokens
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo UserRepository, resetRegistry ResetTokenRegistry, sessionTokens SessionTokens) *Service {
	return &Service{
		userRepository: userRepo,
		resetRegistry:  resetRegistry,
		sessionTokens:  sessionTokens,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Enrollment of a new member, handling uniqueness checks and
password hashing.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - err: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict err.
	_, err = service.userRepository.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleMember,
		IsActive:     true,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login    string // Can be Username or Email
	Password string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and establishes a new session.

Description: Verifies identity, performs constant-time password comparison,
starts a fresh rotation chain, and mints the initial token pair.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	var user *User
	var err error
	// Flexible login: look up by Email or Username
	user, err = service.userRepository.FindByEmail(context, input.Login)
	if err != nil {
		user, err = service.userRepository.FindByUsername(context, input.Login)
	}

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Suspended accounts get the same generic message as bad credentials.
	if !user.IsActive {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Start the rotation chain at generation zero and mint the pair
	pair, err := service.sessionTokens.Issue(context, user)
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshExpiresAt,
		User:                  user,
	}, nil
}

/*
Logout revokes the caller's refresh-token chain.

Description: Ensures that every outstanding refresh token for the subject can
never be used again. Logging out an already-ended session succeeds (idempotent
operation).

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {

	// Resolve the subject from the presented token. An invalid or expired
	// token means there is nothing left to revoke.
	userID, _, err := service.sessionTokens.Refresh(context, refreshToken)
	if err != nil && userID == "" {
		return nil
	}

	if err := service.sessionTokens.Revoke(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Session Management

/*
RefreshSession implements the Refresh Token Rotation mechanism.

Description: Verifies the presented refresh token, advances the rotation
generation, and issues a fresh pair. Presentation of a superseded token is
treated as credential theft: the entire chain for the subject is revoked and
the incident is logged server-side. The caller always receives the same
generic Unauthorized regardless of whether the token was invalid, expired, or
reused.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *LoginSession: New session credentials
  - err: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(context context.Context, refreshToken string) (*LoginSession, error) {

	userID, generation, err := service.sessionTokens.Refresh(context, refreshToken)
	if err != nil {
		// Reuse detection: revoke the whole chain before answering.
		if errors.Is(err, ErrTokenReused) && userID != "" {
			ctxutil.GetLogger(context).Warn("refresh token reuse detected, revoking chain",
				"user_id", userID)
			_ = service.sessionTokens.Revoke(context, userID)
		}
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Fetch the user associated with this chain
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil || !user.IsActive {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Mint the rotated pair at the advanced generation
	pair, err := service.sessionTokens.Mint(user, generation)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_mint_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshExpiresAt,
		User:                  user,
	}, nil
}

/*
CurrentUser resolves the authenticated user's profile.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Profile entity
  - err: NotFound or storage errors
*/
func (service *Service) CurrentUser(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure single-use token, stores its hash, and
replaces any earlier unconsumed token for the same account.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Plaintext reset token for delivery, empty when the email is unknown
  - err: Generation or storage errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	// Look up user.
	// NOTE: We don't return NOT_FOUND if the email doesn't exist to prevent user enumeration.
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return "", nil
	}

	// Generate reset token
	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	// Only the hash is persisted; the plaintext exists nowhere but the delivery channel.
	expiresAt := time.Now().Add(ResetTokenTTL)
	if err := service.resetRegistry.Replace(context, user.ID, sec.HashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	// TODO: Trigger email service with the reset link
	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Atomically consumes the token (exactly one caller can win),
hashes the new password, updates the DB, and revokes every active refresh
token for security cleanup.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - err: NotFound, BadRequest (expired or already used), or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	// Consume the token. Exactly one concurrent caller succeeds.
	userID, err := service.resetRegistry.Consume(context, sec.HashToken(token))
	if err != nil {
		switch {
		case errors.Is(err, ErrResetNotFound):
			return apperr.NotFound("Reset token not found")
		case errors.Is(err, ErrResetExpired):
			return apperr.BadRequest("Reset token has expired")
		case errors.Is(err, ErrResetAlreadyUsed):
			return apperr.BadRequest("Reset token has already been used")
		default:
			return fmt.Errorf("auth_service_consume_reset_token_failed: %w", err)
		}
	}

	// Hash the new password securely
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	// Update the user's password in persistent storage
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Security Cleanup: Revoke EVERY active refresh token for this user
	_ = service.sessionTokens.Revoke(context, userID)

	return nil
}

/*
ChangePassword allows an authenticated user to update their credentials.

Description: Verifies the current password before rehashing. Existing sessions
stay valid; the user is not forced to re-login.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - err: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {

	// Fetch user by ID
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	// Verify the current password before allowing change
	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	// Hash the brand new password
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	// Update the database with the new hash
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	return nil
}
