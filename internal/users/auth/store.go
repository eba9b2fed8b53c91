// Copyright (c) 2026 Voxdesk. All rights reserved.

package auth

import (
	"context"
	"errors"
	"time"
)

// Store-level sentinel errors. Services translate these into client-safe
// [apperr.AppError] values; they never cross the API boundary as-is.
var (
	// ErrRotationStateMissing indicates no active rotation chain exists for
	// the subject (logged out, revoked, or expired state).
	ErrRotationStateMissing = errors.New("auth: no active rotation chain for subject")

	// ErrRotationConflict indicates the presented generation is behind the
	// latest known generation — the reuse signal.
	ErrRotationConflict = errors.New("auth: rotation generation conflict")

	// ErrResetNotFound indicates the reset token has never been issued (or
	// was superseded by a newer request).
	ErrResetNotFound = errors.New("auth: reset token not found")

	// ErrResetExpired indicates the reset token exists but its expiry has passed.
	ErrResetExpired = errors.New("auth: reset token expired")

	// ErrResetAlreadyUsed indicates the reset token was already consumed.
	// A consumed token is permanently invalid regardless of expiry.
	ErrResetAlreadyUsed = errors.New("auth: reset token already used")
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// It is the credential-store adapter of the subsystem: given an identifier it
// yields a password hash and identity, or "not found".
type UserRepository interface {

	// FindByID returns the account with the given ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername returns the account with the given username.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Create persists a brand-new user account.
	Create(ctx context.Context, user *User) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error

	// SoftDelete marks the account as deleted without removing the row.
	SoftDelete(ctx context.Context, id string) error
}

// # Rotation State Access

// RotationStore tracks the per-subject refresh-token rotation generation.
//
// # Invariant
//
// Exactly one generation is current per subject at any moment. Advance is the
// only mutation path during a session's life, and it must be atomic: two
// concurrent calls presenting the same generation must produce exactly one
// winner; the loser observes [ErrRotationConflict].
type RotationStore interface {

	// Start begins a new rotation chain for the subject and returns its
	// starting generation. Generations are monotonic across chains: a new
	// chain never reuses a generation the previous chain handed out, so
	// tokens from a replaced chain always mismatch.
	Start(ctx context.Context, userID string, ttl time.Duration) (int64, error)

	// Advance atomically compares the presented generation with the current
	// one and increments on match, returning the new generation. It returns
	// [ErrRotationConflict] on mismatch and [ErrRotationStateMissing] when
	// no chain exists.
	Advance(ctx context.Context, userID string, presented int64, ttl time.Duration) (int64, error)

	// Revoke ends the subject's rotation chain; every outstanding refresh
	// token for the subject becomes unusable. The chain's last generation is
	// retained so a later Start stays monotonic.
	Revoke(ctx context.Context, userID string) error
}

// # Password Recovery Access

// ResetTokenRegistry stores single-use, time-bounded password recovery tokens.
//
// Only SHA-256 digests of tokens are ever stored.
type ResetTokenRegistry interface {

	// Replace stores a new reset token for the user, invalidating any
	// still-outstanding unconsumed token (at most one live token per user).
	Replace(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// Consume atomically marks the token consumed and returns the owning
	// user ID. Concurrent consume attempts on the same token have exactly
	// one winner. Returns [ErrResetNotFound], [ErrResetExpired], or
	// [ErrResetAlreadyUsed] on failure.
	Consume(ctx context.Context, tokenHash string) (string, error)
}
