// Copyright (c) 2026 Voxdesk. All rights reserved.

// PostgreSQL implementations of the auth storage contracts.
//
// # err Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain sentinels
// or [apperr.AppError] types to avoid leaking storage implementation details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anujmtekyz/voxdesk/internal/platform/apperr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Persists account metadata, ensuring timestamps are initialized
if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, displayname, role, isactive, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Performs a lookup on the account table, filtering out soft-deleted users.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, username, email, passwordhash, displayname, role, isactive, createdat, updatedat
		FROM users.account
		WHERE email = $1 AND deletedat IS NULL`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Description: Standard lookup by username for authentication and profile resolution.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	const query = `
		SELECT id, username, email, passwordhash, displayname, role, isactive, createdat, updatedat
		FROM users.account
		WHERE username = $1 AND deletedat IS NULL`

	user := &User{}
	err := repository.pool.QueryRow(context, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this username")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: Not found or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, username, email, passwordhash, displayname, role, isactive, createdat, updatedat
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
SoftDelete marks a user account as deleted using their ID.

Description: Retention-friendly deletion by setting deletedat.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Side-effect failures
*/
func (repository *PostgresUserRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE users.account SET deletedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_soft_delete_failed: %w", err)
	}
	return nil
}

// # Reset Token Registry

// PostgresResetTokenRegistry implements the ResetTokenRegistry interface.
//
// Reset tokens live in Postgres rather than a TTL cache because the consume
// path must distinguish "never existed" from "expired" from "already used",
// and because exactly one of two concurrent consumers may win. Both
// properties fall out of a single conditional UPDATE.
type PostgresResetTokenRegistry struct {
	pool *pgxpool.Pool
}

// NewResetTokenRegistry creates a new PostgreSQL implementation of ResetTokenRegistry.
func NewResetTokenRegistry(pool *pgxpool.Pool) *PostgresResetTokenRegistry {
	return &PostgresResetTokenRegistry{pool: pool}
}

/*
Replace stores a new reset token hash for a user, discarding any earlier
unconsumed token.

Description: At most one live reset token per account. Consumed rows stay
behind for the already-used distinction until expiry cleanup.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string (SHA-256, hex)
  - expiresAt: time.Time

Returns:
  - error: Transactional failures
*/
func (registry *PostgresResetTokenRegistry) Replace(context context.Context, userID, tokenHash string, expiresAt time.Time) error {
	transaction, err := registry.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_reset_registry_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	const deleteQuery = "DELETE FROM users.passwordreset WHERE userid = $1 AND consumedat IS NULL"
	if _, err := transaction.Exec(context, deleteQuery, userID); err != nil {
		return fmt.Errorf("postgres_reset_registry_delete_failed: %w", err)
	}

	const insertQuery = `
		INSERT INTO users.passwordreset (tokenhash, userid, expiresat, createdat)
		VALUES ($1, $2, $3, $4)`
	if _, err := transaction.Exec(context, insertQuery, tokenHash, userID, expiresAt, time.Now()); err != nil {
		return fmt.Errorf("postgres_reset_registry_insert_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_reset_registry_commit_failed: %w", err)
	}

	return nil
}

/*
Consume atomically marks a reset token as used and returns its subject.

Description: The conditional UPDATE is the arbiter: of two concurrent
consumers presenting the same token, exactly one gets the row back. The
loser, and any later presenter, falls through to the diagnostic SELECT that
classifies the failure.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - string: userID of the token's subject
  - error: ErrResetNotFound, ErrResetExpired, ErrResetAlreadyUsed, or execution errors
*/
func (registry *PostgresResetTokenRegistry) Consume(context context.Context, tokenHash string) (string, error) {
	const consumeQuery = `
		UPDATE users.passwordreset
		SET consumedat = NOW()
		WHERE tokenhash = $1 AND consumedat IS NULL AND expiresat > NOW()
		RETURNING userid`

	var userID string
	err := registry.pool.QueryRow(context, consumeQuery, tokenHash).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("postgres_reset_registry_consume_failed: %w", err)
	}

	// Classify the failure: expired, already used, or never existed.
	const classifyQuery = `
		SELECT expiresat, consumedat
		FROM users.passwordreset
		WHERE tokenhash = $1`

	var expiresAt time.Time
	var consumedAt *time.Time
	err = registry.pool.QueryRow(context, classifyQuery, tokenHash).Scan(&expiresAt, &consumedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrResetNotFound
		}
		return "", fmt.Errorf("postgres_reset_registry_classify_failed: %w", err)
	}

	if consumedAt != nil {
		return "", ErrResetAlreadyUsed
	}
	return "", ErrResetExpired
}

/*
DeleteExpired permanently removes reset tokens past their expiration.

Description: Cleanup task to reclaim storage from stale tokens.

Parameters:
  - context: context.Context

Returns:
  - error: Cleanup failures
*/
func (registry *PostgresResetTokenRegistry) DeleteExpired(context context.Context) error {
	const query = "DELETE FROM users.passwordreset WHERE expiresat <= NOW()"
	_, err := registry.pool.Exec(context, query)
	if err != nil {
		return fmt.Errorf("postgres_reset_registry_delete_expired_failed: %w", err)
	}
	return nil
}
