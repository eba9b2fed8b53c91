// Copyright (c) 2026 Voxdesk. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anujmtekyz/voxdesk/internal/platform/constants"
)

// RedisRotationStore implements RotationStore using Redis.
//
// One key per subject holds the current refresh-token generation. The
// compare-and-advance runs as a Lua script so the read, compare, and
// increment execute atomically inside Redis.
type RedisRotationStore struct {
	client *redis.Client
}

// NewRotationStore creates a new Redis-backed RotationStore.
func NewRotationStore(client *redis.Client) *RedisRotationStore {
	return &RedisRotationStore{client: client}
}

// A negative stored value is a revocation tombstone: the chain that reached
// generation n was revoked and left the marker -(n+1). The tombstone keeps
// the counter monotonic across revoke and re-login while making every
// outstanding token of the revoked chain fail as missing state.

// advanceScript compares the presented generation against the stored one and
// increments on match. Returns the new generation, -1 on mismatch, -2 when
// the chain is absent or revoked.
var advanceScript = redis.NewScript(`
	local stored = redis.call("GET", KEYS[1])
	if not stored then
		return -2
	end
	local current = tonumber(stored)
	if current < 0 then
		return -2
	end
	if current ~= tonumber(ARGV[1]) then
		return -1
	end
	redis.call("INCR", KEYS[1])
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return current + 1
`)

// startScript opens a new chain at generation 0, or past the last generation
// any previous chain for the subject reached. Generations never repeat for a
// subject, so tokens from a replaced chain can never match again.
var startScript = redis.NewScript(`
	local stored = redis.call("GET", KEYS[1])
	local start = 0
	if stored then
		local current = tonumber(stored)
		if current < 0 then
			start = -current
		else
			start = current + 1
		end
	end
	redis.call("SET", KEYS[1], start, "PX", ARGV[1])
	return start
`)

// revokeScript replaces a live chain with its tombstone, keeping the
// remaining TTL so the marker outlives the longest outstanding token.
var revokeScript = redis.NewScript(`
	local stored = redis.call("GET", KEYS[1])
	if not stored then
		return 0
	end
	local current = tonumber(stored)
	if current >= 0 then
		redis.call("SET", KEYS[1], -(current + 1), "KEEPTTL")
	end
	return 1
`)

func rotationKey(userID string) string {
	return constants.RedisPrefixRefreshGen + userID
}

/*
Start opens a new rotation chain for the subject.

Description: Replaces any existing chain. The new chain starts past the old
chain's last generation, so a fresh login invalidates every refresh token
issued before it.

Parameters:
  - context: context.Context
  - userID: string
  - ttl: time.Duration

Returns:
  - int64: Starting generation of the new chain
  - error: Execution errors
*/
func (store *RedisRotationStore) Start(context context.Context, userID string, ttl time.Duration) (int64, error) {

	start, err := startScript.Run(context, store.client,
		[]string{rotationKey(userID)},
		ttl.Milliseconds(),
	).Int64()

	if err != nil {
		return 0, fmt.Errorf("redis_rotation_start_failed: %w", err)
	}

	return start, nil
}

/*
Advance performs the atomic compare-and-advance on the rotation chain.

Description: Succeeds only when the presented generation matches the stored
one; exactly one of two concurrent callers presenting the same generation
wins. The TTL is refreshed on success so an active chain never ages out.

Parameters:
  - context: context.Context
  - userID: string
  - presented: int64 (generation claim from the refresh token)
  - ttl: time.Duration

Returns:
  - int64: New current generation
  - error: ErrRotationConflict, ErrRotationStateMissing, or connectivity errors
*/
func (store *RedisRotationStore) Advance(context context.Context, userID string, presented int64, ttl time.Duration) (int64, error) {

	result, err := advanceScript.Run(context, store.client,
		[]string{rotationKey(userID)},
		presented, ttl.Milliseconds(),
	).Int64()

	if err != nil {
		return 0, fmt.Errorf("redis_rotation_advance_failed: %w", err)
	}

	switch result {
	case -2:
		return 0, ErrRotationStateMissing
	case -1:
		return 0, ErrRotationConflict
	default:
		return result, nil
	}
}

/*
Revoke ends the subject's rotation chain.

Description: Every outstanding refresh token for the subject fails the next
Advance with a missing chain. The chain's last generation is retained in a
tombstone so a later Start continues past it. Revoking an absent chain
succeeds.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (store *RedisRotationStore) Revoke(context context.Context, userID string) error {

	if err := revokeScript.Run(context, store.client, []string{rotationKey(userID)}).Err(); err != nil {
		return fmt.Errorf("redis_rotation_revoke_failed: %w", err)
	}

	return nil
}
