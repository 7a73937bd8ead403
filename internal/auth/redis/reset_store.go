// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package redis provides the Redis-backed reset-token store.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
)

// keyPrefix namespaces reset tokens in the shared keyspace.
const keyPrefix = "reset-token:"

// ResetTokenStore implements auth.ResetTokenStore on Redis, using per-key
// TTLs for expiry and GETDEL for single-use consumption.
type ResetTokenStore struct {
	client redis.UniversalClient
}

// NewResetTokenStore creates a ResetTokenStore on an existing client.
func NewResetTokenStore(client redis.UniversalClient) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Connect dials Redis at url (redis://...) and verifies the connection.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("REDIS_CONFIG_INVALID").Wrap(err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
	}
	return client, nil
}

// Save binds token to email for ttl.
func (s *ResetTokenStore) Save(ctx context.Context, token, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+token, email, ttl).Err(); err != nil {
		return oops.Code("RESET_STORE_SAVE_FAILED").Wrap(err)
	}
	return nil
}

// Take atomically retrieves and deletes the binding. GETDEL guarantees that
// of two racing callers at most one observes the email; the other gets
// ErrNotFound, same as for an expired or never-issued token.
func (s *ResetTokenStore) Take(ctx context.Context, token string) (string, error) {
	email, err := s.client.GetDel(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("RESET_STORE_TAKE_FAILED").Wrap(err)
	}
	return email, nil
}
