// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package store provides database bootstrap and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// connectAttempts bounds the startup ping retries. Databases routinely come
// up a few seconds after the service under orchestration.
const connectAttempts = 5

// Connect opens a pgx pool against dsn and verifies connectivity with a
// retried ping (fibonacci backoff, capped attempts).
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectAttempts, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping").
			Wrap(err)
	}

	return pool, nil
}
