// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultResetTokenTTL is the reset-token lifetime unless configured.
const DefaultResetTokenTTL = 15 * time.Minute

// ResetTokenStore binds one-time reset tokens to email addresses with a
// per-key time-to-live.
//
// Lifecycle of a token value: absent -> issued(ttl) -> consumed or expired.
// There is no transition back to issued for the same value.
type ResetTokenStore interface {
	// Save binds token to email for ttl.
	Save(ctx context.Context, token, email string, ttl time.Duration) error

	// Take atomically retrieves and deletes the binding, enforcing
	// single use: of two racing callers at most one observes the email.
	// Returns an error wrapping ErrNotFound if the token is absent or
	// expired.
	Take(ctx context.Context, token string) (string, error)
}

// NewResetToken mints a random, unguessable reset-token identifier.
// uuid v4 carries 122 random bits; collisions are negligible by construction.
func NewResetToken() string {
	return uuid.NewString()
}

// ValidResetToken reports whether s is syntactically a reset token. Used at
// the boundary to reject garbage before touching the store.
func ValidResetToken(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
