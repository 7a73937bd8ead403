// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// SessionGuard validates inbound session tokens and re-resolves the subject
// against the user store, so a deleted user cannot keep using a still-unexpired
// token. Every failure surfaces as one UNAUTHORIZED error; the distinction
// between a bad token and a vanished subject exists only in logs.
type SessionGuard struct {
	tokens TokenIssuer
	users  UserRepository
	logger *slog.Logger
}

// NewSessionGuard creates a SessionGuard.
func NewSessionGuard(tokens TokenIssuer, users UserRepository, logger *slog.Logger) (*SessionGuard, error) {
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionGuard{tokens: tokens, users: users, logger: logger}, nil
}

// VerifyAndResolve verifies the token and returns the resolved user.
func (g *SessionGuard) VerifyAndResolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code(CodeUnauthorized).Errorf("authentication failed")
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		var reason any
		if oopsErr, ok := oops.AsOops(err); ok {
			reason = oopsErr.Context()["reason"]
		}
		g.logger.DebugContext(ctx, "session token rejected", "reason", reason)
		return nil, oops.Code(CodeUnauthorized).Errorf("authentication failed")
	}

	user, err := g.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			g.logger.DebugContext(ctx, "session subject no longer exists", "uid", claims.UserID)
			return nil, oops.Code(CodeUnauthorized).Errorf("authentication failed")
		}
		return nil, oops.Code("AUTH_GUARD_FAILED").
			With("operation", "find by email").
			Wrap(err)
	}
	return user, nil
}
