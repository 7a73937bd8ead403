// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package mail carries the outbound-mail side effect of the reset flow.
// Actual delivery is an external concern; walletd ships a development
// implementation that records the send in the log.
package mail

import (
	"context"
	"log/slog"
)

// LogMailer implements auth.Mailer by logging that a reset mail would be
// sent. The token itself is logged at debug level only, so production log
// levels never capture a live credential.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendPasswordReset records the reset-mail send.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.logger.InfoContext(ctx, "password reset mail queued", "email", email)
	m.logger.DebugContext(ctx, "password reset token issued", "token", token)
	return nil
}
