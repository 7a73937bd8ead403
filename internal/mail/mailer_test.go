// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package mail_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletd/walletd/internal/mail"
)

func TestLogMailer_SendPasswordReset(t *testing.T) {
	t.Run("info level never carries the token", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

		mailer := mail.NewLogMailer(logger)
		err := mailer.SendPasswordReset(context.Background(), "jane@example.com", "secret-token")
		require.NoError(t, err)

		out := buf.String()
		assert.Contains(t, out, "jane@example.com")
		assert.NotContains(t, out, "secret-token")
	})

	t.Run("debug level records the token for development", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		mailer := mail.NewLogMailer(logger)
		require.NoError(t, mailer.SendPasswordReset(context.Background(), "jane@example.com", "secret-token"))

		assert.True(t, strings.Contains(buf.String(), "secret-token"))
	})
}
