// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package errutil provides helpers for logging and asserting oops errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// The auth layer tags every failure with an "operation" context key; that key
// is hoisted to a top-level attribute so log pipelines can filter on it
// without unpacking the context map.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}

	attrs := []any{
		"error", oopsErr.Error(),
	}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}

	ctx := oopsErr.Context()
	if op, found := ctx["operation"]; found {
		attrs = append(attrs, "operation", op)
		delete(ctx, "operation")
	}
	if len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}

	logger.Error(msg, attrs...)
}
