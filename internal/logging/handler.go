// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package logging configures walletd's structured logger: slog with the
// service identity stamped on every record and OpenTelemetry trace
// correlation when a span is active on the context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// stampHandler decorates a slog.Handler with a fixed set of identity
// attributes and per-record trace correlation IDs.
type stampHandler struct {
	inner slog.Handler
	stamp []slog.Attr
}

func (h *stampHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.stamp...)

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
		if spanCtx.HasSpanID() {
			r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
		}
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.inner.Handle(ctx, r)
}

func (h *stampHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *stampHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stampHandler{inner: h.inner.WithAttrs(attrs), stamp: h.stamp}
}

func (h *stampHandler) WithGroup(name string) slog.Handler {
	return &stampHandler{inner: h.inner.WithGroup(name), stamp: h.stamp}
}

// Setup creates a configured slog.Logger.
// format: "json" or "text" (defaults to "json" if empty)
// If w is nil, writes to os.Stderr.
func Setup(service, version, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	var inner slog.Handler
	if format == "text" {
		inner = slog.NewTextHandler(w, opts)
	} else {
		inner = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&stampHandler{
		inner: inner,
		stamp: []slog.Attr{
			slog.String("service", service),
			slog.String("version", version),
		},
	})
}

// SetDefault sets up and installs the default logger.
func SetDefault(service, version, format string) {
	slog.SetDefault(Setup(service, version, format, nil))
}
