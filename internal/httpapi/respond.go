// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package httpapi exposes the walletd operations over HTTP.
//
// Handlers decode and validate input at the boundary, call the auth core,
// and translate its coded errors to HTTP statuses. Responses use the
// envelope {statusCode, data, message}.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
	"github.com/walletd/walletd/pkg/errutil"
)

// envelope is the uniform response shape.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write failure means the client is gone
	json.NewEncoder(w).Encode(envelope{StatusCode: status, Data: data, Message: message})
}

// statusForCode maps the auth error taxonomy to HTTP statuses. Anything
// outside the taxonomy is an internal failure.
func statusForCode(code any) int {
	switch code {
	case auth.CodeValidation, auth.CodeInvalidToken:
		return http.StatusBadRequest
	case auth.CodeUnauthorized:
		return http.StatusUnauthorized
	case auth.CodeNotFound:
		return http.StatusNotFound
	case auth.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a service error to an HTTP response. Internal
// failures are logged with full context and surface a generic message, so
// store details never reach the wire.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if oopsErr, ok := oops.AsOops(err); ok {
		status = statusForCode(oopsErr.Code())
		if status != http.StatusInternalServerError {
			message = oopsErr.Error()
		}
	}

	if status == http.StatusInternalServerError {
		errutil.LogError(logger, "request failed", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write failure means the client is gone
	json.NewEncoder(w).Encode(envelope{StatusCode: status, Message: message})
}
