// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
	"github.com/walletd/walletd/internal/observability"
)

type contextKey int

const userContextKey contextKey = iota

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*auth.User, error) {
	user, ok := ctx.Value(userContextKey).(*auth.User)
	if !ok || user == nil {
		return nil, oops.Code(auth.CodeUnauthorized).Errorf("authentication failed")
	}
	return user, nil
}

// bearerToken extracts the bearer token from the Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}

// RequireAuth verifies the bearer token via the session guard and attaches
// the resolved user to the request context. Every failure is one 401.
func RequireAuth(guard *auth.SessionGuard, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := guard.VerifyAndResolve(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, logger, err)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware counts requests per route pattern and status class.
func MetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			class := strconv.Itoa(rec.status/100) + "xx"
			metrics.HTTPRequestsTotal.WithLabelValues(route, class).Inc()
		})
	}
}
