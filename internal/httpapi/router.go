// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
	"github.com/walletd/walletd/internal/observability"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Auth    *auth.Service
	Guard   *auth.SessionGuard
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// NewRouter builds the walletd API router.
//
// Routes:
//
//	POST /api/v1/auth/register
//	POST /api/v1/auth/login
//	POST /api/v1/auth/forgot-password
//	POST /api/v1/auth/reset-password
//	GET  /api/v1/user/profile   (bearer token required)
func NewRouter(deps RouterDeps) (http.Handler, error) {
	if deps.Auth == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if deps.Guard == nil {
		return nil, oops.Errorf("session guard is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	authHandler, err := NewAuthHandler(deps.Auth, deps.Metrics, deps.Logger)
	if err != nil {
		return nil, err
	}
	userHandler, err := NewUserHandler(deps.Auth, deps.Logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware(deps.Metrics))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})
		r.Route("/user", func(r chi.Router) {
			r.Use(RequireAuth(deps.Guard, deps.Logger))
			r.Get("/profile", userHandler.Profile)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, deps.Logger, oops.Code(auth.CodeNotFound).Errorf("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, nil, "method not allowed")
	})

	return r, nil
}
