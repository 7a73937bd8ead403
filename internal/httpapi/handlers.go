// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
	"github.com/walletd/walletd/internal/observability"
)

// AuthHandler serves the unauthenticated account endpoints.
type AuthHandler struct {
	service *auth.Service
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAuthHandler wires the account endpoints to the auth core.
func NewAuthHandler(service *auth.Service, metrics *observability.Metrics, logger *slog.Logger) (*AuthHandler, error) {
	if service == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{service: service, metrics: metrics, logger: logger}, nil
}

// decode parses the JSON body into dst, rejecting unknown fields.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return oops.Code(auth.CodeValidation).Wrapf(err, "malformed request body")
	}
	return nil
}

func (h *AuthHandler) record(operation string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	h.metrics.AuthOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// loginResponse pairs the public user with the issued session token.
type loginResponse struct {
	User  *auth.UserPublic `json:"user"`
	Token string           `json:"token"`
}

// Register creates a new account and responds 201 with the public user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	h.record("register", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user, "account created")
}

// Login verifies credentials and responds with the user and a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	h.record("login", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{User: user, Token: token}, "login successful")
}

// ForgotPassword starts the reset flow. The response is identical whether
// or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	err := h.service.ForgotPassword(r.Context(), req.Email)
	h.record("forgot_password", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, nil, "if the email exists, a reset link has been sent")
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.ResetToken, req.NewPassword)
	h.record("reset_password", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "password updated")
}

// UserHandler serves the authenticated user endpoints.
type UserHandler struct {
	service *auth.Service
	logger  *slog.Logger
}

// NewUserHandler wires the profile endpoint to the auth core.
func NewUserHandler(service *auth.Service, logger *slog.Logger) (*UserHandler, error) {
	if service == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{service: service, logger: logger}, nil
}

// Profile returns the authenticated user's profile with account details.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile, "profile retrieved")
}
