// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package httpapi

import (
	"unicode"

	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
)

// Password policy enforced at the boundary: 8-30 characters with at least
// one upper-case letter, one digit and one symbol.
const (
	minPasswordLength = 8
	maxPasswordLength = 30
)

// validatePassword checks the boundary password policy.
func validatePassword(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return "password must be between 8 and 30 characters"
	}
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSymbol = true
		}
	}
	if !hasUpper || !hasDigit || !hasSymbol {
		return "password must contain an upper-case letter, a digit and a symbol"
	}
	return ""
}

// validationError wraps collected field messages in a VALIDATION-coded error.
func validationError(fields map[string]string) error {
	return oops.Code(auth.CodeValidation).
		With("fields", fields).
		Errorf("validation failed")
}

type registerRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

func (r *registerRequest) validate() error {
	fields := make(map[string]string)
	if err := auth.ValidateName(r.FirstName); err != nil {
		fields["firstName"] = err.Error()
	}
	if err := auth.ValidateName(r.LastName); err != nil {
		fields["lastName"] = err.Error()
	}
	if err := auth.ValidateEmail(auth.NormalizeEmail(r.Email)); err != nil {
		fields["email"] = err.Error()
	}
	if err := auth.ValidatePhoneNumber(r.PhoneNumber); err != nil {
		fields["phoneNumber"] = err.Error()
	}
	if msg := validatePassword(r.Password); msg != "" {
		fields["password"] = msg
	}
	if len(fields) > 0 {
		return validationError(fields)
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	fields := make(map[string]string)
	if r.Email == "" {
		fields["email"] = "email is required"
	}
	if r.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return validationError(fields)
	}
	return nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *forgotPasswordRequest) validate() error {
	if err := auth.ValidateEmail(auth.NormalizeEmail(r.Email)); err != nil {
		return validationError(map[string]string{"email": err.Error()})
	}
	return nil
}

type resetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

func (r *resetPasswordRequest) validate() error {
	fields := make(map[string]string)
	if r.ResetToken == "" {
		fields["resetToken"] = "reset token is required"
	} else if !auth.ValidResetToken(r.ResetToken) {
		fields["resetToken"] = "invalid reset token format"
	}
	if msg := validatePassword(r.NewPassword); msg != "" {
		fields["newPassword"] = msg
	}
	if len(fields) > 0 {
		return validationError(fields)
	}
	return nil
}
