// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
// Repositories wrap it so callers can match with errors.Is.
var ErrNotFound = errors.New("not found")

// Stable error codes surfaced to callers. The transport layer maps these to
// response statuses; any other code is treated as an internal failure.
const (
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeValidation   = "VALIDATION"
)

// HasCode reports whether err is an oops error carrying the given code.
func HasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == code
}
