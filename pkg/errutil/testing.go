// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	ctx := requireOops(t, err).Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertValidationFields asserts that err carries a boundary-validation
// "fields" map naming each of the given fields.
func AssertValidationFields(t *testing.T, err error, fields ...string) {
	t.Helper()
	fieldMap, ok := requireOops(t, err).Context()["fields"].(map[string]string)
	require.True(t, ok, "expected a fields map in the error context")
	for _, field := range fields {
		assert.Contains(t, fieldMap, field)
	}
}
