// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletd/walletd/internal/auth"
)

func TestArgon2idHasher_HashAndVerify(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("hash produces PHC format", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("verify accepts the original password", func(t *testing.T) {
		hash, err := hasher.Hash("Sup3r$ecret")
		require.NoError(t, err)

		ok, err := hasher.Verify("Sup3r$ecret", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("verify rejects a different password", func(t *testing.T) {
		hash, err := hasher.Hash("Sup3r$ecret")
		require.NoError(t, err)

		ok, err := hasher.Verify("sup3r$ecret", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same password hashes to different values", func(t *testing.T) {
		first, err := hasher.Hash("Sup3r$ecret")
		require.NoError(t, err)
		second, err := hasher.Hash("Sup3r$ecret")
		require.NoError(t, err)
		assert.NotEqual(t, first, second, "salts must differ")
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})
}

func TestArgon2idHasher_Verify_InvalidHash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"not a hash", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"bad version segment", "$argon2id$vv$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"bad params segment", "$argon2id$v=19$bogus$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		{"bad key encoding", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!"},
		{"threads overflow", "$argon2id$v=19$m=65536,t=1,p=300$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("password", tt.hash)
			require.Error(t, err)
			assert.False(t, ok)
		})
	}
}
