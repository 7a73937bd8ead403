// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/walletd/walletd/internal/auth"
	"github.com/walletd/walletd/internal/auth/memory"
	"github.com/walletd/walletd/internal/auth/mocks"
	"github.com/walletd/walletd/internal/httpapi"
)

// fixture wires a real auth.Service over mocked stores behind the router.
type fixture struct {
	users  *mocks.MockUserRepository
	hasher *mocks.MockPasswordHasher
	tokens *mocks.MockTokenIssuer
	mailer *mocks.MockMailer
	resets *memory.ResetTokenStore
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:  mocks.NewMockUserRepository(t),
		hasher: mocks.NewMockPasswordHasher(t),
		tokens: mocks.NewMockTokenIssuer(t),
		mailer: mocks.NewMockMailer(t),
		resets: memory.NewResetTokenStore(),
	}

	service, err := auth.NewService(auth.ServiceConfig{
		Users:  f.users,
		Resets: f.resets,
		Hasher: f.hasher,
		Tokens: f.tokens,
		Mailer: f.mailer,
	})
	require.NoError(t, err)

	guard, err := auth.NewSessionGuard(f.tokens, f.users, nil)
	require.NoError(t, err)

	f.router, err = httpapi.NewRouter(httpapi.RouterDeps{
		Auth:  service,
		Guard: guard,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func validRegisterBody() map[string]string {
	return map[string]string{
		"firstName":   "Jane",
		"lastName":    "Doe",
		"email":       "jane@example.com",
		"phoneNumber": "+4915112345678",
		"password":    "Sup3r$ecret",
	}
}

func TestRouter_Register(t *testing.T) {
	t.Run("valid registration responds 201 with the public user", func(t *testing.T) {
		f := newFixture(t)

		f.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(nil, auth.ErrNotFound)
		f.users.On("FindByPhone", mock.Anything, "+4915112345678").Return(nil, auth.ErrNotFound)
		f.hasher.On("Hash", "Sup3r$ecret").Return("hashed", nil)
		f.users.On("CreateWithAccount", mock.Anything, mock.AnythingOfType("*auth.User")).
			Return(func(_ context.Context, u *auth.User) (*auth.User, error) { return u, nil })

		rec, envelope := f.do(t, http.MethodPost, "/api/v1/auth/register", validRegisterBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, float64(http.StatusCreated), envelope["statusCode"])

		data, ok := envelope["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "jane@example.com", data["email"])
		assert.NotContains(t, data, "password")
		assert.NotContains(t, data, "pin")
	})

	t.Run("weak password responds 400 before any store access", func(t *testing.T) {
		f := newFixture(t)

		body := validRegisterBody()
		body["password"] = "weak"
		rec, envelope := f.do(t, http.MethodPost, "/api/v1/auth/register", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation failed", envelope["message"])
	})

	t.Run("duplicate email responds 409", func(t *testing.T) {
		f := newFixture(t)
		user, err := auth.NewUser("Jane", "Doe", "jane@example.com", "+4915112345678", "hash", "1234")
		require.NoError(t, err)

		f.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)

		rec, envelope := f.do(t, http.MethodPost, "/api/v1/auth/register", validRegisterBody(), nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, envelope["message"], "email")
	})

	t.Run("malformed body responds 400", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Login(t *testing.T) {
	t.Run("valid credentials respond 200 with user and token", func(t *testing.T) {
		f := newFixture(t)
		user, err := auth.NewUser("Jane", "Doe", "jane@example.com", "+4915112345678", "hash", "1234")
		require.NoError(t, err)

		f.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		f.hasher.On("Verify", "Sup3r$ecret", "hash").Return(true, nil)
		f.tokens.On("Issue", user.ID.String(), user.Email).Return("signed-token", nil)

		rec, envelope := f.do(t, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"email": "jane@example.com", "password": "Sup3r$ecret"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		data, ok := envelope["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "signed-token", data["token"])
		userData, ok := data["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "jane@example.com", userData["email"])
	})

	t.Run("unknown email and wrong password yield the identical 401 body", func(t *testing.T) {
		f := newFixture(t)
		user, err := auth.NewUser("Jane", "Doe", "jane@example.com", "+4915112345678", "hash", "1234")
		require.NoError(t, err)

		f.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		f.hasher.On("Verify", "wrong", "hash").Return(false, nil)
		recWrong, envWrong := f.do(t, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"email": "jane@example.com", "password": "wrong"}, nil)

		f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, auth.ErrNotFound)
		f.hasher.On("Verify", "wrong", mock.AnythingOfType("string")).Return(false, nil)
		recGhost, envGhost := f.do(t, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"email": "ghost@example.com", "password": "wrong"}, nil)

		require.Equal(t, http.StatusUnauthorized, recWrong.Code)
		require.Equal(t, http.StatusUnauthorized, recGhost.Code)
		assert.Equal(t, envWrong, envGhost)
	})

	t.Run("missing fields respond 400", func(t *testing.T) {
		f := newFixture(t)

		rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_ForgotPassword(t *testing.T) {
	t.Run("known and unknown emails produce the identical 202 body", func(t *testing.T) {
		f := newFixture(t)
		user, err := auth.NewUser("Jane", "Doe", "jane@example.com", "+4915112345678", "hash", "1234")
		require.NoError(t, err)

		f.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		f.mailer.On("SendPasswordReset", mock.Anything, "jane@example.com", mock.AnythingOfType("string")).Return(nil)
		recKnown, envKnown := f.do(t, http.MethodPost, "/api/v1/auth/forgot-password",
			map[string]string{"email": "jane@example.com"}, nil)

		f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, auth.ErrNotFound)
		recGhost, envGhost := f.do(t, http.MethodPost, "/api/v1/auth/forgot-password",
			map[string]string{"email": "ghost@example.com"}, nil)

		require.Equal(t, http.StatusAccepted, recKnown.Code)
		require.Equal(t, http.StatusAccepted, recGhost.Code)
		assert.Equal(t, envKnown, envGhost)
		assert.Equal(t, 1, f.resets.Len(), "only the known email stored a token")
	})
}

func TestRouter_ResetPassword(t *testing.T) {
	t.Run("stored token resets the password exactly once", func(t *testing.T) {
		f := newFixture(t)
		user, err := auth.NewUser("Jane", "Doe", "jane@example.com", "+4915112345678", "hash", "1234")
		require.NoError(t, err)

		token := auth.NewResetToken()
		require.NoError(t, f.resets.Save(context.Background(), token, user.Email, time.Minute))

		f.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
		f.hasher.On("Hash", "N3w$ecret1").Return("new-hash", nil)
		f.users.On("UpdatePassword", mock.Anything, user.ID, "new-hash").Return(nil)

		body := map[string]string{"resetToken": token, "newPassword": "N3w$ecret1"}
		rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/reset-password", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// Replaying the consumed token fails.
		recReplay, _ := f.do(t, http.MethodPost, "/api/v1/auth/reset-password", body, nil)
		require.Equal(t, http.StatusBadRequest, recReplay.Code)
	})

	t.Run("syntactically invalid token responds 400 without touching the store", func(t *testing.T) {
		f := newFixture(t)

		rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/reset-password",
			map[string]string{"resetToken": "garbage", "newPassword": "N3w$ecret1"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Profile(t *testing.T) {
	t.Run("missing bearer token responds 401", func(t *testing.T) {
		f := newFixture(t)

		rec, envelope := f.do(t, http.MethodGet, "/api/v1/user/profile", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "authentication failed", envelope["message"])
	})

	t.Run("valid bearer token resolves the profile", func(t *testing.T) {
		f := newFixture(t)
		user, err := auth.NewUser("Jane", "Doe", "jane@example.com", "+4915112345678", "hash", "1234")
		require.NoError(t, err)
		profile := &auth.Profile{
			ID:      user.ID.String(),
			Email:   user.Email,
			Account: &auth.ProfileAccount{ID: "01ACC", Balance: 0},
		}

		f.tokens.On("Verify", "good-token").Return(&auth.Claims{
			UserID: user.ID.String(),
			Email:  user.Email,
		}, nil)
		f.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
		f.users.On("GetProfile", mock.Anything, user.ID).Return(profile, nil)

		header := http.Header{"Authorization": []string{"Bearer good-token"}}
		rec, envelope := f.do(t, http.MethodGet, "/api/v1/user/profile", nil, header)
		require.Equal(t, http.StatusOK, rec.Code)

		data, ok := envelope["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, user.Email, data["email"])
		account, ok := data["account"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(0), account["balance"])
	})

	t.Run("rejected token responds 401", func(t *testing.T) {
		f := newFixture(t)

		f.tokens.On("Verify", "bad-token").
			Return(nil, auth.ErrNotFound)

		header := http.Header{"Authorization": []string{"Bearer bad-token"}}
		rec, _ := f.do(t, http.MethodGet, "/api/v1/user/profile", nil, header)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newFixture(t)

	rec, envelope := f.do(t, http.MethodGet, "/api/v1/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", envelope["message"])
}
