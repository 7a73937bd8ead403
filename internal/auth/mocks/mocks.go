// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package mocks provides testify mock implementations of the auth package
// contracts for use in unit tests.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/walletd/walletd/internal/auth"
)

// MockUserRepository is a mock implementation of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted when the test finishes.
func NewMockUserRepository(t *testing.T) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phoneNumber string) (*auth.User, error) {
	args := m.Called(ctx, phoneNumber)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) CreateWithAccount(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, *auth.User) (*auth.User, error)); ok {
		return fn(ctx, user)
	}
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) GetProfile(ctx context.Context, id ulid.ULID) (*auth.Profile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*auth.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test finishes.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockTokenIssuer is a mock implementation of auth.TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

// NewMockTokenIssuer creates a MockTokenIssuer whose expectations are
// asserted when the test finishes.
func NewMockTokenIssuer(t *testing.T) *MockTokenIssuer {
	m := &MockTokenIssuer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenIssuer) Issue(userID, email string) (string, error) {
	args := m.Called(userID, email)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) Verify(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if c := args.Get(0); c != nil {
		return c.(*auth.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockResetTokenStore is a mock implementation of auth.ResetTokenStore.
type MockResetTokenStore struct {
	mock.Mock
}

// NewMockResetTokenStore creates a MockResetTokenStore whose expectations
// are asserted when the test finishes.
func NewMockResetTokenStore(t *testing.T) *MockResetTokenStore {
	m := &MockResetTokenStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockResetTokenStore) Save(ctx context.Context, token, email string, ttl time.Duration) error {
	args := m.Called(ctx, token, email, ttl)
	return args.Error(0)
}

func (m *MockResetTokenStore) Take(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// MockMailer is a mock implementation of auth.Mailer.
type MockMailer struct {
	mock.Mock
}

// NewMockMailer creates a MockMailer whose expectations are asserted when
// the test finishes.
func NewMockMailer(t *testing.T) *MockMailer {
	m := &MockMailer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}
