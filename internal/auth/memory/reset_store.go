// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package memory provides an in-process reset-token store. It exists for
// tests and redis-less development runs; production deployments use the
// redis package.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
)

type entry struct {
	email     string
	expiresAt time.Time
}

// ResetTokenStore implements auth.ResetTokenStore with an in-process map.
// Expiry is enforced lazily on Take; there is no janitor goroutine.
type ResetTokenStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewResetTokenStore creates an empty store.
func NewResetTokenStore() *ResetTokenStore {
	return &ResetTokenStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetClock overrides the store's clock. Test hook.
func (s *ResetTokenStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Save binds token to email for ttl.
func (s *ResetTokenStore) Save(_ context.Context, token, email string, ttl time.Duration) error {
	if ttl <= 0 {
		return oops.Code("RESET_STORE_SAVE_FAILED").Errorf("ttl must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = entry{email: email, expiresAt: s.now().Add(ttl)}
	return nil
}

// Take atomically retrieves and deletes the binding under one lock, so two
// racing callers cannot both observe a live token.
func (s *ResetTokenStore) Take(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return "", oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	delete(s.entries, token)
	if s.now().After(e.expiresAt) {
		return "", oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return e.email, nil
}

// Len reports the number of live-or-expired entries currently held.
func (s *ResetTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
