// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package auth provides the account and authentication core for walletd.
//
// # Domain Types
//
// Domain types (User, Account) should be created using their constructors:
//   - NewUser - creates a User with validated fields and a fresh ULID
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - registration, login, forgot-password, reset-password, profile
//   - SessionGuard - bearer-token verification with user re-resolution
//
// Services are created with New* constructors that validate dependencies.
//
// # Collaborator Contracts
//
// The package owns the interfaces its services depend on: UserRepository,
// PasswordHasher, TokenIssuer, ResetTokenStore and Mailer. Implementations
// live in subpackages (postgres, redis, memory) or sibling packages (mail).
package auth
