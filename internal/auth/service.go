// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Mailer delivers the password-reset mail side effect. Implementations live
// outside the core; failures are infrastructure failures, not auth failures.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// dummyPasswordHash is verified against when a login targets an unknown
// email, so both failure paths cost one argon2id derivation. It is a fake
// hash that can never match any password, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// invalidCredentialsMsg is the single externally visible message for every
// login failure, so callers cannot distinguish unknown email from wrong
// password.
const invalidCredentialsMsg = "invalid email or password"

// Service orchestrates registration, login and the password-reset flow.
// It holds no persistent state; everything lives in the injected stores.
type Service struct {
	users    UserRepository
	resets   ResetTokenStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	mailer   Mailer
	resetTTL time.Duration
	logger   *slog.Logger
}

// ServiceConfig carries the collaborators for NewService.
type ServiceConfig struct {
	Users         UserRepository
	Resets        ResetTokenStore
	Hasher        PasswordHasher
	Tokens        TokenIssuer
	Mailer        Mailer
	ResetTokenTTL time.Duration // defaults to DefaultResetTokenTTL
	Logger        *slog.Logger  // defaults to slog.Default()
}

// NewService creates a Service, validating that every collaborator is set.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if cfg.Resets == nil {
		return nil, oops.Errorf("reset token store is required")
	}
	if cfg.Hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if cfg.Tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if cfg.Mailer == nil {
		return nil, oops.Errorf("mailer is required")
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		users:    cfg.Users,
		resets:   cfg.Resets,
		hasher:   cfg.Hasher,
		tokens:   cfg.Tokens,
		mailer:   cfg.Mailer,
		resetTTL: cfg.ResetTokenTTL,
		logger:   cfg.Logger,
	}, nil
}

// RegisterInput is the data required to create an account.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

// Register creates a user and its linked zero-balance account.
//
// The email/phone pre-checks give fast, field-specific CONFLICT errors, but
// correctness under concurrent duplicate registration comes from the
// storage-level uniqueness constraints inside CreateWithAccount; a
// uniqueness violation from the store surfaces as the same CONFLICT code.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*UserPublic, error) {
	if in.Password == "" {
		return nil, oops.Code(CodeValidation).Errorf("password is required")
	}

	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, oops.Code(CodeConflict).
			With("field", "email").
			Errorf("an account with this email address already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "find by email").
			Wrap(err)
	}

	if _, err := s.users.FindByPhone(ctx, in.PhoneNumber); err == nil {
		return nil, oops.Code(CodeConflict).
			With("field", "phoneNumber").
			Errorf("an account with this phone number already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "find by phone").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	pin, err := GeneratePIN()
	if err != nil {
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "generate pin").
			Wrap(err)
	}

	user, err := NewUser(in.FirstName, in.LastName, email, in.PhoneNumber, hash, pin)
	if err != nil {
		return nil, err
	}

	created, err := s.users.CreateWithAccount(ctx, user)
	if err != nil {
		// The store lost a duplicate race; same error shape as the pre-check.
		if HasCode(err, CodeConflict) {
			return nil, err
		}
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "create user with account").
			Wrap(err)
	}

	pub := created.Public()
	return &pub, nil
}

// Login verifies credentials and mints a session token.
// Unknown email and wrong password collapse into one UNAUTHORIZED failure;
// a dummy hash is verified for unknown emails so both paths cost the same.
func (s *Service) Login(ctx context.Context, email, password string) (*UserPublic, string, error) {
	email = NormalizeEmail(email)

	user, lookupErr := s.users.FindByEmail(ctx, email)

	targetHash := dummyPasswordHash
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		s.logger.DebugContext(ctx, "login attempt for unknown email")
	default:
		return nil, "", oops.Code("LOGIN_FAILED").
			With("operation", "find by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		return nil, "", oops.Code("LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, "", oops.Code(CodeUnauthorized).Errorf(invalidCredentialsMsg)
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Email)
	if err != nil {
		return nil, "", oops.Code("LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	pub := user.Public()
	return &pub, token, nil
}

// ForgotPassword issues a reset token bound to the email and triggers the
// mail side effect. The outcome is indistinguishable to the caller whether
// or not the email exists: for an unknown email nothing is stored or sent
// and nil is still returned.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.DebugContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "find by email").
			Wrap(err)
	}

	token := NewResetToken()
	if err := s.resets.Save(ctx, token, user.Email, s.resetTTL); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "save reset token").
			Wrap(err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		return oops.Code("RESET_MAIL_FAILED").Wrap(err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the user's password.
//
// The token is taken (atomically deleted) before the update is attempted,
// so once consumption starts it can never be replayed, even if the update
// half fails afterwards.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return oops.Code(CodeValidation).Errorf("new password is required")
	}
	if token == "" {
		return oops.Code(CodeInvalidToken).Errorf("invalid or expired reset token")
	}

	email, err := s.resets.Take(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeInvalidToken).Errorf("invalid or expired reset token")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "take reset token").
			Wrap(err)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Deleted between issuance and use; token is already consumed.
			return oops.Code(CodeNotFound).Errorf("user not found")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "find by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).Errorf("user not found")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}
	return nil
}

// GetProfile returns the profile projection for an authenticated user.
func (s *Service) GetProfile(ctx context.Context, id ulid.ULID) (*Profile, error) {
	profile, err := s.users.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeNotFound).Errorf("user not found")
		}
		return nil, oops.Code("PROFILE_FAILED").
			With("operation", "get profile").
			Wrap(err)
	}
	return profile, nil
}
