// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Name validation constraints.
const (
	MaxNameLength = 60
)

// nameRegex matches names made of letters only, matching the boundary rule
// the original registration form enforces.
var nameRegex = regexp.MustCompile(`^[a-zA-Z]+$`)

// phoneRegex matches E.164-style phone numbers with an optional leading plus.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// User is an account holder. PasswordHash and PIN never leave the service
// boundary; use Public or Profile projections for anything outbound.
type User struct {
	ID           ulid.ULID
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	PasswordHash string
	PIN          string
	AccountID    *ulid.ULID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Account is owned 1:1 by a User and created atomically with it.
// Balance is in cents. Ledger behavior is out of scope; the row exists so
// that downstream systems have somewhere to post to.
type Account struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a validated User with a fresh ID. The email is normalized
// to lower case. AccountID is left nil; the repository backfills it inside
// the creation transaction.
func NewUser(firstName, lastName, email, phoneNumber, passwordHash, pin string) (*User, error) {
	if err := ValidateName(firstName); err != nil {
		return nil, err
	}
	if err := ValidateName(lastName); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeValidation).Errorf("password hash cannot be empty")
	}
	if len(pin) != PINLength {
		return nil, oops.Code(CodeValidation).Errorf("pin must be %d digits", PINLength)
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        NormalizeEmail(email),
		FirstName:    firstName,
		LastName:     lastName,
		PhoneNumber:  phoneNumber,
		PasswordHash: passwordHash,
		PIN:          pin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lower-cases and trims an email address. All lookups and
// stored values go through this, making the uniqueness constraint
// case-insensitive in practice.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is well-formed.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code(CodeValidation).Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code(CodeValidation).Errorf("email is not a valid address")
	}
	return nil
}

// ValidateName checks first/last name rules: required, alphabetic.
func ValidateName(name string) error {
	if name == "" {
		return oops.Code(CodeValidation).Errorf("name is required")
	}
	if len(name) > MaxNameLength {
		return oops.Code(CodeValidation).
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return oops.Code(CodeValidation).Errorf("name must contain only letters")
	}
	return nil
}

// ValidatePhoneNumber checks that phoneNumber looks like an E.164 number.
func ValidatePhoneNumber(phoneNumber string) error {
	if phoneNumber == "" {
		return oops.Code(CodeValidation).Errorf("phone number is required")
	}
	if !phoneRegex.MatchString(phoneNumber) {
		return oops.Code(CodeValidation).Errorf("phone number must be digits with an optional leading +")
	}
	return nil
}

// PINLength is the length of the per-user numeric PIN.
const PINLength = 4

// GeneratePIN returns a random 4-digit PIN. The PIN is an opaque per-user
// secret; nothing in this service interprets it.
func GeneratePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", oops.Code("PIN_GENERATE_FAILED").Wrap(err)
	}
	return fmt.Sprintf("%04d", n), nil
}

// UserPublic is the outbound projection of a User. It structurally omits
// the password hash and PIN.
type UserPublic struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhoneNumber string    `json:"phoneNumber"`
	AccountID   string    `json:"accountId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Public maps the user to its outbound projection.
func (u *User) Public() UserPublic {
	p := UserPublic{
		ID:          u.ID.String(),
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.AccountID != nil {
		p.AccountID = u.AccountID.String()
	}
	return p
}

// ProfileAccount is the account as seen through GetProfile: no timestamps.
type ProfileAccount struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

// Profile is the user joined with its account, minus account reference and
// timestamps. Like UserPublic it structurally omits password hash and PIN.
type Profile struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	PhoneNumber string          `json:"phoneNumber"`
	Account     *ProfileAccount `json:"account,omitempty"`
}

// UserRepository manages user and account persistence.
//
// Lookup methods return an error wrapping ErrNotFound for the miss path;
// they never treat a miss as a generic failure.
type UserRepository interface {
	// FindByEmail retrieves a user by normalized email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByPhone retrieves a user by phone number.
	FindByPhone(ctx context.Context, phoneNumber string) (*User, error)

	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id ulid.ULID) (*User, error)

	// CreateWithAccount inserts the user, its zero-balance account, and the
	// user's account reference in one atomic transaction. Uniqueness
	// violations on email or phone surface as CONFLICT-coded errors.
	CreateWithAccount(ctx context.Context, user *User) (*User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// GetProfile returns the user joined with its account, already projected
	// to the Profile view.
	GetProfile(ctx context.Context, id ulid.ULID) (*Profile, error)
}
