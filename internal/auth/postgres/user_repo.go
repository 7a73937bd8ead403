// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

// Package postgres provides PostgreSQL implementations of auth repositories.
package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/walletd/walletd/internal/auth"
)

// DB is the subset of pgxpool.Pool the repository uses. pgxmock's
// PgxPoolIface satisfies it too, which keeps the unit tests database-free.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, phone_number,
	       password_hash, pin, account_id, created_at, updated_at`

// FindByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// FindByPhone retrieves a user by phone number.
func (r *UserRepository) FindByPhone(ctx context.Context, phoneNumber string) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE phone_number = $1
	`, phoneNumber)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_PHONE_FAILED").
			With("operation", "get user by phone").
			Wrap(err)
	}
	return user, nil
}

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// CreateWithAccount inserts the user, its zero-balance account and the
// user's account reference in one transaction. All three writes commit or
// none persist. UNIQUE violations on email or phone_number are translated
// to CONFLICT-coded errors naming the duplicated field, so a lost duplicate
// race surfaces exactly like the service-level pre-check.
func (r *UserRepository) CreateWithAccount(ctx context.Context, user *auth.User) (*auth.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO users (
			id, email, first_name, last_name, phone_number,
			password_hash, pin, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID.String(),
		user.Email,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.PasswordHash,
		user.PIN,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if conflictErr := asConflict(err); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	account := &auth.Account{
		ID:        ulid.Make(),
		UserID:    user.ID,
		Balance:   0,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.CreatedAt,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		account.ID.String(),
		account.UserID.String(),
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert account").
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET account_id = $2, updated_at = $3 WHERE id = $1
	`, user.ID.String(), account.ID.String(), time.Now())
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "backfill account reference").
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "commit").
			Wrap(err)
	}

	created := *user
	accountID := account.ID
	created.AccountID = &accountID
	return &created, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id.String(), passwordHash, time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// GetProfile returns the user joined with its account, projected to the
// Profile view. Sensitive and timestamp fields are absent by construction.
func (r *UserRepository) GetProfile(ctx context.Context, id ulid.ULID) (*auth.Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.phone_number,
		       a.id, a.balance
		FROM users u
		LEFT JOIN accounts a ON a.user_id = u.id
		WHERE u.id = $1
	`, id.String())

	var profile auth.Profile
	var accountID *string
	var balance *int64
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.FirstName,
		&profile.LastName,
		&profile.PhoneNumber,
		&accountID,
		&balance,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_PROFILE_FAILED").
			With("operation", "get profile").
			With("id", id.String()).
			Wrap(err)
	}
	if accountID != nil && balance != nil {
		profile.Account = &auth.ProfileAccount{ID: *accountID, Balance: *balance}
	}
	return &profile, nil
}

// scanUser scans a full user row.
func (r *UserRepository) scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	var idStr string
	var accountIDStr *string

	err := row.Scan(
		&idStr,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.PIN,
		&accountIDStr,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	if accountIDStr != nil {
		accountID, err := ulid.Parse(*accountIDStr)
		if err != nil {
			return nil, oops.Code("USER_CORRUPT_ID").
				With("account_id", *accountIDStr).
				Wrap(err)
		}
		user.AccountID = &accountID
	}
	return &user, nil
}

// asConflict translates a UNIQUE violation into the service-level CONFLICT
// shape, keyed off the violated constraint. Returns nil for other errors.
func asConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "phone") {
		return oops.Code(auth.CodeConflict).
			With("field", "phoneNumber").
			Errorf("an account with this phone number already exists")
	}
	return oops.Code(auth.CodeConflict).
		With("field", "email").
		Errorf("an account with this email address already exists")
}
