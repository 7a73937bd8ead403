// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenExpiry is the session token lifetime unless configured.
const DefaultTokenExpiry = 24 * time.Hour

// Claims is the minimal claim set a session token carries.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates signed session tokens.
type TokenIssuer interface {
	// Issue mints a signed token carrying {user id, email} with the
	// configured expiry.
	Issue(userID, email string) (string, error)

	// Verify returns the claims if the signature is valid and the token has
	// not expired. Tampered and expired tokens fail identically with an
	// INVALID_TOKEN code; the reason is carried in the error context for
	// internal logging only.
	Verify(token string) (*Claims, error)
}

// JWTIssuer implements TokenIssuer using RS256-signed JWTs. Verification
// needs only the public key, so it can run without a database round trip.
type JWTIssuer struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	expiry  time.Duration
}

// NewJWTIssuer creates a JWTIssuer from PEM-encoded RSA keys.
func NewJWTIssuer(privatePEM, publicPEM []byte, expiry time.Duration) (*JWTIssuer, error) {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}

	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, oops.Code("TOKEN_KEY_INVALID").
			With("key", "private").
			Wrap(err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, oops.Code("TOKEN_KEY_INVALID").
			With("key", "public").
			Wrap(err)
	}

	return &JWTIssuer{private: private, public: public, expiry: expiry}, nil
}

// Issue mints a signed session token.
func (i *JWTIssuer) Issue(userID, email string) (string, error) {
	if userID == "" || email == "" {
		return "", oops.Code("TOKEN_ISSUE_FAILED").Errorf("user id and email are required")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	})

	signed, err := token.SignedString(i.private)
	if err != nil {
		return "", oops.Code("TOKEN_ISSUE_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the claims.
func (i *JWTIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return i.public, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		}
		return nil, oops.Code(CodeInvalidToken).
			With("reason", reason).
			Errorf("invalid token")
	}
	if !token.Valid {
		return nil, oops.Code(CodeInvalidToken).Errorf("invalid token")
	}
	return claims, nil
}
