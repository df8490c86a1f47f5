// Package jwtauth issues and validates the HS256 access tokens callers
// present to the gateway. A token's subject is the caller's chain address;
// the sale service only ever sees the resolved address.
package jwtauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
)

type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken mints a token whose subject is the caller address.
func (s *Service) GenerateAccessToken(caller domain.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   caller.String(),
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// ValidateToken verifies signature, expiry, issuer and audience, and returns
// the caller address carried in the subject.
func (s *Service) ValidateToken(raw string) (domain.Address, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token")
	}

	caller, err := domain.ParseAddress(claims.Subject)
	if err != nil {
		return "", domainerrors.New(domainerrors.CodeUnauthorized, "token subject is not a valid address")
	}
	return caller, nil
}
