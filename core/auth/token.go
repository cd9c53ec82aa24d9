package auth

import (
	"errors"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/core/claims"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a bearer token carrying the user identity and role.
// The role claim is the single authorization source of truth: it is written
// here, at issue time, and only ever read back through ParseToken.
func GenerateToken(secret string, clm claims.Claims, timeout time.Duration) (string, error) {
	now := time.Now().UTC()
	tc := tokenClaims{
		Email: clm.Email,
		Role:  clm.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clm.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(timeout)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies the signature and expiry of a bearer token and
// returns the identity it carries.
func ParseToken(secret string, token string) (claims.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims.Claims{}, ErrExpiredToken
		}
		return claims.Claims{}, ErrInvalidToken
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return claims.Claims{}, ErrInvalidToken
	}

	return claims.Claims{
		UserID: tc.Subject,
		Email:  tc.Email,
		Role:   tc.Role,
	}, nil
}
