package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/core/claims"
	"github.com/google/go-cmp/cmp"
)

const secret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	clm := claims.Claims{
		UserID: "b9f6e2fd-3a96-49ef-adfe-39e0ba04c0de",
		Email:  "user@example.com",
		Role:   claims.RoleAdmin,
	}

	token, err := GenerateToken(secret, clm, time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	got, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}

	if diff := cmp.Diff(clm, got); diff != "" {
		t.Fatalf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(secret, claims.Claims{UserID: "u1", Role: claims.RoleUser}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken("another-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a forged signature, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken(secret, claims.Claims{UserID: "u1", Role: claims.RoleUser}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken(secret, token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := ParseToken(secret, tok); err == nil {
			t.Errorf("malformed token %q was accepted", tok)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("wrong password accepted")
	}
}
