// Package auth verifies bearer credentials and issues tokens for the
// account routes. Authorization decisions downstream read only the
// verified claims this package puts on the context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/api/weberr"
	"github.com/DARK-V-98/oshadividarshana-api/core/claims"
)

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header is not a bearer token")
	}

	return parts[1], nil
}

// Authenticate rejects requests without a valid bearer token and stores
// the verified identity on the context.
func Authenticate(secret string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			token, err := bearerToken(r)
			if err != nil {
				return weberr.NotAuthorized(err)
			}

			clm, err := ParseToken(secret, token)
			if err != nil {
				return weberr.NotAuthorized(err)
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Admin behaves like Authenticate and additionally requires the admin
// role claim.
func Admin(secret string) web.Middleware {
	authen := Authenticate(secret)
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.Forbidden(errors.New("caller is not an admin"))
			}
			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}
