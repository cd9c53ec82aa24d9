package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/api/weberr"
	"github.com/DARK-V-98/oshadividarshana-api/rate"
)

// RateLimit throttles per client address. Applied to the routes that are
// attractive to brute force: login, signup, key redemption, download
// grants.
func RateLimit(limiter *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiter.Allow(host) {
				err := errors.New("too many requests")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
