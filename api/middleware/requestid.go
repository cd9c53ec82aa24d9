package middleware

import (
	"context"
	"net/http"

	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
)

// RequestIDHeader is honored when the client (or a proxy in front of
// us) already tagged the request.
const RequestIDHeader = "X-Request-Id"

// requestIDLengthLimit truncates inbound IDs so a hostile header cannot
// flood the logs.
const requestIDLengthLimit = 64

type ctxKey int

const reqIDKey ctxKey = 1

// RequestID stamps every request with an identifier and stores it on the
// context for the logger and error middleware to pick up.
func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := r.Header.Get(RequestIDHeader)
			switch {
			case id == "":
				id = validate.GenerateID()
			case len(id) > requestIDLengthLimit:
				id = id[:requestIDLengthLimit]
			}

			ctx = context.WithValue(ctx, reqIDKey, id)
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// ContextRequestID returns the request ID stored by RequestID, or the
// empty string outside of a request.
func ContextRequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey).(string)
	return id
}
