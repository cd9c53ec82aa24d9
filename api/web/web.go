// Package web carries the small framework glue shared by every route:
// the error-returning handler signature, middleware chaining, and JSON
// request/response plumbing.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler is the signature every route handler implements. Returning an
// error leaves the response to the errors middleware.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type Middleware func(Handler) Handler

// WrapMiddleware wraps handler with mw so that the first middleware in
// the slice is the outermost one at request time.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}

// Respond writes data as a JSON body with the given status code. A
// StatusNoContent response carries no body at all.
func Respond(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshalling response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// maxBodyBytes caps request bodies at 1 MiB. Nothing in the API needs
// more: file traffic goes through the storage routes, not JSON.
const maxBodyBytes = 1 << 20

// Decode reads the request body into val, rejecting unknown fields so a
// typo in a client payload fails loudly instead of being ignored.
func Decode(w http.ResponseWriter, r *http.Request, val any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(val)
}

// Param returns the named route variable.
func Param(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}
