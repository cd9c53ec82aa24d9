// Package weberr decorates errors with the extra behavior the HTTP
// layer needs: a client-facing response and structured log fields.
// Decorations stack via Opt and survive wrapping, so an error created
// deep in a core package renders correctly at the middleware.
package weberr

import "errors"

// Opt decorates an error with additional behavior.
type Opt func(error) error

// Wrap applies opts to err in order.
func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse attaches the body and status code to send to the client.
func WithResponse(body any, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields attaches structured fields to log alongside the error.
func WithFields(fields map[string]any) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}

type responseError struct {
	error
	body   any
	status int
}

func (e *responseError) Response() (any, int) { return e.body, e.status }
func (e *responseError) Unwrap() error        { return e.error }

// Response returns the client-facing body and status attached anywhere
// in err's chain.
func Response(err error) (any, int, bool) {
	var re *responseError
	if errors.As(err, &re) {
		return re.body, re.status, true
	}
	return nil, 0, false
}

type fieldsError struct {
	error
	fields map[string]any
}

func (e *fieldsError) Fields() map[string]any { return e.fields }
func (e *fieldsError) Unwrap() error          { return e.error }

// Fields returns the log fields attached anywhere in err's chain.
func Fields(err error) (map[string]any, bool) {
	var fe *fieldsError
	if errors.As(err, &fe) {
		return fe.fields, true
	}
	return nil, false
}
