package middleware

import (
	"context"
	"net/http"

	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors turns handler errors into responses: errors carrying their own
// body and code are rendered as-is, anything else becomes an opaque 500.
// Every error is logged with whatever fields it carries.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := logrus.Fields{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if extra, ok := weberr.Fields(err); ok {
				for k, v := range extra {
					fields[k] = v
				}
			}
			log.WithFields(fields).Error("ERROR")

			if body, code, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, code)
			}

			er := struct {
				Error string `json:"error"`
			}{http.StatusText(http.StatusInternalServerError)}
			return web.Respond(ctx, w, er, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
