package api

import (
	"context"
	"net/http"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/api/background"
	"github.com/DARK-V-98/oshadividarshana-api/api/middleware"
	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/core/auth"
	"github.com/DARK-V-98/oshadividarshana-api/core/content"
	"github.com/DARK-V-98/oshadividarshana-api/core/key"
	"github.com/DARK-V-98/oshadividarshana-api/core/order"
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
	"github.com/DARK-V-98/oshadividarshana-api/core/user"
	"github.com/DARK-V-98/oshadividarshana-api/database"
	"github.com/DARK-V-98/oshadividarshana-api/rate"
	"github.com/DARK-V-98/oshadividarshana-api/storage"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Store            storage.Storage
	Signer           *storage.Signer
	Notifier         order.Notifier
	AdminAddress     string
	TokenSecret      string
	TokenTimeout     time.Duration
	AdminEmail       string
	Background       *background.Background
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	Limiter          *rate.Limiter
	GrantTTL         time.Duration
	StorageTimeout   time.Duration
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.TokenSecret)
	admin := auth.Admin(cfg.TokenSecret)
	limited := middleware.RateLimit(cfg.Limiter)

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.DB))

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.TokenSecret, cfg.TokenTimeout, cfg.AdminEmail), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.TokenSecret, cfg.TokenTimeout), limited)
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Providers, cfg.TokenSecret, cfg.TokenTimeout, cfg.AdminEmail, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), admin)
	a.Handle(http.MethodPut, "/users/{id}/role", user.HandleUpdateRole(cfg.DB), admin)

	a.Handle(http.MethodGet, "/units/{id}", unit.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/units", unit.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/units", unit.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/units/{id}", unit.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/orders/all", order.HandleListAll(cfg.DB), admin)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), authen)
	a.Handle(http.MethodPost, "/orders", order.HandleCreate(cfg.DB, cfg.Background, cfg.Notifier, cfg.AdminAddress), authen)
	a.Handle(http.MethodPut, "/orders/{id}/status", order.HandleUpdateStatus(cfg.DB), admin)
	a.Handle(http.MethodPost, "/orders/{id}/complete", content.HandleComplete(cfg.DB, cfg.Store, cfg.Log, cfg.Background, cfg.StorageTimeout), admin)
	a.Handle(http.MethodPost, "/orders/{id}/materialize", content.HandleMaterialize(cfg.DB, cfg.Store, cfg.Log, cfg.StorageTimeout), admin)

	a.Handle(http.MethodPost, "/orders/{id}/items/{unit_id}/{item_type}/download", content.HandleDownload(cfg.DB, cfg.Store, cfg.Signer, cfg.GrantTTL), authen, limited)
	a.Handle(http.MethodDelete, "/orders/{id}/items/{unit_id}/{item_type}/file", content.HandleConsume(cfg.DB, cfg.Store), authen)

	a.Handle(http.MethodPost, "/keys", key.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodGet, "/keys", key.HandleList(cfg.DB), admin)
	a.Handle(http.MethodPost, "/keys/redeem", key.HandleRedeem(cfg.DB, cfg.Store, cfg.Log, cfg.Background, cfg.StorageTimeout), authen, limited)

	a.Handle(http.MethodGet, "/files/{path:.*}", storage.HandleServe(cfg.Store, cfg.Signer))

	return a.Router
}

// handleHealth reports readiness: it fails when the database cannot be
// reached, so an orchestrator stops routing traffic here.
func handleHealth(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		status := "ok"
		code := http.StatusOK

		if err := database.StatusCheck(ctx, db); err != nil {
			status = "database not ready"
			code = http.StatusInternalServerError
		}

		body := struct {
			Status string `json:"status"`
		}{status}
		return web.Respond(ctx, w, body, code)
	}
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
