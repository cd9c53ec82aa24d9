package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/api/weberr"
	"github.com/DARK-V-98/oshadividarshana-api/core/claims"
	"github.com/DARK-V-98/oshadividarshana-api/core/user"
	"github.com/DARK-V-98/oshadividarshana-api/random"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
	"github.com/jmoiron/sqlx"
)

const stateCookie = "oauth_state"

type login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type session struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func issue(secret string, usr user.User, timeout time.Duration) (session, error) {
	token, err := GenerateToken(secret, claims.Claims{
		UserID: usr.ID,
		Email:  usr.Email,
		Role:   usr.Role,
	}, timeout)
	if err != nil {
		return session{}, fmt.Errorf("signing token: %w", err)
	}

	return session{Token: token, User: usr}, nil
}

func role(email string, adminEmail string) string {
	if adminEmail != "" && strings.EqualFold(email, adminEmail) {
		return claims.RoleAdmin
	}
	return claims.RoleUser
}

func HandleSignup(db *sqlx.DB, secret string, timeout time.Duration, adminEmail string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var nu user.UserNew
		if err := web.Decode(w, r, &nu); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(nu); err != nil {
			return weberr.BadRequest(err)
		}

		if _, err := user.FetchByEmail(ctx, db, nu.Email); err == nil {
			err := errors.New("an account with this email already exists")
			return weberr.NewError(err, err.Error(), http.StatusConflict)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		hash, err := HashPassword(nu.Password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Email:        nu.Email,
			Name:         nu.Name,
			Role:         role(nu.Email, adminEmail),
			PasswordHash: &hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			return err
		}

		s, err := issue(secret, usr, timeout)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, s, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, secret string, timeout time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var lg login
		if err := web.Decode(w, r, &lg); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(lg); err != nil {
			return weberr.BadRequest(err)
		}

		usr, err := user.FetchByEmail(ctx, db, lg.Email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotAuthorized(errors.New("wrong email or password"))
			}
			return err
		}

		if usr.PasswordHash == nil || !CheckPassword(*usr.PasswordHash, lg.Password) {
			return weberr.NotAuthorized(errors.New("wrong email or password"))
		}

		s, err := issue(secret, usr, timeout)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

func HandleOauthLogin(providers map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := providers[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", name))
		}

		state, err := random.StringSecure(24)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, prov.Conf.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, providers map[string]Provider, secret string, timeout time.Duration, adminEmail string, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := providers[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", name))
		}

		cookie, err := r.Cookie(stateCookie)
		if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		ident, err := prov.exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		usr, err := user.FetchByEmail(ctx, db, ident.Email)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			now := time.Now().UTC()
			usr = user.User{
				ID:        validate.GenerateID(),
				Email:     ident.Email,
				Name:      ident.Name,
				PhotoURL:  ident.Picture,
				Role:      role(ident.Email, adminEmail),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := user.Create(ctx, db, usr); err != nil {
				return err
			}

		case err != nil:
			return err

		default:
			usr.Name = ident.Name
			usr.PhotoURL = ident.Picture
			usr.UpdatedAt = time.Now().UTC()
			if err := user.UpdateProfile(ctx, db, usr); err != nil {
				return err
			}
		}

		s, err := issue(secret, usr, timeout)
		if err != nil {
			return err
		}

		q := url.Values{}
		q.Set("token", s.Token)
		http.Redirect(w, r, redirectURL+"?"+q.Encode(), http.StatusTemporaryRedirect)
		return nil
	}
}
