package unit

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/api/weberr"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		units, err := FetchAll(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, units, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		u, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var nu UnitNew
		if err := web.Decode(w, r, &nu); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(nu); err != nil {
			return weberr.BadRequest(err)
		}

		now := time.Now().UTC()
		u := Unit{
			ID:                     validate.GenerateID(),
			Code:                   nu.Code,
			Title:                  nu.Title,
			SinhalaTitle:           nu.SinhalaTitle,
			Category:               nu.Category,
			PriceSinhalaNote:       nu.PriceSinhalaNote,
			PriceSinhalaAssignment: nu.PriceSinhalaAssignment,
			PriceEnglishNote:       nu.PriceEnglishNote,
			PriceEnglishAssignment: nu.PriceEnglishAssignment,
			CreatedAt:              now,
			UpdatedAt:              now,
			Version:                1,
		}

		if err := Create(ctx, db, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up UnitUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(err)
		}

		u, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if up.Code != nil {
			u.Code = *up.Code
		}
		if up.Title != nil {
			u.Title = *up.Title
		}
		if up.SinhalaTitle != nil {
			u.SinhalaTitle = *up.SinhalaTitle
		}
		if up.Category != nil {
			u.Category = *up.Category
		}
		if up.PriceSinhalaNote != nil {
			u.PriceSinhalaNote = *up.PriceSinhalaNote
		}
		if up.PriceSinhalaAssignment != nil {
			u.PriceSinhalaAssignment = *up.PriceSinhalaAssignment
		}
		if up.PriceEnglishNote != nil {
			u.PriceEnglishNote = *up.PriceEnglishNote
		}
		if up.PriceEnglishAssignment != nil {
			u.PriceEnglishAssignment = *up.PriceEnglishAssignment
		}
		u.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, u); err != nil {
			return err
		}

		u.Version++
		return web.Respond(ctx, w, u, http.StatusOK)
	}
}
