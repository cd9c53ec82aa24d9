package key

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/api/background"
	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/api/weberr"
	"github.com/DARK-V-98/oshadividarshana-api/core/access"
	"github.com/DARK-V-98/oshadividarshana-api/core/claims"
	"github.com/DARK-V-98/oshadividarshana-api/core/content"
	"github.com/DARK-V-98/oshadividarshana-api/core/order"
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
	"github.com/DARK-V-98/oshadividarshana-api/database"
	"github.com/DARK-V-98/oshadividarshana-api/random"
	"github.com/DARK-V-98/oshadividarshana-api/storage"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const keyLength = 32

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var nk KeyNew
		if err := web.Decode(w, r, &nk); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(nk); err != nil {
			return weberr.BadRequest(err)
		}

		if err := order.CheckItems(nk.Items); err != nil {
			return weberr.BadRequest(err)
		}

		secret, err := random.StringSecure(keyLength)
		if err != nil {
			return fmt.Errorf("generating key string: %w", err)
		}

		now := time.Now().UTC()
		k := Key{
			ID:        validate.GenerateID(),
			Key:       secret,
			CreatedAt: now,
		}

		items := make([]Item, 0, len(nk.Items))
		for _, in := range nk.Items {
			u, err := unit.Fetch(ctx, db, in.UnitID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return weberr.NotFound(fmt.Errorf("unit[%s] not found", in.UnitID))
				}
				return err
			}

			it := Item{
				KeyID:        k.ID,
				UnitID:       u.ID,
				ItemType:     in.ItemType,
				UnitCode:     u.Code,
				Name:         u.ItemName(in.ItemType),
				Title:        u.Title,
				SinhalaTitle: u.SinhalaTitle,
				Price:        u.Price(in.ItemType),
			}
			items = append(items, it)
			k.Total += it.Price
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			code, err := order.NextCode(ctx, tx)
			if err != nil {
				return err
			}
			k.OrderCode = code

			if err := Create(ctx, tx, k); err != nil {
				return err
			}

			for _, it := range items {
				if err := CreateItem(ctx, tx, it); err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("creating manual order key: %w", err)
		}
		k.Items = items

		return web.Respond(ctx, w, k, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		keys, err := FetchAll(ctx, db)
		if err != nil {
			return err
		}

		for i := range keys {
			items, err := FetchItems(ctx, db, keys[i].ID)
			if err != nil {
				return err
			}
			keys[i].Items = items
		}

		return web.Respond(ctx, w, keys, http.StatusOK)
	}
}

// HandleRedeem converts a key into a completed order for the caller and
// queues best-effort materialization of the purchased files.
func HandleRedeem(db *sqlx.DB, store storage.Storage, log logrus.FieldLogger, bg *background.Background, opTimeout time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var rd Redemption
		if err := web.Decode(w, r, &rd); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(rd); err != nil {
			return weberr.BadRequest(err)
		}

		ord, err := Redeem(ctx, db, rd.Key, clm)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(errors.New("key not found"))
			}
			if errors.Is(err, ErrAlreadyRedeemed) {
				return weberr.NewError(err, err.Error(), http.StatusConflict)
			}
			return err
		}

		bg.Go("materialize-"+ord.ID, func(ctx context.Context) error {
			_, err := content.Materialize(ctx, db, store, log, ord, opTimeout)
			return err
		})

		if exp, ok := access.ExpiryOf(true, ord.CompletedAt); ok {
			ord.ExpiresAt = &exp
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}
