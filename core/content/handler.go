package content

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
	"github.com/DARK-V-98/oshadividarshana-api/core/order"
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
	"github.com/DARK-V-98/oshadividarshana-api/storage"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func fetchOrder(ctx context.Context, db *sqlx.DB, r *http.Request) (order.Order, error) {
	id := web.Param(r, "id")
	if err := validate.CheckID(id); err != nil {
		return order.Order{}, weberr.BadRequest(err)
	}

	ord, err := order.Fetch(ctx, db, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Order{}, weberr.NotFound(err)
		}
		return order.Order{}, err
	}

	return ord, nil
}

func itemParams(r *http.Request) (string, unit.ItemType, error) {
	unitID := web.Param(r, "unit_id")
	if err := validate.CheckID(unitID); err != nil {
		return "", "", weberr.BadRequest(err)
	}

	itemType := unit.ItemType(web.Param(r, "item_type"))
	if !itemType.Valid() {
		return "", "", weberr.BadRequest(fmt.Errorf("unknown item type %q", itemType))
	}

	return unitID, itemType, nil
}

// HandleComplete is the admin fulfillment step: it stamps the completion
// atomically and queues materialization as a best-effort follow-up.
// Completing an already-completed order is a no-op and never extends the
// access window.
func HandleComplete(db *sqlx.DB, store storage.Storage, log logrus.FieldLogger, bg *background.Background, opTimeout time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ord, err := fetchOrder(ctx, db, r)
		if err != nil {
			return err
		}

		if ord.Status != order.Completed {
			if !ord.Status.CanTransition(order.Completed) {
				err := fmt.Errorf("cannot complete order in status %q", ord.Status)
				return weberr.NewError(err, err.Error(), http.StatusConflict)
			}

			moved, err := order.Complete(ctx, db, ord.ID, time.Now().UTC())
			if err != nil {
				return err
			}

			done, err := order.Fetch(ctx, db, ord.ID)
			if err != nil {
				return err
			}
			ord = done

			// The guarded write moves nothing when another admin got
			// there first. Completed is fine (idempotent re-run);
			// anything else means the order was rejected meanwhile.
			if !moved && ord.Status != order.Completed {
				err := fmt.Errorf("cannot complete order in status %q", ord.Status)
				return weberr.NewError(err, err.Error(), http.StatusConflict)
			}

			if moved {
				bg.Go("materialize-"+ord.ID, func(ctx context.Context) error {
					_, err := Materialize(ctx, db, store, log, ord, opTimeout)
					return err
				})
			}
		}

		items, err := order.FetchItems(ctx, db, ord.ID)
		if err != nil {
			return err
		}
		ord.Items = items

		if exp, ok := access.ExpiryOf(ord.Status == order.Completed, ord.CompletedAt); ok {
			ord.ExpiresAt = &exp
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

// HandleMaterialize re-runs file materialization synchronously and
// reports how many files were copied.
func HandleMaterialize(db *sqlx.DB, store storage.Storage, log logrus.FieldLogger, opTimeout time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ord, err := fetchOrder(ctx, db, r)
		if err != nil {
			return err
		}

		if ord.Status != order.Completed {
			return weberr.NewError(ErrOrderNotCompleted, ErrOrderNotCompleted.Error(), http.StatusConflict)
		}

		n, err := Materialize(ctx, db, store, log, ord, opTimeout)
		if err != nil {
			return err
		}

		body := struct {
			Materialized int `json:"materialized"`
		}{n}
		return web.Respond(ctx, w, body, http.StatusOK)
	}
}

// HandleDownload issues a signed URL for the master file, valid for a
// fixed short TTL, only while the caller's access window is open. The
// window is recomputed here from the stored completion timestamps; the
// client countdown has no authority.
func HandleDownload(db *sqlx.DB, store storage.Storage, signer *storage.Signer, grantTTL time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		ord, err := fetchOrder(ctx, db, r)
		if err != nil {
			return err
		}

		unitID, itemType, err := itemParams(r)
		if err != nil {
			return err
		}

		if ord.UserID != clm.UserID {
			return weberr.Forbidden(errors.New("order belongs to another user"))
		}

		if ord.Status != order.Completed {
			return weberr.NewError(ErrOrderNotCompleted, ErrOrderNotCompleted.Error(), http.StatusConflict)
		}

		if _, err := order.FetchItem(ctx, db, ord.ID, unitID, itemType); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(errors.New("item not part of this order"))
			}
			return err
		}

		// Latest-wins across every completed order holding this item: a
		// repurchase must not lose access because this order is older.
		completions, err := order.FetchCompletions(ctx, db, clm.UserID, unitID, itemType)
		if err != nil {
			return err
		}

		expiry, ok := access.Effective(completions)
		if !ok || !access.Accessible(time.Now().UTC(), expiry) {
			return weberr.NewError(ErrWindowExpired, ErrWindowExpired.Error(), http.StatusForbidden)
		}

		master := MasterPath(unitID, itemType)
		exists, err := store.Exists(ctx, master)
		if err != nil {
			return err
		}
		if !exists {
			return weberr.NotFound(fmt.Errorf("master file %s is missing", master))
		}

		grantExpiry := time.Now().UTC().Add(grantTTL)
		body := struct {
			URL       string    `json:"url"`
			ExpiresAt time.Time `json:"expiresAt"`
		}{
			URL:       signer.Sign(master, grantExpiry),
			ExpiresAt: grantExpiry,
		}

		return web.Respond(ctx, w, body, http.StatusOK)
	}
}

// HandleConsume deletes the caller's materialized copy and marks the
// line item downloaded. Deleting an already-absent copy is success, so
// repeated calls and delete races never surface as failures.
func HandleConsume(db *sqlx.DB, store storage.Storage) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		ord, err := fetchOrder(ctx, db, r)
		if err != nil {
			return err
		}

		unitID, itemType, err := itemParams(r)
		if err != nil {
			return err
		}

		if ord.UserID != clm.UserID {
			return weberr.Forbidden(errors.New("order belongs to another user"))
		}

		it, err := order.FetchItem(ctx, db, ord.ID, unitID, itemType)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(errors.New("item not part of this order"))
			}
			return err
		}

		path := UserPath(ord.UserID, ord.ID, unitID, itemType)
		if it.UserFilePath != nil {
			path = *it.UserFilePath
		}

		if err := store.Delete(ctx, path); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("deleting %s: %w", path, err)
		}

		if err := order.MarkItemDownloaded(ctx, db, ord.ID, unitID, itemType); err != nil {
			return err
		}

		body := struct {
			Downloaded bool `json:"downloaded"`
		}{true}
		return web.Respond(ctx, w, body, http.StatusOK)
	}
}
