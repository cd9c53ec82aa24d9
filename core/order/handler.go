package order

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
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
	"github.com/DARK-V-98/oshadividarshana-api/core/user"
	"github.com/DARK-V-98/oshadividarshana-api/database"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
	"github.com/jmoiron/sqlx"
)

// Notifier delivers the out-of-band payment notice to the admin when a
// new order comes in. Payments themselves are settled off the platform.
type Notifier interface {
	Send(to, subject, body string) error
}

func withExpiry(ord Order) Order {
	if exp, ok := access.ExpiryOf(ord.Status == Completed, ord.CompletedAt); ok {
		ord.ExpiresAt = &exp
	}
	return ord
}

// Snapshot builds the line item for one purchased variant, copying
// name, titles and price off the live unit.
func Snapshot(orderID string, u unit.Unit, t unit.ItemType, now time.Time) Item {
	return Item{
		OrderID:      orderID,
		UnitID:       u.ID,
		ItemType:     t,
		UnitCode:     u.Code,
		Name:         u.ItemName(t),
		Title:        u.Title,
		SinhalaTitle: u.SinhalaTitle,
		Price:        u.Price(t),
		CreatedAt:    now,
	}
}

func HandleCreate(db *sqlx.DB, bg *background.Background, notifier Notifier, adminAddress string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var no OrderNew
		if err := web.Decode(w, r, &no); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(no); err != nil {
			return weberr.BadRequest(err)
		}

		if err := CheckItems(no.Items); err != nil {
			return weberr.BadRequest(err)
		}

		usr, err := user.Fetch(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching buyer[%s]: %w", clm.UserID, err)
		}

		now := time.Now().UTC()
		ord := Order{
			ID:        validate.GenerateID(),
			UserID:    usr.ID,
			UserName:  usr.Name,
			UserEmail: usr.Email,
			Status:    Pending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		items := make([]Item, 0, len(no.Items))
		for _, in := range no.Items {
			u, err := unit.Fetch(ctx, db, in.UnitID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return weberr.NotFound(fmt.Errorf("unit[%s] not found", in.UnitID))
				}
				return err
			}

			it := Snapshot(ord.ID, u, in.ItemType, now)
			items = append(items, it)
			ord.Total += it.Price
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			code, err := NextCode(ctx, tx)
			if err != nil {
				return err
			}
			ord.Code = code

			if err := Create(ctx, tx, ord); err != nil {
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
			return fmt.Errorf("creating order for user[%s]: %w", clm.UserID, err)
		}
		ord.Items = items

		if adminAddress != "" {
			code, total := ord.Code, ord.Total
			bg.Go("order-notification", func(ctx context.Context) error {
				body := fmt.Sprintf("Order %s from %s (%s), total Rs. %d. Mark it completed once the payment is confirmed.",
					code, usr.Name, usr.Email, total)
				return notifier.Send(adminAddress, "New order "+code, body)
			})
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		orders, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		for i, ord := range orders {
			items, err := FetchItems(ctx, db, ord.ID)
			if err != nil {
				return err
			}
			ord.Items = items
			orders[i] = withExpiry(ord)
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleListAll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		status := Status(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			return weberr.BadRequest(fmt.Errorf("unknown status %q", status))
		}

		orders, err := FetchAll(ctx, db, status)
		if err != nil {
			return err
		}

		for i := range orders {
			orders[i] = withExpiry(orders[i])
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.IsAdmin(ctx) && !claims.IsUser(ctx, ord.UserID) {
			return weberr.Forbidden(errors.New("order belongs to another user"))
		}

		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			return err
		}
		ord.Items = items

		return web.Respond(ctx, w, withExpiry(ord), http.StatusOK)
	}
}

// HandleUpdateStatus moves an order between the non-terminal states.
// Completion is a separate operation with its own route, since it stamps
// the access window.
func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var body struct {
			Status Status `json:"status" validate:"required,oneof=processing rejected"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(body); err != nil {
			return weberr.BadRequest(err)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !ord.Status.CanTransition(body.Status) {
			err := fmt.Errorf("cannot move order from %q to %q", ord.Status, body.Status)
			return weberr.NewError(err, err.Error(), http.StatusConflict)
		}

		up := StatusUp{
			ID:        ord.ID,
			Status:    body.Status,
			UpdatedAt: time.Now().UTC(),
		}
		moved, err := UpdateStatus(ctx, db, up)
		if err != nil {
			return err
		}

		// A concurrent completion can land between the fetch above and
		// the guarded write. The order is terminal now, so report the
		// same conflict the pre-check would have.
		if !moved {
			err := fmt.Errorf("cannot move terminal order to %q", body.Status)
			return weberr.NewError(err, err.Error(), http.StatusConflict)
		}

		ord.Status = up.Status
		ord.UpdatedAt = up.UpdatedAt
		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}
