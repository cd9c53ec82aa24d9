// Package key implements single-use manual order keys: an admin creates
// one out-of-band, a buyer redeems it, and the redemption fabricates an
// already-completed order that feeds the same access window as any other
// purchase.
package key

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/core/claims"
	"github.com/DARK-V-98/oshadividarshana-api/core/order"
	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
	"github.com/DARK-V-98/oshadividarshana-api/core/user"
	"github.com/DARK-V-98/oshadividarshana-api/database"
	"github.com/DARK-V-98/oshadividarshana-api/validate"
	"github.com/jmoiron/sqlx"
)

// ErrAlreadyRedeemed reports a double-spend attempt. Retrying cannot
// succeed: a key with a redeemer is spent forever.
var ErrAlreadyRedeemed = errors.New("key already redeemed")

type Key struct {
	ID         string     `json:"id" db:"key_id"`
	Key        string     `json:"key" db:"key"`
	OrderCode  string     `json:"orderCode" db:"order_code"`
	Total      int        `json:"total" db:"total"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	RedeemedBy *string    `json:"redeemedBy,omitempty" db:"redeemed_by"`
	RedeemedAt *time.Time `json:"redeemedAt,omitempty" db:"redeemed_at"`
	Items      []Item     `json:"items" db:"-"`
}

// Item mirrors an order line item, snapshotted at key creation time.
type Item struct {
	KeyID        string        `json:"-" db:"key_id"`
	UnitID       string        `json:"unitId" db:"unit_id"`
	ItemType     unit.ItemType `json:"itemType" db:"item_type"`
	UnitCode     string        `json:"unitCode" db:"unit_code"`
	Name         string        `json:"itemName" db:"item_name"`
	Title        string        `json:"title" db:"title"`
	SinhalaTitle string        `json:"sinhalaTitle" db:"sinhala_title"`
	Price        int           `json:"price" db:"price"`
}

type KeyNew struct {
	Items []order.ItemNew `json:"items" validate:"required,min=1,dive"`
}

type Redemption struct {
	Key string `json:"key" validate:"required"`
}

// Redeem atomically converts an unredeemed key into a completed order
// for the redeemer. The redeemed check and both writes run inside one
// transaction with the key row locked, so two concurrent redemptions of
// the same key cannot both observe it unredeemed. Any failure leaves no
// partial state.
func Redeem(ctx context.Context, db *sqlx.DB, keyStr string, clm claims.Claims) (order.Order, error) {
	var ord order.Order

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		k, err := FetchForUpdate(ctx, tx, keyStr)
		if err != nil {
			return err
		}

		if k.RedeemedBy != nil {
			return ErrAlreadyRedeemed
		}

		items, err := FetchItems(ctx, tx, k.ID)
		if err != nil {
			return err
		}

		usr, err := user.Fetch(ctx, tx, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching redeemer[%s]: %w", clm.UserID, err)
		}

		now := time.Now().UTC()
		ord = order.Order{
			ID:          validate.GenerateID(),
			Code:        k.OrderCode,
			UserID:      usr.ID,
			UserName:    usr.Name,
			UserEmail:   usr.Email,
			Total:       k.Total,
			Status:      order.Completed,
			CreatedAt:   now,
			UpdatedAt:   now,
			CompletedAt: &now,
		}

		if err := order.Create(ctx, tx, ord); err != nil {
			return err
		}

		for _, it := range items {
			oit := order.Item{
				OrderID:      ord.ID,
				UnitID:       it.UnitID,
				ItemType:     it.ItemType,
				UnitCode:     it.UnitCode,
				Name:         it.Name,
				Title:        it.Title,
				SinhalaTitle: it.SinhalaTitle,
				Price:        it.Price,
				CreatedAt:    now,
			}
			if err := order.CreateItem(ctx, tx, oit); err != nil {
				return err
			}
			ord.Items = append(ord.Items, oit)
		}

		return MarkRedeemed(ctx, tx, k.ID, usr.ID, now)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrAlreadyRedeemed) {
			return order.Order{}, err
		}
		return order.Order{}, fmt.Errorf("redeeming key: %w", err)
	}

	return ord, nil
}
