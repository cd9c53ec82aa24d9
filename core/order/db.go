package order

import (
	"context"
	"fmt"
	"time"

	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, order_code, user_id, user_name, user_email, total, status, created_at, updated_at, completed_at)
	VALUES
		(:order_id, :order_code, :user_id, :user_name, :user_email, :total, :status, :created_at, :updated_at, :completed_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, unit_id, item_type, unit_code, item_name, title, sinhala_title, price, user_file_path, downloaded, created_at)
	VALUES
		(:order_id, :unit_id, :item_type, :unit_code, :item_name, :title, :sinhala_title, :price, :user_file_path, :downloaded, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		return Order{}, err
	}

	return ord, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY unit_code, item_type`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting order items: %w", err)
	}

	return items, nil
}

func FetchItem(ctx context.Context, db sqlx.ExtContext, orderID string, unitID string, itemType unit.ItemType) (Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 AND unit_id = $2 AND item_type = $3`

	var it Item
	if err := sqlx.GetContext(ctx, db, &it, q, orderID, unitID, itemType); err != nil {
		return Item{}, err
	}

	return it, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, userID); err != nil {
		return nil, fmt.Errorf("selecting orders of user[%s]: %w", userID, err)
	}

	return orders, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext, status Status) ([]Order, error) {
	const all = `SELECT * FROM orders ORDER BY created_at DESC`
	const byStatus = `SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if status == "" {
		if err := sqlx.SelectContext(ctx, db, &orders, all); err != nil {
			return nil, fmt.Errorf("selecting orders: %w", err)
		}
		return orders, nil
	}

	if err := sqlx.SelectContext(ctx, db, &orders, byStatus, status); err != nil {
		return nil, fmt.Errorf("selecting orders with status[%s]: %w", status, err)
	}

	return orders, nil
}

// FetchCompletions returns the completion timestamps of every completed
// order of the user that contains the given item. The access window is
// derived from the latest of them.
func FetchCompletions(ctx context.Context, db sqlx.ExtContext, userID string, unitID string, itemType unit.ItemType) ([]time.Time, error) {
	const q = `
	SELECT o.completed_at
	FROM orders o
	JOIN order_items i ON i.order_id = o.order_id
	WHERE o.user_id = $1 AND o.status = 'completed' AND o.completed_at IS NOT NULL
		AND i.unit_id = $2 AND i.item_type = $3`

	completions := []time.Time{}
	if err := sqlx.SelectContext(ctx, db, &completions, q, userID, unitID, itemType); err != nil {
		return nil, fmt.Errorf("selecting completions: %w", err)
	}

	return completions, nil
}

// UpdateStatus moves an order to a non-completed status in one atomic
// write. The guard in the WHERE clause keeps terminal orders untouched
// even when a concurrent completion lands between the caller's fetch
// and this write; a false return means no transition happened.
// Completion goes through Complete so that status and completed_at
// always move together.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) (bool, error) {
	const q = `
	UPDATE orders SET
		status = :status,
		updated_at = :updated_at
	WHERE order_id = :order_id AND status IN ('pending', 'processing')`

	res, err := sqlx.NamedExecContext(ctx, db, q, up)
	if err != nil {
		return false, fmt.Errorf("updating order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating order status: %w", err)
	}

	return n > 0, nil
}

// Complete marks the order completed and stamps completed_at in a single
// atomic update. Only pending and processing orders can move: an
// already-completed order is left untouched, so re-running fulfillment
// never extends the access window, and a rejected order stays rejected.
// Reports whether this call performed the transition.
func Complete(ctx context.Context, db sqlx.ExtContext, id string, now time.Time) (bool, error) {
	const q = `
	UPDATE orders SET
		status = 'completed',
		completed_at = $2,
		updated_at = $2
	WHERE order_id = $1 AND status IN ('pending', 'processing')`

	res, err := db.ExecContext(ctx, q, id, now)
	if err != nil {
		return false, fmt.Errorf("completing order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("completing order: %w", err)
	}

	return n > 0, nil
}

func SetItemFile(ctx context.Context, db sqlx.ExtContext, orderID string, unitID string, itemType unit.ItemType, path *string) error {
	const q = `
	UPDATE order_items SET user_file_path = $4
	WHERE order_id = $1 AND unit_id = $2 AND item_type = $3`

	if _, err := db.ExecContext(ctx, q, orderID, unitID, itemType, path); err != nil {
		return fmt.Errorf("recording item file: %w", err)
	}

	return nil
}

// MarkItemDownloaded flags the line item consumed and drops its per-user
// file reference. The flag is monotonic.
func MarkItemDownloaded(ctx context.Context, db sqlx.ExtContext, orderID string, unitID string, itemType unit.ItemType) error {
	const q = `
	UPDATE order_items SET downloaded = TRUE, user_file_path = NULL
	WHERE order_id = $1 AND unit_id = $2 AND item_type = $3`

	if _, err := db.ExecContext(ctx, q, orderID, unitID, itemType); err != nil {
		return fmt.Errorf("marking item downloaded: %w", err)
	}

	return nil
}

// NextCode allocates the next order code from a dedicated counter row,
// so concurrent creations can never observe the same sequence value.
// Must run inside the transaction that creates the order or key.
func NextCode(ctx context.Context, tx sqlx.ExtContext) (string, error) {
	const q = `UPDATE counters SET value = value + 1 WHERE name = 'order_code' RETURNING value`

	var v int64
	if err := sqlx.GetContext(ctx, tx, &v, q); err != nil {
		return "", fmt.Errorf("incrementing order code counter: %w", err)
	}

	return fmt.Sprintf("ORD-%05d", v), nil
}
