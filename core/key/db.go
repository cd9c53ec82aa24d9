package key

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, k Key) error {
	const q = `
	INSERT INTO order_keys (key_id, key, order_code, total, created_at)
	VALUES (:key_id, :key, :order_code, :total, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, k); err != nil {
		return fmt.Errorf("inserting key: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_key_items (key_id, unit_id, item_type, unit_code, item_name, title, sinhala_title, price)
	VALUES (:key_id, :unit_id, :item_type, :unit_code, :item_name, :title, :sinhala_title, :price)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting key item: %w", err)
	}

	return nil
}

// FetchForUpdate locks the key row for the rest of the transaction,
// serializing concurrent redemption attempts on the same key.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, keyStr string) (Key, error) {
	const q = `SELECT * FROM order_keys WHERE key = $1 FOR UPDATE`

	var k Key
	if err := sqlx.GetContext(ctx, tx, &k, q, keyStr); err != nil {
		return Key{}, err
	}

	return k, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, keyID string) ([]Item, error) {
	const q = `SELECT * FROM order_key_items WHERE key_id = $1 ORDER BY unit_code, item_type`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, keyID); err != nil {
		return nil, fmt.Errorf("selecting key items: %w", err)
	}

	return items, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Key, error) {
	const q = `SELECT * FROM order_keys ORDER BY created_at DESC`

	keys := []Key{}
	if err := sqlx.SelectContext(ctx, db, &keys, q); err != nil {
		return nil, fmt.Errorf("selecting keys: %w", err)
	}

	return keys, nil
}

func MarkRedeemed(ctx context.Context, tx sqlx.ExtContext, keyID string, userID string, now time.Time) error {
	const q = `UPDATE order_keys SET redeemed_by = $2, redeemed_at = $3 WHERE key_id = $1`

	if _, err := tx.ExecContext(ctx, q, keyID, userID, now); err != nil {
		return fmt.Errorf("marking key redeemed: %w", err)
	}

	return nil
}
