package unit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, u Unit) error {
	const q = `
	INSERT INTO units
		(unit_id, code, title, sinhala_title, category,
		price_sinhala_note, price_sinhala_assignment,
		price_english_note, price_english_assignment,
		created_at, updated_at)
	VALUES
		(:unit_id, :code, :title, :sinhala_title, :category,
		:price_sinhala_note, :price_sinhala_assignment,
		:price_english_note, :price_english_assignment,
		:created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, u); err != nil {
		return fmt.Errorf("inserting unit: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Unit, error) {
	const q = `SELECT * FROM units WHERE unit_id = $1`

	var u Unit
	if err := sqlx.GetContext(ctx, db, &u, q, id); err != nil {
		return Unit{}, err
	}

	return u, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Unit, error) {
	const q = `SELECT * FROM units ORDER BY code`

	units := []Unit{}
	if err := sqlx.SelectContext(ctx, db, &units, q); err != nil {
		return nil, fmt.Errorf("selecting units: %w", err)
	}

	return units, nil
}

// Update writes a full unit row guarded by the optimistic version column.
func Update(ctx context.Context, db sqlx.ExtContext, u Unit) error {
	const q = `
	UPDATE units SET
		code = :code,
		title = :title,
		sinhala_title = :sinhala_title,
		category = :category,
		price_sinhala_note = :price_sinhala_note,
		price_sinhala_assignment = :price_sinhala_assignment,
		price_english_note = :price_english_note,
		price_english_assignment = :price_english_assignment,
		updated_at = :updated_at,
		version = version + 1
	WHERE unit_id = :unit_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, u)
	if err != nil {
		return fmt.Errorf("updating unit: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("unit[%s] was modified concurrently", u.ID)
	}

	return nil
}
