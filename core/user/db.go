package user

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users (user_id, email, name, photo_url, role, password_hash, created_at, updated_at)
	VALUES (:user_id, :email, :name, :photo_url, :role, :password_hash, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		return User{}, err
	}

	return usr, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, email); err != nil {
		return User{}, err
	}

	return usr, nil
}

// UpdateProfile refreshes the display fields of an existing account, as
// reported by an OAuth provider on login.
func UpdateProfile(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	UPDATE users SET
		name = :name,
		photo_url = :photo_url,
		updated_at = :updated_at
	WHERE user_id = :user_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}

	return nil
}

// UpdateRole changes the provisioned role. The change takes effect on the
// next token issue; tokens already in the wild keep their role claim
// until they expire.
func UpdateRole(ctx context.Context, db sqlx.ExtContext, id string, role string) error {
	const q = `UPDATE users SET role = $2, updated_at = now() WHERE user_id = $1`

	res, err := db.ExecContext(ctx, q, id, role)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user[%s] not found", id)
	}

	return nil
}
