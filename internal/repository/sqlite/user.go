package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
)

// CreateUser inserts a new account. The id is chosen by the user at signup,
// so a taken id is a conflict rather than something to generate around.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	var exists int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, user.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: looking up user %s: %w", user.ID, err)
	}
	if exists > 0 {
		return apperror.Conflict("user", user.ID)
	}

	user.CreatedAt = time.Now().UTC()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, phone, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID,
		user.Phone,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.ID, err)
	}
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user has that id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, phone, password_hash, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}
