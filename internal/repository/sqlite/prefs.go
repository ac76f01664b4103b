package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/hangang/internal/apperror"
)

// Preferences is the device-local key/value store behind the session. Values
// are stored as plain text.
type Preferences struct {
	conn *sql.DB
}

// NewPreferences opens (or creates) the preferences file at path.
func NewPreferences(path string) (*Preferences, error) {
	conn, err := open(path)
	if err != nil {
		return nil, err
	}
	_, err = conn.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: creating preferences table: %w", err)
	}
	return &Preferences{conn: conn}, nil
}

func (p *Preferences) Close() error {
	return p.conn.Close()
}

// GetString returns apperror.ErrNotFound for an absent key.
func (p *Preferences) GetString(ctx context.Context, key string) (string, error) {
	var v string
	err := p.conn.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.NotFound("preference", key)
		}
		return "", fmt.Errorf("sqlite: reading preference %s: %w", key, err)
	}
	return v, nil
}

func (p *Preferences) SetString(ctx context.Context, key, value string) error {
	_, err := p.conn.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing preference %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (p *Preferences) Delete(ctx context.Context, key string) error {
	if _, err := p.conn.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting preference %s: %w", key, err)
	}
	return nil
}
