// Package sqlite implements the repository interfaces and the device
// preferences store on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the CLI and the development
// backend build without a C toolchain and ":memory:" databases make tests
// self-contained.
//
// Two kinds of database are opened here:
//   - DB           the development backend's tables (users, posts, ...)
//   - Preferences  a single key/value table on the user's device that holds
//     the persisted session
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/hangang/internal/repository"
)

const memoryPath = ":memory:"

// open creates the connection pool shared by both database kinds.
func open(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating directory for %s: %w", path, err)
		}
	}

	// Pragmas go in the DSN so that every pooled connection gets them, not
	// just the first one.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != memoryPath {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate database. One connection
	// keeps the whole pool on the same one.
	if path == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}
	return conn, nil
}

// DB is the development backend's store. It implements repository.Store.
type DB struct {
	conn *sql.DB
}

var _ repository.Store = (*DB)(nil)

// New opens (or creates) the backend database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the backend tables. CREATE ... IF NOT EXISTS keeps it
// idempotent.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				phone         TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				content    TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				deleted    INTEGER NOT NULL DEFAULT 0,
				deleted_at DATETIME
			);
			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id),
				user_id    TEXT NOT NULL,
				content    TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				deleted    INTEGER NOT NULL DEFAULT 0,
				deleted_at DATETIME
			);
			CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);`},
		// UNIQUE(post_id, user_id): one like per user per post.
		{"likes", `
			CREATE TABLE IF NOT EXISTS likes (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id),
				user_id    TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME,
				UNIQUE (post_id, user_id)
			);`},
		{"inquiries", `
			CREATE TABLE IF NOT EXISTS inquiries (
				id            TEXT PRIMARY KEY,
				user_id       TEXT NOT NULL,
				admin_id      TEXT,
				question      TEXT NOT NULL,
				question_date DATETIME NOT NULL,
				answer        TEXT,
				answer_date   DATETIME,
				status        TEXT NOT NULL DEFAULT 'pending'
			);
			CREATE INDEX IF NOT EXISTS idx_inquiries_user_id ON inquiries(user_id);`},
		{"busking", `
			CREATE TABLE IF NOT EXISTS busking (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL,
				name        TEXT NOT NULL,
				date        TEXT NOT NULL,
				category    TEXT NOT NULL,
				content     TEXT NOT NULL DEFAULT '',
				band_name   TEXT NOT NULL DEFAULT '',
				state       INTEGER NOT NULL DEFAULT 0 CHECK (state IN (0, 1, 2))
			);
			CREATE INDEX IF NOT EXISTS idx_busking_user_id ON busking(user_id);`},
		{"markers", `
			CREATE TABLE IF NOT EXISTS markers (
				id      INTEGER PRIMARY KEY AUTOINCREMENT,
				name    TEXT NOT NULL,
				type    TEXT NOT NULL,
				lat     REAL NOT NULL,
				lng     REAL NOT NULL,
				address TEXT NOT NULL DEFAULT '',
				time    TEXT,
				method  TEXT,
				price   TEXT,
				phone   TEXT
			);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// nullString maps a nil pointer to NULL.
func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
