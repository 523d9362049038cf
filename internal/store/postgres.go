package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	createSettingsQuery = "CREATE TABLE IF NOT EXISTS settings (" +
		"name VARCHAR(64) PRIMARY KEY, value TEXT NOT NULL, updated_at TIMESTAMPTZ NOT NULL)"
	getSettingQuery    = "SELECT value FROM settings WHERE name = $1 LIMIT 1"
	upsertSettingQuery = "INSERT INTO settings (name, value, updated_at) VALUES ($1, $2, $3) " +
		"ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at"
)

// PgUsernameStore keeps the username in a Postgres settings table. The
// caller must register the "postgres" driver (github.com/lib/pq).
type PgUsernameStore struct {
	conn *sql.DB
}

func NewPgUsernameStore(ctx context.Context, dsn string) (*PgUsernameStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, createSettingsQuery); err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}

	return &PgUsernameStore{conn: db}, nil
}

func (db *PgUsernameStore) GetUsername(ctx context.Context) (string, error) {
	var username string
	err := db.conn.QueryRowContext(ctx, getSettingQuery, usernameKey).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get username: %w", err)
	}
	return username, nil
}

func (db *PgUsernameStore) SetUsername(ctx context.Context, username string) error {
	_, err := db.conn.ExecContext(ctx, upsertSettingQuery, usernameKey, username, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set username: %w", err)
	}
	return nil
}

func (db *PgUsernameStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
