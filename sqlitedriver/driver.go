// Package sqlitedriver implements the denylist over a SQLite database.
// It indexes lookups by (chat, user) and suits deployments that have
// outgrown the flat-file driver.
package sqlitedriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexice92/captcha-tgbot-monteanimals/gate"
	"github.com/alexice92/captcha-tgbot-monteanimals/sqlitedriver/migration"
)

// Driver is a SQLite-backed denylist store.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a SQLite driver over the given database, applying
// any pending schema migrations.
func NewDriver(db *sql.DB) (*Driver, error) {
	if err := migration.DoMigrations(db); err != nil {
		return nil, fmt.Errorf(`sqlitedriver: failed to run migrations: %w`, err)
	}

	return &Driver{db: db}, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Add inserts a denylist row. Duplicate rows for the same (chat, user)
// pair are allowed.
func (d *Driver) Add(ctx context.Context, entry gate.Entry) error {
	_, err := d.db.ExecContext(ctx, `
		insert into denylist (chat_id, user_id, handle, display_name)
		values (?, ?, ?, ?)
	`, entry.ChatID, entry.UserID, entry.Handle, entry.DisplayName)
	if err != nil {
		return fmt.Errorf(`sqlitedriver: failed to insert denylist entry: %w`, err)
	}

	return nil
}

// Remove deletes every row for (chat, user).
func (d *Driver) Remove(ctx context.Context, chat, user int64) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		delete from denylist where chat_id = ? and user_id = ?
	`, chat, user)
	if err != nil {
		return false, fmt.Errorf(`sqlitedriver: failed to delete denylist rows: %w`, err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf(`sqlitedriver: failed to count deleted rows: %w`, err)
	}

	return count > 0, nil
}

// Contains reports whether any row exists for (chat, user).
func (d *Driver) Contains(ctx context.Context, chat, user int64) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `
		select 1 from denylist where chat_id = ? and user_id = ? limit 1
	`, chat, user).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf(`sqlitedriver: failed to query denylist: %w`, err)
	}

	return true, nil
}
