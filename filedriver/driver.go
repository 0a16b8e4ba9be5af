// Package filedriver implements the denylist over a flat CSV file.
//
// Adds are append-only writes, so repeated adds for the same key may
// accumulate duplicate rows. Removal rewrites the file to a temporary
// location and atomically renames it into place, stripping every row for
// the key; a crash mid-rewrite leaves the previous valid file intact.
// Lookups scan the whole file, which is acceptable at group-membership
// scale.
package filedriver

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/alexice92/captcha-tgbot-monteanimals/gate"
)

// Driver is a file-backed denylist store.
type Driver struct {
	path string

	mu sync.Mutex
}

// NewDriver creates a file driver storing entries at path.
// The file is created lazily on the first Add.
func NewDriver(path string) (*Driver, error) {
	if path == "" {
		return nil, errors.New("filedriver: path must not be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf(`filedriver: failed to create directory "%s": %w`, dir, err)
	}

	return &Driver{path: path}, nil
}

// Close implements gate.Driver. The file is opened per operation, so
// there is nothing to release.
func (d *Driver) Close() error {
	return nil
}

// Add appends the entry to the file.
func (d *Driver) Add(ctx context.Context, entry gate.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := os.OpenFile(d.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf(`filedriver: failed to open "%s" for append: %w`, d.path, err)
	}

	w := csv.NewWriter(file)
	err = w.Write(entryRow(entry))
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if err != nil {
		_ = file.Close()
		return fmt.Errorf(`filedriver: failed to append entry: %w`, err)
	}

	return file.Close()
}

// Remove rewrites the file without any row for (chat, user) and swaps it
// into place. Returns true if at least one row was removed.
func (d *Driver) Remove(ctx context.Context, chat, user int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.readAll()
	if err != nil {
		return false, err
	}
	if rows == nil {
		return false, nil
	}

	kept := rows[:0]
	removed := false
	for _, row := range rows {
		if rowMatches(row, chat, user) {
			removed = true
			continue
		}
		kept = append(kept, row)
	}

	if !removed {
		return false, nil
	}

	tmpPath := d.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return false, fmt.Errorf(`filedriver: failed to create temp file "%s": %w`, tmpPath, err)
	}

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(kept); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf(`filedriver: failed to write temp file: %w`, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf(`filedriver: failed to close temp file: %w`, err)
	}

	if err := os.Rename(tmpPath, d.path); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf(`filedriver: failed to replace "%s": %w`, d.path, err)
	}

	return true, nil
}

// Contains scans the file for any row matching (chat, user).
func (d *Driver) Contains(ctx context.Context, chat, user int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.readAll()
	if err != nil {
		return false, err
	}

	for _, row := range rows {
		if rowMatches(row, chat, user) {
			return true, nil
		}
	}
	return false, nil
}

// readAll returns every row of the file, or nil if the file does not
// exist yet. Malformed rows are skipped rather than failing the whole
// read.
func (d *Driver) readAll() ([][]string, error) {
	file, err := os.Open(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(`filedriver: failed to open "%s": %w`, d.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf(`filedriver: failed to read "%s": %w`, d.path, err)
	}

	rows := all[:0]
	for _, row := range all {
		if len(row) >= 4 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func entryRow(entry gate.Entry) []string {
	return []string{
		strconv.FormatInt(entry.ChatID, 10),
		strconv.FormatInt(entry.UserID, 10),
		entry.Handle,
		entry.DisplayName,
	}
}

func rowMatches(row []string, chat, user int64) bool {
	rowChat, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return false
	}
	rowUser, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return false
	}
	return rowChat == chat && rowUser == user
}
