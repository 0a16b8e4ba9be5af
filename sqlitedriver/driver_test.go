package sqlitedriver

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alexice92/captcha-tgbot-monteanimals/gate"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory SQLite: %v", err)
	}

	d, err := NewDriver(db)
	if err != nil {
		t.Fatalf("NewDriver returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

func TestRoundTrip(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	if ok, err := d.Contains(ctx, 1, 10); err != nil || ok {
		t.Fatalf("Contains on empty table = %v, %v; want false, nil", ok, err)
	}

	err := d.Add(ctx, gate.Entry{ChatID: 1, UserID: 10, Handle: "alice", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	if ok, _ := d.Contains(ctx, 1, 10); !ok {
		t.Error("Contains false after Add")
	}
	if ok, _ := d.Contains(ctx, 1, 11); ok {
		t.Error("Contains true for a different user")
	}

	removed, err := d.Remove(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if !removed {
		t.Error("Remove reported false for a present entry")
	}
	if ok, _ := d.Contains(ctx, 1, 10); ok {
		t.Error("Contains true after Remove")
	}
}

func TestRemoveAbsentKey(t *testing.T) {
	d := newTestDriver(t)

	if removed, err := d.Remove(context.Background(), 1, 10); err != nil || removed {
		t.Errorf("Remove on absent key = %v, %v; want false, nil", removed, err)
	}
}

func TestDuplicateRowsRemovedTogether(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := d.Add(ctx, gate.Entry{ChatID: 1, UserID: 10, Handle: "alice", DisplayName: "Alice"})
		if err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}

	removed, err := d.Remove(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if !removed {
		t.Error("Remove reported false")
	}
	if ok, _ := d.Contains(ctx, 1, 10); ok {
		t.Error("a duplicate row survived Remove")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory SQLite: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if _, err := NewDriver(db); err != nil {
		t.Fatalf("first NewDriver returned error: %v", err)
	}
	if _, err := NewDriver(db); err != nil {
		t.Fatalf("second NewDriver on the same DB returned error: %v", err)
	}
}
