package gate

import "context"

// Entry is one denylist record.
// An entry is written pessimistically when a challenge is issued, so a
// crash mid-challenge still leaves the user restricted on their next
// join. It is removed exactly when a challenge resolves favorably and
// otherwise persists indefinitely.
type Entry struct {
	ChatID      int64
	UserID      int64
	Handle      string
	DisplayName string
}

// Driver is a durable denylist store, keyed by (chat, user).
// Implementations must tolerate concurrent Add and Remove calls without
// corrupting the backing store.
type Driver interface {
	// Add records the entry.
	// Repeated adds for the same key may accumulate duplicate rows;
	// Contains must still report true and Remove must remove all of them.
	Add(ctx context.Context, entry Entry) error

	// Remove deletes every row for (chat, user).
	// Returns true if at least one row was removed.
	Remove(ctx context.Context, chat, user int64) (bool, error)

	// Contains reports whether (chat, user) is denylisted.
	Contains(ctx context.Context, chat, user int64) (bool, error)

	// Close releases the driver's resources.
	Close() error
}
