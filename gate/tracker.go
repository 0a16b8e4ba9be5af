package gate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type messageKey struct {
	chat int64
	id   int
}

// Tracker arranges the removal of outbound messages after a fixed
// lifetime or upon challenge resolution. Each message is deleted against
// the transport at most once, even when a scheduled countdown and an
// explicit cleanup race. Deletion failures (for example a message already
// removed by a moderator) are logged and swallowed, never retried: a
// stray message is an acceptable degradation.
type Tracker struct {
	messenger Messenger
	logger    *slog.Logger

	mu      sync.Mutex
	deleted map[messageKey]struct{}
}

// NewTracker creates a Tracker that deletes messages through messenger.
func NewTracker(messenger Messenger, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		messenger: messenger,
		logger:    logger,
		deleted:   make(map[messageKey]struct{}),
	}
}

// ScheduleDeletion starts a countdown after which the message is deleted.
// Scheduling the same message more than once is harmless: whichever
// trigger fires first performs the deletion, the rest are no-ops.
func (t *Tracker) ScheduleDeletion(chat int64, messageID int, after time.Duration) {
	time.AfterFunc(after, func() {
		t.DeleteNow(chat, messageID)
	})
}

// DeleteNow deletes the message immediately unless it was already deleted.
func (t *Tracker) DeleteNow(chat int64, messageID int) {
	if !t.MarkDeleted(chat, messageID) {
		return
	}

	if err := t.messenger.DeleteMessage(context.Background(), chat, messageID); err != nil {
		t.logger.Warn("failed to delete tracked message",
			"chat", chat,
			"message", messageID,
			"error", err,
		)
	}
}

// MarkDeleted records the message as deleted.
// Returns true if this call was the first to mark it, false if it was
// already marked. Callers use it as a check-and-set guard before issuing
// a transport deletion.
func (t *Tracker) MarkDeleted(chat int64, messageID int) bool {
	key := messageKey{chat: chat, id: messageID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.deleted[key]; ok {
		return false
	}
	t.deleted[key] = struct{}{}
	return true
}

// IsDeleted reports whether the message has already been deleted.
func (t *Tracker) IsDeleted(chat int64, messageID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.deleted[messageKey{chat: chat, id: messageID}]
	return ok
}
