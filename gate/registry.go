package gate

import (
	"errors"
	"sync"
	"time"
)

// Outcome is the terminal result of a challenge.
type Outcome int

const (
	// OutcomeSuccess means the correct option was picked before the deadline.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means a wrong option was picked before the deadline.
	OutcomeFailure
	// OutcomeExpired means the challenge deadline passed without a correct answer.
	OutcomeExpired
)

// ErrAlreadyPending is returned by Registry.Create when the user already
// has an outstanding challenge in the chat. Callers must check the
// registry first; overwriting would orphan the previous prompt and timer.
var ErrAlreadyPending = errors.New("challenge already pending for user")

// ErrNotPending is returned by Registry.Resolve when no challenge exists
// for the key. This is the normal, expected outcome for the loser of a
// race between an answer and the expiry timer.
var ErrNotPending = errors.New("no pending challenge for user")

// Record is the state of one in-flight challenge.
// A record exists for a (chat, user) pair exactly while that user has an
// outstanding, unresolved challenge in that chat.
type Record struct {
	ChatID int64
	UserID int64

	// ExpectedToken is the token the submitted answer must equal to pass.
	ExpectedToken string

	CreatedAt time.Time

	// Expires is immutable after creation: CreatedAt plus the challenge timeout.
	Expires time.Time

	// PromptMessageID identifies the outbound challenge message. It
	// validates that a responder is interacting with their own prompt and
	// is the edit target on resolution.
	PromptMessageID int

	DisplayName string
	Handle      string

	// Interacted is set the instant any answer has been processed. The
	// expiry path uses it to suppress the duplicate timed-out notice.
	Interacted bool

	// TrackedMessageIDs are the messages associated with this challenge,
	// deleted in a batch when it expires.
	TrackedMessageIDs []int

	timer *time.Timer
}

type recordKey struct {
	chat int64
	user int64
}

// Registry holds every in-flight challenge, keyed by (chat, user).
// Its state machine per key is Created -> Resolved -> Purged; Resolve
// performs the read-and-remove in one indivisible step so that only one
// of a racing answer and expiry ever observes a live record.
type Registry struct {
	mu      sync.Mutex
	pending map[recordKey]*Record
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[recordKey]*Record),
	}
}

// Create stores a new challenge record.
// Returns ErrAlreadyPending if the user already has one in the chat.
func (r *Registry) Create(rec *Record) error {
	key := recordKey{chat: rec.ChatID, user: rec.UserID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[key]; ok {
		return ErrAlreadyPending
	}

	r.pending[key] = rec
	return nil
}

// Lookup returns a snapshot of the pending record for (chat, user), or
// false if none exists. The snapshot is a copy; mutating it does not
// affect the registry.
func (r *Registry) Lookup(chat, user int64) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.pending[recordKey{chat: chat, user: user}]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// MarkInteracted flags the pending record as having processed an answer.
// Returns false if no record exists.
func (r *Registry) MarkInteracted(chat, user int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.pending[recordKey{chat: chat, user: user}]
	if !ok {
		return false
	}
	rec.Interacted = true
	return true
}

// Resolve removes and returns the pending record for (chat, user).
// The read and the delete happen under one lock acquisition, so exactly
// one caller ever receives the record; all others get ErrNotPending.
func (r *Registry) Resolve(chat, user int64, outcome Outcome) (*Record, error) {
	key := recordKey{chat: chat, user: user}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.pending[key]
	if !ok {
		return nil, ErrNotPending
	}

	delete(r.pending, key)

	if outcome != OutcomeExpired && rec.timer != nil {
		rec.timer.Stop()
	}

	return rec, nil
}

// Len returns the number of in-flight challenges.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
