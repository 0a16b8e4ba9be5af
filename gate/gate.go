// Package gate implements the verification flow that gates new chat
// members behind an emoji-picking challenge. Members who answer wrong,
// or never answer, stay restricted and land on a durable denylist.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultChallengeTimeout is how long a new member has to answer.
const DefaultChallengeTimeout = 90 * time.Second

// DefaultMessageTTL is how long outbound notices (and the prompt) live
// before the Tracker removes them.
const DefaultMessageTTL = 5 * time.Minute

// Gate orchestrates the verification flow for new chat members.
// It reacts to two external events, a user joining and a user answering,
// plus the internally scheduled challenge expiry. Events for different
// users are independent; events for the same user are serialized by the
// registry's indivisible resolve.
type Gate struct {
	driver    Driver
	messenger Messenger

	chooser  OptionChooser
	registry *Registry
	tracker  *Tracker
	logger   *slog.Logger
	texts    Texts

	timeout    time.Duration
	messageTTL time.Duration
}

// NewGate creates a Gate with the specified denylist driver, transport
// and options.
func NewGate(driver Driver, messenger Messenger, opts ...func(g *Gate)) *Gate {
	g := &Gate{
		driver:    driver,
		messenger: messenger,

		chooser:  EmojiChooser{},
		registry: NewRegistry(),
		logger:   slog.Default(),
		texts:    DefaultTexts,

		timeout:    DefaultChallengeTimeout,
		messageTTL: DefaultMessageTTL,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.tracker = NewTracker(messenger, g.logger)

	return g
}

// WithLogger sets the logger.
// When not specified, uses slog.Default.
func WithLogger(logger *slog.Logger) func(g *Gate) {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithChooser sets the option chooser used for new challenges.
// When not specified, uses EmojiChooser.
func WithChooser(chooser OptionChooser) func(g *Gate) {
	return func(g *Gate) {
		g.chooser = chooser
	}
}

// WithTexts sets the user-visible strings.
// When not specified, uses DefaultTexts.
func WithTexts(texts Texts) func(g *Gate) {
	return func(g *Gate) {
		g.texts = texts
	}
}

// WithChallengeTimeout sets how long a member has to answer.
// When not specified, uses DefaultChallengeTimeout.
func WithChallengeTimeout(timeout time.Duration) func(g *Gate) {
	return func(g *Gate) {
		g.timeout = timeout
	}
}

// WithMessageTTL sets the lifetime of outbound notices before deletion.
// When not specified, uses DefaultMessageTTL.
func WithMessageTTL(ttl time.Duration) func(g *Gate) {
	return func(g *Gate) {
		g.messageTTL = ttl
	}
}

// Registry exposes the in-flight challenge registry.
func (g *Gate) Registry() *Registry {
	return g.registry
}

// Tracker exposes the ephemeral message tracker.
func (g *Gate) Tracker() *Tracker {
	return g.tracker
}

// OnJoin handles a new member joining the chat.
// The member's send permission is revoked immediately. If they are on
// the denylist no challenge is issued, only a notice. Otherwise a
// challenge is issued, a denylist entry is written pessimistically (a
// crash mid-challenge must leave the user restricted on their next
// join), and the expiry timer starts.
func (g *Gate) OnJoin(ctx context.Context, chat, user int64, displayName, handle string) {
	denied, err := g.driver.Contains(ctx, chat, user)
	if err != nil {
		// The store being unavailable must not crash the service. The
		// member is about to be restricted either way, so proceed as if
		// not denylisted.
		g.logger.Error("denylist lookup failed", "chat", chat, "user", user, "error", err)
	}

	if err := g.messenger.RestrictSend(ctx, chat, user, false); err != nil {
		g.logger.Error("failed to restrict new member", "chat", chat, "user", user, "error", err)
	}

	if denied {
		g.logger.Info("denylisted member rejoined", "chat", chat, "user", user)
		id, err := g.messenger.SendMessage(ctx, chat, fmt.Sprintf(g.texts.DeniedNotice, displayName))
		if err != nil {
			g.logger.Warn("failed to send denied notice", "chat", chat, "user", user, "error", err)
			return
		}
		g.tracker.ScheduleDeletion(chat, id, g.messageTTL)
		return
	}

	if _, ok := g.registry.Lookup(chat, user); ok {
		g.logger.Warn("join event for member with pending challenge", "chat", chat, "user", user)
		return
	}

	options, correct := g.chooser.ChooseOptions()
	tokens, expected, err := Issue(options, correct)
	if err != nil {
		// A broken option set is fatal to this issuance only.
		g.logger.Error("challenge issuance failed", "chat", chat, "user", user, "error", err)
		return
	}

	buttons := make([]PromptButton, len(options))
	for i, opt := range options {
		buttons[i] = PromptButton{Label: opt, Token: tokens[opt]}
	}

	promptID, err := g.messenger.SendPrompt(ctx, chat, fmt.Sprintf(g.texts.Prompt, displayName), buttons)
	if err != nil {
		g.logger.Error("failed to send challenge prompt", "chat", chat, "user", user, "error", err)
		return
	}

	now := time.Now()
	rec := &Record{
		ChatID:            chat,
		UserID:            user,
		ExpectedToken:     expected,
		CreatedAt:         now,
		Expires:           now.Add(g.timeout),
		PromptMessageID:   promptID,
		DisplayName:       displayName,
		Handle:            handle,
		TrackedMessageIDs: []int{promptID},
	}
	rec.timer = time.AfterFunc(g.timeout, func() {
		g.expire(chat, user)
	})

	if err := g.registry.Create(rec); err != nil {
		// Only reachable if a concurrent join for the same member won the
		// registry; the earlier challenge stays authoritative.
		g.logger.Warn("challenge registration refused", "chat", chat, "user", user, "error", err)
		rec.timer.Stop()
		g.tracker.DeleteNow(chat, promptID)
		return
	}

	if err := g.driver.Add(ctx, Entry{ChatID: chat, UserID: user, Handle: handle, DisplayName: displayName}); err != nil {
		g.logger.Error("pessimistic denylist add failed", "chat", chat, "user", user, "error", err)
	}

	g.tracker.ScheduleDeletion(chat, promptID, g.messageTTL)

	g.logger.Info("challenge issued",
		"chat", chat,
		"user", user,
		"prompt", promptID,
		"options", len(options),
	)
}

// OnAnswer handles a button press on a challenge prompt.
// The returned string is the transient notice the transport should show
// to the responder; it is never an error.
func (g *Gate) OnAnswer(ctx context.Context, chat, responder int64, token string, promptMessageID int) string {
	rec, ok := g.registry.Lookup(chat, responder)
	if !ok {
		// Either someone tapped another member's button, or the challenge
		// was already resolved (possibly by expiry racing this answer).
		return g.texts.NotYourChallenge
	}

	if promptMessageID != rec.PromptMessageID {
		// Stale button from an orphaned prompt.
		return g.texts.NotYourChallenge
	}

	g.registry.MarkInteracted(chat, responder)

	if time.Now().After(rec.Expires) {
		// The deadline passed but the timer has not fired yet.
		resolved, err := g.registry.Resolve(chat, responder, OutcomeExpired)
		if errors.Is(err, ErrNotPending) {
			return g.texts.NotYourChallenge
		}
		g.finishUnfavorable(ctx, resolved, g.texts.TimedOut)
		g.logger.Warn("answer arrived after deadline", "chat", chat, "user", responder)
		return g.texts.TimedOut
	}

	outcome := OutcomeFailure
	if token == rec.ExpectedToken {
		outcome = OutcomeSuccess
	}

	resolved, err := g.registry.Resolve(chat, responder, outcome)
	if errors.Is(err, ErrNotPending) {
		// Lost the race against expiry.
		return g.texts.NotYourChallenge
	}

	if outcome == OutcomeSuccess {
		if err := g.messenger.RestrictSend(ctx, chat, responder, true); err != nil {
			g.logger.Error("failed to restore permissions", "chat", chat, "user", responder, "error", err)
		}
		if _, err := g.driver.Remove(ctx, chat, responder); err != nil {
			g.logger.Error("denylist remove failed", "chat", chat, "user", responder, "error", err)
		}
		if err := g.messenger.EditMessage(ctx, chat, resolved.PromptMessageID, g.texts.Success); err != nil {
			g.logger.Warn("failed to edit prompt", "chat", chat, "message", resolved.PromptMessageID, "error", err)
		}
		g.tracker.ScheduleDeletion(chat, resolved.PromptMessageID, g.messageTTL)
		g.logger.Info("challenge passed", "chat", chat, "user", responder)
		return g.texts.Success
	}

	// Wrong answer: the pessimistic denylist entry from issuance stays.
	g.finishUnfavorable(ctx, resolved, g.texts.Failure)
	g.logger.Info("challenge failed", "chat", chat, "user", responder)
	return g.texts.Failure
}

// finishUnfavorable edits the prompt to the given notice and schedules
// it for deletion. Permissions stay revoked and the denylist entry from
// issuance remains.
func (g *Gate) finishUnfavorable(ctx context.Context, rec *Record, notice string) {
	if err := g.messenger.EditMessage(ctx, rec.ChatID, rec.PromptMessageID, notice); err != nil {
		g.logger.Warn("failed to edit prompt", "chat", rec.ChatID, "message", rec.PromptMessageID, "error", err)
	}
	g.tracker.ScheduleDeletion(rec.ChatID, rec.PromptMessageID, g.messageTTL)
}

// expire is the timer callback fired once per challenge.
// If the answer path already resolved the record this is a silent no-op.
func (g *Gate) expire(chat, user int64) {
	rec, err := g.registry.Resolve(chat, user, OutcomeExpired)
	if errors.Is(err, ErrNotPending) {
		return
	}

	ctx := context.Background()

	for _, id := range rec.TrackedMessageIDs {
		g.tracker.DeleteNow(chat, id)
	}

	// The denylist entry from issuance stays; no additional write needed.

	if !rec.Interacted {
		id, err := g.messenger.SendMessage(ctx, chat, fmt.Sprintf(g.texts.TimedOutNotice, rec.DisplayName))
		if err != nil {
			g.logger.Warn("failed to send timeout notice", "chat", chat, "user", user, "error", err)
		} else {
			g.tracker.ScheduleDeletion(chat, id, g.messageTTL)
		}
	}

	g.logger.Info("challenge expired", "chat", chat, "user", user)
}
