package gate

import (
	"context"
	"sync"
)

// fakeMessenger records every transport call for assertions.
type fakeMessenger struct {
	mu sync.Mutex

	nextID  int
	sent    []fakeMessage
	edits   map[int]string
	deletes []int

	// deleteErr, when set, is returned by every DeleteMessage call.
	deleteErr error

	// allowed tracks the last RestrictSend state per user.
	allowed map[int64]bool
}

type fakeMessage struct {
	chat    int64
	id      int
	text    string
	buttons []PromptButton
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		edits:   make(map[int]string),
		allowed: make(map[int64]bool),
	}
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chat int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.sent = append(m.sent, fakeMessage{chat: chat, id: m.nextID, text: text})
	return m.nextID, nil
}

func (m *fakeMessenger) SendPrompt(ctx context.Context, chat int64, text string, buttons []PromptButton) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.sent = append(m.sent, fakeMessage{chat: chat, id: m.nextID, text: text, buttons: buttons})
	return m.nextID, nil
}

func (m *fakeMessenger) EditMessage(ctx context.Context, chat int64, messageID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.edits[messageID] = text
	return nil
}

func (m *fakeMessenger) DeleteMessage(ctx context.Context, chat int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes = append(m.deletes, messageID)
	return nil
}

func (m *fakeMessenger) RestrictSend(ctx context.Context, chat, user int64, allowed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allowed[user] = allowed
	return nil
}

func (m *fakeMessenger) prompts() []fakeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []fakeMessage
	for _, msg := range m.sent {
		if len(msg.buttons) > 0 {
			out = append(out, msg)
		}
	}
	return out
}

func (m *fakeMessenger) notices() []fakeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []fakeMessage
	for _, msg := range m.sent {
		if len(msg.buttons) == 0 {
			out = append(out, msg)
		}
	}
	return out
}

func (m *fakeMessenger) deleteCount(messageID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, id := range m.deletes {
		if id == messageID {
			count++
		}
	}
	return count
}

func (m *fakeMessenger) editOf(messageID int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edits[messageID]
}

func (m *fakeMessenger) allowedFor(user int64) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed, ok := m.allowed[user]
	return allowed, ok
}

// fakeDriver is an in-memory denylist used by coordinator tests.
type fakeDriver struct {
	mu      sync.Mutex
	entries map[[2]int64][]Entry
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{entries: make(map[[2]int64][]Entry)}
}

func (d *fakeDriver) Add(ctx context.Context, entry Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := [2]int64{entry.ChatID, entry.UserID}
	d.entries[key] = append(d.entries[key], entry)
	return nil
}

func (d *fakeDriver) Remove(ctx context.Context, chat, user int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := [2]int64{chat, user}
	_, ok := d.entries[key]
	delete(d.entries, key)
	return ok, nil
}

func (d *fakeDriver) Contains(ctx context.Context, chat, user int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.entries[[2]int64{chat, user}]
	return ok, nil
}

func (d *fakeDriver) Close() error {
	return nil
}

// fixedChooser always offers the same options so tests know which
// button is correct.
type fixedChooser struct{}

func (fixedChooser) ChooseOptions() ([]string, string) {
	return []string{"🐶", "🐱", "🦎", "🐢", "🐟"}, "🦎"
}
