// Package telegram binds the verification gate to the Telegram Bot API.
// It implements the gate.Messenger transport and feeds the inbound
// update stream (new chat members, challenge button presses) into the
// gate's entry points.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexice92/captcha-tgbot-monteanimals/gate"
)

// callbackPrefix marks challenge button payloads so other callback data
// in the chat is ignored.
const callbackPrefix = "verify:"

// Messenger implements gate.Messenger over the Telegram Bot API.
// The Bot API client does not take contexts; the ctx arguments are
// accepted for the interface and ignored.
type Messenger struct {
	api *tgbotapi.BotAPI
}

// NewMessenger creates a Messenger over an authorized Bot API client.
func NewMessenger(api *tgbotapi.BotAPI) *Messenger {
	return &Messenger{api: api}
}

// SendMessage sends a plain text message.
func (m *Messenger) SendMessage(ctx context.Context, chat int64, text string) (int, error) {
	msg, err := m.api.Send(tgbotapi.NewMessage(chat, text))
	if err != nil {
		return 0, fmt.Errorf(`telegram: failed to send message: %w`, err)
	}
	return msg.MessageID, nil
}

// SendPrompt sends the challenge message with one row of option buttons.
func (m *Messenger) SendPrompt(ctx context.Context, chat int64, text string, buttons []gate.PromptButton) (int, error) {
	row := make([]tgbotapi.InlineKeyboardButton, len(buttons))
	for i, b := range buttons {
		row[i] = tgbotapi.NewInlineKeyboardButtonData(b.Label, callbackPrefix+b.Token)
	}

	msg := tgbotapi.NewMessage(chat, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))

	sent, err := m.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf(`telegram: failed to send prompt: %w`, err)
	}
	return sent.MessageID, nil
}

// EditMessage replaces the text of a message, dropping its buttons.
func (m *Messenger) EditMessage(ctx context.Context, chat int64, messageID int, text string) error {
	if _, err := m.api.Send(tgbotapi.NewEditMessageText(chat, messageID, text)); err != nil {
		return fmt.Errorf(`telegram: failed to edit message %d: %w`, messageID, err)
	}
	return nil
}

// DeleteMessage removes a message. Telegram reports an error if it is
// already gone.
func (m *Messenger) DeleteMessage(ctx context.Context, chat int64, messageID int) error {
	if _, err := m.api.Request(tgbotapi.NewDeleteMessage(chat, messageID)); err != nil {
		return fmt.Errorf(`telegram: failed to delete message %d: %w`, messageID, err)
	}
	return nil
}

// RestrictSend toggles the member's permission to send messages.
func (m *Messenger) RestrictSend(ctx context.Context, chat, user int64, allowed bool) error {
	cfg := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chat,
			UserID: user,
		},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       allowed,
			CanSendMediaMessages:  allowed,
			CanSendOtherMessages:  allowed,
			CanAddWebPagePreviews: allowed,
		},
	}

	if _, err := m.api.Request(cfg); err != nil {
		return fmt.Errorf(`telegram: failed to restrict member %d: %w`, user, err)
	}
	return nil
}

// Bot runs the update loop, routing join and answer events to the gate.
type Bot struct {
	api    *tgbotapi.BotAPI
	gate   *gate.Gate
	logger *slog.Logger

	updateTimeout int
}

// NewBot creates a Bot with the specified API client, gate and options.
func NewBot(api *tgbotapi.BotAPI, g *gate.Gate, opts ...func(b *Bot)) *Bot {
	b := &Bot{
		api:    api,
		gate:   g,
		logger: slog.Default(),

		updateTimeout: 30,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// WithLogger sets the logger.
// When not specified, uses slog.Default.
func WithLogger(logger *slog.Logger) func(b *Bot) {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithUpdateTimeout sets the long-polling timeout in seconds.
func WithUpdateTimeout(seconds int) func(b *Bot) {
	return func(b *Bot) {
		b.updateTimeout = seconds
	}
}

// Run polls for updates until the context is canceled.
// Every update is handled on its own goroutine so a suspended handler
// never stalls the loop.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.updateTimeout

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("update loop started", "bot", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && len(update.Message.NewChatMembers) > 0:
		for _, member := range update.Message.NewChatMembers {
			if member.IsBot {
				continue
			}
			b.gate.OnJoin(ctx,
				update.Message.Chat.ID,
				member.ID,
				displayName(member),
				member.UserName,
			)
		}

	case update.CallbackQuery != nil && strings.HasPrefix(update.CallbackQuery.Data, callbackPrefix):
		cq := update.CallbackQuery
		if cq.Message == nil {
			return
		}

		ack := b.gate.OnAnswer(ctx,
			cq.Message.Chat.ID,
			cq.From.ID,
			strings.TrimPrefix(cq.Data, callbackPrefix),
			cq.Message.MessageID,
		)

		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, ack)); err != nil {
			b.logger.Warn("failed to answer callback query", "error", err)
		}
	}
}

func displayName(user tgbotapi.User) string {
	if user.LastName == "" {
		return user.FirstName
	}
	return user.FirstName + " " + user.LastName
}
