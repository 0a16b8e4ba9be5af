package gate

import "context"

// PromptButton is one tappable option on a challenge prompt.
// Token is the opaque payload the transport must hand back when the
// button is pressed.
type PromptButton struct {
	Label string
	Token string
}

// Messenger is the chat-platform transport used by the coordinator.
// Every call may suspend; implementations are expected to be safe for
// concurrent use from multiple in-flight handlers.
type Messenger interface {
	// SendMessage sends a plain message and returns its message ID.
	SendMessage(ctx context.Context, chat int64, text string) (int, error)

	// SendPrompt sends the challenge message with its option buttons and
	// returns its message ID.
	SendPrompt(ctx context.Context, chat int64, text string, buttons []PromptButton) (int, error)

	// EditMessage replaces the text of a previously sent message,
	// dropping any buttons it carried.
	EditMessage(ctx context.Context, chat int64, messageID int, text string) error

	// DeleteMessage removes a message. Fails if it is already gone.
	DeleteMessage(ctx context.Context, chat int64, messageID int) error

	// RestrictSend revokes (allowed=false) or restores (allowed=true)
	// the user's permission to send messages in the chat.
	RestrictSend(ctx context.Context, chat, user int64, allowed bool) error
}
