package ports

import "context"

// Message is one raw message fetched from a source channel.
type Message struct {
	ID   int    // transport-assigned identifier, unique per channel
	Text string // empty for media-only messages
}

// MessageSource fetches recent messages from a chat channel.
type MessageSource interface {
	// FetchRecentMessages returns up to limit of the most recent messages
	// in the given channel, newest first. Messages without text content
	// are not included.
	FetchRecentMessages(ctx context.Context, chatID string, limit int) ([]Message, error)
}

// Notifier delivers rendered notifications to a chat channel. Failures are
// logged by the caller and never retried; a lifecycle transition is
// considered to have happened even if its announcement was not delivered.
type Notifier interface {
	// SendMessage posts text to the channel and returns the ID of the sent
	// message, used as the thread root for subsequent replies.
	SendMessage(ctx context.Context, chatID, text string) (int, error)
	// SendReply posts text as a threaded reply to an earlier message.
	SendReply(ctx context.Context, chatID string, replyToID int, text string) error
}
