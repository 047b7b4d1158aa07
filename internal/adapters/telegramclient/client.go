// Package telegramclient adapts the Telegram Bot API to the messaging
// ports. A single client serves every unit: it drains getUpdates into
// per-chat buffers of recent posts and exposes plain send/reply calls.
package telegramclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"signalSentry/internal/ports"
)

const (
	baseURLFormat = "https://api.telegram.org/bot%s"

	// historyCap bounds the per-chat buffer of recent posts. It only needs
	// to comfortably exceed the poll fetch limit.
	historyCap = 50

	requestTimeout = 15 * time.Second
)

// Client implements ports.MessageSource and ports.Notifier.
type Client struct {
	http   *resty.Client
	logger ports.Logger

	// mu guards the update cursor and history buffers; the fetch path is
	// shared by all units' admission cycles.
	mu      sync.Mutex
	offset  int
	history map[string][]ports.Message // chat key -> recent posts, newest first
}

// Config holds configuration for the Telegram adapter.
type Config struct {
	BotToken string
	Logger   ports.Logger
}

// New creates the Telegram client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram client")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required for Telegram client: %w", ports.ErrConfigurationError)
	}

	http := resty.New().
		SetBaseURL(fmt.Sprintf(baseURLFormat, cfg.BotToken)).
		SetTimeout(requestTimeout)

	return &Client{
		http:    http,
		logger:  cfg.Logger,
		history: make(map[string][]ports.Message),
	}, nil
}

// --- Bot API wire types ---

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type update struct {
	UpdateID    int      `json:"update_id"`
	Message     *message `json:"message"`
	ChannelPost *message `json:"channel_post"`
}

type message struct {
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
	Chat      chat   `json:"chat"`
}

type chat struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type getUpdatesResponse struct {
	apiResponse
	Result []update `json:"result"`
}

type sendMessageResponse struct {
	apiResponse
	Result message `json:"result"`
}

// FetchRecentMessages drains pending updates into the per-chat buffers and
// returns up to limit of the newest text messages seen in chatID, newest
// first.
func (c *Client) FetchRecentMessages(ctx context.Context, chatID string, limit int) ([]ports.Message, error) {
	if err := c.drainUpdates(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	buffered := c.history[chatKey(chatID)]
	if len(buffered) > limit {
		buffered = buffered[:limit]
	}
	out := make([]ports.Message, len(buffered))
	copy(out, buffered)
	return out, nil
}

// drainUpdates pulls all pending updates past the current cursor and files
// text-bearing posts into their chat buffers.
func (c *Client) drainUpdates(ctx context.Context) error {
	c.mu.Lock()
	offset := c.offset
	c.mu.Unlock()

	var out getUpdatesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":          strconv.Itoa(offset),
			"timeout":         "0",
			"allowed_updates": `["message","channel_post"]`,
		}).
		SetResult(&out).
		Get("/getUpdates")
	if err != nil {
		return fmt.Errorf("getUpdates request failed: %w: %w", ports.ErrFetchFailed, err)
	}
	if resp.IsError() || !out.OK {
		return fmt.Errorf("getUpdates rejected (status %d): %s: %w", resp.StatusCode(), out.Description, ports.ErrFetchFailed)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range out.Result {
		if u.UpdateID >= c.offset {
			c.offset = u.UpdateID + 1
		}
		msg := u.ChannelPost
		if msg == nil {
			msg = u.Message
		}
		if msg == nil || msg.Text == "" {
			continue
		}
		c.buffer(msg)
	}
	return nil
}

// buffer files one post under both the chat's username key and its numeric
// ID key, so units may reference channels either way. Caller holds mu.
func (c *Client) buffer(msg *message) {
	entry := ports.Message{ID: msg.MessageID, Text: msg.Text}
	keys := []string{strconv.FormatInt(msg.Chat.ID, 10)}
	if msg.Chat.Username != "" {
		keys = append(keys, "@"+strings.ToLower(msg.Chat.Username))
	}
	for _, key := range keys {
		buf := append([]ports.Message{entry}, c.history[key]...)
		if len(buf) > historyCap {
			buf = buf[:historyCap]
		}
		c.history[key] = buf
	}
}

func chatKey(chatID string) string {
	chatID = strings.TrimSpace(chatID)
	if strings.HasPrefix(chatID, "@") {
		return strings.ToLower(chatID)
	}
	return chatID
}

// SendMessage posts Markdown text to a chat and returns the sent message's
// ID, used as the thread root for lifecycle replies.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (int, error) {
	var out sendMessageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&out).
		Post("/sendMessage")
	if err != nil {
		return 0, fmt.Errorf("sendMessage request failed: %w: %w", ports.ErrSendFailed, err)
	}
	if resp.IsError() || !out.OK {
		return 0, fmt.Errorf("sendMessage rejected (status %d): %s: %w", resp.StatusCode(), out.Description, ports.ErrSendFailed)
	}
	c.logger.Debug(ctx, "Message sent", map[string]interface{}{"chatID": chatID, "messageID": out.Result.MessageID})
	return out.Result.MessageID, nil
}

// SendReply posts Markdown text as a threaded reply to an earlier message.
func (c *Client) SendReply(ctx context.Context, chatID string, replyToID int, text string) error {
	var out sendMessageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":             chatID,
			"text":                text,
			"parse_mode":          "Markdown",
			"reply_to_message_id": replyToID,
		}).
		SetResult(&out).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("sendReply request failed: %w: %w", ports.ErrSendFailed, err)
	}
	if resp.IsError() || !out.OK {
		return fmt.Errorf("sendReply rejected (status %d): %s: %w", resp.StatusCode(), out.Description, ports.ErrSendFailed)
	}
	c.logger.Debug(ctx, "Reply sent", map[string]interface{}{"chatID": chatID, "replyToID": replyToID})
	return nil
}
