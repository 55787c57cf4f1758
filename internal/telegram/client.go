package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrChannel is returned for any failed or timed-out exchange with the Bot
// API. Callers treat it as best-effort delivery failure, never as fatal.
var ErrChannel = errors.New("channel error")

const defaultAPIBase = "https://api.telegram.org"

// Client is a minimal Telegram Bot API client. Only the two methods this
// system needs are implemented: sendMessage and getUpdates.
type Client struct {
	httpClient  *http.Client
	baseURL     string // <api base>/bot<token>
	sendTimeout time.Duration
	log         *zerolog.Logger
}

// NewClient creates a Bot API client. sendTimeout bounds every outbound
// send so a slow provider cannot stall notification dispatch.
func NewClient(token string, sendTimeout time.Duration, logger *zerolog.Logger) *Client {
	return NewClientWithBaseURL(token, defaultAPIBase, sendTimeout, logger)
}

// NewClientWithBaseURL is NewClient with an overridable API base, for tests.
func NewClientWithBaseURL(token, apiBase string, sendTimeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		// The poller holds a getUpdates request open for the long-poll
		// window, so the transport timeout is handled per call instead.
		httpClient:  &http.Client{},
		baseURL:     fmt.Sprintf("%s/bot%s", apiBase, token),
		sendTimeout: sendTimeout,
		log:         logger,
	}
}

// SendOptions controls outbound message formatting.
type SendOptions struct {
	// Markdown enables rich formatting in the message text.
	Markdown bool
	// Silent delivers the message without a client-side notification sound.
	Silent bool
}

// Update is one inbound event from getUpdates.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// IncomingMessage is the subset of a Telegram message the command loop uses.
type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	From      *Peer  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Peer identifies the sending account.
type Peer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

// Chat identifies the chat a message arrived in. Its ID is the channel
// handle stored in the binding table.
type Chat struct {
	ID int64 `json:"id"`
}

type sendMessageRequest struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

type getUpdatesRequest struct {
	Offset  int64 `json:"offset"`
	Timeout int64 `json:"timeout"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// SendMessage pushes one message to a chat. A single attempt; transport
// errors, timeouts and API rejections all surface as ErrChannel.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, opts SendOptions) error {
	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	req := sendMessageRequest{
		ChatID:              chatID,
		Text:                text,
		DisableNotification: opts.Silent,
	}
	if opts.Markdown {
		req.ParseMode = "Markdown"
	}

	if _, err := c.call(ctx, "sendMessage", req); err != nil {
		return err
	}

	return nil
}

// SendText sends Markdown-formatted text. It satisfies notify.Sender.
func (c *Client) SendText(ctx context.Context, chatID, text string, silent bool) error {
	return c.SendMessage(ctx, chatID, text, SendOptions{Markdown: true, Silent: silent})
}

// GetUpdates long-polls the Bot API for inbound updates newer than offset.
// The request blocks server-side for up to timeout before returning empty.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+c.sendTimeout)
	defer cancel()

	result, err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:  offset,
		Timeout: int64(timeout.Seconds()),
	})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", ErrChannel)
	}

	return updates, nil
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", method, err, ErrChannel)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", method, ErrChannel)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, ErrChannel)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("%s: %s: %w", method, apiResp.Description, ErrChannel)
	}

	return apiResp.Result, nil
}
