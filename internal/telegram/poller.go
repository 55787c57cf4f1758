package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler processes one inbound command and returns the reply text.
// Every command produces exactly one outbound send back to the chat.
type Handler func(ctx context.Context, msg *IncomingMessage, args string) string

// pollRetryDelay is how long the loop backs off after a failed getUpdates
// call before trying again.
const pollRetryDelay = 3 * time.Second

// Poller is the long-running inbound command loop. Commands are matched
// against a static token table; the loop runs as one background goroutine
// per process and stops cleanly when its context is cancelled.
type Poller struct {
	client      *Client
	handlers    map[string]Handler
	pollTimeout time.Duration
	offset      int64
	log         *zerolog.Logger
}

// NewPoller creates a poller with an empty command table.
func NewPoller(client *Client, pollTimeout time.Duration, logger *zerolog.Logger) *Poller {
	return &Poller{
		client:      client,
		handlers:    make(map[string]Handler),
		pollTimeout: pollTimeout,
		log:         logger,
	}
}

// Handle registers a handler for a command token such as "/start".
// Must be called before Run; the table is fixed once the loop starts.
func (p *Poller) Handle(command string, h Handler) {
	p.handlers[command] = h
}

// Run polls for updates until the context is cancelled. An in-flight
// handler call finishes before Run returns.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().Int("commands", len(p.handlers)).Msg("command loop started")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("command loop stopped")
			return nil
		default:
		}

		updates, err := p.client.GetUpdates(ctx, p.offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info().Msg("command loop stopped")
				return nil
			}
			p.log.Warn().Err(err).Msg("poll updates failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= p.offset {
				p.offset = update.UpdateID + 1
			}
			if update.Message == nil {
				continue
			}
			p.dispatch(ctx, update.Message)
		}
	}
}

// dispatch matches the leading command token and sends the handler's reply.
func (p *Poller) dispatch(ctx context.Context, msg *IncomingMessage) {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	token, args, _ := strings.Cut(text, " ")
	// Commands in group chats arrive as /cmd@botname.
	token, _, _ = strings.Cut(token, "@")

	handler, ok := p.handlers[token]
	if !ok {
		p.reply(ctx, msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
		return
	}

	reply := handler(ctx, msg, strings.TrimSpace(args))
	p.reply(ctx, msg.Chat.ID, reply)
}

func (p *Poller) reply(ctx context.Context, chatID int64, text string) {
	handle := strconv.FormatInt(chatID, 10)
	if err := p.client.SendText(ctx, handle, text, false); err != nil {
		p.log.Warn().Err(err).Str("chat_id", handle).Msg("failed to send command reply")
	}
}
