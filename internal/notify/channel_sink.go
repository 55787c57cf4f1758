package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// Sender is the outbound half of the external channel adapter.
type Sender interface {
	// SendText pushes a Markdown-formatted message to a chat handle.
	SendText(ctx context.Context, chatID, text string, silent bool) error
}

// ChannelSink pushes notifications to the external chat channel. Users
// without a binding are skipped silently; a missing binding is a valid state.
type ChannelSink struct {
	bindings store.BindingStore
	sender   Sender
	log      *zerolog.Logger
}

// NewChannelSink creates a sink over the given binding table and sender.
func NewChannelSink(bindings store.BindingStore, sender Sender, logger *zerolog.Logger) *ChannelSink {
	return &ChannelSink{
		bindings: bindings,
		sender:   sender,
		log:      logger,
	}
}

// Deliver resolves the user's chat handle and pushes the notification text.
func (s *ChannelSink) Deliver(ctx context.Context, n *store.Notification) error {
	binding, err := s.bindings.GetBinding(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug().Int64("user_id", n.UserID).Msg("no channel binding, skipping external push")
			return nil
		}
		return fmt.Errorf("resolve binding: %w", err)
	}

	text := fmt.Sprintf("*%s*\n\n%s", n.Title, n.Message)
	if err := s.sender.SendText(ctx, binding.ChatID, text, false); err != nil {
		return fmt.Errorf("external send: %w", err)
	}

	return nil
}

var _ Sink = (*ChannelSink)(nil)
