package conversations

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// Conversation is the derived per-counterpart view of the message log.
// It is recomputed from the store on every query and never persisted.
type Conversation struct {
	Counterpart *store.User
	LastMessage *store.Message
	UnreadCount int
}

// Service derives conversation listings from the message log.
type Service struct {
	store store.Store
}

// New creates a new conversation service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// For returns the viewer's conversations, one per counterpart, sorted by
// last-message recency (newest first, ties broken by message id).
//
// Counterparts whose user row no longer exists are dropped from the result
// instead of failing the whole listing.
func (s *Service) For(ctx context.Context, viewerID int64) ([]*Conversation, error) {
	counterpartIDs, err := s.store.ListCounterparts(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list counterparts: %w", err)
	}

	conversations := make([]*Conversation, 0, len(counterpartIDs))
	for _, counterpartID := range counterpartIDs {
		user, err := s.store.GetUserByID(ctx, counterpartID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted account, skip the entry.
				continue
			}
			return nil, fmt.Errorf("resolve counterpart %d: %w", counterpartID, err)
		}

		last, err := s.store.LastMessageBetween(ctx, viewerID, counterpartID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// A counterpart only exists because a message exists, so this
				// means the log changed under us. Skip rather than fail.
				continue
			}
			return nil, fmt.Errorf("last message with %d: %w", counterpartID, err)
		}

		unread, err := s.store.CountUnreadFrom(ctx, viewerID, counterpartID)
		if err != nil {
			return nil, fmt.Errorf("count unread from %d: %w", counterpartID, err)
		}

		conversations = append(conversations, &Conversation{
			Counterpart: user,
			LastMessage: last,
			UnreadCount: unread,
		})
	}

	sort.Slice(conversations, func(i, j int) bool {
		a, b := conversations[i].LastMessage, conversations[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return conversations, nil
}

// OpenThread returns the full message thread between the viewer and the
// counterpart, oldest first, and advances the viewer's read cursor to the
// newest message in the thread.
func (s *Service) OpenThread(ctx context.Context, viewerID, counterpartID int64) ([]*store.Message, error) {
	messages, err := s.store.ListBetween(ctx, viewerID, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}

	if len(messages) > 0 {
		newest := messages[len(messages)-1]
		if err := s.store.MarkConversationRead(ctx, viewerID, counterpartID, newest.CreatedAt); err != nil {
			return nil, fmt.Errorf("mark conversation read: %w", err)
		}
	}

	return messages, nil
}
