package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// Sink delivers an already-persisted notification to one extra channel.
// Sinks are best-effort: a failing sink is logged and never propagates to
// the caller of Notify.
type Sink interface {
	Deliver(ctx context.Context, n *store.Notification) error
}

// Dispatcher fans out domain events: it writes the authoritative in-app
// notification row first, then hands the result to each configured sink.
type Dispatcher struct {
	store store.NotificationStore
	sinks []Sink
	log   *zerolog.Logger
}

// NewDispatcher creates a dispatcher. Sinks are optional; with none
// configured events still produce in-app notification rows.
func NewDispatcher(st store.NotificationStore, logger *zerolog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		store: st,
		sinks: sinks,
		log:   logger,
	}
}

// Notify formats the event and delivers it. The in-app write is
// authoritative: its failure aborts the operation, while sink failures are
// logged and swallowed because the notification row already exists.
func (d *Dispatcher) Notify(ctx context.Context, event Event) (*store.Notification, error) {
	title, body := Format(event)

	n, err := d.store.CreateNotification(ctx, event.TargetUserID(), title, body)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			d.log.Warn().
				Err(err).
				Str("notification_id", n.ID).
				Int64("user_id", n.UserID).
				Msg("best-effort notification delivery failed")
		}
	}

	return n, nil
}
