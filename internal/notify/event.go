package notify

import "github.com/vovakirdan/dealhub-server/internal/store"

// Event is a domain event that produces exactly one notification for its
// target user. Variants are closed: only the types below implement it.
type Event interface {
	// TargetUserID is the user the notification is created for.
	TargetUserID() int64

	isEvent()
}

// MessageSent fires when a user receives a new direct message.
type MessageSent struct {
	Message    *store.Message
	SenderName string
}

func (e MessageSent) TargetUserID() int64 { return e.Message.ReceiverID }
func (MessageSent) isEvent()              {}

// ApplicationStatusChanged fires when a brand moves a deal application
// through its lifecycle (APPROVED, REJECTED, IN_PROGRESS, COMPLETED).
type ApplicationStatusChanged struct {
	DealTitle string
	Status    string
	BrandName string
	UserID    int64
}

func (e ApplicationStatusChanged) TargetUserID() int64 { return e.UserID }
func (ApplicationStatusChanged) isEvent()              {}

// PaymentStatusChanged fires when a payment moves state.
type PaymentStatusChanged struct {
	Amount float64
	Type   string // DEPOSIT or WITHDRAWAL
	Status string // PENDING, COMPLETED, FAILED
	UserID int64
}

func (e PaymentStatusChanged) TargetUserID() int64 { return e.UserID }
func (PaymentStatusChanged) isEvent()              {}

// DealPosted fires when a new deal matching the user's profile is published.
type DealPosted struct {
	DealTitle string
	BrandName string
	Budget    float64
	UserID    int64
}

func (e DealPosted) TargetUserID() int64 { return e.UserID }
func (DealPosted) isEvent()              {}
