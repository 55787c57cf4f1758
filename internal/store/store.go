package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist or is not
	// visible to the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a write is rejected before touching storage.
	ErrInvalidInput = errors.New("invalid input")
)

// Role defines the account type.
type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	DisplayName  string
	Role         Role
	CreatedAt    time.Time
}

// Message is one directed message between two users. Messages are append-only:
// once created they are never edited or deleted.
type Message struct {
	ID         string // UUID
	SenderID   int64
	ReceiverID int64
	Content    string
	CreatedAt  time.Time
}

// Notification is a per-user in-app notification record.
type Notification struct {
	ID        string // UUID
	UserID    int64
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// ChannelBinding maps a user to their external chat handle.
// At most one binding exists per user; registration overwrites.
type ChannelBinding struct {
	UserID    int64
	ChatID    string
	CreatedAt time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash, displayName string, role Role) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore handles the append-only message log.
type MessageStore interface {
	// CreateMessage appends a message to the log and returns it.
	// Rejects empty content with ErrInvalidInput.
	CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (*Message, error)

	// ListBetween returns all messages exchanged between two users,
	// ordered by creation time ascending (ties broken by id).
	ListBetween(ctx context.Context, userA, userB int64) ([]*Message, error)

	// ListCounterparts returns the distinct set of users the given user has
	// exchanged at least one message with, in either direction.
	ListCounterparts(ctx context.Context, userID int64) ([]int64, error)

	// LastMessageBetween returns the most recent message between two users,
	// or ErrNotFound if they never exchanged one.
	LastMessageBetween(ctx context.Context, userA, userB int64) (*Message, error)

	// CountUnreadFrom counts messages sent by counterpart to viewer that are
	// newer than the viewer's read cursor for that conversation.
	CountUnreadFrom(ctx context.Context, viewerID, counterpartID int64) (int, error)

	// MarkConversationRead moves the viewer's read cursor for the counterpart
	// conversation up to readAt. The cursor never moves backwards.
	MarkConversationRead(ctx context.Context, viewerID, counterpartID int64, readAt time.Time) error
}

// NotificationStore handles notification persistence.
type NotificationStore interface {
	// CreateNotification creates an unread notification for a user.
	CreateNotification(ctx context.Context, userID int64, title, message string) (*Notification, error)

	// MarkNotificationRead marks a notification as read on behalf of the
	// requesting user. Returns ErrNotFound both when the id does not exist
	// and when it belongs to someone else.
	MarkNotificationRead(ctx context.Context, id string, requestingUserID int64) error

	// ListNotifications returns the user's notifications, most recent first.
	ListNotifications(ctx context.Context, userID int64) ([]*Notification, error)

	// CountUnreadNotifications counts the user's unread notifications.
	// Always computed from current rows, never cached.
	CountUnreadNotifications(ctx context.Context, userID int64) (int, error)
}

// BindingStore handles channel handle bindings.
type BindingStore interface {
	// UpsertBinding creates or overwrites the binding for a user.
	UpsertBinding(ctx context.Context, userID int64, chatID string) error

	// GetBinding retrieves the binding for a user, or ErrNotFound.
	GetBinding(ctx context.Context, userID int64) (*ChannelBinding, error)

	// GetBindingByChatID retrieves the binding owning a chat handle, or ErrNotFound.
	GetBindingByChatID(ctx context.Context, chatID string) (*ChannelBinding, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	NotificationStore
	BindingStore

	// Close closes the underlying database connection.
	Close() error
}
