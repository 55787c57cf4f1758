package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Schema is the full database schema. Applied on startup; every statement is
// idempotent so restarting against an existing database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'influencer',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	sender_id   INTEGER NOT NULL,
	receiver_id INTEGER NOT NULL,
	content     TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (receiver_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, receiver_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, sender_id, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS channel_bindings (
	user_id    INTEGER PRIMARY KEY,
	chat_id    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS conversation_reads (
	user_id        INTEGER NOT NULL,
	counterpart_id INTEGER NOT NULL,
	last_read_at   DATETIME NOT NULL,
	PRIMARY KEY (user_id, counterpart_id)
);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed data after the schema is applied.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits before setup
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, displayName string, role store.Role) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, display_name, role)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash, displayName, string(role))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, role, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	var role string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.Role = store.Role(role)

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, role, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	var role string
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	user.Role = store.Role(role)

	return &user, nil
}

// ==== MessageStore implementation ====

// CreateMessage appends a message to the log and returns it.
func (s *SQLiteStore) CreateMessage(ctx context.Context, senderID, receiverID int64, content string) (*store.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty content: %w", store.ErrInvalidInput)
	}

	msg := &store.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

// ListBetween returns all messages exchanged between two users, oldest first.
func (s *SQLiteStore) ListBetween(ctx context.Context, userA, userB int64) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userA, userB, userB, userA)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ListCounterparts returns the distinct users the given user exchanged messages with.
func (s *SQLiteStore) ListCounterparts(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT receiver_id FROM messages WHERE sender_id = ?
		UNION
		SELECT sender_id FROM messages WHERE receiver_id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query counterparts: %w", err)
	}
	defer rows.Close()

	var counterparts []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan counterpart: %w", err)
		}
		counterparts = append(counterparts, id)
	}

	return counterparts, rows.Err()
}

// LastMessageBetween returns the most recent message between two users.
func (s *SQLiteStore) LastMessageBetween(ctx context.Context, userA, userB int64) (*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, userA, userB, userB, userA).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no messages between %d and %d: %w", userA, userB, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query last message: %w", err)
	}

	return &msg, nil
}

// CountUnreadFrom counts counterpart messages newer than the viewer's read cursor.
func (s *SQLiteStore) CountUnreadFrom(ctx context.Context, viewerID, counterpartID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE sender_id = ? AND receiver_id = ?
		  AND created_at > COALESCE(
			(SELECT last_read_at FROM conversation_reads WHERE user_id = ? AND counterpart_id = ?),
			'1970-01-01 00:00:00+00:00'
		  )
	`
	var count int
	err := s.db.QueryRowContext(ctx, query, counterpartID, viewerID, viewerID, counterpartID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}

	return count, nil
}

// MarkConversationRead moves the viewer's read cursor forward. Never backwards.
func (s *SQLiteStore) MarkConversationRead(ctx context.Context, viewerID, counterpartID int64, readAt time.Time) error {
	query := `
		INSERT INTO conversation_reads (user_id, counterpart_id, last_read_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, counterpart_id) DO UPDATE
		SET last_read_at = excluded.last_read_at
		WHERE excluded.last_read_at > conversation_reads.last_read_at
	`
	if _, err := s.db.ExecContext(ctx, query, viewerID, counterpartID, readAt); err != nil {
		return fmt.Errorf("upsert read cursor: %w", err)
	}

	return nil
}

// ==== NotificationStore implementation ====

// CreateNotification creates an unread notification for a user.
func (s *SQLiteStore) CreateNotification(ctx context.Context, userID int64, title, message string) (*store.Notification, error) {
	n := &store.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO notifications (id, user_id, title, message, read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	return n, nil
}

// MarkNotificationRead marks a notification as read for its owner.
// The ownership check is part of the WHERE clause so a foreign id and a
// missing id are indistinguishable to the caller.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string, requestingUserID int64) error {
	query := `
		UPDATE notifications
		SET read = 1
		WHERE id = ? AND user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, id, requestingUserID)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %s: %w", id, store.ErrNotFound)
	}

	return nil
}

// ListNotifications returns the user's notifications, most recent first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID int64) ([]*store.Notification, error) {
	query := `
		SELECT id, user_id, title, message, read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// CountUnreadNotifications counts the user's unread notifications.
func (s *SQLiteStore) CountUnreadNotifications(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}

// ==== BindingStore implementation ====

// UpsertBinding creates or overwrites the channel binding for a user.
func (s *SQLiteStore) UpsertBinding(ctx context.Context, userID int64, chatID string) error {
	query := `
		INSERT INTO channel_bindings (user_id, chat_id)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET chat_id = excluded.chat_id
	`
	if _, err := s.db.ExecContext(ctx, query, userID, chatID); err != nil {
		return fmt.Errorf("upsert binding: %w", err)
	}

	return nil
}

// GetBinding retrieves the channel binding for a user.
func (s *SQLiteStore) GetBinding(ctx context.Context, userID int64) (*store.ChannelBinding, error) {
	query := `
		SELECT user_id, chat_id, created_at
		FROM channel_bindings
		WHERE user_id = ?
	`
	var b store.ChannelBinding
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&b.UserID, &b.ChatID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("binding for user %d: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query binding: %w", err)
	}

	return &b, nil
}

// GetBindingByChatID retrieves the binding owning a chat handle.
func (s *SQLiteStore) GetBindingByChatID(ctx context.Context, chatID string) (*store.ChannelBinding, error) {
	query := `
		SELECT user_id, chat_id, created_at
		FROM channel_bindings
		WHERE chat_id = ?
	`
	var b store.ChannelBinding
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(&b.UserID, &b.ChatID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("binding for chat %s: %w", chatID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query binding: %w", err)
	}

	return &b, nil
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
