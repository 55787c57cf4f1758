package telegram

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/vovakirdan/dealhub-server/internal/store"
	"github.com/vovakirdan/dealhub-server/internal/store/sqlite"
)

func newTestCommands(t *testing.T) (*Commands, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return &Commands{store: st, log: testLogger()}, st
}

func incoming(chatID int64, firstName string) *IncomingMessage {
	return &IncomingMessage{
		MessageID: 1,
		From:      &Peer{ID: chatID, FirstName: firstName},
		Chat:      Chat{ID: chatID},
	}
}

func TestStart_GreetsWithoutPayload(t *testing.T) {
	c, st := newTestCommands(t)

	reply := c.Start(context.Background(), incoming(42, "Alice"), "")

	if !strings.Contains(reply, "Welcome to *DealHub Bot*, Alice!") {
		t.Errorf("expected personalized welcome, got %q", reply)
	}
	if strings.Contains(reply, "linked") {
		t.Errorf("expected no linking confirmation without a payload, got %q", reply)
	}
	if _, err := st.GetBindingByChatID(context.Background(), "42"); err == nil {
		t.Error("expected no binding to be written")
	}
}

func TestStart_LinksAccountFromPayload(t *testing.T) {
	c, st := newTestCommands(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice", "hash", "Alice", store.RoleInfluencer)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	reply := c.Start(ctx, incoming(42, "Alice"), strconv.FormatInt(user.ID, 10))

	if !strings.Contains(reply, "Your account is now linked") {
		t.Errorf("expected linking confirmation, got %q", reply)
	}

	binding, err := st.GetBinding(ctx, user.ID)
	if err != nil {
		t.Fatalf("expected binding to be written: %v", err)
	}
	if binding.ChatID != "42" {
		t.Errorf("expected chat id 42, got %s", binding.ChatID)
	}
}

func TestStart_IgnoresMalformedPayload(t *testing.T) {
	c, st := newTestCommands(t)

	reply := c.Start(context.Background(), incoming(42, "Alice"), "not-a-number")

	if !strings.Contains(reply, "Welcome") {
		t.Errorf("expected plain welcome, got %q", reply)
	}
	if _, err := st.GetBindingByChatID(context.Background(), "42"); err == nil {
		t.Error("expected no binding for malformed payload")
	}
}

func TestStart_AnonymousSender(t *testing.T) {
	c, _ := newTestCommands(t)

	msg := &IncomingMessage{MessageID: 1, Chat: Chat{ID: 42}}
	reply := c.Start(context.Background(), msg, "")

	if !strings.Contains(reply, "Welcome to *DealHub Bot*, User!") {
		t.Errorf("expected fallback name, got %q", reply)
	}
}

func TestStatus_NotConnected(t *testing.T) {
	c, _ := newTestCommands(t)

	reply := c.Status(context.Background(), incoming(42, "Alice"), "")

	if !strings.Contains(reply, "Not connected") {
		t.Errorf("expected not-connected status, got %q", reply)
	}
}

func TestStatus_Connected(t *testing.T) {
	c, st := newTestCommands(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice", "hash", "Alice", store.RoleInfluencer)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := st.UpsertBinding(ctx, user.ID, "42"); err != nil {
		t.Fatalf("failed to create binding: %v", err)
	}
	if _, err := st.CreateNotification(ctx, user.ID, "New Message", "body"); err != nil {
		t.Fatalf("failed to create notification: %v", err)
	}

	reply := c.Status(ctx, incoming(42, "Alice"), "")

	if !strings.Contains(reply, "Connected") {
		t.Errorf("expected connected status, got %q", reply)
	}
	if !strings.Contains(reply, "influencer") {
		t.Errorf("expected role in status, got %q", reply)
	}
	if !strings.Contains(reply, "Unread notifications:* 1") {
		t.Errorf("expected unread count 1, got %q", reply)
	}
}

func TestHelp_ListsCommands(t *testing.T) {
	c, _ := newTestCommands(t)

	reply := c.Help(context.Background(), incoming(42, "Alice"), "")

	for _, command := range []string{"/start", "/help", "/status", "/deals"} {
		if !strings.Contains(reply, command) {
			t.Errorf("expected %s in help text", command)
		}
	}
}
