package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

func TestNotificationStream(t *testing.T) {
	env := newTestEnv(t)
	token, user := env.registerUser(t, "alice", store.RoleInfluencer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(env.srv.URL, "http", "ws", 1) + "/ws/notifications"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: stdhttp.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		t.Fatalf("failed to dial notification stream: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The subscription is registered shortly after the handshake; keep
	// delivering until the client observes one.
	deliverCtx, stopDelivering := context.WithCancel(ctx)
	defer stopDelivering()
	go func() {
		n := &store.Notification{ID: "n-1", UserID: user.ID, Title: "New Message", Message: "body", CreatedAt: time.Now()}
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-deliverCtx.Done():
				return
			case <-ticker.C:
				_ = env.hub.Deliver(deliverCtx, n)
			}
		}
	}()

	var frame wsNotification
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("failed to read streamed notification: %v", err)
	}
	stopDelivering()

	if frame.Type != "notification" {
		t.Errorf("expected frame type notification, got %q", frame.Type)
	}
	if frame.Data.ID != "n-1" || frame.Data.Title != "New Message" {
		t.Errorf("unexpected frame data %+v", frame.Data)
	}
}

func TestNotificationStream_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(env.srv.URL, "http", "ws", 1) + "/ws/notifications"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "unexpected")
		t.Fatal("expected handshake to fail without a token")
	}
}
