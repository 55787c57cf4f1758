package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// fakeBindingStore serves a fixed binding table.
type fakeBindingStore struct {
	bindings map[int64]string
}

func (f *fakeBindingStore) UpsertBinding(_ context.Context, userID int64, chatID string) error {
	f.bindings[userID] = chatID
	return nil
}

func (f *fakeBindingStore) GetBinding(_ context.Context, userID int64) (*store.ChannelBinding, error) {
	chatID, ok := f.bindings[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.ChannelBinding{UserID: userID, ChatID: chatID}, nil
}

func (f *fakeBindingStore) GetBindingByChatID(_ context.Context, chatID string) (*store.ChannelBinding, error) {
	for userID, c := range f.bindings {
		if c == chatID {
			return &store.ChannelBinding{UserID: userID, ChatID: chatID}, nil
		}
	}
	return nil, store.ErrNotFound
}

// fakeSender records outbound pushes.
type fakeSender struct {
	chatIDs []string
	texts   []string
	err     error
}

func (f *fakeSender) SendText(_ context.Context, chatID, text string, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)
	return nil
}

func TestChannelSink_PushesToBoundChat(t *testing.T) {
	bindings := &fakeBindingStore{bindings: map[int64]string{7: "chat-7"}}
	sender := &fakeSender{}
	sink := NewChannelSink(bindings, sender, testLogger())

	n := &store.Notification{ID: "n-1", UserID: 7, Title: "New Message", Message: "👤 From: Acme"}
	if err := sink.Deliver(context.Background(), n); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if len(sender.chatIDs) != 1 || sender.chatIDs[0] != "chat-7" {
		t.Fatalf("expected one push to chat-7, got %v", sender.chatIDs)
	}
	if !strings.HasPrefix(sender.texts[0], "*New Message*\n\n") {
		t.Errorf("expected bold title prefix, got %q", sender.texts[0])
	}
	if !strings.Contains(sender.texts[0], "👤 From: Acme") {
		t.Errorf("expected notification body in push text, got %q", sender.texts[0])
	}
}

func TestChannelSink_SkipsUnboundUser(t *testing.T) {
	bindings := &fakeBindingStore{bindings: map[int64]string{}}
	sender := &fakeSender{}
	sink := NewChannelSink(bindings, sender, testLogger())

	// Unbound users are a normal state, not an error.
	if err := sink.Deliver(context.Background(), &store.Notification{UserID: 7}); err != nil {
		t.Fatalf("expected nil for unbound user, got %v", err)
	}
	if len(sender.chatIDs) != 0 {
		t.Errorf("expected no push, got %v", sender.chatIDs)
	}
}

func TestChannelSink_PropagatesSendFailure(t *testing.T) {
	bindings := &fakeBindingStore{bindings: map[int64]string{7: "chat-7"}}
	sender := &fakeSender{err: errors.New("provider down")}
	sink := NewChannelSink(bindings, sender, testLogger())

	if err := sink.Deliver(context.Background(), &store.Notification{UserID: 7}); err == nil {
		t.Fatal("expected send failure to propagate to the dispatcher")
	}
}
