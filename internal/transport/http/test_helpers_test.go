package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/auth"
	"github.com/vovakirdan/dealhub-server/internal/config"
	"github.com/vovakirdan/dealhub-server/internal/conversations"
	"github.com/vovakirdan/dealhub-server/internal/notify"
	"github.com/vovakirdan/dealhub-server/internal/store"
	"github.com/vovakirdan/dealhub-server/internal/store/sqlite"
)

// testEnv is one fully wired API server over an in-memory store.
type testEnv struct {
	srv *httptest.Server
	st  *sqlite.SQLiteStore
	hub *notify.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "dealhub",
		Audience: "dealhub",
		TTL:      time.Hour,
	})
	convs := conversations.New(st)
	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(st, &logger, hub)

	server := NewServer(config.Default(), authService, st, convs, dispatcher, hub, &logger)
	srv := httptest.NewServer(server.Handler)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, st: st, hub: hub}
}

// registerUser creates an account through the API and returns its token and
// stored row.
func (e *testEnv) registerUser(t *testing.T, username string, role store.Role) (string, *store.User) {
	t.Helper()

	status, body := e.request(t, stdhttp.MethodPost, "/api/register", "", map[string]interface{}{
		"username": username,
		"password": "password123",
		"role":     string(role),
	})
	if status != stdhttp.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, status, body)
	}

	var resp AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}

	user, err := e.st.GetUserByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("failed to look up registered user: %v", err)
	}

	return resp.Token, user
}

// request performs one API call and returns the status code and raw body.
func (e *testEnv) request(t *testing.T, method, path, token string, payload interface{}) (int, []byte) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := stdhttp.NewRequest(method, e.srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return resp.StatusCode, body
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
