package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/dealhub-server/internal/store"
	"github.com/vovakirdan/dealhub-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewService(st, &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "dealhub",
		Audience: "dealhub",
		TTL:      time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "password123", "Alice", store.RoleInfluencer)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token from Register")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Username != "alice" || claims.Role != string(store.RoleInfluencer) {
		t.Errorf("unexpected claims %+v", claims)
	}

	loginToken, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := svc.ValidateToken(loginToken); err != nil {
		t.Errorf("login token did not validate: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		role     store.Role
		wantErr  error
	}{
		{"short username", "ab", "password123", store.RoleBrand, ErrInvalidUsername},
		{"long username", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "password123", store.RoleBrand, ErrInvalidUsername},
		{"short password", "alice", "12345", store.RoleBrand, ErrInvalidPassword},
		{"unknown role", "alice", "password123", store.Role("admin"), ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.username, tt.password, "", tt.role); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123", "", store.RoleBrand); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "different456", "", store.RoleBrand); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123", "", store.RoleBrand); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Register(context.Background(), "alice", "password123", "", store.RoleBrand)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	other := NewService(nil, &JWTConfig{
		Secret:   []byte("different-secret"),
		Issuer:   "dealhub",
		Audience: "dealhub",
		TTL:      time.Hour,
	})
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation failure with a different secret")
	}

	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Error("expected validation failure for a tampered token")
	}
}
