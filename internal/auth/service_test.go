package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teamsphere/teamsphere-server/internal/auth"
	"github.com/teamsphere/teamsphere-server/internal/store/memstore"
)

func newTestService() *auth.Service {
	return auth.NewService(memstore.New(), &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected email: %s", user.Email)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID || claims.Name != "Alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	loginToken, loginUser, err := svc.Login(ctx, "ALICE@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginToken == "" || loginUser.ID != user.ID {
		t.Fatalf("unexpected login result: %+v", loginUser)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(ctx, "Other Alice", "alice@example.com", "different456")
	if !errors.Is(err, auth.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name     string
		userName string
		email    string
		password string
		want     error
	}{
		{"short name", "A", "a@example.com", "password123", auth.ErrInvalidName},
		{"bad email", "Alice", "not-an-email", "password123", auth.ErrInvalidEmail},
		{"short password", "Alice", "alice@example.com", "123", auth.ErrInvalidPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tc.userName, tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	token, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}

	other := auth.NewService(memstore.New(), &auth.JWTConfig{
		Secret:   []byte("different-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}
