package auth

import (
	"strings"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "anna@mesa.local", RoleManager)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}

	user, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user.UserID != "user-1" {
		t.Errorf("user id = %q, want user-1", user.UserID)
	}
	if user.Email != "anna@mesa.local" {
		t.Errorf("email = %q", user.Email)
	}
	if user.Role != string(RoleManager) {
		t.Errorf("role = %q, want manager", user.Role)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken("user-1", "a@b.c", RoleStaff)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	for _, token := range []string{"", "not-a-jwt", strings.Repeat("x", 100)} {
		if _, err := svc.ValidateToken(token); err == nil {
			t.Errorf("token %q must not validate", token)
		}
	}
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken("user-1", "a@b.c", RoleStaff)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expired token must not validate")
	}
}
