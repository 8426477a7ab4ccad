package auth

import (
	"context"
	"testing"
	"time"

	"mesa/internal/core/apperror"
)

func TestUserLockout(t *testing.T) {
	u := NewUser("anna@mesa.local", "hash", RoleStaff)

	for i := 0; i < 4; i++ {
		u.RecordFailedLogin(5, 15*time.Minute)
	}
	if u.IsLocked() {
		t.Fatal("user locked before reaching the attempt limit")
	}
	if err := u.CanLogin(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u.RecordFailedLogin(5, 15*time.Minute)
	if !u.IsLocked() {
		t.Fatal("fifth failed attempt must lock the account")
	}
	if err := u.CanLogin(); err == nil {
		t.Fatal("locked account must not log in")
	}

	u.RecordSuccessfulLogin()
	if u.IsLocked() || u.FailedLoginAttempts != 0 {
		t.Error("successful login must clear the lockout")
	}
	if u.LastLoginAt == nil {
		t.Error("last login timestamp not set")
	}
}

func TestUserLockExpires(t *testing.T) {
	u := NewUser("anna@mesa.local", "hash", RoleStaff)
	past := time.Now().Add(-time.Minute)
	u.LockedUntil = &past

	if u.IsLocked() {
		t.Error("expired lock must not block login")
	}
}

func TestCanLogin_Disabled(t *testing.T) {
	u := NewUser("anna@mesa.local", "hash", RoleStaff)
	u.IsActive = false

	err := u.CanLogin()
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *User)
		valid  bool
	}{
		{"valid", func(u *User) {}, true},
		{"missing email", func(u *User) { u.Email = "" }, false},
		{"unknown role", func(u *User) { u.Role = "root" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUser("anna@mesa.local", "hash", RoleAdmin)
			tt.mutate(u)
			err := u.Validate(context.Background())
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !apperror.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
