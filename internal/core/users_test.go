package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gridvault/gridvault/internal/core"
)

func TestSignupAndLogin(t *testing.T) {
	svc := newService(t, 10)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "ada@example.com", "Str0ng@Pass", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if created.ID == "" || created.Email != "ada@example.com" {
		t.Errorf("Signup() = %+v", created)
	}
	if created.PasswordHash == "Str0ng@Pass" {
		t.Error("password stored in the clear")
	}

	logged, err := svc.Login(ctx, "ada@example.com", "Str0ng@Pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if logged.ID != created.ID {
		t.Errorf("Login() id = %q, want %q", logged.ID, created.ID)
	}
}

func TestSignup_InvalidEmail(t *testing.T) {
	svc := newService(t, 10)

	for _, email := range []string{"", "nodomain", "a@b", "spaces in@example.com"} {
		_, err := svc.Signup(context.Background(), email, "Str0ng@Pass", "A", "B")
		var validation *core.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Signup(%q) error = %v, want ValidationError", email, err)
		}
	}
}

func TestSignup_WeakPasswords(t *testing.T) {
	svc := newService(t, 10)

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "S0ng@Pa"},
		{"no uppercase", "str0ng@pass"},
		{"no lowercase", "STR0NG@PASS"},
		{"no digit", "Strong@Pass"},
		{"no special", "Str0ngPass1"},
		{"disallowed character", "Str0ng#Pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), "weak@example.com", tt.password, "A", "B")
			var validation *core.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("Signup() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := newService(t, 10)
	mustSignup(t, svc, "ada@example.com")

	_, err := svc.Signup(context.Background(), "ada@example.com", "Str0ng@Pass", "A", "B")
	var validation *core.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Signup() error = %v, want ValidationError", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newService(t, 10)
	mustSignup(t, svc, "ada@example.com")

	_, err := svc.Login(context.Background(), "ada@example.com", "Wr0ng@Pass")
	var auth *core.AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("Login() error = %v, want AuthError", err)
	}
	if auth.Message != "incorrect email or password" {
		t.Errorf("message = %q", auth.Message)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newService(t, 10)

	_, err := svc.Login(context.Background(), "nobody@example.com", "Str0ng@Pass")
	var auth *core.AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("Login() error = %v, want AuthError", err)
	}
	if auth.Message != "user does not exist" {
		t.Errorf("message = %q", auth.Message)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	svc := newService(t, 10)

	_, err := svc.GetUser(context.Background(), "missing")
	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("GetUser() error = %v, want NotFoundError", err)
	}
}
