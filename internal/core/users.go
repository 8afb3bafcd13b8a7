package core

// users.go handles account signup and credential checks. Token issuance is
// the web layer's concern; the core only vouches for the credentials.

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const passwordSpecials = "@$!%*?&"

// Signup registers a new account with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, email, password, firstname, lastname string) (*User, error) {
	if !emailPattern.MatchString(email) {
		return nil, &ValidationError{Message: "invalid email format"}
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ValidationError{Message: "email address is already registered"}
	}

	if !validPassword(password) {
		return nil, &ValidationError{Message: "insufficient password complexity; must be at least 8 characters long, " +
			"with 1 uppercase letter, 1 lowercase letter, 1 special character and 1 number"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Firstname:    firstname,
		Lastname:     lastname,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &AuthError{Message: "user does not exist"}
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, &AuthError{Message: "incorrect email or password"}
	}
	return u, nil
}

// GetUser fetches an account by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}

// validPassword enforces the complexity policy: at least 8 characters with
// one lowercase, one uppercase, one digit and one special character, drawn
// only from the allowed set.
func validPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}
