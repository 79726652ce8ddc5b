package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"os"
)

// ErrInvalidCredentials is returned for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is a login attempt.
type Credentials struct {
	Username string
	Password string
}

// Provider checks credentials and tells which role a user has.
type Provider interface {
	ValidateCredentials(ctx context.Context, creds Credentials) error
	IdentifyUser(ctx context.Context, username string) (string, error)
}

// EnvProvider authenticates the accounts configured in the environment:
// ADMIN_USER/ADMIN_USER_PASSWORD, and optionally a read-only account in
// VIEWER_USER/VIEWER_USER_PASSWORD.
type EnvProvider struct{}

type account struct {
	user, password, role string
}

func (EnvProvider) accounts() []account {
	accs := []account{{os.Getenv("ADMIN_USER"), os.Getenv("ADMIN_USER_PASSWORD"), RoleAdmin}}
	if v := os.Getenv("VIEWER_USER"); v != "" {
		accs = append(accs, account{v, os.Getenv("VIEWER_USER_PASSWORD"), RoleViewer})
	}
	return accs
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidateCredentials compares in constant time against every account.
func (p EnvProvider) ValidateCredentials(_ context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return ErrInvalidCredentials
	}
	ok := false
	for _, a := range p.accounts() {
		if a.user == "" || a.password == "" {
			continue
		}
		if equal(creds.Username, a.user) && equal(creds.Password, a.password) {
			ok = true
		}
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// IdentifyUser returns the role of username.
func (p EnvProvider) IdentifyUser(_ context.Context, username string) (string, error) {
	for _, a := range p.accounts() {
		if a.user != "" && equal(username, a.user) {
			return a.role, nil
		}
	}
	return "", errors.New("user not found")
}
