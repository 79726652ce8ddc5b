package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	minPasswordLength = 12
	minSecretLength   = 32
)

var weakPasswords = []string{
	"admin", "password", "passord", "123456", "secret", "hemmelig",
	"qwerty", "abc123", "letmein", "welcome", "test", "default", "root",
	"universitas", "redaksjon",
}

var keyboardRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}

// checkPassword returns why pass is too weak, or nil.
func checkPassword(pass string) error {
	if len(pass) < minPasswordLength {
		return fmt.Errorf("must be at least %d characters", minPasswordLength)
	}
	if isRepeatedChar(pass) || isNumericSequence(pass) {
		return errors.New("must not be a simple pattern")
	}
	lower := strings.ToLower(pass)
	for _, row := range keyboardRows {
		for n := 6; n <= len(row); n++ {
			if strings.Contains(lower, row[:n]) || strings.Contains(lower, reverse(row[:n])) {
				return errors.New("must not be a keyboard pattern")
			}
		}
	}
	for _, weak := range weakPasswords {
		if lower == weak || (strings.HasPrefix(lower, weak) && len(pass) < minPasswordLength+5) {
			return errors.New("must not be based on a common password")
		}
	}
	return nil
}

func isRepeatedChar(s string) bool {
	return s != "" && strings.Count(s, s[:1]) == len(s)
}

func isNumericSequence(s string) bool {
	asc, desc := true, true
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		if i == 0 {
			continue
		}
		d := int(s[i]) - int(s[i-1])
		if d != 1 && d != -9 {
			asc = false
		}
		if d != -1 && d != 9 {
			desc = false
		}
	}
	return asc || desc
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// ValidateAdminCredentials checks ADMIN_USER and ADMIN_USER_PASSWORD at
// startup. The API refuses to start with missing or weak credentials.
func ValidateAdminCredentials() error {
	if os.Getenv("ADMIN_USER") == "" {
		return errors.New("admin credentials validation failed: ADMIN_USER must not be empty")
	}
	if err := checkPassword(os.Getenv("ADMIN_USER_PASSWORD")); err != nil {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD %w", err)
	}
	return nil
}

// ValidateViewerCredentials checks the optional read-only account. A bad
// configuration only disables the account: the variables are unset and a
// warning is logged.
func ValidateViewerCredentials(logger *slog.Logger) {
	user := os.Getenv("VIEWER_USER")
	if user == "" {
		logger.Info("viewer role not configured")
		return
	}
	var reason string
	switch err := checkPassword(os.Getenv("VIEWER_USER_PASSWORD")); {
	case user == os.Getenv("ADMIN_USER"):
		reason = "VIEWER_USER must differ from ADMIN_USER"
	case err != nil:
		reason = "VIEWER_USER_PASSWORD " + err.Error()
	}
	if reason != "" {
		logger.Warn("disabling viewer role", slog.String("reason", reason))
		_ = os.Unsetenv("VIEWER_USER")
		_ = os.Unsetenv("VIEWER_USER_PASSWORD")
		return
	}
	logger.Info("viewer role configured", slog.String("user", user))
}

// ValidateJWTSecret checks that JWT_SECRET is long and not a placeholder.
func ValidateJWTSecret() error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if isRepeatedChar(secret) {
		return errors.New("JWT_SECRET must not be a single repeated character")
	}
	return nil
}
