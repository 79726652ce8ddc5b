// Package respond writes JSON responses and turns errors into messages that
// are safe to show API clients.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// headers are already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes {"error": err.Error()} without sanitizing it.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safeMarkers are substrings of messages that describe a client mistake.
var safeMarkers = []string{
	"required",
	"invalid",
	"incorrect",
	"not found",
	"already exists",
	"must be",
	"cannot be",
	"too long",
	"too short",
	"is empty",
	"unknown",
	"nothing to",
	"unauthorized",
	"forbidden",
	"rate limit",
	"validation error",
}

// IsSafe reports whether msg may be shown to a client as is.
func IsSafe(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range safeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// SafeError writes err for 4xx codes when its message looks like a client
// error. Anything else is logged with secrets masked, and the client only
// sees "internal server error".
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if code < 500 && IsSafe(msg) {
		JSON(w, code, map[string]string{"error": msg})
		return
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}
