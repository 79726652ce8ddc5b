package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"universitas/internal/handler/http/respond"
	"universitas/internal/observability/logging"
)

// DefaultTokenTTL is how long issued tokens are valid.
const DefaultTokenTTL = time.Hour

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenHandler exchanges a username and password for a JWT.
//
//	POST /auth/token {"username": "...", "password": "..."}
func TokenHandler(p Provider, ttl time.Duration) http.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := logging.WithRequestID(r.Context(), slog.Default())
		fail := func(code int, reason string, err error) {
			logger.Warn("authentication failed",
				slog.String("reason", reason),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest("unknown", "failure")
			RecordAuthDuration("unknown", time.Since(start).Seconds())
			respond.SafeError(w, code, err)
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
			return
		}
		if err := p.ValidateCredentials(r.Context(), Credentials(req)); err != nil {
			fail(http.StatusUnauthorized, "invalid_credentials", errors.New("unauthorized"))
			return
		}
		role, err := p.IdentifyUser(r.Context(), req.Username)
		if err != nil {
			fail(http.StatusUnauthorized, "role_identification_failed", errors.New("unauthorized"))
			return
		}

		now := time.Now()
		signed, err := NewToken([]byte(os.Getenv("JWT_SECRET")), User{Name: req.Username, Role: role}, ttl, now)
		if err != nil {
			RecordAuthRequest(role, "failure")
			RecordAuthDuration(role, time.Since(start).Seconds())
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}

		logger.Info("authentication successful",
			slog.String("user", req.Username),
			slog.String("role", role),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		RecordAuthRequest(role, "success")
		RecordAuthDuration(role, time.Since(start).Seconds())
		respond.JSON(w, http.StatusOK, tokenResponse{Token: signed, ExpiresAt: now.Add(ttl).UTC()})
	}
}
