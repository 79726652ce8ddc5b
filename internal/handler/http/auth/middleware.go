// Package auth issues JWTs for the newsroom accounts and guards the write
// endpoints of the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"universitas/internal/handler/http/respond"
)

type ctxKey string

const ctxUser ctxKey = "user"

// User is the authenticated caller.
type User struct {
	Name string
	Role string
}

// UserFromContext returns the user set by Authz.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxUser).(User)
	return u, ok
}

// Authz requires a valid HS256 bearer token signed with JWT_SECRET whose
// role may use the request method and path. Public endpoints pass through.
func Authz(next http.Handler) http.Handler {
	secret := []byte(os.Getenv("JWT_SECRET"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		user, err := validateJWT(r.Header.Get("Authorization"), secret)
		if err != nil {
			RecordAuthzCheckDuration(time.Since(start).Seconds())
			respond.SafeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
			return
		}
		allowed := checkRolePermission(user.Role, r.Method, r.URL.Path)
		RecordAuthzCheckDuration(time.Since(start).Seconds())
		if !allowed {
			RecordForbidden(user.Role, r.Method)
			respond.SafeError(w, http.StatusForbidden, errors.New("forbidden"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, user)))
	})
}

func validateJWT(header string, secret []byte) (User, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return User{}, errors.New("missing bearer token")
	}
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return User{}, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return User{}, errors.New("invalid claims")
	}
	return User{Name: sub, Role: role}, nil
}

// NewToken signs a token for user valid for ttl.
func NewToken(secret []byte, user User, ttl time.Duration, now time.Time) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Name,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return tok.SignedString(secret)
}
