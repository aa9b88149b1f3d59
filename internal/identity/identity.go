// Package identity provides anonymous per-device identity primitives.
//
// Credential-based authentication is out of scope; an anonymous cookie stands
// in for "current user identity". Handlers that require a user call
// RequireUser, which rejects requests without a resolved identity.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkowalski/pimpmyprompt/internal/domain"
	"github.com/pkowalski/pimpmyprompt/internal/store"
)

const (
	AnonCookieName   = "pmp_anon_id"
	anonCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID from the request context.
// Returns "" when the request carries no identity.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func isValidAnonID(id string) bool {
	if len(id) != len("anon_")+32 || id[:5] != "anon_" {
		return false
	}
	for _, c := range id[5:] {
		if (c < 'a' || c > 'f') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func deriveUsername(userID string) string {
	if len(userID) > 13 {
		return "anon-" + userID[len(userID)-8:]
	}
	return "anon-user"
}

func setAnonCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(anonCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(anonCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// IssueHandler returns a handler for POST /auth/anonymous. It issues (or
// refreshes) the anonymous identity cookie and upserts the user row.
func IssueHandler(repo store.Repository, isDev bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(c.Value) {
			id = c.Value
		} else {
			newID, err := generateAnonID()
			if err != nil {
				http.Error(w, `{"error":"failed to establish anonymous identity"}`, http.StatusInternalServerError)
				return
			}
			id = newID
		}

		now := time.Now()
		user := &domain.User{
			UserID:     id,
			Username:   deriveUsername(id),
			LastSeenAt: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repo.UpsertUser(r.Context(), user); err != nil {
			http.Error(w, `{"error":"failed to initialize anonymous user"}`, http.StatusInternalServerError)
			return
		}

		setAnonCookie(w, id, isDev)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"user_id":%q,"username":%q}`, id, user.Username)
	}
}

// Middleware resolves the anonymous identity cookie, refreshes the user's
// last-seen timestamp, and stores the user ID in the request context. A
// request without a valid cookie passes through with no identity; gated
// handlers reject it via RequireUser.
func Middleware(repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(AnonCookieName)
			if err != nil || !isValidAnonID(c.Value) {
				next.ServeHTTP(w, r)
				return
			}

			user, err := repo.GetUser(r.Context(), c.Value)
			if err != nil || user == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Last-seen refresh is best effort; identity still resolves on failure.
			if err := repo.UpdateLastSeen(r.Context(), user.UserID, time.Now()); err != nil {
				slog.Warn("failed to update last seen", "user_id", user.UserID, "error", err)
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser wraps a handler and rejects requests without a resolved
// identity with 401.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"authentication required"}`)
			return
		}
		next(w, r)
	}
}
