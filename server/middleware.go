package server

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
)

type contextKey string // Define a custom type for context keys to avoid collisions

const (
	playerIDkey      contextKey = "player_id"
	playerIDCookie              = "player_id"
	playerCookieLife            = 24 * time.Hour
)

func getPlayerIDFromContext(ctx context.Context) string {
	playerID, _ := ctx.Value(playerIDkey).(string)
	return playerID
}

func withPlayerID(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, playerIDkey, playerID)
}

// Cors allows browser calls from the configured origins.
func Cors(origins []string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(origins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, PATCH, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}

// PlayerID reuses the player_id cookie or issues a new one, and stores the
// id in the request context.
func PlayerID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var playerID string
		if cookie, err := r.Cookie(playerIDCookie); err == nil && cookie.Value != "" {
			playerID = cookie.Value
		} else {
			playerID = uuid.NewString()
			slog.Debug("issued player id", slog.String("player_id", playerID))
		}

		http.SetCookie(w, &http.Cookie{
			Name:     playerIDCookie,
			Value:    playerID,
			Expires:  time.Now().Add(playerCookieLife),
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteStrictMode,
		})

		h.ServeHTTP(w, r.WithContext(withPlayerID(r.Context(), playerID)))
	})
}
