package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voicebridge/bridge/internal/bridge/app"
)

// WebhookAuth verifies the bearer token the session builder embeds in
// direct-callback tool definitions. An empty secret disables verification,
// which is only acceptable for local testing.
func WebhookAuth(secret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Tool callback without Authorization header", "path", r.URL.Path)
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format", "path", r.URL.Path)
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithAudience(app.CallbackTokenAudience),
			)
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "Tool callback token validation failed", "path", r.URL.Path, "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
