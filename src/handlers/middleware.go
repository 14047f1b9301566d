// src/handlers/middleware.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/security"
	"github.com/cgscacau/yieldlab/src/store"
	"github.com/cgscacau/yieldlab/src/utils"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	userIDContextKey    contextKey = "userID"
	requestIDContextKey contextKey = "requestID"
)

// GetUserIDFromContext returns the uid set by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// WithUserID is what AuthMiddleware stores; exposed for tests and the CLI.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextualLoggerMiddleware cria um logger com um requestID para cada requisição.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware verifies the bearer token with the identity provider. The
// uid goes into the context for handlers and the raw token is forwarded to
// the document store, which authorizes with the caller's credential.
func AuthMiddleware(verifier security.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxLogger := logger.FromContext(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				ctxLogger.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
				utils.SendJSONError(w, "Token de autenticação não fornecido", http.StatusUnauthorized)
				return
			}
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			tokenString = strings.TrimSpace(tokenString)
			if !found || tokenString == "" {
				ctxLogger.Debug("AuthMiddleware: Malformed Authorization header", "path", r.URL.Path)
				utils.SendJSONError(w, "Token de autenticação não fornecido", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, security.ErrIdentityUnavailable) {
					ctxLogger.Error("AuthMiddleware: Identity provider unavailable", "path", r.URL.Path, "error", err)
					utils.SendJSONError(w, "Erro ao validar token", http.StatusServiceUnavailable)
					return
				}
				ctxLogger.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
				utils.SendJSONError(w, "Token inválido ou expirado", http.StatusUnauthorized)
				return
			}

			// Enriquecer o logger com o userID
			enrichedLogger := ctxLogger.With(slog.String("userID", identity.UID))
			ctx := logger.ToContext(r.Context(), enrichedLogger)
			ctx = WithUserID(ctx, identity.UID)
			ctx = store.WithToken(ctx, tokenString)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware rejects requests beyond the limiter's budget.
func RateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
				utils.SendJSONError(w, "Muitas requisições, tente novamente em instantes", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
