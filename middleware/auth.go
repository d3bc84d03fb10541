package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"

	"habitTrackerAPI/internal/logger"
)

type contextKey string

const ClerkIDKey contextKey = "clerkID"

// DevUserHeader carries the caller id when auth is disabled.
const DevUserHeader = "X-User-ID"

type verifyFunc func(ctx context.Context, token string) (string, error)

func clerkVerify(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ClerkAuthMiddleware validates Clerk JWT tokens and stores the subject as
// the Clerk user id.
func ClerkAuthMiddleware(next http.Handler) http.Handler {
	return bearerAuth(clerkVerify, false)(next)
}

// ClerkWebsocketAuthMiddleware also accepts the token as a "token" query
// parameter, since browsers cannot set headers on websocket upgrades.
func ClerkWebsocketAuthMiddleware(next http.Handler) http.Handler {
	return bearerAuth(clerkVerify, true)(next)
}

func bearerAuth(verify verifyFunc, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r, allowQuery)
			if reason != "" {
				authRejections.WithLabelValues("missing_token").Inc()
				respondWithError(w, http.StatusUnauthorized, reason)
				return
			}

			subject, err := verify(r.Context(), token)
			if err != nil || subject == "" {
				logger.Debug("Auth: token verification failed", "err", err)
				authRejections.WithLabelValues("invalid_token").Inc()
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ClerkIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request, allowQuery bool) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := r.URL.Query().Get("token"); token != "" {
				return token, ""
			}
		}
		return "", "Authorization header required"
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return "", "Invalid authorization format. Use 'Bearer <token>'"
	}
	return token, ""
}

// DevAuthMiddleware trusts the X-User-ID header. It exists for local
// development with auth disabled and must never face the internet.
func DevAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clerkID := r.Header.Get(DevUserHeader)
		if clerkID == "" {
			clerkID = r.URL.Query().Get("user_id")
		}
		if clerkID == "" {
			authRejections.WithLabelValues("missing_user").Inc()
			respondWithError(w, http.StatusUnauthorized, DevUserHeader+" header required")
			return
		}

		ctx := context.WithValue(r.Context(), ClerkIDKey, clerkID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Auth returns the middleware pair for regular and websocket routes.
func Auth(disabled bool) (api, websocket func(http.Handler) http.Handler) {
	if disabled {
		return DevAuthMiddleware, DevAuthMiddleware
	}
	return ClerkAuthMiddleware, ClerkWebsocketAuthMiddleware
}

// GetClerkID extracts Clerk user ID from context
func GetClerkID(ctx context.Context) (string, bool) {
	clerkID, ok := ctx.Value(ClerkIDKey).(string)
	return clerkID, ok && clerkID != ""
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
