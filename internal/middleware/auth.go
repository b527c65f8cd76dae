package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/logging"
)

type contextKey string

const actorIDKey contextKey = "actor_id"

// AccessVerifier checks an access token's signature and expiry and returns
// the account id it was issued for. It never touches a store.
type AccessVerifier interface {
	VerifyAccess(accessToken string) (string, error)
}

// RequireAuth extracts the bearer access token, verifies it, and attaches the
// actor's account id to the request context. The engagement and comment
// surfaces treat that id as opaque.
func RequireAuth(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing or malformed authorization header")
				return
			}

			actorID, err := verifier.VerifyAccess(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("access token rejected", "error", err)
				unauthorized(w, "invalid or expired access token")
				return
			}

			ctx := context.WithValue(r.Context(), actorIDKey, actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the actor id when a valid bearer token is present and
// passes the request through anonymously otherwise. Read surfaces use it to
// derive viewer flags without forcing a login.
func OptionalAuth(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if actorID, err := verifier.VerifyAccess(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), actorIDKey, actorID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorID retrieves the authenticated account id from the context, or ""
// for anonymous requests.
func ActorID(ctx context.Context) string {
	if id, ok := ctx.Value(actorIDKey).(string); ok {
		return id
	}
	return ""
}

// WithActorID stores an actor id on the context. Exported for handler tests.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
