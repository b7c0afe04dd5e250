package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/response"
	"github.com/storefront/admin/internal/session"
)

// SessionCookie is the name of the cookie holding the session token.
const SessionCookie = "sid"

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionKey contextKey = "session"

// SessionResolver loads a session from its token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// RequireSession rejects requests without a valid session cookie and stores
// the session in the request context.
func RequireSession(resolver SessionResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				response.Unauthorized(w, "authentication required")
				return
			}

			sess, err := resolver.Resolve(r.Context(), cookie.Value)
			if errors.Is(err, session.ErrInvalidSession) {
				response.Unauthorized(w, "invalid or expired session")
				return
			}
			if err != nil {
				log.Error("resolve session failed", zap.Error(err))
				response.InternalError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireRole allows the request only when the session role is one of roles.
// It must run after RequireSession.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := CurrentSession(r.Context())
			if !ok {
				response.Unauthorized(w, "authentication required")
				return
			}
			if !allowed[sess.Role] {
				response.Forbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// CurrentSession returns the session stored by RequireSession.
func CurrentSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok && sess != nil
}
