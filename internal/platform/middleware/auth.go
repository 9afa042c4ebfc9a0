package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
	"safereturn/pkg/platform/httputil"
	"safereturn/pkg/requestcontext"
)

// Identity is the resolved caller: who they are, their role, and the session
// the token was minted under.
type Identity struct {
	PersonID  id.PersonID
	Role      id.Role
	SessionID string
}

// TokenValidator resolves a bearer token to an Identity. The auth service
// implements this by validating the JWT and checking the session is live.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (Identity, error)
}

// RequireAuth validates the bearer token and populates the request context
// with the caller's identity. Requests without a valid token get 401.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			identity, err := validator.Validate(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed",
					"error", err.Error(),
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx := requestcontext.WithActor(r.Context(), identity.PersonID, identity.Role)
			ctx = requestcontext.WithSessionID(ctx, identity.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to callers holding one of the given roles.
// Must run after RequireAuth.
func RequireRole(roles ...id.Role) func(http.Handler) http.Handler {
	allowed := make(map[id.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[requestcontext.ActorRole(r.Context())] {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
