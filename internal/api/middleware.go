/**
 * @description
 * Custom middleware for the HTTP router. The auth middleware resolves a
 * presented bearer credential through the Session Authority and attaches the
 * resulting identity to the request context; the staff wrapper is the
 * capability check for staff-only endpoints.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: Session authority and models.
 */

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/corebank/banking-service/internal/app"
	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
)

type contextKey string

const (
	identityContextKey   contextKey = "identity"
	credentialContextKey contextKey = "credential"
)

// SessionAuthMiddleware validates the bearer credential on every request and
// injects the resolved identity. Each request re-reads durable session state;
// there is deliberately no in-process cache of validation results.
func SessionAuthMiddleware(authority *app.SessionAuthority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization required")
				return
			}
			credential := strings.TrimPrefix(authHeader, "Bearer ")
			if credential == authHeader || strings.TrimSpace(credential) == "" {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}
			credential = strings.TrimSpace(credential)

			identity, err := authority.Validate(r.Context(), credential)
			if err != nil {
				writeError(w, http.StatusUnauthorized, authFailureMessage(err))
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			ctx = context.WithValue(ctx, credentialContextKey, credential)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffOnly rejects requests whose identity lacks the STAFF role. It must run
// after SessionAuthMiddleware.
func StaffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r.Context())
		if !ok || !identity.IsStaff() {
			writeError(w, http.StatusForbidden, "Staff access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity retrieves the validated identity from the request context.
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(domain.Identity)
	return identity, ok
}

// GetCredential retrieves the raw bearer credential from the request context.
// Logout needs it to revoke the session it arrived on.
func GetCredential(ctx context.Context) (string, bool) {
	credential, ok := ctx.Value(credentialContextKey).(string)
	return credential, ok
}

// authFailureMessage keeps the four validation outcomes distinguishable to
// the client without leaking anything an attacker could use for enumeration.
func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrSessionRevoked):
		return "Session revoked"
	case errors.Is(err, app.ErrSessionExpired):
		return "Session expired"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not recognized"
	default:
		return "Invalid credential"
	}
}
