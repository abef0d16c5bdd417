package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const (
	BearerPrefix                     = "bearer"
	IdentityContextKey    contextKey = "identity"
	unauthorizedBody                 = `{"error":"unauthorized","message":"authorization header missing"}`
	forbiddenBody                    = `{"error":"forbidden","message":"invalid or expired token"}`
	malformedHeaderBody              = `{"error":"unauthorized","message":"invalid authorization header format"}`
)

// TokenVerifier validates a bearer token and yields the identity email
// bound to it.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// Auth rejects unauthenticated requests before they reach business
// logic. A missing credential is 401; a credential that fails
// verification is 403.
type Auth struct {
	verifier TokenVerifier
}

// NewAuth creates the authentication middleware.
func NewAuth(verifier TokenVerifier) *Auth {
	return &Auth{verifier: verifier}
}

// Handler wraps next, putting the authenticated identity into the
// request context on success.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractBearerToken(r)
		if err != nil {
			if errors.Is(err, errMissingHeader) {
				writeAuthError(w, http.StatusUnauthorized, unauthorizedBody)
				return
			}
			writeAuthError(w, http.StatusUnauthorized, malformedHeaderBody)
			return
		}

		identity, err := a.verifier.Verify(tokenString)
		if err != nil {
			writeAuthError(w, http.StatusForbidden, forbiddenBody)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errMissingHeader = errors.New("missing authorization header")

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errMissingHeader
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], BearerPrefix) {
		return "", errors.New("invalid authorization format")
	}

	return parts[1], nil
}

func writeAuthError(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

// IdentityFromContext extracts the authenticated email from the
// request context.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(string)
	return identity, ok
}
