package session

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const identityKey ctxKey = 0

// IdentityFromContext returns the identity stored by Middleware, or nil when
// the request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

func bearerToken(r *http.Request) string {
	a := r.Header.Get("Authorization")
	if !strings.HasPrefix(a, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(a, "Bearer ")
}

// Middleware verifies the bearer token and stores the identity in the
// request context. Requests without a valid token get 401.
func Middleware(ts *TokenService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "authorization failed", http.StatusUnauthorized)
			return
		}
		id, err := ts.Verify(token)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin behaves like Middleware but additionally rejects
// non-admin identities with 403.
func RequireAdmin(ts *TokenService, next http.Handler) http.Handler {
	return Middleware(ts, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if id == nil || !id.Admin {
			http.Error(w, "access denied", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// OptionalMiddleware verifies a bearer token when one is present but lets
// anonymous requests through. Registration uses it: the admin flag may only
// be requested with an admin token, plain signups carry none.
func OptionalMiddleware(ts *TokenService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := ts.Verify(token)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
