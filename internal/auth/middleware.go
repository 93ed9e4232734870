package auth

import (
	"context"
	"net/http"
)

type contextKey string

var userCtxKey = contextKey("user")

// RequireAuth rejects requests without a valid token and stores the caller's
// Claims in the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := s.TokenFrom(r)
		if tokenStr == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		claims, err := s.Verify(r.Context(), tokenStr)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// WithUser attaches claims to ctx.
func WithUser(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, userCtxKey, c)
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(userCtxKey).(Claims)
	return c, ok
}
