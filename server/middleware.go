package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/barida/identity-server/token"
	"github.com/barida/identity-server/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores the verified session claims
	ContextKeyClaims ContextKey = "claims"
)

type Middleware func(http.HandlerFunc) http.HandlerFunc

// ChainMiddleware wraps a handler with middleware; the first middleware is
// the outermost.
func ChainMiddleware(h http.HandlerFunc, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Logging emits one structured line per request.
func (s *Server) Logging() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next(w, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("host", r.Host).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		}
	}
}

// RequireSession validates the Bearer session credential and injects the
// verified claims into the request context. Expired and malformed
// credentials get the same response.
func (s *Server) RequireSession() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := s.sessions.Verify(raw)
			if err != nil {
				writeErrorMessage(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAdmin gates a route on the global admin role. It must run inside
// RequireSession.
func (s *Server) RequireAdmin() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := sessionClaims(r)
			if claims == nil || users.Role(claims.Role) != users.RoleAdmin {
				writeErrorMessage(w, http.StatusForbidden, "Admin role required")
				return
			}
			next(w, r)
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// sessionClaims returns the verified claims injected by RequireSession, or
// nil outside of it.
func sessionClaims(r *http.Request) *token.SessionClaims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*token.SessionClaims)
	return claims
}
