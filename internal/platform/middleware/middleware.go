// Package middleware provides the HTTP middlewares shared by all handlers:
// request correlation, request-time pinning, admin gating, and actor
// attribution from externally issued JWTs. Authentication itself is
// external; the token is parsed only to attribute actions to an actor.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "sirenops/pkg/domain"
	"sirenops/pkg/requestcontext"
)

// RequestID attaches a correlation id to the request context, reusing the
// X-Request-ID header when the caller supplies one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime pins the evaluation clock for the whole request so every
// retention comparison in one request sees the same instant.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), requestcontext.Now(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdminToken gates admin routes behind a shared token header.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("X-Admin-Token") != token {
				logger.WarnContext(r.Context(), "admin token rejected", "path", r.URL.Path)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actorClaims are the JWT claims this core reads. The token is issued by
// the platform's auth service; signature verification here only prevents
// spoofed attribution, it is not an authorization decision.
type actorClaims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
}

// RequireActor parses the bearer token and injects actor, org, and role
// into the request context.
func RequireActor(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			var claims actorClaims
			_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
				return []byte(signingKey), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil {
				logger.WarnContext(r.Context(), "actor token rejected", "error", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			actorID, err := id.ParseActorID(claims.Subject)
			if err != nil {
				http.Error(w, "invalid actor id", http.StatusUnauthorized)
				return
			}
			orgID, err := id.ParseOrgID(claims.OrgID)
			if err != nil {
				http.Error(w, "invalid org id", http.StatusUnauthorized)
				return
			}

			ctx := requestcontext.WithActorID(r.Context(), actorID)
			ctx = requestcontext.WithOrgID(ctx, orgID)
			ctx = requestcontext.WithActorRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
