package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bonuslab/loyalty-api/internal/pkg/jwt"
	"github.com/bonuslab/loyalty-api/internal/pkg/response"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the admin performing a request.
type Actor struct {
	Mobile     string
	Role       string
	Privileged bool
}

// Auth returns middleware that validates admin session JWTs.
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			actor := Actor{
				Mobile:     claims.Mobile,
				Role:       claims.Role,
				Privileged: claims.Privileged(),
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrivileged returns middleware that rejects non-manager actors.
func RequirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())
		if !actor.Privileged {
			response.Forbidden(w, "Manager role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetActor extracts the admin actor from context.
func GetActor(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey).(Actor); ok {
		return a
	}
	return Actor{}
}
