package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/auth"
	"github.com/vistahr/stayhub/internal/config"
	"github.com/vistahr/stayhub/internal/domain/user"
)

// Keep these interfaces small so tests can fake them easily.

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type UserResolver interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserResolver
}

func NewAuthMiddleware(jwt TokenVerifier, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth resolves the caller from the bearer token and stashes the
// full user row on the context. A token whose user no longer exists is as
// unauthorized as no token at all.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))

		if raw == "" {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		identity, err := m.jwt.Verify(raw)

		if err != nil {
			switch err {
			case auth.ErrTokenExpired:
				abortUnauthorized(c, "Token expired")
			case auth.ErrInvalidSubject:
				abortUnauthorized(c, "Invalid token subject")
			default:
				abortUnauthorized(c, "Invalid token")
			}
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)

		defer cancel()

		u, err := m.users.GetByID(cctx, identity.UserID)

		if err != nil {
			abortUnauthorized(c, "User not found")
			return
		}

		SetCurrentUser(c, u)

		c.Next()
	}
}

// SetCurrentUser binds the resolved identity to the request context.
func SetCurrentUser(c *gin.Context, u user.User) {
	c.Set(ctxUserKey, u)
}

// RequireRole layers on top of RequireAuth and short-circuits with 403
// when the resolved role is not in the allowed set.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)

		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		for _, role := range roles {
			if u.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// CurrentUser returns the identity RequireAuth resolved, so handlers don't
// need to know the magic context key.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)

	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)

	return u, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
