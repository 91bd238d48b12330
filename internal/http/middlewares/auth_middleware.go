package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/actorctx"
	"github.com/peopleops/hrhub/internal/auth"
	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/domain/user"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (user.User, *auth.Claims, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth validates the bearer token and stashes the resolved actor on
// both the gin context and the request context. A missing token and a bad
// token get distinct codes but the same 401 status.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "missing_token",
					"message": "Missing or invalid Authorization header",
				},
			})
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "missing_token",
					"message": "Missing or invalid access token",
				},
			})
			return
		}

		_, claims, err := m.verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserInactive):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "user_inactive",
						"message": "Account is deactivated",
					},
				})
			case errors.Is(err, auth.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "invalid_token",
						"message": "Invalid or expired access token",
					},
				})
			default:
				// store outage, not a bad token
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":    "internal_error",
						"message": "Could not verify access token",
					},
				})
			}
			return
		}

		actor := authz.Actor{
			UserID:     claims.UserID,
			Role:       claims.Role,
			EmployeeID: claims.EmployeeID,
		}

		c.Set(CtxActor, actor)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// Helpers so handlers don't need to know the magic keys.

func ActorFromContext(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(CtxActor)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok && actor.UserID != ""
}
