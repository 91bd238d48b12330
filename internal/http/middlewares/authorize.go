package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/authz"
)

// Require gates a route on a role-level authorization decision. It is only
// suitable for actions where ownership plays no part (collection-level
// create, reports, ad-hoc queries); routes with per-row ownership rules
// decide in the handler, where the owning user is known.
func Require(action authz.Action, resource authz.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)

		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "missing_token",
					"message": "Missing identity context",
				},
			})
			return
		}

		d := authz.Decide(actor, action, resource, "")

		if d.Deny() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    string(d.Reason),
					"message": "You do not have permission to perform this action",
				},
			})
			return
		}

		c.Next()
	}
}
