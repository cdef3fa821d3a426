package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and puts the owner id into the
// request context. Routes registered behind RequireOwner reject requests
// that carry no valid owner claim.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := utils.SetOwnerIdInContext(c.Request.Context(), claim.OwnerId)
		ctx = utils.SetTokenInContext(ctx, auth)
		if claim.Role == "admin" {
			ctx = utils.SetIsAdminInContext(ctx, true)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireOwner aborts requests whose context carries no owner id.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerId, ok := utils.GetOwnerIdFromContext(c.Request.Context())
		if !ok || ownerId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
