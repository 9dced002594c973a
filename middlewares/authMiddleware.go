package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/utils"
)

type authString string

// HookAuthMiddleware guards the ERP-side hook endpoints. A signed bearer token acts as its
// caller within the token's business; without one, only an admin session may call.
func HookAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			if admin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !admin {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claims, err := utils.JwtValidate(auth[len(bearer):])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), authString("auth"), claims)
		ctx = utils.SystemContext(ctx, claims.BusinessId, claims.Caller)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CtxValue is the hook caller's claims, nil for session callers.
func CtxValue(ctx context.Context) *utils.HookClaims {
	raw, _ := ctx.Value(authString("auth")).(*utils.HookClaims)
	return raw
}
