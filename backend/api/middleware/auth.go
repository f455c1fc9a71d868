package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"filebox/backend/common"
	"filebox/backend/service"
)

// TokenVerifier resolves an Authorization header to the caller.
type TokenVerifier interface {
	Verify(ctx context.Context, authHeader string) (*service.JWTClaims, error)
}

// JWTAuth is a middleware that validates bearer tokens. The caller id is
// stored both in the gin context and in the request context.
func JWTAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Verify(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			common.RespError(c, err)
			c.Abort()
			return
		}

		c.Set(common.ContextUserIDKey, claims.UserID)
		c.Set(common.ContextEmailKey, claims.Email)
		c.Request = c.Request.WithContext(common.WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}
