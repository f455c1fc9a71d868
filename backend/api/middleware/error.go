package middleware

import (
	"github.com/gin-gonic/gin"

	"filebox/backend/common"
)

// ErrorHandler writes the last error a handler attached with c.Error.
// Handlers that already wrote a response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		common.RespError(c, c.Errors.Last().Err)
	}
}
