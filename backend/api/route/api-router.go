package route

import (
	"github.com/gin-gonic/gin"

	"filebox/backend/api/handler"
	"filebox/backend/api/middleware"
	"filebox/backend/common"
)

func SetApiRouter(route *gin.Engine, s Services) {
	users := handler.NewUserHandler(s.Users)
	files := handler.NewFileHandler(s.Files, s.Config.MaxUploadBytes())
	critical := middleware.CriticalRateLimit(s.Config.RateLimitPerMinute)

	route.GET("/status", handler.GetStatus(s.Config.BlobDriver))

	// Public routes
	route.POST("/signup", critical, middleware.RequestTimeout(common.RequestTimeout), users.Signup)
	route.POST("/login", critical, middleware.RequestTimeout(common.RequestTimeout), users.Login)

	authRoutes := route.Group("/")
	authRoutes.Use(middleware.JWTAuth(s.Tokens), middleware.RequestTimeout(common.RequestTimeout))
	{
		authRoutes.DELETE("/user", users.DeleteSelf)

		authRoutes.GET("/files", files.ListFiles)
		authRoutes.POST("/files", files.UploadFiles)
		authRoutes.GET("/download/:id", files.DownloadFile)
		authRoutes.PUT("/file", files.RenameFile)
		authRoutes.DELETE("/file/:id", files.DeleteFile)
	}
}
