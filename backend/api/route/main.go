package route

import (
	"github.com/gin-gonic/gin"

	"filebox/backend/api/middleware"
	"filebox/backend/common"
	"filebox/backend/service"
)

// Services are the dependencies the routes dispatch to.
type Services struct {
	Config common.Config
	Tokens *service.TokenService
	Users  *service.UserService
	Files  *service.FileService
}

func SetRouter(route *gin.Engine, s Services) {
	route.Use(middleware.CORS())
	if s.Config.EnableGzip {
		route.Use(middleware.GzipDecodeMiddleware())
		route.Use(middleware.GzipEncodeMiddleware("/download", "/"+common.StorageDir))
	}
	route.Use(middleware.ErrorHandler())

	setStorageRouter(route, s)
	SetApiRouter(route, s)
}
