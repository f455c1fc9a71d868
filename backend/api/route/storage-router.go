package route

import (
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"filebox/backend/api/handler"
	"filebox/backend/common"
)

// setStorageRouter exposes the stored artifacts read-only under /storage.
// The local tree is served as static files; other drivers stream each
// object through the blob store.
func setStorageRouter(route *gin.Engine, s Services) {
	if s.Config.BlobDriver == common.BlobDriverLocal || s.Config.BlobDriver == "" {
		route.Use(static.Serve("/"+common.StorageDir, static.LocalFile(s.Config.StorageRoot(), false)))
		return
	}
	files := handler.NewFileHandler(s.Files, s.Config.MaxUploadBytes())
	route.GET("/"+common.StorageDir+"/*filepath", files.ServeStorage)
}
