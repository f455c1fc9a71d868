package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"filebox/backend/common"
)

var startTime = time.Now()

// GetStatus is the health probe.
func GetStatus(blobDriver string) gin.HandlerFunc {
	return func(c *gin.Context) {
		common.RespSuccess(c, gin.H{
			"version":     common.Version,
			"blob_driver": blobDriver,
			"start_time":  common.FormatTime(startTime),
		})
	}
}
