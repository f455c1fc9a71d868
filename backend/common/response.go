package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ferrors "filebox/backend/common/errors"
)

// APIResponse is the envelope used by the service endpoints (status).
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorCode int         `json:"errorCode,omitempty"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

// MessageResponse is the body of the confirmation-only endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

const (
	RFC3339MilliZ = "2006-01-02T15:04:05.000Z07:00"

	internalErrorMessage = "Internal server error"
)

func RespSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "",
		Data:    data,
	})
}

func RespMessage(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, MessageResponse{Message: msg})
}

// RespError serializes err and logs it. Uncoded errors and internal errors
// are reported with a generic message; their cause only reaches the log.
func RespError(c *gin.Context, err error) {
	appErr, ok := ferrors.As(err)
	if !ok {
		appErr = ferrors.Internal(ferrors.ErrInternalServer, internalErrorMessage, err)
	}

	status := appErr.Status()
	logArgs := []any{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"code", appErr.ErrorCode(),
		"error", err.Error(),
	}
	if ferrors.IsKind(appErr, ferrors.KindInternal) {
		SysError("request failed", logArgs...)
		c.JSON(status, ErrorResponse{ErrorCode: appErr.ErrorCode(), Message: publicMessage(appErr)})
		return
	}
	SysWarn("request rejected", logArgs...)
	c.JSON(status, ErrorResponse{
		ErrorCode: appErr.ErrorCode(),
		Message:   appErr.Msg,
		Data:      appErr.Data,
	})
}

func publicMessage(e *ferrors.Error) string {
	if e.Msg == "" {
		return internalErrorMessage
	}
	return e.Msg
}

func FormatTime(t time.Time) string {
	return t.Format(RFC3339MilliZ)
}
