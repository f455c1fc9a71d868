package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"filebox/backend/common"
	ferrors "filebox/backend/common/errors"
	"filebox/backend/service"
)

// uploadField is the repeated multipart field carrying the files.
const uploadField = "files"

type FileHandler struct {
	files     *service.FileService
	maxUpload int64
}

func NewFileHandler(files *service.FileService, maxUpload int64) *FileHandler {
	return &FileHandler{files: files, maxUpload: maxUpload}
}

func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.files.ListFiles(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *FileHandler) UploadFiles(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		msg := "Invalid multipart form"
		if errors.As(err, &tooLarge) {
			msg = "Upload too large"
		}
		_ = c.Error(ferrors.Validation(ferrors.ErrUploadValidation, msg, []ferrors.FieldViolation{
			{Field: uploadField, Rule: "multipart", Message: err.Error()},
		}))
		return
	}
	defer form.RemoveAll()

	headers := form.File[uploadField]
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		uploads = append(uploads, service.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}

	res, err := h.files.UploadFiles(c.Request.Context(), uploads)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if res.LimitReached {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *FileHandler) DownloadFile(c *gin.Context) {
	dl, err := h.files.DownloadFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer dl.Content.Close()

	filename := dl.File.FullName()
	c.DataFromReader(http.StatusOK, dl.Size, contentTypeOf(filename), dl.Content, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": filename}),
	})
}

// RenameFile takes {id, name, ext}; an empty ext keeps the current one.
func (h *FileHandler) RenameFile(c *gin.Context) {
	var req service.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(ferrors.Validation(ferrors.ErrRenameValidation, "Failed rename validation", common.Violations(err)))
		return
	}
	msg, err := h.files.RenameFile(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	common.RespMessage(c, http.StatusAccepted, msg)
}

func (h *FileHandler) DeleteFile(c *gin.Context) {
	msg, err := h.files.DeleteFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	common.RespMessage(c, http.StatusAccepted, msg)
}

// ServeStorage streams /storage/*filepath from the blob store, for drivers
// whose objects cannot be served as static files.
func (h *FileHandler) ServeStorage(c *gin.Context) {
	key := common.StorageDir + c.Param("filepath")
	content, size, err := h.files.OpenStored(c.Request.Context(), key)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer content.Close()
	c.DataFromReader(http.StatusOK, size, contentTypeOf(key), content, nil)
}

func contentTypeOf(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
