package httpHandler

import (
	"errors"
	"fmt"
	"net/http"

	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for part headers and boundaries.
const multipartOverhead = 1 << 16

type UploadHandler struct {
	base
	useCase *usecases.UploadUseCase
}

func NewUploadHandler(useCase *usecases.UploadUseCase, log logger.Logger) *UploadHandler {
	return &UploadHandler{base: base{log: log}, useCase: useCase}
}

func limitBody(c *gin.Context, max int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+multipartOverhead)
}

func formFileError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return errFileRequired
}

// Create handles POST /api/v1/uploads
func (h *UploadHandler) Create(c *gin.Context) {
	limitBody(c, h.useCase.MaxBytes())
	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, formFileError(err))
		return
	}
	upload, err := h.useCase.Upload(c.Request.Context(), principal(c).UserID, fh)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, upload)
}

// List handles GET /api/v1/uploads
func (h *UploadHandler) List(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	uploads, total, err := h.useCase.List(c.Request.Context(), principal(c), boolQuery(c, "all"), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, uploads, total)
}

// Get handles GET /api/v1/uploads/:id
func (h *UploadHandler) Get(c *gin.Context) {
	upload, err := h.useCase.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, upload)
}

// Download handles GET /api/v1/uploads/:id/download
func (h *UploadHandler) Download(c *gin.Context) {
	upload, f, err := h.useCase.Open(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	c.DataFromReader(http.StatusOK, upload.Size, upload.ContentType, f, map[string]string{
		"Content-Disposition":    fmt.Sprintf("attachment; filename=%q", upload.OriginalName),
		"X-Content-Type-Options": "nosniff",
	})
}

// Delete handles DELETE /api/v1/uploads/:id
func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.useCase.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
