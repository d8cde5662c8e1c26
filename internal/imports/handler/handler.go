package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"outreach_backend/internal/imports/service"
	"outreach_backend/internal/imports/transport"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	maxUploadBytes      = 10 << 20
	uploadField         = "file"
)

// Handler handles CSV import and export requests.
type Handler struct {
	importer *service.Importer
	exporter *service.Exporter
	val      *validator.Validator
}

// New creates a new import/export handler.
func New(importer *service.Importer, exporter *service.Exporter, val *validator.Validator) *Handler {
	return &Handler{importer: importer, exporter: exporter, val: val}
}

// RegisterRoutes registers import and export routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/imports/contacts", h.Import)
	rg.GET("/exports/contacts", h.Export)
}

// Import accepts either a multipart upload in the "file" field or a raw
// text/csv request body.
func (h *Handler) Import(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var body io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile(uploadField)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "missing file upload", nil)
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		defer file.Close()
		body = file
	} else {
		body = c.Request.Body
	}

	result, err := h.importer.Import(c.Request.Context(), tenantID, body)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Export returns a presigned link when object storage is configured and
// streams the CSV otherwise.
func (h *Handler) Export(c *gin.Context) {
	var req transport.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	if h.exporter.Uploads() {
		result, err := h.exporter.Upload(c.Request.Context(), tenantID, req)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, result)
		return
	}

	var buf bytes.Buffer
	if _, err := h.exporter.Write(c.Request.Context(), tenantID, req, &buf); httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.FileName(time.Now())))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
