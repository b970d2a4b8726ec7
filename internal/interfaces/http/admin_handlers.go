package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isf/servicedesk/internal/application/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminRequests handles GET /api/admin/requests
func (h *Handlers) AdminRequests(c *gin.Context) {
	q, valid := h.bindListQuery(c)
	if !valid {
		return
	}
	page, err := h.services.Request.List(c.Request.Context(), currentUser(c), service.RequestQuery{
		Search: q.Search,
		Status: q.Status,
		Page:   q.Page,
	})
	if err != nil {
		h.respondError(c, "List all requests", err)
		return
	}
	ok(c, page)
}

// ExportRequests handles GET /api/admin/requests/export
func (h *Handlers) ExportRequests(c *gin.Context) {
	var buf bytes.Buffer
	n, err := h.services.Export.ExportAll(c.Request.Context(), currentUser(c), &buf)
	if err != nil {
		h.respondError(c, "Export requests", err)
		return
	}

	filename := fmt.Sprintf("service-requests-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Export-Rows", fmt.Sprint(n))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
