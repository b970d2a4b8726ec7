package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isf/servicedesk/internal/application/service"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/pkg/utils"
)

// ListQuery holds the query parameters shared by paged listings
type ListQuery struct {
	Search string `form:"search"`
	Status string `form:"status"`
	Page   int    `form:"page"`
}

func (h *Handlers) bindListQuery(c *gin.Context) (ListQuery, bool) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		fail(c, http.StatusBadRequest, "invalid query parameters")
		return q, false
	}
	q.Search = utils.SanitizeString(q.Search)
	return q, true
}

// SubmitPhoneRequest handles POST /api/requests/phone
func (h *Handlers) SubmitPhoneRequest(c *gin.Context) {
	var draft entity.PhoneRequestDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	draft.PhoneModel = utils.SanitizeString(draft.PhoneModel)
	draft.Workstation = utils.SanitizeString(draft.Workstation)
	draft.Justification = utils.SanitizeString(draft.Justification)

	req, err := h.services.Request.Submit(c.Request.Context(), currentUser(c), draft)
	if err != nil {
		h.respondError(c, "Submit request", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
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
		h.respondError(c, "List requests", err)
		return
	}
	ok(c, page)
}

// RequestCounts handles GET /api/requests/counts
func (h *Handlers) RequestCounts(c *gin.Context) {
	counts, err := h.services.Request.Counts(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, "Count requests", err)
		return
	}
	ok(c, counts)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	row, err := h.services.Request.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.respondError(c, "Get request", err)
		return
	}
	ok(c, row)
}
