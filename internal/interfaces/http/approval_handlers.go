package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isf/servicedesk/internal/application/service"
)

// DecisionRequest is the body of an approve or reject call. The process
// instance is resolved from the task; a key sent here is only cross-checked.
type DecisionRequest struct {
	ProcessInstanceKey string `json:"processInstanceKey"`
	Comments           string `json:"comments"`
	Reason             string `json:"reason"`
}

// Inbox handles GET /api/approvals
func (h *Handlers) Inbox(c *gin.Context) {
	q, valid := h.bindListQuery(c)
	if !valid {
		return
	}
	page, err := h.services.Inbox.Inbox(c.Request.Context(), currentUser(c), service.InboxQuery{
		Status: q.Status,
		Search: q.Search,
		Page:   q.Page,
	})
	if err != nil {
		h.respondError(c, "Load inbox", err)
		return
	}
	ok(c, page)
}

// InboxCounts handles GET /api/approvals/counts
func (h *Handlers) InboxCounts(c *gin.Context) {
	counts, err := h.services.Inbox.Counts(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, "Count inbox", err)
		return
	}
	ok(c, counts)
}

// Approve handles POST /api/approvals/:taskKey/approve
func (h *Handlers) Approve(c *gin.Context) {
	body, valid := h.bindDecision(c)
	if !valid {
		return
	}
	req, err := h.services.Approval.Approve(c.Request.Context(), currentUser(c), service.DecisionInput{
		UserTaskKey:        c.Param("taskKey"),
		ProcessInstanceKey: body.ProcessInstanceKey,
		Comments:           body.Comments,
	})
	if err != nil {
		h.respondError(c, "Approve", err)
		return
	}
	ok(c, req)
}

// Reject handles POST /api/approvals/:taskKey/reject. The reason may be sent
// as either reason or comments.
func (h *Handlers) Reject(c *gin.Context) {
	body, valid := h.bindDecision(c)
	if !valid {
		return
	}
	reason := body.Reason
	if reason == "" {
		reason = body.Comments
	}
	req, err := h.services.Approval.Reject(c.Request.Context(), currentUser(c), service.DecisionInput{
		UserTaskKey:        c.Param("taskKey"),
		ProcessInstanceKey: body.ProcessInstanceKey,
		Comments:           reason,
	})
	if err != nil {
		h.respondError(c, "Reject", err)
		return
	}
	ok(c, req)
}

func (h *Handlers) bindDecision(c *gin.Context) (DecisionRequest, bool) {
	var body DecisionRequest
	if c.Request.ContentLength == 0 {
		return body, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return body, false
	}
	return body, true
}
