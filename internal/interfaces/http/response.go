package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/application/service"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/workflow"
	"github.com/isf/servicedesk/pkg/utils"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details []string    `json:"details,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidDraft),
		errors.Is(err, service.ErrRejectionReasonRequired),
		errors.Is(err, service.ErrTaskKeyRequired),
		errors.Is(err, service.ErrTaskMismatch),
		errors.Is(err, port.ErrInvalidVariables):
		return http.StatusBadRequest
	case errors.Is(err, access.ErrAuthRequired),
		errors.Is(err, port.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrRoleForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTransitionInFlight),
		errors.Is(err, service.ErrSubmissionInFlight),
		errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, port.ErrProcessStartFailed),
		errors.Is(err, port.ErrTaskFetchFailed),
		errors.Is(err, port.ErrTaskCompletionFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// publicMessage hides internal error text behind a generic message for 5xx
func publicMessage(status int, err error) string {
	switch {
	case status == http.StatusInternalServerError:
		return "internal server error"
	case errors.Is(err, port.ErrProcessStartFailed):
		return port.ErrProcessStartFailed.Error()
	case errors.Is(err, port.ErrTaskFetchFailed):
		return port.ErrTaskFetchFailed.Error()
	case errors.Is(err, port.ErrTaskCompletionFailed):
		return port.ErrTaskCompletionFailed.Error()
	}
	return err.Error()
}

// respondError logs err and writes the mapped status
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err, "status", status)
	} else {
		h.logger.Warn(op+" refused", "error", err, "status", status)
	}

	resp := Response{Success: false, Error: publicMessage(status, err)}
	if errors.Is(err, service.ErrInvalidDraft) {
		resp.Error = service.ErrInvalidDraft.Error()
		resp.Details = utils.ValidationMessages(err)
	}
	c.AbortWithStatusJSON(status, resp)
}
