package entity

import (
	"strings"
	"time"

	"github.com/isf/servicedesk/internal/domain/workflow"
)

// Service types offered through the catalog forms
const (
	ServiceTypeDesktopPhone = "Desktop Phone"
	RequestTypeNetwork      = "network"
)

// Request is a service request as tracked by the portal.
// ID is the engine processInstanceKey. Requests are never deleted.
type Request struct {
	ID                       string            `json:"id"`
	RequestorName            string            `json:"requestorName"`
	Status                   workflow.Status   `json:"status"`
	BadgeNumber              string            `json:"badgeNumber,omitempty"`
	SubmittedDate            time.Time         `json:"submittedDate"`
	ServiceType              string            `json:"serviceType,omitempty"`
	RequestType              string            `json:"requestType,omitempty"`
	Justification            string            `json:"justification,omitempty"`
	Description              string            `json:"description,omitempty"`
	PhoneModel               string            `json:"phoneModel,omitempty"`
	Workstation              string            `json:"workstation,omitempty"`
	Unit                     string            `json:"unit,omitempty"`
	Location                 string            `json:"location,omitempty"`
	Priority                 string            `json:"priority,omitempty"`
	ManagerComments          string            `json:"managerComments,omitempty"`
	ProcessDefinitionID      string            `json:"processDefinitionId,omitempty"`
	ProcessDefinitionVersion int               `json:"processDefinitionVersion,omitempty"`
	TenantID                 string            `json:"tenantId,omitempty"`
	Variables                map[string]string `json:"variables,omitempty"`
	UpdatedAt                time.Time         `json:"updatedAt"`
}

// VisibleTo reports whether the named requester owns this request
func (r *Request) VisibleTo(name string) bool {
	return strings.EqualFold(strings.TrimSpace(r.RequestorName), strings.TrimSpace(name))
}

// MergeEngine overlays an engine view of the same process instance onto the
// local draft. Populated engine fields win; empty ones keep the draft value.
// Status is merged monotonically.
func (r *Request) MergeEngine(engine *Request) {
	if engine == nil {
		return
	}
	pick := func(local *string, remote string) {
		if strings.TrimSpace(remote) != "" {
			*local = remote
		}
	}
	pick(&r.RequestorName, engine.RequestorName)
	pick(&r.BadgeNumber, engine.BadgeNumber)
	pick(&r.ServiceType, engine.ServiceType)
	pick(&r.RequestType, engine.RequestType)
	pick(&r.Justification, engine.Justification)
	pick(&r.Description, engine.Description)
	pick(&r.PhoneModel, engine.PhoneModel)
	pick(&r.Workstation, engine.Workstation)
	pick(&r.Unit, engine.Unit)
	pick(&r.Location, engine.Location)
	pick(&r.Priority, engine.Priority)
	pick(&r.ManagerComments, engine.ManagerComments)
	pick(&r.ProcessDefinitionID, engine.ProcessDefinitionID)
	pick(&r.TenantID, engine.TenantID)

	if engine.ProcessDefinitionVersion != 0 {
		r.ProcessDefinitionVersion = engine.ProcessDefinitionVersion
	}
	if !engine.SubmittedDate.IsZero() {
		r.SubmittedDate = engine.SubmittedDate
	}
	if len(engine.Variables) > 0 {
		if r.Variables == nil {
			r.Variables = make(map[string]string, len(engine.Variables))
		}
		for k, v := range engine.Variables {
			r.Variables[k] = v
		}
	}
	r.Status = workflow.Reconcile(r.Status, engine.Status)
}

// PhoneRequestDraft is the desktop phone form as submitted by a requester
type PhoneRequestDraft struct {
	PhoneModel    string `json:"phoneModel" validate:"required,max=120"`
	Workstation   string `json:"workstation" validate:"required,max=200"`
	Justification string `json:"justification" validate:"required,max=2000"`
}
