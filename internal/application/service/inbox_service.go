package service

import (
	"context"
	"strings"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
)

// InboxQuery selects one page of an approver inbox
type InboxQuery struct {
	Status string
	Search string
	Page   int
}

// InboxRow is one task awaiting the approver, joined with its request data
type InboxRow struct {
	ID          string            `json:"id"`
	Requestor   string            `json:"requestor"`
	Unit        string            `json:"unit"`
	Service     string            `json:"service"`
	Priority    string            `json:"priority"`
	Submitted   string            `json:"submitted"`
	Status      workflow.Status   `json:"status"`
	Badge       workflow.Badge    `json:"badge"`
	UserTaskKey string            `json:"userTaskKey"`
	Details     map[string]string `json:"details"`
}

// InboxPage is one page of inbox rows plus the unfiltered counts
type InboxPage struct {
	Rows   []InboxRow `json:"rows"`
	Counts Counts     `json:"counts"`
	PageInfo
}

// InboxService builds approver inboxes from engine tasks
type InboxService interface {
	Inbox(ctx context.Context, approver *entity.User, query InboxQuery) (*InboxPage, error)
	Counts(ctx context.Context, approver *entity.User) (*Counts, error)
}

type inboxServiceImpl struct {
	repo    port.RequestRepository
	gateway port.WorkflowGateway
	logger  Logger
}

// NewInboxService creates a new InboxService
func NewInboxService(repo port.RequestRepository, gateway port.WorkflowGateway, logger Logger) InboxService {
	return &inboxServiceImpl{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
	}
}

// Inbox returns the approver's open tasks, filtered, searched and paged
func (s *inboxServiceImpl) Inbox(ctx context.Context, approver *entity.User, query InboxQuery) (*InboxPage, error) {
	rows, err := s.rows(ctx, approver)
	if err != nil {
		return nil, err
	}
	counts := countRows(rows)

	filtered := filterRows(rows, query.Status, query.Search)
	page := clampPage(query.Page, InboxPageSize, len(filtered))
	start, end := pageBounds(page, InboxPageSize, len(filtered))

	return &InboxPage{
		Rows:     filtered[start:end],
		Counts:   counts,
		PageInfo: newPageInfo(page, InboxPageSize, len(filtered)),
	}, nil
}

// Counts returns the approver's dashboard counts
func (s *inboxServiceImpl) Counts(ctx context.Context, approver *entity.User) (*Counts, error) {
	rows, err := s.rows(ctx, approver)
	if err != nil {
		return nil, err
	}
	c := countRows(rows)
	return &c, nil
}

func (s *inboxServiceImpl) rows(ctx context.Context, approver *entity.User) ([]InboxRow, error) {
	if approver == nil {
		return nil, access.ErrAuthRequired
	}
	if !approver.Role.CanDecide() {
		return nil, access.ErrRoleForbidden
	}

	tasks, err := s.gateway.SearchUserTasks(ctx, port.TaskFilter{
		State:    workflow.TaskStateCreated,
		Assignee: approver.Username,
	})
	if err != nil {
		s.logger.Error("Failed to search user tasks", "error", err, "assignee", approver.Username)
		return nil, err
	}

	rows := make([]InboxRow, 0, len(tasks))
	for _, task := range tasks {
		vars, err := s.gateway.FetchProcessVariables(ctx, task.ProcessInstanceKey)
		if err != nil {
			s.logger.Error("Failed to fetch process variables", "error", err, "process_instance_key", task.ProcessInstanceKey)
			return nil, err
		}

		local, err := s.repo.GetByID(ctx, task.ProcessInstanceKey)
		if err != nil {
			s.logger.Error("Failed to load cached request", "error", err, "id", task.ProcessInstanceKey)
			return nil, err
		}
		rows = append(rows, buildInboxRow(task, vars, local))
	}
	return rows, nil
}

// buildInboxRow joins a task with its variables. Engine values win; the local
// draft fills what the engine does not carry.
func buildInboxRow(task entity.Task, vars map[string]string, local *entity.Request) InboxRow {
	engine := requestFromVariables(task.ProcessInstanceKey, vars)
	engine.Status = workflow.DeriveStatus(task.State, vars)

	merged := &entity.Request{ID: task.ProcessInstanceKey}
	if local != nil {
		copied := *local
		merged = &copied
	}
	merged.MergeEngine(engine)

	unit := vars["requestType"]
	if unit == "" {
		unit = merged.Unit
	}
	service := merged.PhoneModel
	if service == "" {
		service = merged.ServiceType
	}
	submitted := task.CreationDate
	if submitted == "" && !merged.SubmittedDate.IsZero() {
		submitted = merged.SubmittedDate.Format("2006-01-02T15:04:05Z07:00")
	}

	details := make(map[string]string, len(vars))
	for k, v := range vars {
		details[k] = v
	}

	return InboxRow{
		ID:          task.ProcessInstanceKey,
		Requestor:   orDefault(merged.RequestorName, "Unknown"),
		Unit:        orDefault(unit, "N/A"),
		Service:     orDefault(service, "N/A"),
		Priority:    orDefault(engine.Priority, "Standard"),
		Submitted:   submitted,
		Status:      merged.Status,
		Badge:       workflow.BadgeFor(merged.Status),
		UserTaskKey: task.UserTaskKey,
		Details:     details,
	}
}

func countRows(rows []InboxRow) Counts {
	c := Counts{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case workflow.StatusApproved, workflow.StatusCompleted:
			c.Approved++
		case workflow.StatusRejected:
			c.Rejected++
		case workflow.StatusSubmitted, workflow.StatusPending, workflow.StatusInProgress:
			c.Pending++
		}
	}
	return c
}

func filterRows(rows []InboxRow, status, search string) []InboxRow {
	statuses := statusesFor(status)
	if strings.EqualFold(strings.TrimSpace(status), "approved") {
		statuses = append(statuses, workflow.StatusCompleted)
	}
	query := strings.ToLower(strings.TrimSpace(search))

	out := make([]InboxRow, 0, len(rows))
	for _, r := range rows {
		if statuses != nil && !containsStatus(statuses, r.Status) {
			continue
		}
		if query != "" && !strings.Contains(searchText(r), query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func searchText(r InboxRow) string {
	return strings.ToLower(strings.Join([]string{
		r.ID, r.Requestor, r.Unit, r.Service, r.Priority, r.Submitted, r.Badge.Label, string(r.Status),
	}, " "))
}

func containsStatus(list []workflow.Status, s workflow.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
