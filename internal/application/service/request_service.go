package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/timeline"
	"github.com/isf/servicedesk/internal/domain/workflow"
)

// DraftValidator checks struct tags on a submitted form
type DraftValidator interface {
	Struct(s interface{}) error
}

// RequestConfig holds the engine-facing settings for submissions
type RequestConfig struct {
	ProcessDefinitionID string
	ManagerID           string
	RequestType         string
}

// RequestQuery selects one page of a request listing
type RequestQuery struct {
	Search string
	Status string
	Page   int
}

// RequestRow is a request with its presentation attached
type RequestRow struct {
	*entity.Request
	Badge    workflow.Badge   `json:"badge"`
	Timeline timeline.Tracker `json:"timeline"`
}

// RequestPage is one page of request rows
type RequestPage struct {
	Rows []RequestRow `json:"rows"`
	PageInfo
}

// RequestService manages submission and local tracking of service requests
type RequestService interface {
	Submit(ctx context.Context, user *entity.User, draft entity.PhoneRequestDraft) (*entity.Request, error)
	Get(ctx context.Context, user *entity.User, id string) (*RequestRow, error)
	List(ctx context.Context, user *entity.User, query RequestQuery) (*RequestPage, error)
	Counts(ctx context.Context, user *entity.User) (*Counts, error)
	RefreshOpen(ctx context.Context, limit int) (int, error)
}

type requestServiceImpl struct {
	repo      port.RequestRepository
	gateway   port.WorkflowGateway
	txManager port.TransactionManager
	validate  DraftValidator
	cfg       RequestConfig
	inflight  *inFlight
	now       func() time.Time
	logger    Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	repo port.RequestRepository,
	gateway port.WorkflowGateway,
	txManager port.TransactionManager,
	validate DraftValidator,
	cfg RequestConfig,
	logger Logger,
) RequestService {
	if cfg.RequestType == "" {
		cfg.RequestType = entity.RequestTypeNetwork
	}
	return &requestServiceImpl{
		repo:      repo,
		gateway:   gateway,
		txManager: txManager,
		validate:  validate,
		cfg:       cfg,
		inflight:  newInFlight(),
		now:       time.Now,
		logger:    logger,
	}
}

// Submit starts a desktop phone process on the engine and records the request locally.
// Nothing is stored when the engine refuses the start.
func (s *requestServiceImpl) Submit(ctx context.Context, user *entity.User, draft entity.PhoneRequestDraft) (*entity.Request, error) {
	if user == nil {
		return nil, access.ErrAuthRequired
	}
	if user.Role != entity.RoleOfficer && user.Role != entity.RoleSupervisor {
		return nil, fmt.Errorf("%w: %s cannot submit requests", access.ErrRoleForbidden, user.Role)
	}

	draft.PhoneModel = strings.TrimSpace(draft.PhoneModel)
	draft.Workstation = strings.TrimSpace(draft.Workstation)
	draft.Justification = strings.TrimSpace(draft.Justification)
	if err := s.validate.Struct(draft); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}

	release, ok := s.inflight.acquire(strings.ToLower(user.Username))
	if !ok {
		return nil, ErrSubmissionInFlight
	}
	defer release()

	vars := map[string]interface{}{
		"requestedBy":   user.Username,
		"managerId":     s.cfg.ManagerID,
		"requestType":   s.cfg.RequestType,
		"request":       draft.PhoneModel,
		"description":   draft.Justification,
		"approval":      nil,
		"adminDecision": nil,
		"adminComments": "",
		"userConfirmed": false,
	}

	instance, err := s.gateway.StartProcess(ctx, s.cfg.ProcessDefinitionID, vars)
	if err != nil {
		s.logger.Error("Failed to start request process", "error", err, "requested_by", user.Username)
		return nil, err
	}

	now := s.now()
	req := &entity.Request{
		ID:                       instance.ProcessInstanceKey,
		RequestorName:            user.Username,
		Status:                   workflow.StatusSubmitted,
		BadgeNumber:              user.Badge,
		SubmittedDate:            now,
		ServiceType:              entity.ServiceTypeDesktopPhone,
		RequestType:              s.cfg.RequestType,
		Justification:            draft.Justification,
		Description:              draft.Justification,
		PhoneModel:               draft.PhoneModel,
		Workstation:              draft.Workstation,
		Unit:                     user.Unit,
		Location:                 user.Location,
		Priority:                 "Standard",
		ProcessDefinitionID:      instance.ProcessDefinitionID,
		ProcessDefinitionVersion: instance.ProcessDefinitionVersion,
		TenantID:                 instance.TenantID,
		UpdatedAt:                now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, req.ID)
		if err != nil {
			return fmt.Errorf("lookup request: %w", err)
		}
		if existing != nil {
			// An engine record for this instance is already cached and wins where populated
			req.MergeEngine(existing)
			return s.repo.Update(txCtx, req)
		}
		return s.repo.Create(txCtx, req)
	})
	if err != nil {
		s.logger.Error("Failed to store submitted request", "error", err, "process_instance_key", instance.ProcessInstanceKey)
		return nil, fmt.Errorf("store request: %w", err)
	}

	s.logger.Info("Request submitted", "id", req.ID, "requested_by", user.Username, "phone_model", draft.PhoneModel)
	return req, nil
}

// Get returns one request if the caller may see it
func (s *requestServiceImpl) Get(ctx context.Context, user *entity.User, id string) (*RequestRow, error) {
	if user == nil {
		return nil, access.ErrAuthRequired
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "id", id)
		return nil, err
	}
	if req == nil || !canView(user, req) {
		return nil, ErrRequestNotFound
	}
	row := toRow(req)
	return &row, nil
}

// List returns the caller's requests. Admins see every request.
func (s *requestServiceImpl) List(ctx context.Context, user *entity.User, query RequestQuery) (*RequestPage, error) {
	if user == nil {
		return nil, access.ErrAuthRequired
	}

	filter := s.visibleFilter(user)
	filter.Search = strings.TrimSpace(query.Search)
	if statuses := statusesFor(query.Status); statuses != nil {
		filter.Statuses = statuses
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count requests", "error", err, "username", user.Username)
		return nil, err
	}

	page := clampPage(query.Page, StatusPageSize, total)
	filter.Limit = StatusPageSize
	filter.Offset = (page - 1) * StatusPageSize
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err, "username", user.Username)
		return nil, err
	}

	rows := make([]RequestRow, 0, len(requests))
	for _, r := range requests {
		rows = append(rows, toRow(r))
	}
	return &RequestPage{Rows: rows, PageInfo: newPageInfo(page, StatusPageSize, total)}, nil
}

// Counts summarises the caller's visible requests for the dashboard cards
func (s *requestServiceImpl) Counts(ctx context.Context, user *entity.User) (*Counts, error) {
	if user == nil {
		return nil, access.ErrAuthRequired
	}
	base := s.visibleFilter(user)

	count := func(statuses ...workflow.Status) (int, error) {
		f := base
		f.Statuses = statuses
		return s.repo.Count(ctx, f)
	}

	var c Counts
	var err error
	if c.Pending, err = count(workflow.StatusSubmitted, workflow.StatusPending, workflow.StatusInProgress); err != nil {
		return nil, err
	}
	if c.Approved, err = count(workflow.StatusApproved, workflow.StatusCompleted); err != nil {
		return nil, err
	}
	if c.Rejected, err = count(workflow.StatusRejected); err != nil {
		return nil, err
	}
	if c.Total, err = count(); err != nil {
		return nil, err
	}
	return &c, nil
}

// RefreshOpen re-derives the status of cached non-terminal requests from their
// process variables. It returns the number of requests whose status changed.
func (s *requestServiceImpl) RefreshOpen(ctx context.Context, limit int) (int, error) {
	open, err := s.repo.ListOpen(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list open requests", "error", err)
		return 0, err
	}

	changed := 0
	for _, listed := range open {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}

		vars, err := s.gateway.FetchProcessVariables(ctx, listed.ID)
		if err != nil {
			s.logger.Error("Failed to fetch process variables", "error", err, "id", listed.ID)
			continue
		}

		updated, err := s.applyRefresh(ctx, listed.ID, vars)
		if err != nil {
			s.logger.Error("Failed to update request status", "error", err, "id", listed.ID)
			continue
		}
		if updated != nil {
			changed++
			s.logger.Info("Request status refreshed", "id", listed.ID, "from", listed.Status, "to", updated.Status)
		}
	}
	return changed, nil
}

// applyRefresh merges fetched variables into the current row inside a
// transaction. A row decided while the variables were in flight is left as is.
// It returns the row when its status changed.
func (s *requestServiceImpl) applyRefresh(ctx context.Context, id string, vars map[string]string) (*entity.Request, error) {
	var updated *entity.Request
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if current == nil || current.Status.IsTerminal() {
			return nil
		}

		before := current.Status
		engine := requestFromVariables(id, vars)
		engine.Status = workflow.DeriveStatus("", vars)
		current.MergeEngine(engine)

		// written even when unchanged so ListOpen rotates through the backlog
		current.UpdatedAt = s.now()
		if err := s.repo.Update(txCtx, current); err != nil {
			return err
		}
		if current.Status != before {
			updated = current
		}
		return nil
	})
	return updated, err
}

func (s *requestServiceImpl) visibleFilter(user *entity.User) port.RequestFilter {
	if user.Role == entity.RoleAdmin {
		return port.RequestFilter{}
	}
	return port.RequestFilter{Requestor: user.Username}
}

// canView lets requesters see their own requests and deciders see all of them
func canView(user *entity.User, req *entity.Request) bool {
	if user.Role.CanDecide() {
		return true
	}
	return req.VisibleTo(user.Username)
}

func toRow(req *entity.Request) RequestRow {
	return RequestRow{
		Request:  req,
		Badge:    workflow.BadgeFor(req.Status),
		Timeline: timeline.RenderStatus(req.Status),
	}
}

// statusesFor maps a listing filter onto stored statuses; nil means all
func statusesFor(filter string) []workflow.Status {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "pending":
		return []workflow.Status{workflow.StatusSubmitted, workflow.StatusPending, workflow.StatusInProgress}
	case "approved":
		return []workflow.Status{workflow.StatusApproved}
	case "completed":
		return []workflow.Status{workflow.StatusCompleted}
	case "rejected":
		return []workflow.Status{workflow.StatusRejected}
	}
	return nil
}

// requestFromVariables builds the engine view of a request from its process variables
func requestFromVariables(processInstanceKey string, vars map[string]string) *entity.Request {
	priority := "Standard"
	if strings.EqualFold(vars[workflow.VarAdminDecision], "technical") {
		priority = "High"
	}
	return &entity.Request{
		ID:              processInstanceKey,
		RequestorName:   vars["requestedBy"],
		RequestType:     vars["requestType"],
		PhoneModel:      vars["request"],
		Description:     vars["description"],
		Priority:        priority,
		ManagerComments: vars[workflow.VarManagerComments],
		Variables:       vars,
	}
}
