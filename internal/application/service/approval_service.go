package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
)

// DecisionInput names the task being decided and the approver's text.
// ProcessInstanceKey is optional; when given it must match the task's instance.
type DecisionInput struct {
	UserTaskKey        string
	ProcessInstanceKey string
	Comments           string
}

// ApprovalService records approver decisions on the engine and in the local cache
type ApprovalService interface {
	Approve(ctx context.Context, actor *entity.User, in DecisionInput) (*entity.Request, error)
	Reject(ctx context.Context, actor *entity.User, in DecisionInput) (*entity.Request, error)
	InFlight(processInstanceKey string) bool
}

type approvalServiceImpl struct {
	repo      port.RequestRepository
	gateway   port.WorkflowGateway
	txManager port.TransactionManager
	inflight  *inFlight
	now       func() time.Time
	logger    Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	repo port.RequestRepository,
	gateway port.WorkflowGateway,
	txManager port.TransactionManager,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		repo:      repo,
		gateway:   gateway,
		txManager: txManager,
		inflight:  newInFlight(),
		now:       time.Now,
		logger:    logger,
	}
}

// Approve completes the task with approval=true and moves the request to APPROVED
func (s *approvalServiceImpl) Approve(ctx context.Context, actor *entity.User, in DecisionInput) (*entity.Request, error) {
	return s.decide(ctx, actor, in, true)
}

// Reject completes the task with approval=false. A non-blank reason is required
// and is checked before the engine is contacted.
func (s *approvalServiceImpl) Reject(ctx context.Context, actor *entity.User, in DecisionInput) (*entity.Request, error) {
	if strings.TrimSpace(in.Comments) == "" {
		return nil, ErrRejectionReasonRequired
	}
	return s.decide(ctx, actor, in, false)
}

// InFlight reports whether a decision for the process instance is running
func (s *approvalServiceImpl) InFlight(processInstanceKey string) bool {
	return s.inflight.held(processInstanceKey)
}

func (s *approvalServiceImpl) decide(ctx context.Context, actor *entity.User, in DecisionInput, approve bool) (*entity.Request, error) {
	if actor == nil {
		return nil, access.ErrAuthRequired
	}
	if !actor.Role.CanDecide() {
		return nil, fmt.Errorf("%w: %s cannot decide requests", access.ErrRoleForbidden, actor.Role)
	}
	in.UserTaskKey = strings.TrimSpace(in.UserTaskKey)
	in.ProcessInstanceKey = strings.TrimSpace(in.ProcessInstanceKey)
	in.Comments = strings.TrimSpace(in.Comments)
	if in.UserTaskKey == "" {
		return nil, ErrTaskKeyRequired
	}

	task, err := s.resolveTask(ctx, actor, in.UserTaskKey)
	if err != nil {
		return nil, err
	}
	if in.ProcessInstanceKey != "" && in.ProcessInstanceKey != task.ProcessInstanceKey {
		s.logger.Warn("Decision names another process instance",
			"user_task_key", in.UserTaskKey,
			"given", in.ProcessInstanceKey,
			"actual", task.ProcessInstanceKey)
		return nil, fmt.Errorf("%w: task %s belongs to %s", ErrTaskMismatch, in.UserTaskKey, task.ProcessInstanceKey)
	}
	in.ProcessInstanceKey = task.ProcessInstanceKey

	release, ok := s.inflight.acquire(in.ProcessInstanceKey)
	if !ok {
		s.logger.Warn("Decision rejected while another is running", "process_instance_key", in.ProcessInstanceKey, "user_task_key", in.UserTaskKey)
		return nil, ErrTransitionInFlight
	}
	defer release()

	req, err := s.loadOrSeed(ctx, task)
	if err != nil {
		return nil, err
	}

	trigger := workflow.TriggerReject
	if approve {
		trigger = workflow.TriggerApprove
	}

	machine, err := workflow.NewApprovalMachine(req.Status)
	if err != nil {
		return nil, err
	}
	if machine.State() == workflow.StatusSubmitted {
		if err := machine.Fire(ctx, workflow.TriggerAssign); err != nil {
			return nil, err
		}
	}
	if !machine.CanFire(trigger) {
		return nil, fmt.Errorf("%w: cannot %s a request in %s", workflow.ErrInvalidTransition, strings.ToLower(trigger.String()), req.Status)
	}

	decision := entity.Decision{Approval: approve, Comments: in.Comments}
	if err := s.gateway.CompleteUserTask(ctx, in.UserTaskKey, decision); err != nil {
		s.logger.Error("Failed to complete user task",
			"error", err,
			"user_task_key", in.UserTaskKey,
			"process_instance_key", in.ProcessInstanceKey,
			"approver", actor.Username)
		return nil, err
	}

	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, err
	}

	previous := req.Status
	req.Status = machine.State()
	if in.Comments != "" {
		req.ManagerComments = in.Comments
	}
	if req.Variables == nil {
		req.Variables = make(map[string]string)
	}
	req.Variables[workflow.VarApproval] = strconv.FormatBool(approve)
	if in.Comments != "" {
		req.Variables[workflow.VarManagerComments] = in.Comments
	}
	req.UpdatedAt = s.now()

	if err := s.save(ctx, req); err != nil {
		// The engine already holds the decision; the task syncer reconciles the cache later
		s.logger.Error("Failed to store decision", "error", err, "id", req.ID, "status", req.Status)
		return nil, fmt.Errorf("store decision: %w", err)
	}

	s.logger.Info("Request decided",
		"id", req.ID,
		"user_task_key", in.UserTaskKey,
		"from", previous,
		"to", req.Status,
		"approver", actor.Username)
	return req, nil
}

// resolveTask finds the open task among those assigned to the actor. The
// process instance it names is the only one the decision may touch.
func (s *approvalServiceImpl) resolveTask(ctx context.Context, actor *entity.User, userTaskKey string) (*entity.Task, error) {
	tasks, err := s.gateway.SearchUserTasks(ctx, port.TaskFilter{
		State:    workflow.TaskStateCreated,
		Assignee: actor.Username,
	})
	if err != nil {
		s.logger.Error("Failed to search user tasks", "error", err, "assignee", actor.Username)
		return nil, err
	}
	for i := range tasks {
		if tasks[i].UserTaskKey == userTaskKey && tasks[i].ProcessInstanceKey != "" {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, userTaskKey)
}

// loadOrSeed returns the cached request, or a placeholder for a process the
// portal has only seen through the engine inbox. The placeholder takes its
// status from the open task; decision variables are left to the task syncer.
func (s *approvalServiceImpl) loadOrSeed(ctx context.Context, task *entity.Task) (*entity.Request, error) {
	key := task.ProcessInstanceKey
	req, err := s.repo.GetByID(ctx, key)
	if err != nil {
		s.logger.Error("Failed to load request", "error", err, "id", key)
		return nil, err
	}
	if req != nil {
		if !req.Status.IsValid() {
			req.Status = workflow.StatusPending
		}
		return req, nil
	}

	status := workflow.ResolveTaskState(task.State)
	if !status.IsValid() || status.IsTerminal() {
		status = workflow.StatusPending
	}
	seed := &entity.Request{
		ID:            key,
		Status:        status,
		SubmittedDate: s.now(),
	}
	if vars, err := s.gateway.FetchProcessVariables(ctx, key); err == nil {
		engine := requestFromVariables(key, vars)
		engine.Status = status
		seed.MergeEngine(engine)
	} else {
		s.logger.Warn("Could not enrich decision from process variables", "id", key, "error", err)
	}
	return seed, nil
}

func (s *approvalServiceImpl) save(ctx context.Context, req *entity.Request) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return s.repo.Create(txCtx, req)
		}
		return s.repo.Update(txCtx, req)
	})
}
