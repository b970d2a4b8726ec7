package port

import (
	"context"
	"errors"
	"io"

	"github.com/isf/servicedesk/internal/domain/entity"
)

var (
	// ErrProcessStartFailed is returned when the engine rejects a process start
	ErrProcessStartFailed = errors.New("process start failed")

	// ErrTaskFetchFailed is returned when tasks or variables cannot be read
	ErrTaskFetchFailed = errors.New("task fetch failed")

	// ErrTaskCompletionFailed is returned when the engine rejects a task completion
	ErrTaskCompletionFailed = errors.New("task completion failed")

	// ErrInvalidVariables is returned before any call when required start variables are missing
	ErrInvalidVariables = errors.New("invalid process variables")
)

// TaskFilter selects user tasks. Empty fields are not sent.
type TaskFilter struct {
	State    string
	Assignee string
}

// WorkflowGateway is the portal's only channel to the workflow engine
type WorkflowGateway interface {
	StartProcess(ctx context.Context, definitionID string, variables map[string]interface{}) (*entity.ProcessInstance, error)
	SearchUserTasks(ctx context.Context, filter TaskFilter) ([]entity.Task, error)
	FetchProcessVariables(ctx context.Context, processInstanceKey string) (map[string]string, error)
	CompleteUserTask(ctx context.Context, userTaskKey string, decision entity.Decision) error
}

// RequestExporter renders requests to a spreadsheet
type RequestExporter interface {
	Export(ctx context.Context, w io.Writer, requests []*entity.Request) error
}

// CredentialDirectory resolves demo account logins
type CredentialDirectory interface {
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
}

// TokenIssuer signs and verifies session handles
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
	Parse(token string) (string, error)
}
