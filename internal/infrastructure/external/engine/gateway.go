package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/entity"
	"go.uber.org/zap"
)

const taskSearchLimit = 100

// requiredStartVariables must be present and non-empty on every process start
var requiredStartVariables = []string{"requestedBy", "requestType"}

// Gateway implements port.WorkflowGateway
type Gateway struct {
	client *Client
	retry  retryPolicy
	logger *zap.Logger
}

// NewGateway creates a gateway over client
func NewGateway(client *Client, cfg Config, logger *zap.Logger) *Gateway {
	return &Gateway{
		client: client,
		retry:  retryPolicy{maxRetries: cfg.MaxRetries, initial: cfg.RetryInterval, logger: logger},
		logger: logger,
	}
}

// key decodes engine keys sent either as JSON strings or as numbers
type key string

func (k *key) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*k = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = key(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("engine key: %w", err)
	}
	*k = key(n.String())
	return nil
}

type startProcessRequest struct {
	ProcessDefinitionID string                 `json:"processDefinitionId"`
	Variables           map[string]interface{} `json:"variables"`
}

type startProcessResponse struct {
	ProcessInstanceKey       key    `json:"processInstanceKey"`
	ProcessDefinitionID      string `json:"processDefinitionId"`
	ProcessDefinitionVersion int    `json:"processDefinitionVersion"`
	TenantID                 string `json:"tenantId"`
}

// StartProcess starts definitionID. It is never retried: a second start
// would create a second process instance.
func (g *Gateway) StartProcess(ctx context.Context, definitionID string, variables map[string]interface{}) (*entity.ProcessInstance, error) {
	if strings.TrimSpace(definitionID) == "" {
		return nil, fmt.Errorf("%w: process definition id is required", port.ErrInvalidVariables)
	}
	for _, name := range requiredStartVariables {
		if !present(variables[name]) {
			return nil, fmt.Errorf("%w: %s is required", port.ErrInvalidVariables, name)
		}
	}

	var resp startProcessResponse
	err := g.client.postJSON(ctx, "/v2/process-instances", startProcessRequest{
		ProcessDefinitionID: definitionID,
		Variables:           variables,
	}, &resp)
	if err != nil {
		g.logger.Error("Process start failed",
			zap.String("process_definition_id", definitionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", port.ErrProcessStartFailed, err)
	}
	if resp.ProcessInstanceKey == "" {
		return nil, fmt.Errorf("%w: response carried no processInstanceKey", port.ErrProcessStartFailed)
	}

	g.logger.Info("Process started",
		zap.String("process_instance_key", string(resp.ProcessInstanceKey)),
		zap.String("process_definition_id", resp.ProcessDefinitionID))

	return &entity.ProcessInstance{
		ProcessInstanceKey:       string(resp.ProcessInstanceKey),
		ProcessDefinitionID:      resp.ProcessDefinitionID,
		ProcessDefinitionVersion: resp.ProcessDefinitionVersion,
		TenantID:                 resp.TenantID,
	}, nil
}

type localVariableFilter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type taskSearchFilter struct {
	State          string                `json:"state,omitempty"`
	LocalVariables []localVariableFilter `json:"localVariables,omitempty"`
}

type sortField struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

type taskSearchRequest struct {
	Filter taskSearchFilter `json:"filter"`
	Sort   []sortField      `json:"sort"`
	Page   map[string]int   `json:"page"`
}

type taskItem struct {
	UserTaskKey        key    `json:"userTaskKey"`
	ProcessInstanceKey key    `json:"processInstanceKey"`
	Assignee           string `json:"assignee"`
	State              string `json:"state"`
	CreationDate       string `json:"creationDate"`
	Name               string `json:"name"`
	ElementID          string `json:"elementId"`
}

type taskSearchResponse struct {
	Items []taskItem `json:"items"`
}

// SearchUserTasks lists user tasks. The assignee is matched server side through
// the task's local variables and again on the returned tasks.
func (g *Gateway) SearchUserTasks(ctx context.Context, filter port.TaskFilter) ([]entity.Task, error) {
	body := taskSearchRequest{
		Filter: taskSearchFilter{State: filter.State},
		Sort:   []sortField{{Field: "creationDate", Order: "desc"}},
		Page:   map[string]int{"limit": taskSearchLimit},
	}
	if filter.Assignee != "" {
		body.Filter.LocalVariables = []localVariableFilter{{Name: "assignee", Value: strconv.Quote(filter.Assignee)}}
	}

	var resp taskSearchResponse
	err := g.retry.do(ctx, "search_user_tasks", func() error {
		resp = taskSearchResponse{}
		return g.client.postJSON(ctx, "/v2/user-tasks/search", body, &resp)
	})
	if err != nil {
		g.logger.Error("User task search failed",
			zap.String("assignee", filter.Assignee),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", port.ErrTaskFetchFailed, err)
	}

	tasks := make([]entity.Task, 0, len(resp.Items))
	for _, item := range resp.Items {
		if filter.Assignee != "" && item.Assignee != "" && !strings.EqualFold(item.Assignee, filter.Assignee) {
			g.logger.Warn("Dropping task assigned elsewhere",
				zap.String("user_task_key", string(item.UserTaskKey)),
				zap.String("assignee", item.Assignee))
			continue
		}
		tasks = append(tasks, entity.Task{
			UserTaskKey:        string(item.UserTaskKey),
			ProcessInstanceKey: string(item.ProcessInstanceKey),
			Assignee:           item.Assignee,
			State:              item.State,
			CreationDate:       item.CreationDate,
			Name:               item.Name,
			ElementID:          item.ElementID,
		})
	}
	return tasks, nil
}

type variableSearchRequest struct {
	Filter struct {
		ProcessInstanceKey string `json:"processInstanceKey"`
	} `json:"filter"`
	Page map[string]int `json:"page,omitempty"`
}

type variableItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type variableSearchResponse struct {
	Items []variableItem `json:"items"`
}

// FetchProcessVariables returns the unquoted variables of one process instance
func (g *Gateway) FetchProcessVariables(ctx context.Context, processInstanceKey string) (map[string]string, error) {
	var body variableSearchRequest
	body.Filter.ProcessInstanceKey = processInstanceKey
	body.Page = map[string]int{"limit": taskSearchLimit}

	var resp variableSearchResponse
	err := g.retry.do(ctx, "fetch_process_variables", func() error {
		resp = variableSearchResponse{}
		return g.client.postJSON(ctx, "/v2/variables/search", body, &resp)
	})
	if err != nil {
		g.logger.Error("Variable fetch failed",
			zap.String("process_instance_key", processInstanceKey),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", port.ErrTaskFetchFailed, err)
	}

	vars := make(map[string]string, len(resp.Items))
	for _, item := range resp.Items {
		vars[item.Name] = Unquote(item.Value)
	}
	return vars, nil
}

type completionRequest struct {
	Variables map[string]interface{} `json:"variables"`
}

// CompleteUserTask records an approval decision. Never retried.
func (g *Gateway) CompleteUserTask(ctx context.Context, userTaskKey string, decision entity.Decision) error {
	if strings.TrimSpace(userTaskKey) == "" {
		return fmt.Errorf("%w: user task key is required", port.ErrTaskCompletionFailed)
	}

	path := "/v2/user-tasks/" + url.PathEscape(userTaskKey) + "/completion"
	err := g.client.postJSON(ctx, path, completionRequest{
		Variables: map[string]interface{}{
			"approval":        decision.Approval,
			"managerComments": decision.Comments,
		},
	}, nil)
	if err != nil {
		g.logger.Error("Task completion failed",
			zap.String("user_task_key", userTaskKey),
			zap.Bool("approval", decision.Approval),
			zap.Error(err))
		return fmt.Errorf("%w: %v", port.ErrTaskCompletionFailed, err)
	}

	g.logger.Info("Task completed",
		zap.String("user_task_key", userTaskKey),
		zap.Bool("approval", decision.Approval))
	return nil
}

// Unquote turns an engine variable value into its plain scalar text.
// `"\"Nandini\""` becomes `Nandini`, `true` stays `true`, `null` becomes "".
// Values that are not valid JSON lose any delimiting quotes.
func Unquote(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return strings.Trim(trimmed, `"`)
	}

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		// objects and arrays keep their JSON text
		return trimmed
	}
}

func present(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	default:
		return true
	}
}

var _ port.WorkflowGateway = (*Gateway)(nil)
