package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/entity"
)

// mockRequestRepo keeps requests in memory unless a func field overrides a call
type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*entity.Request

	createFunc  func(ctx context.Context, req *entity.Request) error
	getByIDFunc func(ctx context.Context, id string) (*entity.Request, error)
	updateFunc  func(ctx context.Context, req *entity.Request) error
	listFunc    func(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error)
}

func newMockRequestRepo(reqs ...*entity.Request) *mockRequestRepo {
	m := &mockRequestRepo{requests: make(map[string]*entity.Request)}
	for _, r := range reqs {
		m.requests[r.ID] = r
	}
	return m
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *entity.Request) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

func (m *mockRequestRepo) matching(filter port.RequestFilter) []*entity.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Request
	for _, r := range m.requests {
		if filter.Requestor != "" && !r.VisibleTo(filter.Requestor) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, r.Status) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(r.ID+" "+r.PhoneModel+" "+r.RequestorName), strings.ToLower(filter.Search)) {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockRequestRepo) List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	out := m.matching(filter)
	start, end := filter.Offset, len(out)
	if start > end {
		start = end
	}
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return out[start:end], nil
}

func (m *mockRequestRepo) Count(ctx context.Context, filter port.RequestFilter) (int, error) {
	return len(m.matching(filter)), nil
}

func (m *mockRequestRepo) ListOpen(ctx context.Context, limit int) ([]*entity.Request, error) {
	var out []*entity.Request
	for _, r := range m.matching(port.RequestFilter{}) {
		if !r.Status.IsTerminal() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) stored(id string) *entity.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

type mockGateway struct {
	startProcessFunc   func(ctx context.Context, definitionID string, variables map[string]interface{}) (*entity.ProcessInstance, error)
	searchTasksFunc    func(ctx context.Context, filter port.TaskFilter) ([]entity.Task, error)
	fetchVariablesFunc func(ctx context.Context, processInstanceKey string) (map[string]string, error)
	completeTaskFunc   func(ctx context.Context, userTaskKey string, decision entity.Decision) error

	mu            sync.Mutex
	startCalls    int
	completeCalls int
}

func (m *mockGateway) StartProcess(ctx context.Context, definitionID string, variables map[string]interface{}) (*entity.ProcessInstance, error) {
	m.mu.Lock()
	m.startCalls++
	m.mu.Unlock()
	if m.startProcessFunc != nil {
		return m.startProcessFunc(ctx, definitionID, variables)
	}
	return &entity.ProcessInstance{ProcessInstanceKey: "2251799813740297", ProcessDefinitionID: definitionID, ProcessDefinitionVersion: 1, TenantID: "<default>"}, nil
}

func (m *mockGateway) SearchUserTasks(ctx context.Context, filter port.TaskFilter) ([]entity.Task, error) {
	if m.searchTasksFunc != nil {
		return m.searchTasksFunc(ctx, filter)
	}
	return []entity.Task{}, nil
}

func (m *mockGateway) FetchProcessVariables(ctx context.Context, processInstanceKey string) (map[string]string, error) {
	if m.fetchVariablesFunc != nil {
		return m.fetchVariablesFunc(ctx, processInstanceKey)
	}
	return map[string]string{}, nil
}

func (m *mockGateway) CompleteUserTask(ctx context.Context, userTaskKey string, decision entity.Decision) error {
	m.mu.Lock()
	m.completeCalls++
	m.mu.Unlock()
	if m.completeTaskFunc != nil {
		return m.completeTaskFunc(ctx, userTaskKey, decision)
	}
	return nil
}

func (m *mockGateway) calls() (start, complete int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls, m.completeCalls
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockKVStore struct {
	mu      sync.Mutex
	records map[string][]byte
	getFunc func(ctx context.Context, key string) ([]byte, error)
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{records: make(map[string][]byte)}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[key], nil
}

func (m *mockKVStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = value
	return nil
}

func (m *mockKVStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

type mockDirectory struct {
	authenticateFunc func(ctx context.Context, username, password string) (*entity.User, error)
}

func (m *mockDirectory) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, username, password)
	}
	return nil, port.ErrInvalidCredentials
}

// mockTokens uses the session id itself as the token
type mockTokens struct{}

func (mockTokens) Issue(sessionID string) (string, error) { return "tok-" + sessionID, nil }

func (mockTokens) Parse(token string) (string, error) {
	if !strings.HasPrefix(token, "tok-") {
		return "", port.ErrInvalidCredentials
	}
	return strings.TrimPrefix(token, "tok-"), nil
}

type mockExporter struct {
	exportFunc func(ctx context.Context, w io.Writer, requests []*entity.Request) error
}

func (m *mockExporter) Export(ctx context.Context, w io.Writer, requests []*entity.Request) error {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, w, requests)
	}
	return nil
}

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

var (
	officer      = &entity.User{Username: "Nandini", Role: entity.RoleOfficer, Badge: "ISF-OFF-001", Unit: "Field Ops"}
	supervisorU  = &entity.User{Username: "Inthihas", Role: entity.RoleSupervisor}
	adminU       = &entity.User{Username: "Jasmine", Role: entity.RoleAdmin}
	techApprover = &entity.User{Username: "Rashaad", Role: entity.RoleTechApprover}
)
