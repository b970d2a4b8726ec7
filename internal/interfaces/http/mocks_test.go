package http

import (
	"context"
	"io"

	"github.com/isf/servicedesk/internal/application/service"
	"github.com/isf/servicedesk/internal/domain/entity"
)

type mockLogger struct{}

func (mockLogger) Info(string, ...interface{})  {}
func (mockLogger) Warn(string, ...interface{})  {}
func (mockLogger) Error(string, ...interface{}) {}

// mockSessionService resolves "tok-<role>" tokens to a user of that role
type mockSessionService struct {
	authenticateFunc func(ctx context.Context, username, password string) (*service.Session, error)
	logoutFunc       func(ctx context.Context, sessionID string) error
	loggedOut        []string
}

func (m *mockSessionService) Authenticate(ctx context.Context, username, password string) (*service.Session, error) {
	return m.authenticateFunc(ctx, username, password)
}

func (m *mockSessionService) Login(ctx context.Context, user entity.User) (*service.Session, error) {
	return &service.Session{ID: "sid", Token: "tok-" + string(user.Role), User: &user}, nil
}

func (m *mockSessionService) Logout(ctx context.Context, sessionID string) error {
	m.loggedOut = append(m.loggedOut, sessionID)
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockSessionService) SwitchUser(ctx context.Context, sessionID string) error {
	return m.Logout(ctx, sessionID)
}

func (m *mockSessionService) CurrentUser(ctx context.Context, sessionID string) (*entity.User, error) {
	return nil, nil
}

func (m *mockSessionService) Resolve(ctx context.Context, token string) (string, *entity.User, error) {
	users := map[string]*entity.User{
		"tok-officer":       {Username: "Nandini", Role: entity.RoleOfficer},
		"tok-supervisor":    {Username: "Inthihas", Role: entity.RoleSupervisor},
		"tok-admin":         {Username: "Jasmine", Role: entity.RoleAdmin},
		"tok-tech_approver": {Username: "Rashaad", Role: entity.RoleTechApprover},
	}
	if u, ok := users[token]; ok {
		return "sid-" + string(u.Role), u, nil
	}
	return "", nil, nil
}

type mockRequestService struct {
	submitFunc func(ctx context.Context, user *entity.User, draft entity.PhoneRequestDraft) (*entity.Request, error)
	getFunc    func(ctx context.Context, user *entity.User, id string) (*service.RequestRow, error)
	listFunc   func(ctx context.Context, user *entity.User, query service.RequestQuery) (*service.RequestPage, error)
	countsFunc func(ctx context.Context, user *entity.User) (*service.Counts, error)
}

func (m *mockRequestService) Submit(ctx context.Context, user *entity.User, draft entity.PhoneRequestDraft) (*entity.Request, error) {
	return m.submitFunc(ctx, user, draft)
}

func (m *mockRequestService) Get(ctx context.Context, user *entity.User, id string) (*service.RequestRow, error) {
	return m.getFunc(ctx, user, id)
}

func (m *mockRequestService) List(ctx context.Context, user *entity.User, query service.RequestQuery) (*service.RequestPage, error) {
	return m.listFunc(ctx, user, query)
}

func (m *mockRequestService) Counts(ctx context.Context, user *entity.User) (*service.Counts, error) {
	return m.countsFunc(ctx, user)
}

func (m *mockRequestService) RefreshOpen(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

type mockApprovalService struct {
	approveFunc func(ctx context.Context, actor *entity.User, in service.DecisionInput) (*entity.Request, error)
	rejectFunc  func(ctx context.Context, actor *entity.User, in service.DecisionInput) (*entity.Request, error)
}

func (m *mockApprovalService) Approve(ctx context.Context, actor *entity.User, in service.DecisionInput) (*entity.Request, error) {
	return m.approveFunc(ctx, actor, in)
}

func (m *mockApprovalService) Reject(ctx context.Context, actor *entity.User, in service.DecisionInput) (*entity.Request, error) {
	return m.rejectFunc(ctx, actor, in)
}

func (m *mockApprovalService) InFlight(string) bool { return false }

type mockInboxService struct {
	inboxFunc  func(ctx context.Context, approver *entity.User, query service.InboxQuery) (*service.InboxPage, error)
	countsFunc func(ctx context.Context, approver *entity.User) (*service.Counts, error)
}

func (m *mockInboxService) Inbox(ctx context.Context, approver *entity.User, query service.InboxQuery) (*service.InboxPage, error) {
	return m.inboxFunc(ctx, approver, query)
}

func (m *mockInboxService) Counts(ctx context.Context, approver *entity.User) (*service.Counts, error) {
	return m.countsFunc(ctx, approver)
}

type mockExportService struct {
	exportFunc func(ctx context.Context, actor *entity.User, w io.Writer) (int, error)
}

func (m *mockExportService) ExportAll(ctx context.Context, actor *entity.User, w io.Writer) (int, error) {
	return m.exportFunc(ctx, actor, w)
}
