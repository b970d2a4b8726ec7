package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRequestConfig = RequestConfig{
	ProcessDefinitionID: "new-it-request-workflow",
	ManagerID:           "Jasmine",
	RequestType:         "network",
}

func newTestRequestService(repo *mockRequestRepo, gw *mockGateway) RequestService {
	return NewRequestService(repo, gw, &mockTxManager{}, validator.New(), testRequestConfig, &mockLogger{})
}

var validDraft = entity.PhoneRequestDraft{
	PhoneModel:    "Cisco 8841",
	Workstation:   "Building 3, Room 214, Desk 8",
	Justification: "Required for operational duty station",
}

func TestRequestService_Submit(t *testing.T) {
	ctx := context.Background()
	repo := newMockRequestRepo()

	var gotDef string
	var gotVars map[string]interface{}
	gw := &mockGateway{
		startProcessFunc: func(ctx context.Context, definitionID string, variables map[string]interface{}) (*entity.ProcessInstance, error) {
			gotDef, gotVars = definitionID, variables
			return &entity.ProcessInstance{
				ProcessInstanceKey:       "2251799813740297",
				ProcessDefinitionID:      definitionID,
				ProcessDefinitionVersion: 3,
				TenantID:                 "<default>",
			}, nil
		},
	}
	svc := newTestRequestService(repo, gw)

	req, err := svc.Submit(ctx, officer, validDraft)
	require.NoError(t, err)

	assert.Equal(t, "new-it-request-workflow", gotDef)
	assert.Equal(t, "Nandini", gotVars["requestedBy"])
	assert.Equal(t, "Jasmine", gotVars["managerId"])
	assert.Equal(t, "network", gotVars["requestType"])
	assert.Equal(t, "Cisco 8841", gotVars["request"])
	assert.Equal(t, validDraft.Justification, gotVars["description"])
	assert.Nil(t, gotVars["approval"])
	assert.Nil(t, gotVars["adminDecision"])
	assert.Equal(t, "", gotVars["adminComments"])
	assert.Equal(t, false, gotVars["userConfirmed"])

	assert.Equal(t, "2251799813740297", req.ID)
	assert.Equal(t, workflow.StatusSubmitted, req.Status)
	assert.Equal(t, "ISF-OFF-001", req.BadgeNumber)
	assert.Equal(t, 3, req.ProcessDefinitionVersion)

	stored := repo.stored("2251799813740297")
	require.NotNil(t, stored)
	assert.Equal(t, "Building 3, Room 214, Desk 8", stored.Workstation)
}

func TestRequestService_Submit_ValidationRunsBeforeEngine(t *testing.T) {
	tests := []struct {
		name  string
		draft entity.PhoneRequestDraft
	}{
		{"missing model", entity.PhoneRequestDraft{Workstation: "B1", Justification: "x"}},
		{"blank workstation", entity.PhoneRequestDraft{PhoneModel: "Cisco", Workstation: "   ", Justification: "x"}},
		{"missing justification", entity.PhoneRequestDraft{PhoneModel: "Cisco", Workstation: "B1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			svc := newTestRequestService(newMockRequestRepo(), gw)

			_, err := svc.Submit(context.Background(), officer, tt.draft)
			assert.ErrorIs(t, err, ErrInvalidDraft)
			start, _ := gw.calls()
			assert.Zero(t, start)
		})
	}
}

func TestRequestService_Submit_EngineFailureStoresNothing(t *testing.T) {
	repo := newMockRequestRepo()
	gw := &mockGateway{
		startProcessFunc: func(ctx context.Context, definitionID string, variables map[string]interface{}) (*entity.ProcessInstance, error) {
			return nil, fmt.Errorf("%w: status 500", port.ErrProcessStartFailed)
		},
	}
	svc := newTestRequestService(repo, gw)

	_, err := svc.Submit(context.Background(), officer, validDraft)
	assert.ErrorIs(t, err, port.ErrProcessStartFailed)
	assert.Empty(t, repo.requests)
}

func TestRequestService_Submit_Roles(t *testing.T) {
	svc := newTestRequestService(newMockRequestRepo(), &mockGateway{})

	_, err := svc.Submit(context.Background(), nil, validDraft)
	assert.ErrorIs(t, err, access.ErrAuthRequired)

	_, err = svc.Submit(context.Background(), adminU, validDraft)
	assert.ErrorIs(t, err, access.ErrRoleForbidden)

	_, err = svc.Submit(context.Background(), supervisorU, validDraft)
	assert.NoError(t, err)
}

func TestRequestService_Submit_DuplicateInFlight(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	gw := &mockGateway{
		startProcessFunc: func(ctx context.Context, definitionID string, variables map[string]interface{}) (*entity.ProcessInstance, error) {
			close(entered)
			<-unblock
			return &entity.ProcessInstance{ProcessInstanceKey: "1"}, nil
		},
	}
	svc := newTestRequestService(newMockRequestRepo(), gw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Submit(context.Background(), officer, validDraft)
		assert.NoError(t, err)
	}()

	<-entered
	_, err := svc.Submit(context.Background(), officer, validDraft)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(unblock)
	wg.Wait()
}

func TestRequestService_Submit_CachedEngineRecordWins(t *testing.T) {
	repo := newMockRequestRepo(&entity.Request{
		ID:            "2251799813740297",
		RequestorName: "Nandini",
		Status:        workflow.StatusApproved,
		PhoneModel:    "Cisco 8845",
	})
	svc := newTestRequestService(repo, &mockGateway{})

	req, err := svc.Submit(context.Background(), officer, validDraft)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, req.Status)
	assert.Equal(t, "Cisco 8845", req.PhoneModel)
	assert.Equal(t, "Building 3, Room 214, Desk 8", req.Workstation)
}

func seedRequests() *mockRequestRepo {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var reqs []*entity.Request
	for i := 0; i < 7; i++ {
		reqs = append(reqs, &entity.Request{ID: fmt.Sprintf("N%02d", i), RequestorName: "Nandini", Status: workflow.StatusPending, PhoneModel: "Cisco", SubmittedDate: base})
	}
	reqs = append(reqs,
		&entity.Request{ID: "S01", RequestorName: "Inthihas", Status: workflow.StatusApproved, PhoneModel: "Avaya"},
		&entity.Request{ID: "S02", RequestorName: "inthihas", Status: workflow.StatusRejected, PhoneModel: "Polycom"},
	)
	return newMockRequestRepo(reqs...)
}

func TestRequestService_List_Visibility(t *testing.T) {
	ctx := context.Background()
	svc := newTestRequestService(seedRequests(), &mockGateway{})

	page, err := svc.List(ctx, officer, RequestQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Rows, StatusPageSize)
	for _, row := range page.Rows {
		assert.Equal(t, "Nandini", row.RequestorName)
		assert.Equal(t, "Pending", row.Badge.Label)
	}

	page, err = svc.List(ctx, officer, RequestQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)

	page, err = svc.List(ctx, officer, RequestQuery{Page: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 3, page.Page)

	page, err = svc.List(ctx, supervisorU, RequestQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = svc.List(ctx, adminU, RequestQuery{Search: "polycom"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "S02", page.Rows[0].ID)
	assert.Equal(t, "rejected", string(page.Rows[0].Timeline.Overall))

	_, err = svc.List(ctx, nil, RequestQuery{})
	assert.ErrorIs(t, err, access.ErrAuthRequired)
}

func TestRequestService_Get(t *testing.T) {
	ctx := context.Background()
	svc := newTestRequestService(seedRequests(), &mockGateway{})

	row, err := svc.Get(ctx, officer, "N01")
	require.NoError(t, err)
	assert.Equal(t, "N01", row.ID)

	_, err = svc.Get(ctx, officer, "S01")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	row, err = svc.Get(ctx, techApprover, "S01")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, row.Status)

	_, err = svc.Get(ctx, adminU, "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRequestService_Counts(t *testing.T) {
	svc := newTestRequestService(seedRequests(), &mockGateway{})

	c, err := svc.Counts(context.Background(), adminU)
	require.NoError(t, err)
	assert.Equal(t, Counts{Pending: 7, Approved: 1, Rejected: 1, Total: 9}, *c)

	c, err = svc.Counts(context.Background(), supervisorU)
	require.NoError(t, err)
	assert.Equal(t, Counts{Pending: 0, Approved: 1, Rejected: 1, Total: 2}, *c)
}

func TestRequestService_RefreshOpen(t *testing.T) {
	repo := newMockRequestRepo(
		&entity.Request{ID: "A", RequestorName: "Nandini", Status: workflow.StatusPending},
		&entity.Request{ID: "B", RequestorName: "Nandini", Status: workflow.StatusSubmitted},
		&entity.Request{ID: "C", RequestorName: "Nandini", Status: workflow.StatusPending},
		&entity.Request{ID: "D", RequestorName: "Nandini", Status: workflow.StatusRejected},
	)
	gw := &mockGateway{
		fetchVariablesFunc: func(ctx context.Context, key string) (map[string]string, error) {
			switch key {
			case "A":
				return map[string]string{"approval": "true", "managerComments": "Approved by Jasmine."}, nil
			case "B":
				return map[string]string{"approval": "null"}, nil
			case "C":
				return nil, errors.New("timeout")
			}
			t.Fatalf("terminal request %s must not be refreshed", key)
			return nil, nil
		},
	}
	svc := newTestRequestService(repo, gw)

	changed, err := svc.RefreshOpen(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, workflow.StatusApproved, repo.stored("A").Status)
	assert.Equal(t, "Approved by Jasmine.", repo.stored("A").ManagerComments)
	assert.Equal(t, workflow.StatusSubmitted, repo.stored("B").Status)
	assert.Equal(t, workflow.StatusPending, repo.stored("C").Status)
}

func TestRequestService_RefreshOpen_DecisionDuringFetchIsKept(t *testing.T) {
	const key = "2251799813740297"
	repo := newMockRequestRepo(&entity.Request{ID: key, RequestorName: "Nandini", Status: workflow.StatusPending})

	approvals := NewApprovalService(repo, withTasks(&mockGateway{}, entity.Task{
		UserTaskKey:        "2251799813740310",
		ProcessInstanceKey: key,
		State:              workflow.TaskStateCreated,
	}), &mockTxManager{}, &mockLogger{})

	gw := &mockGateway{
		fetchVariablesFunc: func(ctx context.Context, id string) (map[string]string, error) {
			// the approver decides while the syncer is waiting on the engine
			_, err := approvals.Approve(ctx, supervisorU, DecisionInput{UserTaskKey: "2251799813740310", Comments: "Approved by Inthihas."})
			require.NoError(t, err)
			require.Equal(t, workflow.StatusApproved, repo.stored(key).Status)
			return map[string]string{"requestedBy": "Nandini", "approval": "null"}, nil
		},
	}
	svc := newTestRequestService(repo, gw)

	changed, err := svc.RefreshOpen(context.Background(), 50)
	require.NoError(t, err)
	assert.Zero(t, changed)

	stored := repo.stored(key)
	assert.Equal(t, workflow.StatusApproved, stored.Status, "lagging variables never reopen a decided request")
	assert.Equal(t, "Approved by Inthihas.", stored.ManagerComments)
	assert.Equal(t, "true", stored.Variables["approval"])
}

func TestRequestService_RefreshOpen_RunsInTransaction(t *testing.T) {
	repo := newMockRequestRepo(&entity.Request{ID: "A", RequestorName: "Nandini", Status: workflow.StatusPending})
	gw := &mockGateway{
		fetchVariablesFunc: func(ctx context.Context, key string) (map[string]string, error) {
			return map[string]string{"approval": "false"}, nil
		},
	}
	var inTx bool
	tx := &mockTxManager{
		withTransactionFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
			inTx = true
			return fn(ctx)
		},
	}
	svc := NewRequestService(repo, gw, tx, validator.New(), testRequestConfig, &mockLogger{})

	changed, err := svc.RefreshOpen(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.True(t, inTx)
	assert.Equal(t, workflow.StatusRejected, repo.stored("A").Status)
}
