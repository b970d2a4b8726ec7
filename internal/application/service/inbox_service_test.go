package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inboxGateway(n int, varsFor func(i int) map[string]string) *mockGateway {
	return &mockGateway{
		searchTasksFunc: func(ctx context.Context, filter port.TaskFilter) ([]entity.Task, error) {
			tasks := make([]entity.Task, n)
			for i := range tasks {
				tasks[i] = entity.Task{
					UserTaskKey:        fmt.Sprintf("task-%d", i),
					ProcessInstanceKey: fmt.Sprintf("pik-%d", i),
					Assignee:           filter.Assignee,
					State:              filter.State,
					CreationDate:       "2025-01-15T10:00:00.000Z",
				}
			}
			return tasks, nil
		},
		fetchVariablesFunc: func(ctx context.Context, key string) (map[string]string, error) {
			var i int
			fmt.Sscanf(key, "pik-%d", &i)
			return varsFor(i), nil
		},
	}
}

func TestInboxService_RowMapping(t *testing.T) {
	var gotFilter port.TaskFilter
	gw := inboxGateway(1, func(int) map[string]string {
		return map[string]string{
			"requestedBy":     "Nandini",
			"requestType":     "network",
			"adminComments":   "Needs specialized configuration.",
			"managerId":       "Jasmine",
			"request":         "New IP phone installation",
			"adminDecision":   "technical",
			"description":     "Need IP phone setup for a new employee",
			"managerApproved": "true",
			"managerComments": "Approved by Jasmine.",
		}
	})
	search := gw.searchTasksFunc
	gw.searchTasksFunc = func(ctx context.Context, filter port.TaskFilter) ([]entity.Task, error) {
		gotFilter = filter
		return search(ctx, filter)
	}
	svc := NewInboxService(newMockRequestRepo(), gw, &mockLogger{})

	page, err := svc.Inbox(context.Background(), adminU, InboxQuery{})
	require.NoError(t, err)

	assert.Equal(t, port.TaskFilter{State: "CREATED", Assignee: "Jasmine"}, gotFilter)
	require.Len(t, page.Rows, 1)
	row := page.Rows[0]
	assert.Equal(t, "pik-0", row.ID)
	assert.Equal(t, "task-0", row.UserTaskKey)
	assert.Equal(t, "Nandini", row.Requestor)
	assert.Equal(t, "network", row.Unit)
	assert.Equal(t, "New IP phone installation", row.Service)
	assert.Equal(t, "High", row.Priority)
	assert.Equal(t, workflow.StatusApproved, row.Status)
	assert.Equal(t, "Approved by Jasmine.", row.Details["managerComments"])
	assert.Equal(t, Counts{Approved: 1, Total: 1}, page.Counts)
}

func TestInboxService_LocalDraftFillsGaps(t *testing.T) {
	repo := newMockRequestRepo(&entity.Request{
		ID:            "pik-0",
		RequestorName: "Nandini",
		Status:        workflow.StatusSubmitted,
		PhoneModel:    "Cisco 8841",
		Unit:          "Field Ops",
	})
	gw := inboxGateway(1, func(int) map[string]string {
		return map[string]string{"requestedBy": "Nandini"}
	})
	svc := NewInboxService(repo, gw, &mockLogger{})

	page, err := svc.Inbox(context.Background(), supervisorU, InboxQuery{})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Cisco 8841", page.Rows[0].Service)
	assert.Equal(t, "Field Ops", page.Rows[0].Unit)
	assert.Equal(t, "Standard", page.Rows[0].Priority)
	assert.Equal(t, workflow.StatusPending, page.Rows[0].Status)
}

func TestInboxService_FilterSearchAndPaging(t *testing.T) {
	gw := inboxGateway(10, func(i int) map[string]string {
		vars := map[string]string{"requestedBy": fmt.Sprintf("User %d", i), "request": "Desk phone"}
		switch {
		case i < 2:
			vars["approval"] = "false"
		case i < 5:
			vars["approval"] = "true"
		}
		if i == 9 {
			vars["request"] = "Monitor"
		}
		return vars
	})
	svc := NewInboxService(newMockRequestRepo(), gw, &mockLogger{})
	ctx := context.Background()

	page, err := svc.Inbox(ctx, supervisorU, InboxQuery{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Rows, InboxPageSize)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, Counts{Pending: 5, Approved: 3, Rejected: 2, Total: 10}, page.Counts)

	page, err = svc.Inbox(ctx, supervisorU, InboxQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 4)

	page, err = svc.Inbox(ctx, supervisorU, InboxQuery{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = svc.Inbox(ctx, supervisorU, InboxQuery{Status: "pending", Search: "MONITOR"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "pik-9", page.Rows[0].ID)

	page, err = svc.Inbox(ctx, supervisorU, InboxQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)

	page, err = svc.Inbox(ctx, supervisorU, InboxQuery{Page: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.Total)
}

func TestInboxService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewInboxService(newMockRequestRepo(), &mockGateway{}, &mockLogger{})

	_, err := svc.Inbox(ctx, nil, InboxQuery{})
	assert.ErrorIs(t, err, access.ErrAuthRequired)

	_, err = svc.Counts(ctx, officer)
	assert.ErrorIs(t, err, access.ErrRoleForbidden)

	failing := &mockGateway{
		searchTasksFunc: func(ctx context.Context, filter port.TaskFilter) ([]entity.Task, error) {
			return nil, fmt.Errorf("%w: status 500", port.ErrTaskFetchFailed)
		},
	}
	svc = NewInboxService(newMockRequestRepo(), failing, &mockLogger{})
	_, err = svc.Counts(ctx, techApprover)
	assert.ErrorIs(t, err, port.ErrTaskFetchFailed)
}
