package service

import (
	"context"
	"errors"
	"testing"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(store *mockKVStore, logger *mockLogger) SessionService {
	dir := &mockDirectory{
		authenticateFunc: func(ctx context.Context, username, password string) (*entity.User, error) {
			if username == "nandini" && password == "officer123" {
				return &entity.User{Username: "Nandini", Role: entity.RoleOfficer, FullName: "Nandini - Officer/Requester"}, nil
			}
			return nil, port.ErrInvalidCredentials
		},
	}
	return NewSessionService(store, dir, mockTokens{}, logger)
}

func TestSessionService_LoginAndCurrentUser(t *testing.T) {
	ctx := context.Background()
	store := newMockKVStore()
	svc := newTestSessionService(store, &mockLogger{})

	sess, err := svc.Login(ctx, entity.User{Username: "Inthihas", Role: entity.RoleSupervisor})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "tok-"+sess.ID, sess.Token)
	assert.Equal(t, "/supervisor/dashboard", sess.Dashboard)

	user, err := svc.CurrentUser(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Inthihas", user.Username)
	assert.Equal(t, entity.RoleSupervisor, user.Role)

	// Stored record carries the envelope version
	assert.Contains(t, string(store.records["session:"+sess.ID]), `"version":1`)
}

func TestSessionService_LoginRejectsInvalidUser(t *testing.T) {
	svc := newTestSessionService(newMockKVStore(), &mockLogger{})

	_, err := svc.Login(context.Background(), entity.User{Username: "x", Role: entity.Role("commander")})
	assert.ErrorIs(t, err, access.ErrAuthRequired)

	_, err = svc.Login(context.Background(), entity.User{Username: "  ", Role: entity.RoleOfficer})
	assert.ErrorIs(t, err, access.ErrAuthRequired)
}

func TestSessionService_Authenticate(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	svc := newTestSessionService(newMockKVStore(), logger)

	sess, err := svc.Authenticate(ctx, "nandini", "officer123")
	require.NoError(t, err)
	assert.Equal(t, "/officer/dashboard", sess.Dashboard)
	assert.Equal(t, "Nandini - Officer/Requester", sess.User.FullName)

	_, err = svc.Authenticate(ctx, "nandini", "wrong")
	assert.ErrorIs(t, err, port.ErrInvalidCredentials)
	assert.NotEmpty(t, logger.warns)
}

func TestSessionService_LogoutAndSwitch(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMockKVStore(), &mockLogger{})

	for _, end := range []func(context.Context, string) error{svc.Logout, svc.SwitchUser} {
		sess, err := svc.Login(ctx, entity.User{Username: "Jasmine", Role: entity.RoleAdmin})
		require.NoError(t, err)

		require.NoError(t, end(ctx, sess.ID))

		user, err := svc.CurrentUser(ctx, sess.ID)
		require.NoError(t, err)
		assert.Nil(t, user)
	}
}

func TestSessionService_CurrentUser_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"corrupt json", `{"version":1,"user":`},
		{"unknown version", `{"version":2,"user":{"username":"Nandini","role":"officer"}}`},
		{"legacy unversioned record", `{"username":"Nandini","role":"officer"}`},
		{"invalid role", `{"version":1,"user":{"username":"Nandini","role":"commander"}}`},
		{"missing user", `{"version":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockKVStore()
			store.records["session:abc"] = []byte(tt.payload)
			logger := &mockLogger{}
			svc := newTestSessionService(store, logger)

			user, err := svc.CurrentUser(context.Background(), "abc")
			require.NoError(t, err)
			assert.Nil(t, user)
			assert.Len(t, logger.warns, 1)
		})
	}
}

func TestSessionService_CurrentUser_StoreError(t *testing.T) {
	store := newMockKVStore()
	store.getFunc = func(ctx context.Context, key string) ([]byte, error) {
		return nil, errors.New("disk I/O error")
	}
	svc := newTestSessionService(store, &mockLogger{})

	_, err := svc.CurrentUser(context.Background(), "abc")
	assert.Error(t, err)
}

func TestSessionService_Resolve(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessionService(newMockKVStore(), &mockLogger{})

	sess, err := svc.Login(ctx, entity.User{Username: "Rashaad", Role: entity.RoleTechApprover})
	require.NoError(t, err)

	id, user, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)
	require.NotNil(t, user)
	assert.Equal(t, entity.RoleTechApprover, user.Role)

	id, user, err = svc.Resolve(ctx, "forged")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Nil(t, user)

	_, user, err = svc.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, user)
}
