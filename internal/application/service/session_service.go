package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
)

const (
	sessionKeyPrefix = "session:"

	// SessionRecordVersion is the envelope version written by this build
	SessionRecordVersion = 1
)

// sessionRecord is the stored form of a session. Records with another version are ignored.
type sessionRecord struct {
	Version int          `json:"version"`
	User    *entity.User `json:"user"`
}

// Session is an established login
type Session struct {
	ID        string       `json:"-"`
	Token     string       `json:"token"`
	User      *entity.User `json:"user"`
	Dashboard string       `json:"dashboard"`
}

// SessionService owns the current-user record of each browser session
type SessionService interface {
	Authenticate(ctx context.Context, username, password string) (*Session, error)
	Login(ctx context.Context, user entity.User) (*Session, error)
	Logout(ctx context.Context, sessionID string) error
	SwitchUser(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*entity.User, error)
	Resolve(ctx context.Context, token string) (string, *entity.User, error)
}

type sessionServiceImpl struct {
	store     port.KVStore
	directory port.CredentialDirectory
	tokens    port.TokenIssuer
	logger    Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	store port.KVStore,
	directory port.CredentialDirectory,
	tokens port.TokenIssuer,
	logger Logger,
) SessionService {
	return &sessionServiceImpl{
		store:     store,
		directory: directory,
		tokens:    tokens,
		logger:    logger,
	}
}

// Authenticate checks a demo account login and establishes a session for it
func (s *sessionServiceImpl) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.directory.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login rejected", "username", username, "error", err)
		return nil, err
	}
	return s.Login(ctx, *user)
}

// Login persists the user under a new session id and returns its signed handle
func (s *sessionServiceImpl) Login(ctx context.Context, user entity.User) (*Session, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || !user.Role.IsValid() {
		return nil, fmt.Errorf("%w: username and a valid role are required", access.ErrAuthRequired)
	}

	sessionID := uuid.NewString()
	payload, err := json.Marshal(sessionRecord{Version: SessionRecordVersion, User: &user})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Put(ctx, sessionKeyPrefix+sessionID, payload); err != nil {
		s.logger.Error("Failed to store session", "error", err, "username", user.Username)
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.tokens.Issue(sessionID)
	if err != nil {
		s.logger.Error("Failed to sign session token", "error", err)
		return nil, fmt.Errorf("sign session: %w", err)
	}

	s.logger.Info("Session established", "username", user.Username, "role", user.Role)
	return &Session{
		ID:        sessionID,
		Token:     token,
		User:      &user,
		Dashboard: access.DashboardFor(user.Role),
	}, nil
}

// Logout clears the session record
func (s *sessionServiceImpl) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionKeyPrefix+sessionID); err != nil {
		s.logger.Error("Failed to clear session", "error", err, "session_id", sessionID)
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("Session cleared", "session_id", sessionID)
	return nil
}

// SwitchUser ends the session so another demo account can log in
func (s *sessionServiceImpl) SwitchUser(ctx context.Context, sessionID string) error {
	return s.Logout(ctx, sessionID)
}

// CurrentUser loads the session user. A missing, unreadable or outdated record
// yields (nil, nil).
func (s *sessionServiceImpl) CurrentUser(ctx context.Context, sessionID string) (*entity.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	payload, err := s.store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		s.logger.Error("Failed to load session", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("load session: %w", err)
	}
	if payload == nil {
		return nil, nil
	}

	var rec sessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		s.logger.Warn("Discarding unreadable session record", "session_id", sessionID, "error", err)
		return nil, nil
	}
	if rec.Version != SessionRecordVersion {
		s.logger.Warn("Discarding session record with unknown version", "session_id", sessionID, "version", rec.Version)
		return nil, nil
	}
	if rec.User == nil || rec.User.Username == "" || !rec.User.Role.IsValid() {
		s.logger.Warn("Discarding session record with invalid user", "session_id", sessionID)
		return nil, nil
	}
	return rec.User, nil
}

// Resolve verifies a session handle and loads its user. An invalid handle is
// not an error: it yields no session.
func (s *sessionServiceImpl) Resolve(ctx context.Context, token string) (string, *entity.User, error) {
	if token == "" {
		return "", nil, nil
	}
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Warn("Rejected session token", "error", err)
		return "", nil, nil
	}
	user, err := s.CurrentUser(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	return sessionID, user, nil
}
