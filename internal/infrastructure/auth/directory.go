// Package auth holds the demo credential directory and the session token signer.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Account is one configured login. Exactly one of Password and PasswordHash
// is expected; a plaintext Password is hashed when the directory is built.
type Account struct {
	Username     string
	Password     string
	PasswordHash string
	Role         entity.Role
	FullName     string
	Badge        string
	Unit         string
	Location     string
}

type account struct {
	user entity.User
	hash []byte
}

// Directory implements port.CredentialDirectory over a fixed account table
type Directory struct {
	accounts map[string]account
	// compared against when the username is unknown so both failure paths cost a bcrypt check
	dummy  []byte
	logger *zap.Logger
}

// NewDirectory validates and hashes accounts
func NewDirectory(accounts []Account, logger *zap.Logger) (*Directory, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("unused-directory-entry"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare directory: %w", err)
	}

	d := &Directory{
		accounts: make(map[string]account, len(accounts)),
		dummy:    dummy,
		logger:   logger,
	}
	for _, a := range accounts {
		name := strings.TrimSpace(a.Username)
		if name == "" {
			return nil, fmt.Errorf("account with empty username")
		}
		if !a.Role.IsValid() {
			return nil, fmt.Errorf("account %s has invalid role %q", name, a.Role)
		}
		key := strings.ToLower(name)
		if _, dup := d.accounts[key]; dup {
			return nil, fmt.Errorf("duplicate account %s", name)
		}

		hash := []byte(a.PasswordHash)
		if len(hash) == 0 {
			if a.Password == "" {
				return nil, fmt.Errorf("account %s has no password", name)
			}
			hash, err = bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password for %s: %w", name, err)
			}
		}

		d.accounts[key] = account{
			user: entity.User{
				Username: name,
				Role:     a.Role,
				FullName: a.FullName,
				Badge:    a.Badge,
				Unit:     a.Unit,
				Location: a.Location,
			},
			hash: hash,
		}
	}

	logger.Info("Credential directory loaded", zap.Int("accounts", len(d.accounts)))
	return d, nil
}

// Authenticate looks the username up case-insensitively and checks the password.
// Unknown users and wrong passwords both yield port.ErrInvalidCredentials.
func (d *Directory) Authenticate(_ context.Context, username, password string) (*entity.User, error) {
	acc, ok := d.accounts[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(d.dummy, []byte(password))
		return nil, port.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, port.ErrInvalidCredentials
	}

	user := acc.user
	return &user, nil
}

var _ port.CredentialDirectory = (*Directory)(nil)
