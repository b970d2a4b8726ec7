// Package container provides dependency injection and lifecycle management
// for the service desk portal.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Engine   EngineConfig
	Auth     AuthConfig
	Session  SessionConfig
	Server   ServerConfig
	Worker   WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// EngineConfig holds workflow engine settings.
type EngineConfig struct {
	BaseURL             string
	ProcessDefinitionID string
	ManagerID           string
	RequestType         string
	RequestTimeout      time.Duration
	MaxRetries          int
	RetryInterval       time.Duration

	// OAuth client credentials; empty ClientID means unauthenticated calls
	TokenURL     string
	ClientID     string
	ClientSecret string
	Audience     string
	Scopes       []string
}

// AuthConfig holds login settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Accounts  []AccountConfig
}

// AccountConfig is one demo account.
type AccountConfig struct {
	Username     string
	Password     string
	PasswordHash string
	Role         string
	FullName     string
	Badge        string
	Unit         string
	Location     string
}

// SessionConfig selects the session record store.
type SessionConfig struct {
	// Backend is "sqlite" or "redis"
	Backend string
	TTL     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CookieName   string
	CookieSecure bool
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	SyncEnabled      bool
	SyncInterval     time.Duration
	SyncBatchSize    int
	SyncRoundTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/servicedesk.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Engine: EngineConfig{
			BaseURL:             "http://localhost:8088/camunda",
			ProcessDefinitionID: "new-it-request-workflow",
			ManagerID:           "Jasmine",
			RequestType:         "network",
			RequestTimeout:      15 * time.Second,
			MaxRetries:          3,
			RetryInterval:       500 * time.Millisecond,
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		Session: SessionConfig{
			Backend:     "sqlite",
			TTL:         12 * time.Hour,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "servicedesk:",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			CookieName:   "servicedesk_session",
		},
		Worker: WorkerConfig{
			SyncEnabled:      true,
			SyncInterval:     30 * time.Second,
			SyncBatchSize:    50,
			SyncRoundTimeout: 60 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine base url is required")
	}
	if c.Engine.ProcessDefinitionID == "" {
		return fmt.Errorf("engine process definition id is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if len(c.Auth.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	switch c.Session.Backend {
	case "sqlite":
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	return nil
}
