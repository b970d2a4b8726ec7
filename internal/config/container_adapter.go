package config

import (
	"github.com/isf/servicedesk/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	accounts := make([]container.AccountConfig, 0, len(c.Auth.Users))
	for _, u := range c.Auth.Users {
		accounts = append(accounts, container.AccountConfig{
			Username:     u.Username,
			Password:     u.Password,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
			FullName:     u.FullName,
			Badge:        u.Badge,
			Unit:         u.Unit,
			Location:     u.Location,
		})
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Engine: container.EngineConfig{
			BaseURL:             c.Engine.BaseURL,
			ProcessDefinitionID: c.Engine.ProcessDefinitionID,
			ManagerID:           c.Engine.ManagerID,
			RequestType:         c.Engine.RequestType,
			RequestTimeout:      c.Engine.RequestTimeout,
			MaxRetries:          c.Engine.MaxRetries,
			RetryInterval:       c.Engine.RetryInterval,
			TokenURL:            c.Engine.OAuth.TokenURL,
			ClientID:            c.Engine.OAuth.ClientID,
			ClientSecret:        c.Engine.OAuth.ClientSecret,
			Audience:            c.Engine.OAuth.Audience,
			Scopes:              c.Engine.OAuth.Scopes,
		},
		Auth: container.AuthConfig{
			JWTSecret: c.Auth.JWTSecret,
			TokenTTL:  c.Auth.TokenTTL,
			Accounts:  accounts,
		},
		Session: container.SessionConfig{
			Backend:       c.Store.SessionBackend,
			TTL:           c.Store.SessionTTL,
			RedisAddr:     c.Redis.Addr,
			RedisPassword: c.Redis.Password,
			RedisDB:       c.Redis.DB,
			RedisPrefix:   c.Redis.KeyPrefix,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			CookieName:   c.Server.CookieName,
			CookieSecure: c.Server.CookieSecure,
		},
		Worker: container.WorkerConfig{
			SyncEnabled:      c.Sync.Enabled,
			SyncInterval:     c.Sync.Interval,
			SyncBatchSize:    c.Sync.BatchSize,
			SyncRoundTimeout: c.Sync.RoundTimeout,
		},
	}
}
