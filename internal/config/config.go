package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EngineConfig holds workflow engine configuration
type EngineConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	ProcessDefinitionID string        `mapstructure:"process_definition_id"`
	ManagerID           string        `mapstructure:"manager_id"`
	RequestType         string        `mapstructure:"request_type"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryInterval       time.Duration `mapstructure:"retry_interval"`
	OAuth               OAuthConfig   `mapstructure:"oauth"`
}

// OAuthConfig holds the client-credentials grant settings. An empty
// client_id disables it.
type OAuthConfig struct {
	TokenURL     string   `mapstructure:"token_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Audience     string   `mapstructure:"audience"`
	Scopes       []string `mapstructure:"scopes"`
}

// AuthConfig holds login and session token configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Users     []UserConfig  `mapstructure:"users"`
}

// UserConfig is one demo account
type UserConfig struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
	Role         string `mapstructure:"role"`
	FullName     string `mapstructure:"full_name"`
	Badge        string `mapstructure:"badge"`
	Unit         string `mapstructure:"unit"`
	Location     string `mapstructure:"location"`
}

// StoreConfig selects where session records live
type StoreConfig struct {
	SessionBackend string        `mapstructure:"session_backend"` // sqlite or redis
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SyncConfig holds the status refresh worker configuration
type SyncConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	RoundTimeout time.Duration `mapstructure:"round_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	minJWTSecretLength = 16
)

// Load loads configuration from file and environment variables.
// A .env file next to the working directory is read first when present;
// variables already set in the environment win over it.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.cookie_name", "servicedesk_session")
	v.SetDefault("server.cookie_secure", false)

	// Database defaults
	v.SetDefault("database.path", "data/servicedesk.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Engine defaults
	v.SetDefault("engine.base_url", "http://localhost:8088/camunda")
	v.SetDefault("engine.process_definition_id", "new-it-request-workflow")
	v.SetDefault("engine.manager_id", "Jasmine")
	v.SetDefault("engine.request_type", "network")
	v.SetDefault("engine.request_timeout", 15*time.Second)
	v.SetDefault("engine.max_retries", 3)
	v.SetDefault("engine.retry_interval", 500*time.Millisecond)

	// Auth defaults
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	// Store defaults
	v.SetDefault("store.session_backend", BackendSQLite)
	v.SetDefault("store.session_ttl", 12*time.Hour)

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "servicedesk:")

	// Sync defaults
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.interval", 30*time.Second)
	v.SetDefault("sync.batch_size", 50)
	v.SetDefault("sync.round_timeout", 60*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"server.port":                "SERVER_PORT",
		"database.path":              "DATABASE_PATH",
		"engine.base_url":            "ENGINE_BASE_URL",
		"engine.oauth.token_url":     "ENGINE_TOKEN_URL",
		"engine.oauth.client_id":     "ENGINE_CLIENT_ID",
		"engine.oauth.client_secret": "ENGINE_CLIENT_SECRET",
		"engine.oauth.audience":      "ENGINE_AUDIENCE",
		"auth.jwt_secret":            "AUTH_JWT_SECRET",
		"store.session_backend":      "SESSION_BACKEND",
		"redis.addr":                 "REDIS_ADDR",
		"redis.password":             "REDIS_PASSWORD",
		"logger.level":               "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if c.Engine.ProcessDefinitionID == "" {
		return fmt.Errorf("engine.process_definition_id is required")
	}
	if c.Engine.MaxRetries < 0 {
		return fmt.Errorf("engine.max_retries must not be negative")
	}
	if c.Engine.OAuth.ClientID != "" {
		if c.Engine.OAuth.TokenURL == "" {
			return fmt.Errorf("engine.oauth.token_url is required when client_id is set")
		}
		if c.Engine.OAuth.ClientSecret == "" {
			return fmt.Errorf("engine.oauth.client_secret is required when client_id is set")
		}
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minJWTSecretLength)
	}
	if len(c.Auth.Users) == 0 {
		return fmt.Errorf("auth.users must list at least one account")
	}
	for i, u := range c.Auth.Users {
		if strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("auth.users[%d].username is required", i)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("auth.users[%d] needs password or password_hash", i)
		}
	}
	switch c.Store.SessionBackend {
	case BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis session backend")
		}
	default:
		return fmt.Errorf("store.session_backend must be %q or %q", BackendSQLite, BackendRedis)
	}
	return nil
}
