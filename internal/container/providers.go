package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/application/service"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/infrastructure/auth"
	"github.com/isf/servicedesk/internal/infrastructure/export"
	"github.com/isf/servicedesk/internal/infrastructure/external/engine"
	"github.com/isf/servicedesk/internal/infrastructure/persistence/redisstore"
	"github.com/isf/servicedesk/internal/infrastructure/persistence/repository"
	"github.com/isf/servicedesk/internal/infrastructure/persistence/sqlite"
	"github.com/isf/servicedesk/internal/infrastructure/worker"
	httpapi "github.com/isf/servicedesk/internal/interfaces/http"
	"github.com/isf/servicedesk/migrations"
	"github.com/isf/servicedesk/pkg/database"
	"github.com/isf/servicedesk/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// SessionStoreBundle holds the session record store and, for the redis
// backend, the client that must be closed with it.
type SessionStoreBundle struct {
	Store port.KVStore
	Redis *redis.Client
}

// AuthBundle holds the login directory and the session token service.
type AuthBundle struct {
	Directory *auth.Directory
	Tokens    *auth.TokenService
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &RepositoryBundle{
		Request: repository.NewRequestRepository(sqlDB, logger),
	}, nil
}

// ProvideSessionStore creates the session record store for the configured backend.
func ProvideSessionStore(cfg *SessionConfig, sqlDB *sql.DB, logger *zap.Logger) (*SessionStoreBundle, error) {
	switch cfg.Backend {
	case "", "sqlite":
		logger.Info("Using SQLite session store", zap.Duration("ttl", cfg.TTL))
		return &SessionStoreBundle{
			Store: repository.NewKVRepository(sqlDB, cfg.TTL, logger),
		}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := redisstore.NewKVStore(client, cfg.RedisPrefix, cfg.TTL)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		logger.Info("Using Redis session store",
			zap.String("addr", cfg.RedisAddr),
			zap.Duration("ttl", cfg.TTL))
		return &SessionStoreBundle{Store: store, Redis: client}, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

// ProvideAuth builds the account directory and token service.
func ProvideAuth(cfg *AuthConfig, logger *zap.Logger) (*AuthBundle, error) {
	accounts := make([]auth.Account, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accounts = append(accounts, auth.Account{
			Username:     a.Username,
			Password:     a.Password,
			PasswordHash: a.PasswordHash,
			Role:         entity.Role(a.Role),
			FullName:     a.FullName,
			Badge:        a.Badge,
			Unit:         a.Unit,
			Location:     a.Location,
		})
	}

	directory, err := auth.NewDirectory(accounts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build account directory: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	return &AuthBundle{Directory: directory, Tokens: tokens}, nil
}

// ProvideWorkflowGateway creates the engine client and gateway.
func ProvideWorkflowGateway(cfg *EngineConfig, logger *zap.Logger) (port.WorkflowGateway, error) {
	engineCfg := engine.Config{
		BaseURL:        cfg.BaseURL,
		RequestTimeout: cfg.RequestTimeout,
		RetryInterval:  cfg.RetryInterval,
	}
	if cfg.MaxRetries > 0 {
		engineCfg.MaxRetries = uint64(cfg.MaxRetries)
	}
	if cfg.ClientID != "" {
		engineCfg.OAuth = &engine.OAuthConfig{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Audience:     cfg.Audience,
			Scopes:       cfg.Scopes,
		}
	}

	client, err := engine.NewClient(engineCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine client: %w", err)
	}

	logger.Info("Workflow engine client created",
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("oauth", engineCfg.OAuth != nil))

	return engine.NewGateway(client, engineCfg, logger), nil
}

// ServiceDeps holds dependencies for creating application services.
type ServiceDeps struct {
	Repos        *RepositoryBundle
	TxManager    port.TransactionManager
	SessionStore port.KVStore
	Auth         *AuthBundle
	Gateway      port.WorkflowGateway
	Engine       *EngineConfig
	Logger       *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}

	logAdapter := &zapLoggerAdapter{logger: deps.Logger}
	requestRepo := deps.Repos.Request

	return &ServiceBundle{
		Session: service.NewSessionService(
			deps.SessionStore,
			deps.Auth.Directory,
			deps.Auth.Tokens,
			logAdapter,
		),
		Request: service.NewRequestService(
			requestRepo,
			deps.Gateway,
			deps.TxManager,
			utils.NewValidator(),
			service.RequestConfig{
				ProcessDefinitionID: deps.Engine.ProcessDefinitionID,
				ManagerID:           deps.Engine.ManagerID,
				RequestType:         deps.Engine.RequestType,
			},
			logAdapter,
		),
		Approval: service.NewApprovalService(requestRepo, deps.Gateway, deps.TxManager, logAdapter),
		Inbox:    service.NewInboxService(requestRepo, deps.Gateway, logAdapter),
		Export:   service.NewExportService(requestRepo, export.NewXLSXExporter(deps.Logger), logAdapter),
	}, nil
}

// WorkerDeps holds dependencies for creating workers.
type WorkerDeps struct {
	Refresher worker.Refresher
	WorkerCfg *WorkerConfig
	Logger    *zap.Logger
}

// ProvideWorkers creates and registers all background workers.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}

	manager := worker.NewWorkerManager(deps.Logger)

	if deps.WorkerCfg.SyncEnabled {
		manager.Register(worker.NewTaskSyncer(worker.TaskSyncerConfig{
			Interval:     deps.WorkerCfg.SyncInterval,
			BatchSize:    deps.WorkerCfg.SyncBatchSize,
			RoundTimeout: deps.WorkerCfg.SyncRoundTimeout,
		}, deps.Refresher, deps.Logger))
	} else {
		deps.Logger.Info("Task syncer disabled")
	}

	return manager, nil
}

// ProvideHTTPServer creates the API server over the application services.
func ProvideHTTPServer(cfg *ServerConfig, sessionTTL time.Duration, services *ServiceBundle, logger *zap.Logger) *httpapi.Server {
	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	if cfg.ReadTimeout > 0 {
		serverCfg.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		serverCfg.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.CookieName != "" {
		serverCfg.CookieName = cfg.CookieName
	}
	serverCfg.CookieSecure = cfg.CookieSecure
	if sessionTTL > 0 {
		serverCfg.SessionTTL = sessionTTL
	}

	return httpapi.NewServer(serverCfg, httpapi.Services{
		Session:  services.Session,
		Request:  services.Request,
		Approval: services.Approval,
		Inbox:    services.Inbox,
		Export:   services.Export,
	}, &zapLoggerAdapter{logger: logger})
}
