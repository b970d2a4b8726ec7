// Package http exposes the portal over a JSON API.
// Handlers translate HTTP requests into application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isf/servicedesk/internal/application/service"
	"github.com/isf/servicedesk/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		CookieName:   "servicedesk_session",
		SessionTTL:   12 * time.Hour,
	}
}

// Services bundles the application services the API serves
type Services struct {
	Session  service.SessionService
	Request  service.RequestService
	Approval service.ApprovalService
	Inbox    service.InboxService
	Export   service.ExportService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.CookieName == "" {
		config.CookieName = DefaultServerConfig().CookieName
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.sessionMiddleware())
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.config, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/switch", h.SwitchUser)
		auth.GET("/me", requireRoles(), h.Me)

		api.GET("/navigation", h.Navigation)

		requesters := []entity.Role{entity.RoleOfficer, entity.RoleSupervisor}
		api.GET("/catalog", requireRoles(requesters...), h.Catalog)

		requests := api.Group("/requests", requireRoles())
		requests.POST("/phone", requireRoles(requesters...), h.SubmitPhoneRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/counts", h.RequestCounts)
		requests.GET("/:id", h.GetRequest)

		deciders := []entity.Role{entity.RoleSupervisor, entity.RoleAdmin, entity.RoleTechApprover}
		approvals := api.Group("/approvals", requireRoles(deciders...))
		approvals.GET("", h.Inbox)
		approvals.GET("/counts", h.InboxCounts)
		approvals.POST("/:taskKey/approve", h.Approve)
		approvals.POST("/:taskKey/reject", h.Reject)

		admin := api.Group("/admin", requireRoles(entity.RoleAdmin))
		admin.GET("/requests", h.AdminRequests)
		admin.GET("/requests/export", h.ExportRequests)
	}
}

// Start serves until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
