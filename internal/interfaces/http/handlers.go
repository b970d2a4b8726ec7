package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	config   ServerConfig
	logger   Logger
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, config ServerConfig, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ok(c, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// MeResponse describes the session user and their portal shell
type MeResponse struct {
	User       *entity.User      `json:"user"`
	Descriptor access.Descriptor `json:"descriptor"`
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := h.services.Session.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, "Login", err)
		return
	}

	h.setSessionCookie(c, session.Token, int(h.config.SessionTTL.Seconds()))
	ok(c, session)
}

// Logout handles POST /api/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.services.Session.Logout(c.Request.Context(), currentSessionID(c)); err != nil {
		h.respondError(c, "Logout", err)
		return
	}
	h.setSessionCookie(c, "", -1)
	ok(c, gin.H{"redirect": access.PublicPath})
}

// SwitchUser handles POST /api/auth/switch
func (h *Handlers) SwitchUser(c *gin.Context) {
	if err := h.services.Session.SwitchUser(c.Request.Context(), currentSessionID(c)); err != nil {
		h.respondError(c, "Switch user", err)
		return
	}
	h.setSessionCookie(c, "", -1)
	ok(c, gin.H{"redirect": access.PublicPath})
}

// Me handles GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user := currentUser(c)
	ok(c, MeResponse{User: user, Descriptor: access.DescriptorFor(user.Role)})
}

// NavigationResponse is the routing verdict for one portal path
type NavigationResponse struct {
	Outcome     access.Outcome     `json:"outcome"`
	Path        string             `json:"path"`
	Target      string             `json:"target,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	LayoutRole  entity.Role        `json:"layoutRole,omitempty"`
	ShowSidebar bool               `json:"showSidebar"`
	Descriptor  *access.Descriptor `json:"descriptor,omitempty"`
}

// Navigation handles GET /api/navigation?path=
func (h *Handlers) Navigation(c *gin.Context) {
	path := c.DefaultQuery("path", access.PublicPath)
	user := currentUser(c)
	decision := access.Decide(user, path)

	resp := NavigationResponse{
		Outcome: decision.Outcome,
		Path:    decision.Path,
		Target:  decision.Target,
		Reason:  decision.ReasonText(),
	}

	// layout shown while a redirect settles; never an access grant
	if role, found := access.RoleFromPath(path); found {
		resp.LayoutRole = role
	}
	if user != nil {
		resp.LayoutRole = user.Role
		desc := access.DescriptorFor(user.Role)
		desc.Nav = access.NavItems(user.Role, path)
		resp.Descriptor = &desc
	}
	resp.ShowSidebar = access.ShowSidebar(resp.LayoutRole, path)

	ok(c, resp)
}

// Catalog handles GET /api/catalog
func (h *Handlers) Catalog(c *gin.Context) {
	ok(c, entity.Catalog())
}

func (h *Handlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.config.CookieName, value, maxAge, "/", "", h.config.CookieSecure, true)
}
