package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
)

const (
	ctxSessionID = "session_id"
	ctxUser      = "user"
)

// loggingMiddleware logs one line per request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// sessionMiddleware resolves the session handle from the Authorization header
// or the session cookie. Requests without a valid session continue anonymously.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(s.config.CookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.Next()
			return
		}

		sessionID, user, err := s.services.Session.Resolve(c.Request.Context(), token)
		if err != nil {
			s.logger.Error("Failed to resolve session", "error", err)
			fail(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if user != nil {
			c.Set(ctxSessionID, sessionID)
			c.Set(ctxUser, user)
		}
		c.Next()
	}
}

// requireRoles rejects anonymous callers with 401 and other roles with 403
func requireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			fail(c, http.StatusUnauthorized, access.ErrAuthRequired.Error())
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, access.ErrRoleForbidden.Error())
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func currentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(ctxUser); ok {
		if user, ok := v.(*entity.User); ok {
			return user
		}
	}
	return nil
}

func currentSessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
