package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"keto-planner/internal/auth"
	"keto-planner/internal/session"
)

const (
	ctxSessionID = "sessionID"
	ctxUserID    = "userID"
)

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// sessionMiddleware assigns every visitor a funnel session id.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = session.NewID()
			s.setCookie(c, SessionCookie, id, sessionCookieMaxAge)
		}
		c.Set(ctxSessionID, id)
		c.Next()
	}
}

// authMiddleware identifies signed-in users. Anonymous requests pass through.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(auth.CookieName); err == nil && token != "" {
			if id, err := s.tokens.Parse(token); err == nil {
				c.Set(ctxUserID, id)
			} else {
				s.setCookie(c, auth.CookieName, "", -1)
			}
		}
		c.Next()
	}
}

// requireUser redirects anonymous visitors to the login page.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID(c) == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) setCookie(c *gin.Context, name, value string, maxAge time.Duration) {
	seconds := int(maxAge.Seconds())
	if maxAge < 0 {
		seconds = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, seconds, "/", "", s.cookieSecure, true)
}

func sessionID(c *gin.Context) string { return c.GetString(ctxSessionID) }

func userID(c *gin.Context) string { return c.GetString(ctxUserID) }
