package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"keto-planner/internal/auth"
	"keto-planner/internal/form"
	"keto-planner/internal/planner"
)

func (s *Server) handleLoginPage(c *gin.Context) {
	if userID(c) != "" {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{"Title": "Sign in"})
}

func (s *Server) handleLogin(c *gin.Context) {
	email, password := c.PostForm("email"), c.PostForm("password")
	user, err := s.users.Authenticate(c.Request.Context(), email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Title": "Sign in", "Error": err.Error(), "Email": email})
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.signIn(c, user.ID)
}

func (s *Server) handleRegister(c *gin.Context) {
	email, password := c.PostForm("email"), c.PostForm("password")
	user, err := s.users.Register(c.Request.Context(), email, password)
	switch {
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		c.HTML(http.StatusUnprocessableEntity, "login.html", gin.H{"Title": "Sign in", "RegisterError": err.Error(), "Email": email})
		return
	case err != nil:
		s.renderError(c, err)
		return
	}
	s.log.Info("User registered", "user", user.ID)
	s.signIn(c, user.ID)
}

func (s *Server) signIn(c *gin.Context, id string) {
	token, err := s.tokens.Issue(id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.setCookie(c, auth.CookieName, token, s.tokens.TTL())
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) handleSignOut(c *gin.Context) {
	s.setCookie(c, auth.CookieName, "", -1)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleDashboard(c *gin.Context) {
	d, err := s.app.Dashboard(c.Request.Context(), userID(c))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		// Token for an account that no longer exists.
		s.setCookie(c, auth.CookieName, "", -1)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}

	var rows []form.Row
	if d.Profile != nil {
		rows = form.Describe(*d.Profile)
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":    "Dashboard",
		"Email":    d.User.Email,
		"Plans":    d.Plans,
		"Profile":  rows,
		"Error":    c.Query("error"),
		"SignedIn": true,
	})
}

func (s *Server) handlePlan(c *gin.Context) {
	id := c.Param("id")
	p, err := s.app.ViewPlan(c.Request.Context(), id, userID(c))
	switch {
	case errors.Is(err, planner.ErrPlanNotFound):
		s.renderNotFound(c)
		return
	case errors.Is(err, planner.ErrForbidden):
		s.log.Warn("Plan access denied", "plan", id, "user", userID(c))
		c.Redirect(http.StatusFound, "/dashboard?"+url.Values{"error": {"Access Denied"}}.Encode())
		return
	case err != nil:
		s.renderError(c, err)
		return
	}
	s.renderPlan(c, p.Result(), "/plan/"+url.PathEscape(p.ID), "Plan from "+p.CreatedAt.Format("Jan 2, 2006"))
}
