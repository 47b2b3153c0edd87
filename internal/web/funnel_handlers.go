package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"keto-planner/internal/form"
	"keto-planner/internal/planner"
	"keto-planner/internal/render"
	"keto-planner/internal/session"
)

func (s *Server) handleStep(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := s.app.LoadState(ctx, sessionID(c))
	if err != nil {
		s.renderError(c, err)
		return
	}

	if raw := c.Query("step"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr == nil {
			if next, err := s.app.GoTo(ctx, sessionID(c), form.Step(n)); err == nil {
				st = next
			}
		}
	}
	s.renderStep(c, http.StatusOK, st, st.Answers, nil, "")
}

func (s *Server) handleSubmitStep(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}
	input := answersFromForm(c.Request.PostForm)

	st, err := s.app.SubmitStep(c.Request.Context(), sessionID(c), input)
	var ve form.ValidationErrors
	switch {
	case errors.As(err, &ve):
		s.renderStep(c, http.StatusUnprocessableEntity, st, input, ve, "")
		return
	case errors.Is(err, form.ErrTerminal):
		c.Redirect(http.StatusSeeOther, "/start-plan")
		return
	case err != nil:
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/start-plan")
}

func (s *Server) handleBack(c *gin.Context) {
	if _, err := s.app.Back(c.Request.Context(), sessionID(c)); err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/start-plan")
}

func (s *Server) handleReset(c *gin.Context) {
	if _, err := s.app.Reset(c.Request.Context(), sessionID(c)); err != nil {
		s.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/start-plan")
}

func (s *Server) handleGenerate(c *gin.Context) {
	ctx := c.Request.Context()
	_, err := s.app.Generate(ctx, sessionID(c), userID(c))
	if err == nil {
		c.Redirect(http.StatusSeeOther, "/results")
		return
	}

	st, loadErr := s.app.LoadState(ctx, sessionID(c))
	if loadErr != nil {
		s.renderError(c, loadErr)
		return
	}

	var ve form.ValidationErrors
	switch {
	case errors.As(err, &ve):
		s.renderStep(c, http.StatusUnprocessableEntity, st, st.Answers, ve, "Some answers are missing or invalid. Please review them.")
	case errors.Is(err, planner.ErrUpstream):
		s.renderStep(c, http.StatusBadGateway, st, st.Answers, nil, "We could not generate your plan right now. Please try again.")
	default:
		s.renderError(c, err)
	}
}

func (s *Server) handleResults(c *gin.Context) {
	g, err := s.app.CachedPlan(c.Request.Context(), sessionID(c))
	if errors.Is(err, session.ErrNotFound) {
		c.Redirect(http.StatusFound, "/start-plan")
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderPlan(c, g.Result, "/results", "Your Keto Plan")
}

func (s *Server) renderPlan(c *gin.Context, res planner.Result, base, title string) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	c.HTML(http.StatusOK, "results.html", gin.H{
		"Title":    title,
		"View":     render.HTML(res, page),
		"Base":     base,
		"SignedIn": userID(c) != "",
	})
}

func (s *Server) renderStep(c *gin.Context, status int, st form.State, shown form.Answers, errs form.ValidationErrors, message string) {
	p := newStepPage(st, shown)
	p.Errors = errs
	p.Message = message
	p.SignedIn = userID(c) != ""
	c.HTML(status, "step.html", p)
}
