package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"keto-planner/internal/form"
	"keto-planner/internal/planner"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMetrics(c *gin.Context) {
	report, err := s.app.MetricsReport(c.Request.Context())
	if err != nil {
		s.log.Error("Failed to build metrics report", "error", err)
		c.String(http.StatusInternalServerError, "metrics unavailable")
		return
	}
	c.String(http.StatusOK, report)
}

func (s *Server) handleAPIGenerate(c *gin.Context) {
	var answers form.Answers
	if err := c.ShouldBindJSON(&answers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}

	out, err := s.app.GenerateFromAnswers(c.Request.Context(), answers, userID(c))
	var ve form.ValidationErrors
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": ve.Error(), "fields": ve})
		return
	case errors.Is(err, planner.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	case err != nil:
		s.log.Error("API generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	res := out.Generation.Result
	body := gin.H{
		"success": true,
		"status":  res.Status,
		"plan":    res.Plan,
		"raw":     res.Raw,
	}
	if out.PlanID != "" {
		body["planId"] = out.PlanID
	}
	c.JSON(http.StatusOK, body)
}
