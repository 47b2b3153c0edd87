// Package web serves the questionnaire funnel, plan pages, accounts and the
// JSON API over gin.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"keto-planner/internal/app"
	"keto-planner/internal/auth"
	"keto-planner/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionCookie carries the anonymous funnel session id.
const SessionCookie = "keto_session"

const sessionCookieMaxAge = 30 * 24 * time.Hour

// Server wires HTTP handlers to the funnel.
type Server struct {
	app          *app.App
	users        *auth.Users
	tokens       *auth.Tokens
	log          *logger.Logger
	cookieSecure bool
	templates    *template.Template
}

// NewServer creates a Server.
func NewServer(a *app.App, users *auth.Users, tokens *auth.Tokens, cookieSecure bool, log *logger.Logger) *Server {
	return &Server{
		app:          a,
		users:        users,
		tokens:       tokens,
		log:          log,
		cookieSecure: cookieSecure,
		templates:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.sessionMiddleware(), s.authMiddleware())
	r.SetHTMLTemplate(s.templates)

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/start-plan") })

	r.GET("/start-plan", s.handleStep)
	r.POST("/start-plan", s.handleSubmitStep)
	r.POST("/start-plan/back", s.handleBack)
	r.POST("/start-plan/reset", s.handleReset)
	r.POST("/generate", s.handleGenerate)
	r.GET("/results", s.handleResults)

	r.GET("/login", s.handleLoginPage)
	r.POST("/login", s.handleLogin)
	r.POST("/register", s.handleRegister)
	r.POST("/auth/signout", s.handleSignOut)

	member := r.Group("/")
	member.Use(requireUser())
	{
		member.GET("/dashboard", s.handleDashboard)
		member.GET("/plan/:id", s.handlePlan)
	}

	api := r.Group("/api")
	{
		api.POST("/generate-plan", s.handleAPIGenerate)
	}

	r.NoRoute(func(c *gin.Context) {
		s.renderNotFound(c)
	})
	return r
}

func (s *Server) renderNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "error.html", gin.H{
		"Title":    "Not found",
		"Message":  "The page you are looking for does not exist.",
		"SignedIn": userID(c) != "",
	})
}

func (s *Server) renderError(c *gin.Context, err error) {
	s.log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":    "Something went wrong",
		"Message":  "Please try again in a moment.",
		"SignedIn": userID(c) != "",
	})
}
