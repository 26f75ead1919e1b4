// Package http exposes the placement hub over a gin REST API: suggestions and
// notifications for signed-in users, and an API-key protected internal surface
// for event triggers, review commands and sweep control.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/islandscholars/placement-hub/internal/domain/shared"
	"github.com/islandscholars/placement-hub/internal/interface/http/handlers"
)

// Config carries listener settings and the two credentials the middleware checks.
type Config struct {
	Host string
	Port int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	JWTSecret string
	// bcrypt hash of the internal API key
	InternalAPIKeyHash string

	// Debug keeps gin in debug mode.
	Debug bool
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the handlers call into.
type Dependencies struct {
	Students      handlers.StudentLookup
	Suggestions   handlers.SuggestionService
	Notifications handlers.NotificationService

	// Events receives trigger events posted by internal callers.
	Events shared.EventPublisher

	ReviewApplication handlers.ApplicationReviewer
	AssignSupervisor  handlers.SupervisorAssigner

	// Jobs is optional; without it the job endpoints are not mounted.
	Jobs handlers.JobRunner

	Health *handlers.HealthChecker
	Logger *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server owns the gin engine and the net/http server in front of it.
type Server struct {
	config     Config
	deps       Dependencies
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger

	serving atomic.Bool
}

// NewServer builds the engine and mounts every route. Nothing listens until Start.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = handlers.NewHealthChecker("placement-hub", "")
	}

	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: config,
		deps:   deps,
		engine: gin.New(),
		logger: deps.Logger.With("component", "http"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.engine,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	r := s.engine
	r.Use(handlers.RequestID(), handlers.RequestLogger(s.logger), handlers.Recovery())

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, "not_found", "route not found")
	})

	r.GET("/health", handlers.Health(s.deps.Health))

	api := r.Group("/api/v1")

	// ─────────────────────────────────────────────────────────────────────────
	// User endpoints (JWT)
	// ─────────────────────────────────────────────────────────────────────────
	user := api.Group("")
	user.Use(handlers.JWTAuth(s.config.JWTSecret))
	{
		user.GET("/suggestions/students/:studentId", handlers.GetSuggestions(s.deps.Students, s.deps.Suggestions))

		user.GET("/notifications", handlers.ListNotifications(s.deps.Notifications))
		user.PUT("/notifications/read-all", handlers.MarkAllNotificationsRead(s.deps.Notifications))
		user.PUT("/notifications/:id/read", handlers.MarkNotificationRead(s.deps.Notifications))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Internal endpoints (API key)
	// ─────────────────────────────────────────────────────────────────────────
	internal := api.Group("/internal")
	internal.Use(handlers.APIKeyAuth(s.config.InternalAPIKeyHash))
	{
		internal.POST("/events/application-created", handlers.ApplicationCreated(s.deps.Events))
		internal.POST("/events/application-status-changed", handlers.ApplicationStatusChanged(s.deps.Events))
		internal.POST("/events/supervisor-assigned", handlers.SupervisorAssigned(s.deps.Events))

		if s.deps.ReviewApplication != nil {
			internal.PUT("/applications/:id/status", handlers.ReviewApplication(s.deps.ReviewApplication))
		}
		if s.deps.AssignSupervisor != nil {
			internal.PUT("/students/:studentId/supervisor", handlers.AssignSupervisor(s.deps.AssignSupervisor))
		}

		if s.deps.Jobs != nil {
			internal.GET("/jobs", handlers.ListJobs(s.deps.Jobs))
			internal.GET("/jobs/metrics", handlers.JobMetrics(s.deps.Jobs))
			internal.POST("/jobs/:name/run", handlers.RunJob(s.deps.Jobs))
		}
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

var errAlreadyServing = errors.New("http: server already started")

// Start blocks serving requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	if !s.serving.CompareAndSwap(false, true) {
		return errAlreadyServing
	}

	s.logger.Info("HTTP server listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http: serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires. It is a no-op when
// the server never started.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.serving.CompareAndSwap(true, false) {
		return nil
	}
	s.logger.Info("HTTP server draining")
	return s.httpServer.Shutdown(ctx)
}
