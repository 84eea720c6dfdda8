package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"stageranker/internal/auth"
	"stageranker/internal/ranking"
	"stageranker/internal/storage/sqlite"
)

// Options configures optional parts of the server.
type Options struct {
	StaticDir string
	// RateLimit is the sustained number of write requests per second allowed per client IP.
	RateLimit rate.Limit
	RateBurst int
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	// TrustedProxies lists proxy addresses or CIDRs whose forwarding headers
	// decide the client IP. When empty the peer address is used as is.
	TrustedProxies []string
}

// Server provides HTTP handlers for the stage ranking backend.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	rankings  *ranking.Service
	tokens    *auth.Issuer
	logger    *slog.Logger
	metrics   *metrics
	limiter   *ipLimiter
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, tokens *auth.Issuer, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 30
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, ignoring forwarding headers", slog.String("error", err.Error()))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz", "/metrics"))

	srv := &Server{
		engine:    router,
		store:     store,
		rankings:  ranking.NewService(store, logger),
		tokens:    tokens,
		logger:    logger,
		metrics:   newMetrics(opts.Registry),
		limiter:   newIPLimiter(opts.RateLimit, opts.RateBurst),
		staticDir: opts.StaticDir,
	}

	router.Use(srv.requestID(), srv.metrics.middleware())
	srv.registerRoutes(opts.Registry)
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RunLimiterCleanup forgets idle rate limiter entries until ctx is done.
func (s *Server) RunLimiterCleanup(ctx context.Context) {
	s.limiter.cleanup(ctx, time.Minute, 3*time.Minute)
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.engine.GET("/metrics", gin.WrapH(metricsHandler(registry)))

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		authGroup := api.Group("/auth", s.limiter.middleware())
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
		}

		stages := api.Group("/stages", s.authenticate())
		{
			stages.GET("", s.handleListStages)
			stages.GET(":id", s.handleStageView)
			stages.POST(":id/ranking", s.limiter.middleware(), s.handleSubmitRanking)
			stages.PUT(":id/official-ranking", s.requireRole(), s.handleSetOfficialRanking)
			stages.DELETE(":id/official-ranking", s.requireRole(), s.handleClearOfficialRanking)
		}

		admin := api.Group("/admin", s.authenticate(), s.requireRole())
		{
			admin.POST("/stages", s.handleCreateStage)
			admin.PUT("/stages/:id", s.handleUpdateStage)
			admin.DELETE("/stages/:id", s.handleDeleteStage)
			admin.GET("/stages/:id/tasks", s.handleListTasks)
			admin.POST("/stages/:id/tasks", s.handleCreateTask)
			admin.GET("/stages/:id/rankings", s.handleListRankings)
			admin.PUT("/tasks/:id", s.handleUpdateTask)
			admin.DELETE("/tasks/:id", s.handleDeleteTask)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError returns a JSON error payload. Server side failures are logged
// in full and reported to the client without their details.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "internal error", "request_id": c.GetString(requestIDKey)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondStoreError maps store and service errors onto HTTP statuses.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		s.respondError(c, http.StatusNotFound, err)
	case errors.Is(err, ranking.ErrForbidden):
		s.respondError(c, http.StatusForbidden, err)
	case errors.Is(err, sqlite.ErrInvalid), errors.Is(err, ranking.ErrUnknownTask), errors.Is(err, ranking.ErrInvalidRank):
		s.respondError(c, http.StatusBadRequest, err)
	default:
		s.respondError(c, http.StatusInternalServerError, err)
	}
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
