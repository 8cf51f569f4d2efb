package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"sempgateway/internal/web/api"
	"sempgateway/internal/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebServer serves the management API.
type WebServer struct {
	router *gin.Engine
	logger zerolog.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// Option configures optional routes.
type Option func(r *gin.RouterGroup, reg api.Registry, logger zerolog.Logger)

// WithHistory mounts the recommendation history route.
func WithHistory(h api.HistoryStore) Option {
	return func(r *gin.RouterGroup, reg api.Registry, logger zerolog.Logger) {
		api.RegisterHistoryRoutes(r, reg, h, logger)
	}
}

func NewWebServer(reg api.Registry, logger zerolog.Logger, opts ...Option) *WebServer {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	r := router.Group("/api")
	api.RegisterDeviceRoutes(r, reg, logger)
	api.RegisterPlanningRoutes(r, reg)
	api.RegisterHookRoutes(r, reg)
	api.RegisterPowerRoutes(r, reg)
	for _, opt := range opts {
		opt(r, reg, logger)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.Response{Status: http.StatusNotFound, Message: "Route not found"})
	})

	return &WebServer{router: router, logger: logger}
}

// Handler exposes the router, mainly for tests and the remote access bridge.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

func (ws *WebServer) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ws.mu.Lock()
	ws.httpServer = srv
	ws.mu.Unlock()

	ws.logger.Info().Str("addr", addr).Msg("REST API server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (ws *WebServer) Stop(ctx context.Context) error {
	ws.mu.Lock()
	srv := ws.httpServer
	ws.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
