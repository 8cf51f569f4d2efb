package semp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"sempgateway/internal/models"
	"sempgateway/internal/registry"
	"sempgateway/internal/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DeviceStore is the part of the registry the SEMP listener needs.
type DeviceStore interface {
	GetAll() []models.Device
	ApplyControl(directive models.ControlDirective) error
}

// maxControlBody bounds an EM2Device request body.
const maxControlBody = 64 << 10

// Server answers the energy manager.
type Server struct {
	router      *gin.Engine
	mu          sync.Mutex
	httpServer  *http.Server
	store       DeviceStore
	description []byte
	logger      zerolog.Logger
}

// NewServer builds the SEMP routes on a fresh gin engine.
func NewServer(store DeviceStore, desc Description, logger zerolog.Logger) (*Server, error) {
	rendered, err := desc.Render()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	s := &Server{
		router:      router,
		store:       store,
		description: rendered,
		logger:      logger,
	}
	s.registerRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/description.xml", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/xml; charset=utf-8", s.description)
	})

	s.router.GET("/semp/", s.handleGetDevices)
	s.router.POST("/semp/", s.handleControl)

	s.router.NoRoute(func(c *gin.Context) {
		s.logger.Debug().Str("path", c.Request.URL.String()).Msg("unmatched url")
		c.Status(http.StatusOK)
	})
}

func (s *Server) handleGetDevices(c *gin.Context) {
	devices := s.store.GetAll()
	s.logger.Debug().Int("devices", len(devices)).Msg("energy manager requested all devices")

	var buf bytes.Buffer
	if err := Encode(&buf, ToWireDocument(devices)); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode device document")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", buf.Bytes())
}

func (s *Server) handleControl(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxControlBody)
	directive, err := DecodeControlMessage(body)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejected control message")
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.ApplyControl(directive); err != nil {
		if errors.Is(err, registry.ErrDeviceNotFound) {
			s.logger.Warn().Str("device_id", directive.DeviceID).Msg("control message for unknown device")
			c.String(http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("device_id", directive.DeviceID).Msg("failed to apply control message")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

// Start listens on addr until Stop is called.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", addr).Msg("SEMP server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
