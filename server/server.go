package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/server/endpoint"
	"github.com/kbukum/licensing/server/middleware"
)

// Server is an HTTP server backed by Gin, mounted on a ServeMux so other
// http.Handlers can share the port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	h2s        *http2.Server
	config     Config
	log        *logger.Logger
}

// New creates a Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h2c.NewHandler(mux, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		h2s:        h2s,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler including the middleware stack.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", logger.Fields("pattern", pattern))
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Server error")
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("Server shutdown error")
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ApplyMiddleware wraps the root mux with the standard stack. Extra
// middleware runs inside panic recovery and the user context, ahead of
// request logging:
//
//	Recovery -> UserContext -> extra... -> RequestLogger -> CORS -> BodySizeLimit
func (s *Server) ApplyMiddleware(extra ...middleware.Middleware) {
	stack := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.UserContext(),
	}
	stack = append(stack, extra...)
	stack = append(stack,
		middleware.RequestLogger(s.log),
		middleware.CORS(s.config.CORS),
	)
	if s.config.MaxBodySize != "" {
		stack = append(stack, middleware.BodySizeLimit(s.config.MaxBodySize))
	}

	s.httpServer.Handler = h2c.NewHandler(middleware.Chain(stack...)(s.mux), s.h2s)
}

// RegisterDefaultEndpoints registers /health, /info, /metrics and the
// /alive and /ready checks.
func (s *Server) RegisterDefaultEndpoints(serviceName, version string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName, version))
	s.engine.GET("/metrics", endpoint.Metrics())
	s.engine.GET("/alive", endpoint.Liveness(serviceName))
	s.engine.GET("/ready", endpoint.Readiness(serviceName, checker))
}
