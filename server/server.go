package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/server/middleware"
	"github.com/kbukum/pipeflow/util"
)

// Server is the HTTP front of the calculator: a Gin engine behind the
// server-level middleware chain, served over HTTP/1.1 and h2c.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    http.Handler
	listener   net.Listener
	config     Config
	log        *logger.Logger
}

// New creates a Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	s := &Server{
		engine:  engine,
		handler: engine,
		config:  cfg,
		log:     log.WithComponent("server"),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

// Handler returns the engine wrapped in the server-level middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.config
}

// ApplyMiddleware wraps every route in recovery, request-ID, body-size
// limit and request logging, outermost first.
func (s *Server) ApplyMiddleware() {
	chain := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.RequestID(),
	}
	if s.config.MaxBodySize != "" {
		chain = append(chain, middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	chain = append(chain, middleware.RequestLogger(s.log))
	s.handler = middleware.Chain(chain...)(s.engine)
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(s.config.IdleTimeout) * time.Second,
	}
	s.httpServer.Handler = h2c.NewHandler(s.handler, h2s)
	// In-flight requests outlive ctx so that Stop can drain them.
	base := context.WithoutCancel(ctx)
	s.httpServer.BaseContext = func(net.Listener) context.Context { return base }

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields(
		"addr", s.Addr(),
		"max_body", util.FormatSize(util.ParseSize(s.config.MaxBodySize, 0)),
		"max_rows", s.config.MaxRows,
	))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	start := time.Now()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server shut down successfully", logger.DurationFields("shutdown", time.Since(start)))
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
