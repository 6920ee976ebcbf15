package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/observability"
	"github.com/kbukum/pipeflow/resilience"
	"github.com/kbukum/pipeflow/server/endpoint"
	"github.com/kbukum/pipeflow/server/middleware"
)

// RegisterDefaultEndpoints registers /health, /version and the JSON 404.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checkers ...observability.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checkers...))
	s.engine.GET("/version", endpoint.Version(serviceName))
	s.engine.NoRoute(endpoint.NotFound())
}

// RegisterCalculator registers the compute API under /v1. Compute requests
// pass the per-client rate limit, when configured, and then the concurrency
// limit.
func (s *Server) RegisterCalculator(calc *flow.Calculator, serviceName string, metrics *observability.Metrics) {
	v1 := s.engine.Group("/v1")

	limits := s.config.Limits
	var admission []gin.HandlerFunc
	if limits.RequestsPerSecond > 0 {
		rl := resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{
			Rate:  limits.RequestsPerSecond,
			Burst: limits.Burst,
		}, 0)
		admission = append(admission, middleware.RateLimit(rl, nil))
	}
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "compute",
		MaxConcurrent: limits.MaxConcurrent,
		MaxWait:       time.Duration(limits.QueueTimeout) * time.Millisecond,
		OnReject: func(name string) {
			s.log.Warn("compute slot unavailable", logger.Fields(logger.FieldComponent, name))
		},
	})
	admission = append(admission, middleware.Concurrency(bh))

	v1.POST("/compute", append(admission, endpoint.Compute(calc, endpoint.ComputeConfig{
		Service: serviceName,
		MaxRows: s.config.MaxRows,
		Metrics: metrics,
		Log:     s.log,
	}))...)
	v1.GET("/stages", endpoint.Stages(calc))
}

// ApplyDefaults applies the middleware stack and registers every endpoint
// for calc, which also serves as the health checker.
func (s *Server) ApplyDefaults(serviceName string, calc *flow.Calculator, metrics *observability.Metrics) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(serviceName, calc)
	s.RegisterCalculator(calc, serviceName, metrics)
}
