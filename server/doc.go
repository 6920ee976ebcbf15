// Package server exposes the calculator over HTTP using Gin, with h2c so
// HTTP/2 clients can connect without TLS.
//
// # Middleware
//
// Server-level middleware (server/middleware), applied around the engine:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into log context
//   - BodySizeLimit: request body size limit
//   - RequestLogger: request logging with status and duration
//
// # Endpoints
//
// Handlers (server/endpoint):
//
//   - POST /v1/compute: CSV trial table in, computed table out (JSON or CSV)
//   - GET /v1/stages: stage graph and physical parameters
//   - GET /health: calculator self-check
//   - GET /version: build version information
package server
