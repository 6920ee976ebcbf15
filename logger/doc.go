// Package logger provides structured logging for pipeflow using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg.Logging, "pipeflow").WithComponent("flow")
//	log.Info("run finished", logger.Fields(logger.FieldRunID, id, logger.FieldRows, 12))
package logger
