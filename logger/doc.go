// Package logger provides structured logging for the dispatch service
// using zerolog.
//
// It supports JSON and console output formats, log level configuration,
// and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("dispatcher")
//	log.Error("completion attempt failed", logger.Fields("attempt", 2, "error", err))
package logger
