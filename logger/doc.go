// Package logger provides structured logging for aggkit using zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers, and injectable writers so callers can route builder advisories
// wherever they like.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("aggregate")
//	log.Warn("facet sub-pipelines are not validated", logger.Fields("stage", "facet"))
package logger
