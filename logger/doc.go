// Package logger provides structured logging for repoauth using zerolog.
//
// Loggers are component-scoped and take structured fields as maps. Field
// values that implement zerolog.LogObjectMarshaler are logged through it,
// which is how credential types keep their secrets out of log output.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("httpclient")
//	log.Debug("request prepared", logger.Fields("auth_type", typ.Key()))
package logger
