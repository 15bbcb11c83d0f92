// Package logger builds the zap loggers used across the record manager.
//
// New returns a production logger with JSON output or, at debug
// level, a development one. Console encoding colours levels and drops
// stack traces.
//
// Requests are tagged by the rayid middleware; WithRayID copies that id onto
// a logger so every line written while serving a request can be correlated.
//
// # Usage
//
//	log, err := logger.New(&logger.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	log.Info("Server started")
//
//	// In a handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Window failed", zap.Error(err))
package logger
