// Package logging provides structured logging for the command core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("command dispatched", "topic", topic)
//	logger.Error("publish failed", "error", err)
//
// Never log broker passwords or backend tokens.
package logging
