// Package logging provides structured logging for Atrium Core.
//
// It is a thin layer over log/slog: JSON output for production, text
// for development, level filtering, and service/version fields stamped
// on every record. Configuration comes from the logging section of
// config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//	logger.Error("failed to connect", "error", err)
//
// Never log secrets, tokens, or API keys. Entry-event payloads may name
// people; log identifiers, not whole payloads, at info level and above.
package logging
