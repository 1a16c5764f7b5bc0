// Package logger provides structured logging for the ingestion service.
//
// It wraps Uber's zap with a small, uniform API used across every package:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Info})
//
//	log.Info("router started", nil, map[string]interface{}{
//		"topics": []string{"raw-data", "processed-data"},
//	})
//	log.Error("failed to write row", err, nil)
//
// Every method takes the message, an optional error and any number of field maps.
// Packages that log declare their own narrow Logger interface with these methods, so
// tests can substitute a generated mock or a logger built on zaptest/observer via
// NewFromZap.
//
// Configuration:
//
//	LOGGER_LEVEL=debug              # debug, info, warning, error
//	LOGGER_SERVICE_NAME=ingest-eu1  # "service" field on every entry
//	LOGGER_ENCODING=console         # json (default) or console
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		// ... other modules
//	)
//
// All methods are safe for concurrent use.
package logger
