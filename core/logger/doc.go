// Package logger provides structured logging helpers built on log/slog.
//
// New builds a *slog.Logger from functional options:
//
//	log := logger.New(logger.WithDevelopment("ssrserver"))        // text, debug level
//	log := logger.New(logger.WithProduction("ssrserver"))         // JSON, info level
//	log := logger.New(logger.WithLevel(slog.LevelWarn), logger.WithOutput(os.Stderr))
//
// Attribute helpers return an empty slog.Attr for zero inputs, so calls such as
// log.Error("render failed", logger.Error(err)) need no nil checks; slog drops
// empty attributes.
package logger
