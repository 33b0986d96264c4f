// Package logger provides a structured logging interface for the scraper.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with
// support for multiple log levels, structured fields, pretty console output
// on stderr and optional file output, plus a global logger instance.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	err := logger.Initialize(cfg)
//
//	log := logger.GetLogger()
//	log.WithField("volume", "45").Info("crawling volume")
//	log.InfoWithFields("page fetched", map[string]interface{}{
//		"volume": "45",
//		"page":   "12",
//	})
package logger
