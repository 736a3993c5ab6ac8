package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/revlohq/revlo/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger based on configuration
func Setup(cfg *config.LoggingConfig, env string) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure time format
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Configure output based on format and environment
	var output io.Writer
	if cfg.Format == "json" || env == "production" {
		output = os.Stdout
	} else {
		// Pretty console output for development
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	// Set global logger
	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("service", "revlo").
		Logger()
}

// NewLogger creates a new logger with additional context
func NewLogger(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// RequestLogger is a Gin middleware for structured request logging
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		// Get request ID
		requestID, _ := c.Get("request_id")
		reqIDStr, _ := requestID.(string)

		// Build log event
		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		} else if c.Writer.Status() >= 400 {
			event = log.Warn()
		}

		// Log request details
		event.
			Str("request_id", reqIDStr).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", raw).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Int("body_size", c.Writer.Size()).
			Msg("HTTP request")
	}
}

// LogSend logs an outbound review-request email
func LogSend(requestID, ownerID, recipient string, sentRequestID string) {
	log.Info().
		Str("request_id", requestID).
		Str("owner_id", ownerID).
		Str("recipient", recipient).
		Str("sent_request_id", sentRequestID).
		Msg("Review request sent")
}

// LogClick logs a tracked click-through
func LogClick(token, destination string) {
	log.Info().
		Str("token", token).
		Str("destination", destination).
		Msg("Click tracked")
}

// LogSweep logs the outcome of a reminder sweep
func LogSweep(scope string, sent, failed, total int) {
	event := log.Info()
	if failed > 0 {
		event = log.Warn()
	}
	event.
		Str("scope", scope).
		Int("sent", sent).
		Int("failed", failed).
		Int("total", total).
		Msg("Reminder sweep completed")
}

// LogImport logs an external review import
func LogImport(ownerID, platform string, imported, total int) {
	log.Info().
		Str("owner_id", ownerID).
		Str("platform", platform).
		Int("imported", imported).
		Int("total", total).
		Msg("External reviews imported")
}

// LogError logs an error with context
func LogError(err error, requestID, component, operation string) {
	log.Error().
		Err(err).
		Str("request_id", requestID).
		Str("component", component).
		Str("operation", operation).
		Msg("Error occurred")
}

// SanitizeForLog removes sensitive data from strings for logging
func SanitizeForLog(data string, maxLen int) string {
	if len(data) > maxLen {
		return data[:maxLen] + "...[truncated]"
	}
	return data
}
