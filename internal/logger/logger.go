// Package logger builds the zap logger used across the quote host.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/straye-as/blind-quote/internal/config"
)

// NewLogger builds a JSON logger for the "json" format and for deployed
// environments, and a colored console logger otherwise. An unknown level
// falls back to info.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := baseConfig(cfg.Format, appCfg.Environment)
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	log, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func baseConfig(format, environment string) zap.Config {
	if format == "json" || environment == "production" || environment == "staging" {
		c := zap.NewProductionConfig()
		c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return c
	}
	c := zap.NewDevelopmentConfig()
	c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	c.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return c
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithSession adds the quote identity to logger
func WithSession(logger *zap.Logger, product, quoteID string) *zap.Logger {
	fields := []zap.Field{zap.String("product", product)}
	if quoteID != "" {
		fields = append(fields, zap.String("quote_id", quoteID))
	}
	return logger.With(fields...)
}
