package logger

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new logger instance based on configuration.
func New(serviceName, environment, logLevel, logFormat string) (*zap.Logger, error) {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	// Set log level
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(level)

	// Set encoding
	if logFormat == "json" {
		config.Encoding = "json"
	} else {
		config.Encoding = "console"
	}

	// Add service name to all logs
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     environment,
	}

	// Configure output paths
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	// Add caller info
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.StacktraceKey = "stacktrace"

	// Use ISO8601 time format
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Build logger
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	// Add hostname if available
	if hostname, err := os.Hostname(); err == nil {
		logger = logger.With(zap.String("hostname", hostname))
	}

	return logger, nil
}

// WithAsset creates a logger carrying the asset id so every pipeline log
// line is queryable by it.
func WithAsset(logger *zap.Logger, assetID uuid.UUID) *zap.Logger {
	return logger.With(zap.String("asset_id", assetID.String()))
}
