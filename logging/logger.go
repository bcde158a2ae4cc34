package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON SugaredLogger. "production" logs at info level,
// anything else at debug level.
func New(appEnv string) (*zap.SugaredLogger, error) {
	var config zap.Config

	if appEnv == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Encoding = "json"

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Sugar(), nil
}

// WithRequest returns a logger carrying request context fields.
func WithRequest(log *zap.SugaredLogger, requestID, endpoint string) *zap.SugaredLogger {
	return log.With(
		"request_id", requestID,
		"endpoint", endpoint,
	)
}
