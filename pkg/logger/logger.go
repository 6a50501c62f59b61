package logger

import (
	"log"

	"go.uber.org/zap"
)

// New builds a zap logger for the given environment. Local and development
// environments get a human-readable console logger at debug level, everything
// else gets the JSON production logger.
func New(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "local", "development", "dev":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}

	return logger
}
