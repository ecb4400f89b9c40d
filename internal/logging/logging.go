package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger. Production config (JSON, info level) unless
// env is dev, which gets the human-readable console encoder at debug level.
func New(env string) (*zap.Logger, error) {
	var log *zap.Logger
	var err error

	if env == "dev" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return log.With(zap.String("env", env)), nil
}
