package logging

import (
	"go.uber.org/zap"
)

// New creates a new zap logger for the given environment. "local" gets the example
// logger, "development" the development logger and everything else production.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		return zap.NewExample(), nil
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
