// Package telemetry wires up the module's structured logger. It plays the
// role the teacher's setupLogging (cmd/mediaserver/cmd/main.go) plays for
// plain log.Logger, but built on zap for leveled, structured logging.
package telemetry

import "go.uber.org/zap"

// New builds a production zap.Logger writing to stderr. Callers that don't
// care about logging can pass zap.NewNop() to any component instead.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// NewDevelopment builds a human-readable logger, useful for the demo
// binary and for tests that want visible output.
func NewDevelopment() (*zap.Logger, error) {
	return zap.NewDevelopment()
}
