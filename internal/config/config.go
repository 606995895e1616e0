// Package config loads process configuration for the shuffler demo the
// same way the teacher's cmd/mediaserver/cmd/main.go does: godotenv for a
// local .env file, then plain struct fields with defaults — no bespoke
// config framework.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the demo binary's process configuration.
type Config struct {
	Port        int
	WorkerHosts []string // HOST:PORT strings for every cooperating worker
	Seed        int64
	SketchSize  int
}

// Load reads .env (if present; a missing file is not an error, matching
// godotenv's own semantics when called with no explicit requirement) and
// overlays process environment variables on top of defaults.
func Load() (Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is normal outside dev

	cfg := Config{
		Port:       9000,
		Seed:       42,
		SketchSize: 256,
	}

	if v, ok := os.LookupEnv("FLOWSHARD_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v, ok := os.LookupEnv("FLOWSHARD_SEED"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v, ok := os.LookupEnv("FLOWSHARD_SKETCH_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SketchSize = n
		}
	}

	return cfg, nil
}
