// Package config loads process configuration the way the teacher's
// main.go does — godotenv.Load() first — but parses it into a typed
// struct with caarlos0/env instead of scattering os.Getenv calls
// through main.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full set of environment-driven settings, per the
// configuration surface.
type Config struct {
	Port         string `env:"PORT" envDefault:"8000"`
	PubSubURL    string `env:"PUBSUB_URL"`
	JWTSecret    string `env:"JWT_SECRET"`
	PostgresDSN  string `env:"POSTGRES_DSN"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins  string `env:"CORS_ORIGINS" envDefault:"*"`
}

// Load reads an optional .env file (missing is not an error, same as
// the teacher's godotenv.Load() call) and parses the environment into
// a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
