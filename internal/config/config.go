package config

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"

	grpcadapter "github.com/simaogato/bondcurve-backend/internal/adapter/grpc"
	"github.com/simaogato/bondcurve-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/bondcurve-backend/internal/lib"
	"github.com/simaogato/bondcurve-backend/internal/lib/log"
	"github.com/simaogato/bondcurve-backend/internal/metrics"
)

type Config struct {
	DB      postgres.Config    `env:""`
	GRPC    grpcadapter.Config `env:""`
	Metrics metrics.Config     `env:""`
	Log     log.Config         `env:""`
}

// Load reads the configuration from environment variables and validates it.
// Every variable has a default, so an empty environment yields a local
// development configuration.
func Load() (*Config, error) {
	var cfg Config

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
