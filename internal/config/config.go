// Package config loads the tunables of spec §6.4 from the environment,
// generalizing core/main.go's hardcoded loadConfig() into something that can
// actually be overridden per deployment. CLI entrypoints layer cobra/pflag
// flags over these environment-sourced defaults.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"

	"ruftp/internal/transport"
)

// Config holds every tunable named in spec §6.4.
type Config struct {
	Host             string        `env:"RUFTP_HOST,default=0.0.0.0"`
	Port             int           `env:"RUFTP_PORT,default=9000"`
	Timeout          time.Duration `env:"RUFTP_TIMEOUT,default=1s"`
	LossProb         float64       `env:"RUFTP_LOSS_PROB,default=0"`
	CorruptProb      float64       `env:"RUFTP_CORRUPT_PROB,default=0"`
	MaxRetries       int           `env:"RUFTP_MAX_RETRIES,default=5"`
	HandshakeRetries int           `env:"RUFTP_HANDSHAKE_RETRIES,default=5"`
}

// Load reads Config from the process environment, falling back to the
// defaults named on the struct tags above.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: load from environment")
	}
	return cfg, nil
}

// TransportConfig projects the subset of Config the transport state machine
// cares about into its own immutable snapshot type.
func (c Config) TransportConfig() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Timeout = c.Timeout
	cfg.MaxRetries = c.MaxRetries
	cfg.HandshakeRetries = c.HandshakeRetries
	return cfg
}
