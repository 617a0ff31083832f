package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Env mirrors the four CLI flags as environment-variable fallbacks, in the
// style of a sethvargo/go-envconfig struct: a flag that was actually passed
// on the command line always takes precedence over its Env counterpart.
type Env struct {
	ConfigURL      string `env:"CONFIG_URL"`
	Port           int    `env:"PORT,default=53"`
	Forwarders     string `env:"FORWARDERS"`
	ForwardersPort int    `env:"FORWARDERS_PORT,default=53"`
}

// LoadEnv processes the environment-variable fallbacks for the CLI flags.
func LoadEnv(ctx context.Context) (Env, error) {
	var env Env
	if err := envconfig.Process(ctx, &env); err != nil {
		return Env{}, err
	}
	return env, nil
}
