package config

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// parseEnv overlays config with SWA_SERVER_* variables. With a nil env the
// process environment is used, after loading .env when present.
func parseEnv(config *Config, env map[string]string) {
	l := envconfig.MapLookuper(env)
	if env == nil {
		_ = godotenv.Load()
		l = envconfig.OsLookuper()
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{Target: config, Lookuper: l}); err != nil {
		panic(err)
	}
}
