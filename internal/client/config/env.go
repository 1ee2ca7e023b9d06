package config

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/suraj-driod/swa-antarang/internal/timex"
)

// parseEnv overlays cfg with SWA_* variables. A nil env reads the process
// environment after loading a .env file when one exists.
func parseEnv(cfg *Config, env map[string]string) {
	var lookuper envconfig.Lookuper
	if env == nil {
		_ = godotenv.Load()
		lookuper = envconfig.OsLookuper()
	} else {
		lookuper = envconfig.MapLookuper(env)
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		panic(err)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
