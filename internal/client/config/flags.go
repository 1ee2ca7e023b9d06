package config

import (
	"flag"

	"github.com/suraj-driod/swa-antarang/internal/flagx"
)

// parseFlags populates Config fields from command-line flags:
//
//	-u string     identity backend base URL
//	-k string     anon API key
//	-s string     session store: sqlite, redis or memory
//	-d string     sqlite DSN
//	-r string     redis address
//	-w string     web shell address, empty disables it
//	-t duration   bootstrap safety timeout
//	-i duration   online check interval
//	-l string     log level
//
// Only these flags are looked at; others are left to their owners.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-u", "-k", "-s", "-d", "-r", "-w", "-t", "-i", "-l"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "u", cfg.BackendURL, "identity backend base URL")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "anon API key")
	fs.StringVar(&cfg.StoreKind, "s", cfg.StoreKind, "session store (sqlite|redis|memory)")
	fs.StringVar(&cfg.SQLiteDSN, "d", cfg.SQLiteDSN, "sqlite DSN")
	fs.StringVar(&cfg.Redis.Addr, "r", cfg.Redis.Addr, "redis address")
	fs.StringVar(&cfg.WebAddr, "w", cfg.WebAddr, "web shell address")
	fs.DurationVar(&cfg.SafetyTimeout, "t", cfg.SafetyTimeout, "bootstrap safety timeout")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "online check interval")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
