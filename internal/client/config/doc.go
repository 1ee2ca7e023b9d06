// Package config loads runtime configuration for the swa-antarang client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. SWA_* environment variables, after a best-effort .env load.
//  4. Command-line flags (see parseFlags).
//
// JSON durations use timex.Duration, so both "10s" and integer nanoseconds
// work:
//
//	{
//	  "backend_url": "http://127.0.0.1:8080",
//	  "store": "sqlite",
//	  "sqlite_dsn": "file:swa-antarang.db",
//	  "safety_timeout": "10s"
//	}
//
// Invalid input panics; LoadConfig is meant to run once at startup.
package config
