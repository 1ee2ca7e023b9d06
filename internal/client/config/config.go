package config

import (
	"fmt"
	"os"
	"time"
)

// Store kinds accepted by StoreKind.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds runtime settings for the swa-antarang client.
//
// Durations are time.Duration values; the JSON file and environment accept
// strings such as "10s".
type Config struct {
	BackendURL string `env:"SWA_BACKEND_URL, overwrite"`
	AnonKey    string `env:"SWA_ANON_KEY, overwrite"`

	StoreKind string `env:"SWA_STORE, overwrite"`
	SQLiteDSN string `env:"SWA_SQLITE_DSN, overwrite"`
	Redis     RedisConfig

	SafetyTimeout       time.Duration `env:"SWA_SAFETY_TIMEOUT, overwrite"`
	SignUpGrace         time.Duration `env:"SWA_SIGNUP_GRACE, overwrite"`
	AutoRefreshInterval time.Duration `env:"SWA_AUTO_REFRESH_INTERVAL, overwrite"`
	OnlineCheckInterval time.Duration `env:"SWA_ONLINE_CHECK_INTERVAL, overwrite"`

	WebAddr   string `env:"SWA_WEB_ADDR, overwrite"`
	LogFormat string `env:"SWA_LOG_FORMAT, overwrite"`
	LogLevel  string `env:"SWA_LOG_LEVEL, overwrite"`
}

type RedisConfig struct {
	Addr   string        `env:"SWA_REDIS_ADDR, overwrite"`
	DB     int           `env:"SWA_REDIS_DB, overwrite"`
	Prefix string        `env:"SWA_REDIS_PREFIX, overwrite"`
	TTL    time.Duration `env:"SWA_REDIS_TTL, overwrite"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:8080"
	c.AnonKey = ""
	c.StoreKind = StoreSQLite
	c.SQLiteDSN = "file:swa-antarang.db"
	c.Redis = RedisConfig{Addr: "127.0.0.1:6379", Prefix: "swa-antarang", TTL: 30 * 24 * time.Hour}
	c.SafetyTimeout = 10 * time.Second
	c.SignUpGrace = 1500 * time.Millisecond
	c.AutoRefreshInterval = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.WebAddr = ""
	c.LogFormat = "text"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config from defaults, then overlays the JSON file,
// the environment and finally command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	return load(os.Args[1:], nil)
}

func load(args []string, env map[string]string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, env)
	parseFlags(cfg, args)
	cfg.validate()
	return cfg
}

func (c *Config) validate() {
	switch c.StoreKind {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		panic(fmt.Sprintf("config: unknown store kind %q", c.StoreKind))
	}
	if c.BackendURL == "" {
		panic("config: backend url is empty")
	}
}
