package config

import (
	"encoding/json"
	"os"

	"github.com/suraj-driod/swa-antarang/internal/flagx"
	"github.com/suraj-driod/swa-antarang/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Absent keys leave the current
// value alone.
type JsonConfig struct {
	BackendURL          *string         `json:"backend_url"`
	AnonKey             *string         `json:"anon_key"`
	StoreKind           *string         `json:"store"`
	SQLiteDSN           *string         `json:"sqlite_dsn"`
	RedisAddr           *string         `json:"redis_addr"`
	RedisDB             *int            `json:"redis_db"`
	RedisPrefix         *string         `json:"redis_prefix"`
	RedisTTL            *timex.Duration `json:"redis_ttl"`
	SafetyTimeout       *timex.Duration `json:"safety_timeout"`
	SignUpGrace         *timex.Duration `json:"signup_grace"`
	AutoRefreshInterval *timex.Duration `json:"auto_refresh_interval"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	WebAddr             *string         `json:"web_addr"`
	LogFormat           *string         `json:"log_format"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// Read or decode failures panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.BackendURL, jc.BackendURL)
	setString(&cfg.AnonKey, jc.AnonKey)
	setString(&cfg.StoreKind, jc.StoreKind)
	setString(&cfg.SQLiteDSN, jc.SQLiteDSN)
	setString(&cfg.Redis.Addr, jc.RedisAddr)
	if jc.RedisDB != nil {
		cfg.Redis.DB = *jc.RedisDB
	}
	setString(&cfg.Redis.Prefix, jc.RedisPrefix)
	setDuration(&cfg.Redis.TTL, jc.RedisTTL)
	setDuration(&cfg.SafetyTimeout, jc.SafetyTimeout)
	setDuration(&cfg.SignUpGrace, jc.SignUpGrace)
	setDuration(&cfg.AutoRefreshInterval, jc.AutoRefreshInterval)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.WebAddr, jc.WebAddr)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
}
