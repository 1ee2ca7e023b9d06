package config

import (
	"encoding/json"
	"os"

	"github.com/suraj-driod/swa-antarang/internal/flagx"
	"github.com/suraj-driod/swa-antarang/internal/timex"
)

// JsonConfig is the JSON shape of Config. Durations use timex.Duration so
// "1h" and integer nanoseconds are both accepted; absent keys are ignored.
type JsonConfig struct {
	HTTPAddr                     *string         `json:"http_addr"`
	GRPCAddr                     *string         `json:"grpc_addr"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AnonKey                      *string         `json:"anon_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	LogFormat                    *string         `json:"log_format"`
	LogLevel                     *string         `json:"log_level"`
}

// parseJson overlays config with the file given by -c or -config.
// It panics if the file cannot be read or decoded.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	for dst, v := range map[*string]*string{
		&config.HTTPAddr:    c.HTTPAddr,
		&config.GRPCAddr:    c.GRPCAddr,
		&config.DatabaseDSN: c.DatabaseDSN,
		&config.SecretKey:   c.SecretKey,
		&config.AnonKey:     c.AnonKey,
		&config.LogFormat:   c.LogFormat,
		&config.LogLevel:    c.LogLevel,
	} {
		if v != nil {
			*dst = *v
		}
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
}
