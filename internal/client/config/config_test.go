package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.BackendURL)
	assert.Equal(t, StoreSQLite, c.StoreKind)
	assert.Equal(t, 10*time.Second, c.SafetyTimeout)
	assert.Equal(t, 1500*time.Millisecond, c.SignUpGrace)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "swa-antarang", c.Redis.Prefix)
}

func TestLoad_NoSources(t *testing.T) {
	cfg := load(nil, map[string]string{})
	require.NotNil(t, cfg)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"backend_url":    "http://json:1",
		"store":          "redis",
		"redis_prefix":   "json-prefix",
		"safety_timeout": "4s",
	})
	env := map[string]string{
		"SWA_BACKEND_URL":    "http://env:2",
		"SWA_REDIS_DB":       "3",
		"SWA_SIGNUP_GRACE":   "2s",
		"SWA_SAFETY_TIMEOUT": "5s",
	}
	args := []string{"-c", path, "-t", "6s", "-w", ":7070"}

	cfg := load(args, env)

	want := defaults()
	want.BackendURL = "http://env:2"
	want.StoreKind = StoreRedis
	want.Redis.Prefix = "json-prefix"
	want.Redis.DB = 3
	want.SignUpGrace = 2 * time.Second
	want.SafetyTimeout = 6 * time.Second
	want.WebAddr = ":7070"

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseEnv_InvalidValuePanics(t *testing.T) {
	cfg := defaults()
	require.Panics(t, func() { parseEnv(cfg, map[string]string{"SWA_SAFETY_TIMEOUT": "soon"}) })
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-u", "http://x:1", "-k", "anon", "-s", "memory", "-d", "file:x.db",
				"-r", "redis:6380", "-w", ":9000", "-t", "2s", "-i", "1m", "-l", "debug", "-unknown", "v"},
			expected: func() *Config {
				c := defaults()
				c.BackendURL = "http://x:1"
				c.AnonKey = "anon"
				c.StoreKind = StoreMemory
				c.SQLiteDSN = "file:x.db"
				c.Redis.Addr = "redis:6380"
				c.WebAddr = ":9000"
				c.SafetyTimeout = 2 * time.Second
				c.OnlineCheckInterval = time.Minute
				c.LogLevel = "debug"
				return c
			}(),
		},
		{name: "bad duration", args: []string{"-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.StoreKind = "etcd"
	assert.Panics(t, cfg.validate)

	cfg = defaults()
	cfg.BackendURL = ""
	assert.Panics(t, cfg.validate)

	assert.NotPanics(t, defaults().validate)
}
