package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Auth.JWTSecret = "0123456789abcdef"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 168, cfg.Auth.TokenHours)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenDuration())
	assert.Equal(t, "kakeibo.expenses", cfg.Realtime.Exchange)
	assert.Equal(t, 64, cfg.Realtime.Buffer)
	assert.False(t, cfg.Mail.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kakeibo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
storage:
  driver: postgres
  postgres_dsn: postgres://localhost/kakeibo
mail:
  enabled: true
  host: smtp.example.com
`), 0o644))

	t.Setenv("KAKEIBO_SERVER_ADDR", ":9090")
	t.Setenv("KAKEIBO_AUTH_BCRYPT_COST", "12")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/kakeibo", cfg.Storage.PostgresDSN)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "./data/kakeibo.db", cfg.Storage.SQLitePath, "unset keys keep defaults")

	n := cfg.Mail.Notify()
	assert.True(t, n.Enabled)
	assert.Equal(t, "smtp.example.com", n.Host)
	assert.Equal(t, 587, n.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "auth.jwt_secret"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.postgres_dsn"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad amqp scheme", func(c *Config) { c.Realtime.AMQPURL = "http://broker" }, "realtime.amqp_url"},
		{"zero buffer", func(c *Config) { c.Realtime.Buffer = 0 }, "realtime.buffer"},
		{"mail without host", func(c *Config) { c.Mail.Enabled = true }, "mail.host"},
		{"bcrypt cost", func(c *Config) { c.Auth.BcryptCost = 1 }, "auth.bcrypt_cost"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := validConfig(t)
	cfg.Auth.JWTSecret = ""
	cfg.Storage.Driver = ""
	cfg.Realtime.Buffer = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "realtime.buffer")
}
