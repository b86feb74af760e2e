// Package config loads server settings from built-in defaults, an optional
// YAML file and KAKEIBO_* environment variables, in increasing priority.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/kakeibo/internal/notify"
	"github.com/mmynk/kakeibo/pkg/logging"
)

//go:embed default.yaml
var defaultYAML []byte

// EnvPrefix prefixes every environment override, e.g. KAKEIBO_STORAGE_DRIVER.
const EnvPrefix = "KAKEIBO"

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 16

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Mail     MailConfig     `mapstructure:"mail"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	StaticPath      string        `mapstructure:"static_path"` // Empty disables static file serving
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"` // sqlite or postgres
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	TokenHours int    `mapstructure:"token_hours"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// RealtimeConfig configures change broadcasting. Without an AMQP URL events
// stay inside the process.
type RealtimeConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
	Buffer   int    `mapstructure:"buffer"`
}

type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads the configuration. A .env file in the working directory is
// loaded into the environment first when present. An explicit path must
// exist; without one, kakeibo.yaml is looked up in the working directory
// and $HOME/.kakeibo.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("failed to read built-in defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Debug("Merged config file", "path", path)
	} else {
		external := viper.New()
		external.SetConfigName("kakeibo")
		external.SetConfigType("yaml")
		external.AddConfigPath(".")
		external.AddConfigPath("$HOME/.kakeibo")
		if err := external.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(external.AllSettings()); err != nil {
				return nil, fmt.Errorf("failed to merge %s: %w", external.ConfigFileUsed(), err)
			}
			slog.Debug("Merged config file", "path", external.ConfigFileUsed())
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr cannot be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid server.shutdown_timeout %v: must be positive", c.Server.ShutdownTimeout))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log.level: %v", err))
	}
	if c.Log.Format != string(logging.FormatText) && c.Log.Format != string(logging.FormatJSON) {
		problems = append(problems, fmt.Sprintf("invalid log.format '%s': must be text or json", c.Log.Format))
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			problems = append(problems, "storage.sqlite_path cannot be empty when using sqlite")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			problems = append(problems, "storage.postgres_dsn cannot be empty when using postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid storage.driver '%s': must be sqlite or postgres", c.Storage.Driver))
	}

	if len(c.Auth.JWTSecret) < MinSecretLength {
		problems = append(problems, fmt.Sprintf("auth.jwt_secret must be at least %d characters", MinSecretLength))
	}
	if c.Auth.TokenHours <= 0 {
		problems = append(problems, fmt.Sprintf("invalid auth.token_hours %d: must be positive", c.Auth.TokenHours))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("invalid auth.bcrypt_cost %d: must be between %d and %d", c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.Realtime.AMQPURL != "" {
		if u, err := url.Parse(c.Realtime.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid realtime.amqp_url: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid realtime.amqp_url scheme '%s': must be amqp or amqps", u.Scheme))
		}
	}
	if c.Realtime.Buffer < 1 {
		problems = append(problems, fmt.Sprintf("invalid realtime.buffer %d: must be at least 1", c.Realtime.Buffer))
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			problems = append(problems, "mail.host is required when mail is enabled")
		}
		if c.Mail.Port < 1 || c.Mail.Port > 65535 {
			problems = append(problems, fmt.Sprintf("invalid mail.port %d", c.Mail.Port))
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, fmt.Sprintf("invalid metrics.path '%s': must start with /", c.Metrics.Path))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// TokenDuration is the lifetime of issued JWTs.
func (c *Config) TokenDuration() time.Duration {
	return time.Duration(c.Auth.TokenHours) * time.Hour
}

// LogLevel returns the parsed level, falling back to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// Notify converts the mail settings for the notifier.
func (m MailConfig) Notify() notify.Config {
	return notify.Config{
		Enabled:  m.Enabled,
		Host:     m.Host,
		Port:     m.Port,
		Username: m.Username,
		Password: m.Password,
		From:     m.From,
	}
}
