package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "LUPA"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Shop      ShopConfig      `mapstructure:"shop"`
	Lupa      LupaConfig      `mapstructure:"lupa"`
	Export    ExportConfig    `mapstructure:"export"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Hooks     HooksConfig     `mapstructure:"hooks"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// mysql or postgres
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	TablePrefix     string        `mapstructure:"table_prefix"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	LogLevel        string        `mapstructure:"log_level"`
}

type ShopConfig struct {
	ID         int64  `mapstructure:"id"`
	LanguageID int64  `mapstructure:"language_id"`
	CountryID  int64  `mapstructure:"country_id"`
	CurrencyID int64  `mapstructure:"currency_id"`
	BaseURL    string `mapstructure:"base_url"`
	ImageType  string `mapstructure:"image_type"`
}

type LupaConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	PluginURL string `mapstructure:"plugin_url"`
	IndexID   string `mapstructure:"index_id"`
}

type ExportConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type HooksConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads defaults, then the optional config file, then .env, then
// LUPA_ prefixed environment variables. Later sources win.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver: %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if len(c.Lupa.IndexID) != 36 {
		errs = append(errs, errors.New("lupa.index_id must be 36 characters"))
	}
	if c.Shop.ID < 1 || c.Shop.LanguageID < 1 {
		errs = append(errs, errors.New("shop.id and shop.language_id must be positive"))
	}
	// prices are quoted with tax, which needs a real country
	if c.Shop.CountryID < 1 || c.Shop.CurrencyID < 1 {
		errs = append(errs, errors.New("shop.country_id and shop.currency_id must be positive"))
	}
	if c.Export.DefaultLimit < 1 || c.Export.MaxLimit < c.Export.DefaultLimit {
		errs = append(errs, fmt.Errorf("invalid export limits: default %d, max %d", c.Export.DefaultLimit, c.Export.MaxLimit))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("ratelimit values must not be negative"))
	}
	for key, raw := range map[string]string{
		"shop.base_url":     c.Shop.BaseURL,
		"lupa.plugin_url":   c.Lupa.PluginURL,
		"hooks.webhook_url": c.Hooks.WebhookURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s is not an absolute URL: %q", key, raw))
		}
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table_prefix", "ps_")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.slow_threshold", time.Second)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("shop.id", 1)
	v.SetDefault("shop.language_id", 1)
	v.SetDefault("shop.country_id", 0)
	v.SetDefault("shop.currency_id", 0)
	v.SetDefault("shop.base_url", "http://localhost")
	v.SetDefault("shop.image_type", "large_default")

	v.SetDefault("lupa.enabled", false)
	v.SetDefault("lupa.plugin_url", "")
	v.SetDefault("lupa.index_id", "")

	v.SetDefault("export.default_limit", 20)
	v.SetDefault("export.max_limit", 500)

	v.SetDefault("ratelimit.rps", 20.0)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("hooks.webhook_url", "")
	v.SetDefault("hooks.timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "logs/catalog-export.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "lupa")
}
