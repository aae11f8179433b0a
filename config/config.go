package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"` // "dev" or "prod"
	Server      ServerConfig   `mapstructure:"server"`
	Ticker      TickerConfig   `mapstructure:"ticker"`
	Gateway     GatewayConfig  `mapstructure:"gateway"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Log         LogConfig      `mapstructure:"log"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	TabIdleTimeout  time.Duration `mapstructure:"tab_idle_timeout"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
	SubmitRate      int           `mapstructure:"submit_rate"`
	SubmitWindow    time.Duration `mapstructure:"submit_window"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TickerConfig points the market ticker at the quote API.
type TickerConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	TokenAddress string        `mapstructure:"token_address"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`

	// Quote history, postgres driver only. Zero retention keeps everything.
	HistoryRetention time.Duration `mapstructure:"history_retention"`
	PruneInterval    time.Duration `mapstructure:"prune_interval"`
}

// GatewayConfig selects and configures the remote data gateway driver.
type GatewayConfig struct {
	Driver     string         `mapstructure:"driver"` // "supabase", "postgres" or "memory"
	Timeout    time.Duration  `mapstructure:"timeout"`
	Supabase   SupabaseConfig `mapstructure:"supabase"`
	Memory     MemoryConfig   `mapstructure:"memory"`
	JWTSecret  string         `mapstructure:"jwt_secret"`
	SessionTTL time.Duration  `mapstructure:"session_ttl"`
}

// MemoryConfig seeds the single moderator account of the memory driver.
type MemoryConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type SupabaseConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
}

// RedisConfig enables redis-backed session storage when URL is set.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.tab_idle_timeout", 30*time.Minute)
	v.SetDefault("server.submit_rate", 5)
	v.SetDefault("server.submit_window", time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("ticker.base_url", "https://api.dexscreener.com")
	v.SetDefault("ticker.token_address", "51akgSdiNy3UvFqSu82wL2TNYPtXZJ1yWXGENp9obonk")
	v.SetDefault("ticker.interval", 30*time.Second)
	v.SetDefault("ticker.timeout", 10*time.Second)
	v.SetDefault("ticker.history_retention", 30*24*time.Hour)
	v.SetDefault("ticker.prune_interval", time.Hour)

	v.SetDefault("gateway.driver", "memory")
	v.SetDefault("gateway.timeout", 10*time.Second)
	v.SetDefault("gateway.session_ttl", 12*time.Hour)
	v.SetDefault("gateway.jwt_secret", "")
	v.SetDefault("gateway.supabase.url", "")
	v.SetDefault("gateway.supabase.anon_key", "")
	v.SetDefault("gateway.memory.admin_email", "")
	v.SetDefault("gateway.memory.admin_password", "")

	v.SetDefault("redis.url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "dreamsite")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
}

// Load loads application configuration using Viper.
// It reads config.yaml from dir (or the default locations when dir is empty)
// and overrides it with environment variables. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	setDefaults(v)

	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		ex, _ := os.Executable()
		if strings.Contains(ex, "go-build") {
			pwd, _ := os.Getwd()
			v.AddConfigPath(filepath.Join(pwd, "../../config"))
		} else {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
		v.AddConfigPath("./config")
	}

	// Support environment variables with dot notation (e.g., TICKER_INTERVAL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Log.Environment == "" {
		cfg.Log.Environment = cfg.Environment
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Server.SubmitRate <= 0 {
		return fmt.Errorf("server.submit_rate must be positive, got %d", c.Server.SubmitRate)
	}
	if c.Server.SubmitWindow <= 0 {
		return fmt.Errorf("server.submit_window must be positive, got %s", c.Server.SubmitWindow)
	}
	if c.Server.TabIdleTimeout <= 0 {
		return fmt.Errorf("server.tab_idle_timeout must be positive, got %s", c.Server.TabIdleTimeout)
	}
	if c.Ticker.Interval <= 0 {
		return fmt.Errorf("ticker.interval must be positive, got %s", c.Ticker.Interval)
	}
	if c.Ticker.HistoryRetention < 0 {
		return fmt.Errorf("ticker.history_retention must not be negative, got %s", c.Ticker.HistoryRetention)
	}
	if c.Ticker.HistoryRetention > 0 && c.Ticker.PruneInterval <= 0 {
		return fmt.Errorf("ticker.prune_interval must be positive, got %s", c.Ticker.PruneInterval)
	}
	if c.Ticker.TokenAddress == "" {
		return fmt.Errorf("ticker.token_address is required")
	}
	switch c.Gateway.Driver {
	case "memory":
	case "supabase":
		if c.Gateway.Supabase.URL == "" {
			return fmt.Errorf("gateway.supabase.url is required for the supabase driver")
		}
	case "postgres":
		if c.Gateway.JWTSecret == "" && c.Environment != "prod" {
			return fmt.Errorf("gateway.jwt_secret is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown gateway.driver %q", c.Gateway.Driver)
	}
	return nil
}
