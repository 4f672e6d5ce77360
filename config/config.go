package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App App `mapstructure:"app"`

	// HTTP
	Server ServerConfig `mapstructure:"server"`

	// Storage driver selection
	Database DatabaseConfig `mapstructure:"database"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	Site      SiteConfig      `mapstructure:"site"`
	Favicon   FaviconConfig   `mapstructure:"favicon"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	View      ViewConfig      `mapstructure:"view"`
}

type App struct {
	Env         string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
	LogEncoding string `mapstructure:"log_encoding"`
}

// Development reports whether the service runs outside production.
func (a App) Development() bool {
	return a.Env != "production"
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	Secret        string `mapstructure:"secret"`
	SessionCookie string `mapstructure:"session_cookie"`
	SessionTTL    string `mapstructure:"session_ttl"`
	FlashCookie   string `mapstructure:"flash_cookie"`
	LoginURL      string `mapstructure:"login_url"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	Stream        string `mapstructure:"stream"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// SiteConfig describes the site used when the request host matches no known domain.
type SiteConfig struct {
	Domain string `mapstructure:"domain"`
	Name   string `mapstructure:"name"`
	Slug   string `mapstructure:"slug"`
}

type FaviconConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// ViewConfig holds the "recent" sidebar directives, e.g. "5 as recent".
type ViewConfig struct {
	RecentDirective     string `mapstructure:"recent_directive"`
	UserRecentDirective string `mapstructure:"user_recent_directive"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_encoding", "console")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.secret", "")
	v.SetDefault("server.session_cookie", "bookmarks_session")
	v.SetDefault("server.session_ttl", "336h")
	v.SetDefault("server.flash_cookie", "bookmarks_flash")
	v.SetDefault("server.login_url", "/accounts/login/")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "bookmarks.db")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.port", 6379)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.port", 4222)
	v.SetDefault("nats.subject_prefix", "bookmarks.search")
	v.SetDefault("nats.stream", "BOOKMARKS_SEARCH")

	v.SetDefault("prometheus.enabled", false)
	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("site.domain", "example.com")
	v.SetDefault("site.name", "example.com")
	v.SetDefault("site.slug", "example")

	v.SetDefault("favicon.enabled", true)
	v.SetDefault("favicon.timeout", 5*time.Second)
	v.SetDefault("favicon.user_agent", "Mozilla/5.0 (compatible; bookmarks favicon check)")

	v.SetDefault("rate_limit.max_requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("view.recent_directive", "5 as recent_bookmarks")
	v.SetDefault("view.user_recent_directive", "5 for user as user_recent_bookmarks")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.log_level", "LOG_LEVEL")

	v.BindEnv("server.secret", "BOOKMARKS_SECRET")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	v.BindEnv("prometheus.port", "PROM_PORT")
}
