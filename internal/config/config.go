package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the deathwatch service
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds a pgx-compatible connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// ScraperConfig holds remote game-data source settings
type ScraperConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	InfoBaseURL string        `mapstructure:"info_base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// TrackerConfig holds correlation pipeline settings
type TrackerConfig struct {
	IntervalMinutes int           `mapstructure:"interval_minutes"`
	Window          time.Duration `mapstructure:"window"`
	MinLevel        int           `mapstructure:"min_level"`
}

// DiscordConfig holds the notification channel settings
type DiscordConfig struct {
	Token          string `mapstructure:"token"`
	KillsChannelID string `mapstructure:"kills_channel_id"`
	EnemyChannelID string `mapstructure:"enemy_channel_id"`
}

// WebhookConfig holds the fallback webhook channel settings, used when
// Discord is not configured
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds Redis page-cache settings
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds log level and format
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "deathwatch")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "deathwatch")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("scraper.base_url", "https://tibiantis.online/")
	v.SetDefault("scraper.info_base_url", "https://tibiantis.info/")
	v.SetDefault("scraper.timeout", "10s")

	v.SetDefault("tracker.interval_minutes", 5)
	v.SetDefault("tracker.window", "12h")
	v.SetDefault("tracker.min_level", 30)

	v.SetDefault("discord.token", "")
	v.SetDefault("discord.kills_channel_id", "")
	v.SetDefault("discord.enemy_channel_id", "")

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", "10s")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.url", "redis://localhost:6379/0")
	v.SetDefault("cache.ttl", "2m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override file config
	v.SetEnvPrefix("DEATHWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
