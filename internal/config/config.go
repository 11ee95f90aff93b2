// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Site    SiteConfig    `mapstructure:"site"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SiteConfig locates the scraped pages on the comic site.
type SiteConfig struct {
	FrontPageURL string `mapstructure:"front_page_url"`
	ArchiveURL   string `mapstructure:"archive_url"`
	ComicURLBase string `mapstructure:"comic_url_base"`
	Timezone     string `mapstructure:"timezone"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	ConnLifetimeMinute int    `mapstructure:"conn_lifetime_minutes"`
}

// JobsConfig governs the background jobs' cadence and recovery.
type JobsConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	StartupDelaySeconds int  `mapstructure:"startup_delay_seconds"`
	NewsIntervalSeconds int  `mapstructure:"news_interval_seconds"`
	RetryBackoffSeconds int  `mapstructure:"retry_backoff_seconds"`
}

// PubSubConfig holds metadata for publish-subscribe notifications. Events are
// disabled when the project id is empty.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COMICSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("site.front_page_url", "https://questionablecontent.net/")
	v.SetDefault("site.archive_url", "https://questionablecontent.net/archive.php")
	v.SetDefault("site.comic_url_base", "https://questionablecontent.net/view.php?comic=")
	v.SetDefault("site.timezone", "America/New_York")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "comicsync/0.1 (background sync; +https://github.com/lunarforge/comicsync)")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.conn_lifetime_minutes", 30)
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.startup_delay_seconds", 15)
	v.SetDefault("jobs.news_interval_seconds", 5)
	v.SetDefault("jobs.retry_backoff_seconds", 60)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Site.FrontPageURL == "" || c.Site.ArchiveURL == "" || c.Site.ComicURLBase == "" {
		return fmt.Errorf("site urls must all be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Jobs.NewsIntervalSeconds <= 0 {
		return fmt.Errorf("jobs.news_interval_seconds must be > 0")
	}
	if c.Jobs.RetryBackoffSeconds <= 0 {
		return fmt.Errorf("jobs.retry_backoff_seconds must be > 0")
	}
	if c.PubSub.ProjectID != "" && c.PubSub.TopicName == "" {
		return fmt.Errorf("pubsub.topic_name must be set when pubsub.project_id is set")
	}
	return nil
}

// HTTPTimeout converts the configured timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// StartupDelay converts the configured startup delay into a duration.
func (c Config) StartupDelay() time.Duration {
	return time.Duration(c.Jobs.StartupDelaySeconds) * time.Second
}

// NewsInterval converts the news drain cadence into a duration.
func (c Config) NewsInterval() time.Duration {
	return time.Duration(c.Jobs.NewsIntervalSeconds) * time.Second
}

// RetryBackoff converts the supervisor backoff into a duration.
func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.Jobs.RetryBackoffSeconds) * time.Second
}
