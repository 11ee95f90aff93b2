package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "https://questionablecontent.net/", cfg.Site.FrontPageURL)
	require.Equal(t, "https://questionablecontent.net/archive.php", cfg.Site.ArchiveURL)
	require.Equal(t, "https://questionablecontent.net/view.php?comic=", cfg.Site.ComicURLBase)
	require.Equal(t, "America/New_York", cfg.Site.Timezone)
	require.True(t, cfg.Jobs.Enabled)
	require.Equal(t, 15*time.Second, cfg.StartupDelay())
	require.Equal(t, 5*time.Second, cfg.NewsInterval())
	require.Equal(t, 60*time.Second, cfg.RetryBackoff())
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	require.Empty(t, cfg.PubSub.ProjectID, "events are off until a project is configured")
	require.False(t, cfg.Logging.Development)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
site:
  front_page_url: "https://comics.example.test/"
  archive_url: "https://comics.example.test/archive"
  comic_url_base: "https://comics.example.test/view?comic="
jobs:
  enabled: false
  news_interval_seconds: 2
pubsub:
  project_id: "demo-project"
  topic_name: "comic-events"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "https://comics.example.test/", cfg.Site.FrontPageURL)
	require.False(t, cfg.Jobs.Enabled)
	require.Equal(t, 2*time.Second, cfg.NewsInterval())
	require.Equal(t, "demo-project", cfg.PubSub.ProjectID)
	require.Equal(t, "comic-events", cfg.PubSub.TopicName)
	// Untouched keys keep their defaults.
	require.Equal(t, 60*time.Second, cfg.RetryBackoff())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "port must be positive",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "site urls required",
			mutate:  func(c *Config) { c.Site.ArchiveURL = "" },
			wantErr: "site urls",
		},
		{
			name:    "http timeout required",
			mutate:  func(c *Config) { c.HTTP.TimeoutSeconds = 0 },
			wantErr: "http.timeout_seconds",
		},
		{
			name:    "news interval required",
			mutate:  func(c *Config) { c.Jobs.NewsIntervalSeconds = -1 },
			wantErr: "jobs.news_interval_seconds",
		},
		{
			name:    "retry backoff required",
			mutate:  func(c *Config) { c.Jobs.RetryBackoffSeconds = 0 },
			wantErr: "jobs.retry_backoff_seconds",
		},
		{
			name: "pubsub topic required with project",
			mutate: func(c *Config) {
				c.PubSub.ProjectID = "demo"
				c.PubSub.TopicName = ""
			},
			wantErr: "pubsub.topic_name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
