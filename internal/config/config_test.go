package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			Token:      "secret_token",
			DatabaseID: "db-123",
		},
		Storage: StorageConfig{Bucket: "assets"},
		Images:  ImagesConfig{BaseURL: "https://img.example.com"},
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Notion.Token = "" },
			wantErr: "notion.token",
		},
		{
			name:    "missing database id",
			mutate:  func(c *Config) { c.Notion.DatabaseID = "" },
			wantErr: "notion.database_id",
		},
		{
			name:    "missing bucket",
			mutate:  func(c *Config) { c.Storage.Bucket = "" },
			wantErr: "storage.bucket",
		},
		{
			name:    "missing image base url",
			mutate:  func(c *Config) { c.Images.BaseURL = "" },
			wantErr: "images.base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultNotionBaseURL, cfg.Notion.BaseURL)
	assert.Equal(t, DefaultNotionVersion, cfg.Notion.Version)
	assert.Equal(t, DefaultAPITimeout, cfg.Notion.Timeout)
	assert.Equal(t, DefaultSyncedProperty, cfg.Notion.SyncedProperty)
	assert.Equal(t, DefaultPublishedProperty, cfg.Notion.PublishedProperty)
	assert.Equal(t, DefaultMaxAttempts, cfg.Images.MaxAttempts)
	assert.Equal(t, DefaultRetryInterval, cfg.Images.RetryInterval)
	assert.Equal(t, DefaultConvertToWebp, cfg.Images.ConvertToWebp)
	assert.Equal(t, DefaultRateInterval, cfg.RateLimit.Interval)
	assert.Equal(t, DefaultRateBurst, cfg.RateLimit.Burst)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
}

func TestValidate_KeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Notion.Version = "2023-01-01"
	cfg.Images.MaxAttempts = 5
	cfg.RateLimit.Interval = 250 * time.Millisecond
	cfg.RateLimit.Burst = 4

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "2023-01-01", cfg.Notion.Version)
	assert.Equal(t, 5, cfg.Images.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.Interval)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
}

func TestValidate_TrimsTrailingSlashes(t *testing.T) {
	cfg := validConfig()
	cfg.Images.BaseURL = "https://img.example.com/"
	cfg.Notion.BaseURL = "https://api.notion.com/v1/"

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://img.example.com", cfg.Images.BaseURL)
	assert.Equal(t, "https://api.notion.com/v1", cfg.Notion.BaseURL)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	cfg.Notion.Token = "t"
	cfg.Notion.DatabaseID = "d"
	cfg.Storage.Bucket = "b"
	cfg.Images.BaseURL = "https://img.example.com"

	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Sync.StrictDeletes)
}
