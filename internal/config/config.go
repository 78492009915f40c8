package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the application configuration. It is loaded once at
// startup and treated as immutable for the process lifetime.
type Config struct {
	Notion    NotionConfig    `mapstructure:"notion" yaml:"notion"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Images    ImagesConfig    `mapstructure:"images" yaml:"images"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Sync      SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Index     IndexConfig     `mapstructure:"index" yaml:"index"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// NotionConfig contains content API access settings
type NotionConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Token      string        `mapstructure:"token" yaml:"token"`
	Version    string        `mapstructure:"version" yaml:"version"`
	DatabaseID string        `mapstructure:"database_id" yaml:"database_id"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// SyncedProperty is the checkbox property flipped after a page is mirrored
	SyncedProperty string `mapstructure:"synced_property" yaml:"synced_property"`
	// PublishedProperty is the checkbox property gating eligibility
	PublishedProperty string `mapstructure:"published_property" yaml:"published_property"`
}

// StorageConfig contains blob store settings
type StorageConfig struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"` // empty for AWS, set for S3-compatible stores
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	// PathStyle forces path-style addressing, required by most
	// S3-compatible endpoints
	PathStyle bool `mapstructure:"path_style" yaml:"path_style"`
}

// ImagesConfig contains image pipeline settings
type ImagesConfig struct {
	// BaseURL is the public domain rewritten image references point at
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// ConvertToWebp lists detected formats stored under a .webp key
	ConvertToWebp []string `mapstructure:"convert_to_webp" yaml:"convert_to_webp"`
	MaxAttempts   int      `mapstructure:"max_attempts" yaml:"max_attempts"`
	// RetryInterval is the flat wait between attempts; the rate limiter
	// does the real throttling
	RetryInterval   time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout" yaml:"download_timeout"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// RateLimitConfig contains the shared token gate settings
type RateLimitConfig struct {
	// Interval is the uniform spacing between outbound requests
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Burst    int           `mapstructure:"burst" yaml:"burst"`
}

// SyncConfig contains orchestration strictness settings
type SyncConfig struct {
	// StrictImages makes an exhausted image pipeline fail the whole page
	// instead of emitting a placeholder reference
	StrictImages bool `mapstructure:"strict_images" yaml:"strict_images"`
	// StrictDeletes makes a failed block delete fail the page; disabling
	// it logs and skips, at the risk of duplicated content
	StrictDeletes bool `mapstructure:"strict_deletes" yaml:"strict_deletes"`
}

// IndexConfig contains asset index settings
type IndexConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Directory string `mapstructure:"directory" yaml:"directory"`
	InMemory  bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

// ServerConfig contains trigger surface settings
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Interval schedules automatic runs; zero disables the scheduler
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration and applies defaults for values
// that are missing or out of range.
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return fmt.Errorf("notion.token is required")
	}
	if c.Notion.DatabaseID == "" {
		return fmt.Errorf("notion.database_id is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if c.Images.BaseURL == "" {
		return fmt.Errorf("images.base_url is required")
	}
	c.Images.BaseURL = strings.TrimRight(c.Images.BaseURL, "/")

	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = DefaultNotionBaseURL
	}
	c.Notion.BaseURL = strings.TrimRight(c.Notion.BaseURL, "/")
	if c.Notion.Version == "" {
		c.Notion.Version = DefaultNotionVersion
	}
	if c.Notion.Timeout < time.Second {
		c.Notion.Timeout = DefaultAPITimeout
	}
	if c.Notion.SyncedProperty == "" {
		c.Notion.SyncedProperty = DefaultSyncedProperty
	}
	if c.Notion.PublishedProperty == "" {
		c.Notion.PublishedProperty = DefaultPublishedProperty
	}
	if c.Images.MaxAttempts < 1 {
		c.Images.MaxAttempts = DefaultMaxAttempts
	}
	if c.Images.RetryInterval <= 0 {
		c.Images.RetryInterval = DefaultRetryInterval
	}
	if c.Images.DownloadTimeout < time.Second {
		c.Images.DownloadTimeout = DefaultDownloadTimeout
	}
	if len(c.Images.ConvertToWebp) == 0 {
		c.Images.ConvertToWebp = DefaultConvertToWebp
	}
	if c.RateLimit.Interval <= 0 {
		c.RateLimit.Interval = DefaultRateInterval
	}
	if c.RateLimit.Burst < 1 {
		c.RateLimit.Burst = DefaultRateBurst
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	return nil
}
