package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Content API defaults
	DefaultNotionBaseURL     = "https://api.notion.com/v1"
	DefaultNotionVersion     = "2022-06-28"
	DefaultAPITimeout        = 30 * time.Second
	DefaultSyncedProperty    = "Synced"
	DefaultPublishedProperty = "Published"

	// Image pipeline defaults
	DefaultMaxAttempts     = 3
	DefaultRetryInterval   = 500 * time.Millisecond
	DefaultDownloadTimeout = 60 * time.Second

	// Rate limit defaults: one request per two-second window
	DefaultRateInterval = 2 * time.Second
	DefaultRateBurst    = 1

	// Server defaults
	DefaultServerAddr = ":8600"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultConvertToWebp lists formats whose storage key carries a .webp
// extension, matching the CDN's on-the-fly conversion.
var DefaultConvertToWebp = []string{"png", "jpeg"}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagesync"
	}
	return filepath.Join(home, ".pagesync")
}

// IndexDir returns the default asset index directory
func IndexDir() string {
	return filepath.Join(ConfigDir(), "index")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration. Credentials and identifiers
// have no defaults and must come from file, env or flags.
func Default() *Config {
	return &Config{
		Notion: NotionConfig{
			BaseURL:           DefaultNotionBaseURL,
			Version:           DefaultNotionVersion,
			Timeout:           DefaultAPITimeout,
			SyncedProperty:    DefaultSyncedProperty,
			PublishedProperty: DefaultPublishedProperty,
		},
		Images: ImagesConfig{
			ConvertToWebp:   DefaultConvertToWebp,
			MaxAttempts:     DefaultMaxAttempts,
			RetryInterval:   DefaultRetryInterval,
			DownloadTimeout: DefaultDownloadTimeout,
		},
		RateLimit: RateLimitConfig{
			Interval: DefaultRateInterval,
			Burst:    DefaultRateBurst,
		},
		Sync: SyncConfig{
			StrictDeletes: true,
		},
		Index: IndexConfig{
			Enabled:   true,
			Directory: IndexDir(),
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
