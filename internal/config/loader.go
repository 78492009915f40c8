package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults.
// Uses the global viper instance to access CLI flag bindings.
func Load() (*Config, error) {
	v := viper.GetViper()

	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Environment variables (PAGESYNC_*)
	v.SetEnvPrefix("PAGESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Content API defaults
	v.SetDefault("notion.base_url", DefaultNotionBaseURL)
	v.SetDefault("notion.version", DefaultNotionVersion)
	v.SetDefault("notion.timeout", DefaultAPITimeout)
	v.SetDefault("notion.synced_property", DefaultSyncedProperty)
	v.SetDefault("notion.published_property", DefaultPublishedProperty)

	// Image pipeline defaults
	v.SetDefault("images.convert_to_webp", DefaultConvertToWebp)
	v.SetDefault("images.max_attempts", DefaultMaxAttempts)
	v.SetDefault("images.retry_interval", DefaultRetryInterval)
	v.SetDefault("images.download_timeout", DefaultDownloadTimeout)

	// Rate limit defaults
	v.SetDefault("rate_limit.interval", DefaultRateInterval)
	v.SetDefault("rate_limit.burst", DefaultRateBurst)

	// Sync defaults
	v.SetDefault("sync.strict_images", false)
	v.SetDefault("sync.strict_deletes", true)

	// Index defaults
	v.SetDefault("index.enabled", true)
	v.SetDefault("index.directory", IndexDir())

	// Server defaults
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.interval", 0)

	// Logging defaults
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}
