// Package config loads the engine's runtime configuration — which blob
// store backend to use, the target bucket, concurrency caps, and log
// level — from a config file plus environment variables, in the same
// viper + mapstructure layering the pack's orris-inc-orris config package
// uses (viper.SetDefault, AutomaticEnv with a prefix, ReadInConfig that
// tolerates a missing file).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// BlobStoreConfig selects and configures the blobstore.Store backend.
type BlobStoreConfig struct {
	// Backend is "memory" (default, for local/dev runs) or "s3".
	Backend string `mapstructure:"backend"`
	Bucket  string `mapstructure:"bucket"`
	Region  string `mapstructure:"region"`
	// Endpoint overrides the default AWS endpoint, for S3-compatible
	// stores (MinIO, R2, etc.).
	Endpoint string `mapstructure:"endpoint"`
}

// Config is the engine's complete runtime configuration.
type Config struct {
	BlobStore      BlobStoreConfig `mapstructure:"blobstore"`
	MaxConcurrency int             `mapstructure:"max_concurrency"`
	LogLevel       string          `mapstructure:"log_level"`
}

// Load reads configuration from configPath (if non-empty) or the default
// search paths, layered under SHOWSUMMARIES_-prefixed environment
// variables, which always take precedence. When configPath is empty, finding
// no config file in the search paths is not an error — defaults and env vars
// are enough to run. A non-empty configPath that cannot be read is an error.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/showsummaries")
	}

	v.SetEnvPrefix("SHOWSUMMARIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("blobstore.backend", "memory")
	v.SetDefault("blobstore.bucket", "")
	v.SetDefault("blobstore.region", "us-east-1")
	v.SetDefault("blobstore.endpoint", "")
	v.SetDefault("max_concurrency", 8)
	v.SetDefault("log_level", "info")
}
