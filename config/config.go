// Package config loads and validates the platform configuration from
// defaults, a yaml file, SHORTSTACK_ environment variables, and CLI flags,
// in ascending order of precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/linhsuan/shortstack/database"
	shorthttp "github.com/linhsuan/shortstack/http"
	"github.com/linhsuan/shortstack/s3store"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for shortstack.
type Config struct {
	Env       string               `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server    ServerConfig         `mapstructure:"server"`
	Domains   DomainsConfig        `mapstructure:"domains"`
	Database  database.Config      `mapstructure:"database"`
	Storage   StorageConfig        `mapstructure:"storage"`
	Analytics AnalyticsConfig      `mapstructure:"analytics"`
	CORS      shorthttp.CORSConfig `mapstructure:"cors"`
	Log       LogConfig            `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     int `mapstructure:"read_timeout" validate:"min=1"`
	WriteTimeout    int `mapstructure:"write_timeout" validate:"min=1"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// DomainsConfig holds the hostnames the router classifies on. The public
// base URL prefixes error-page redirects on the shortener surface.
type DomainsConfig struct {
	SiteHosting   string `mapstructure:"site_hosting" validate:"required,hostname_rfc1123"`
	Admin         string `mapstructure:"admin" validate:"required,hostname_rfc1123"`
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
}

// StorageConfig selects and configures the object-store backend.
type StorageConfig struct {
	Backend string         `mapstructure:"backend" validate:"required,oneof=s3 fs"`
	S3      s3store.Config `mapstructure:"s3"`
	FS      FSConfig       `mapstructure:"fs"`
}

// FSConfig holds the local filesystem backend configuration.
type FSConfig struct {
	Path string `mapstructure:"path"`
}

// AnalyticsConfig holds the event recorder configuration.
type AnalyticsConfig struct {
	WriteTimeout int `mapstructure:"write_timeout" validate:"min=1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":         "database.type",
	"db-dsn":          "database.dsn",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.fs.path",
	"port":            "server.port",
	"site-domain":     "domains.site_hosting",
	"admin-domain":    "domains.admin",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 5710)
	v.SetDefault("server.read_timeout", 30)     // seconds
	v.SetDefault("server.write_timeout", 30)    // seconds
	v.SetDefault("server.shutdown_timeout", 15) // seconds

	v.SetDefault("domains.site_hosting", "sites.localhost")
	v.SetDefault("domains.admin", "admin.localhost")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "shortstack.db")

	v.SetDefault("storage.backend", "fs")
	v.SetDefault("storage.fs.path", "./data")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("analytics.write_timeout", 5) // seconds

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("SHORTSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// backend-conditional requirements, cross-struct rules the tag
	// validator cannot express
	if cfg.Storage.Backend == "s3" && cfg.Storage.S3.Bucket == "" {
		return nil, errors.New("validate config: storage.s3.bucket is required for the s3 backend")
	}
	if cfg.Storage.Backend == "fs" && cfg.Storage.FS.Path == "" {
		return nil, errors.New("validate config: storage.fs.path is required for the fs backend")
	}

	return &cfg, nil
}
