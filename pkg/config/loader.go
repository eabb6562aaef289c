package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable the service reads.
const EnvPrefix = "EVENTUAL"

// Loader loads and validates configuration.
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader loads configuration with precedence: environment variables
// over config file over defaults.
type ViperLoader struct {
	configFile string
	envPrefix  string
}

// NewViperLoader creates a loader. configFile may be empty, in which case
// only defaults and environment variables apply.
func NewViperLoader(configFile string) *ViperLoader {
	return &ViperLoader{configFile: configFile, envPrefix: EnvPrefix}
}

// Load reads the configuration sources and returns a validated Config.
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()
	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	l.bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for values the service cannot
// start with.
func (l *ViperLoader) Validate(cfg *Config) error {
	var errs []error

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be in (0, 65535], got %d", cfg.HTTP.Port))
	}
	if cfg.Management.Enabled {
		if cfg.Management.Port <= 0 || cfg.Management.Port > 65535 {
			errs = append(errs, fmt.Errorf("management.port must be in (0, 65535], got %d", cfg.Management.Port))
		}
		if cfg.Management.Port == cfg.HTTP.Port {
			errs = append(errs, errors.New("management.port must differ from http.port"))
		}
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if strings.TrimSpace(cfg.Database.Database) == "" {
		errs = append(errs, errors.New("database.database is required"))
	}
	if cfg.Media.Enabled {
		if strings.TrimSpace(cfg.Media.Bucket) == "" {
			errs = append(errs, errors.New("media.bucket is required when media is enabled"))
		}
		if strings.TrimSpace(cfg.Media.Region) == "" {
			errs = append(errs, errors.New("media.region is required when media is enabled"))
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, errors.New("rate_limit.requests_per_second must be positive"))
		}
		if cfg.RateLimit.Burst <= 0 {
			errs = append(errs, errors.New("rate_limit.burst must be positive"))
		}
	}
	switch strings.ToLower(cfg.Observability.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("observability.log_level %q is not one of debug, info, warn, error", cfg.Observability.LogLevel))
	}
	switch strings.ToLower(cfg.Observability.LogFormat) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("observability.log_format %q is not one of json, text, console", cfg.Observability.LogFormat))
	}

	return errors.Join(errs...)
}

func (l *ViperLoader) setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("service.name", defaults.Service.Name)
	v.SetDefault("service.environment", defaults.Service.Environment)

	v.SetDefault("http.port", defaults.HTTP.Port)
	v.SetDefault("http.read_timeout", defaults.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", defaults.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", defaults.HTTP.IdleTimeout)
	v.SetDefault("http.request_timeout", defaults.HTTP.RequestTimeout)

	v.SetDefault("management.enabled", defaults.Management.Enabled)
	v.SetDefault("management.port", defaults.Management.Port)

	v.SetDefault("database.url", defaults.Database.URL)
	v.SetDefault("database.database", defaults.Database.Database)
	v.SetDefault("database.connect_timeout", defaults.Database.ConnectTimeout)
	v.SetDefault("database.operation_timeout", defaults.Database.OperationTimeout)

	v.SetDefault("media.enabled", defaults.Media.Enabled)
	v.SetDefault("media.region", defaults.Media.Region)

	v.SetDefault("cors.enabled", defaults.CORS.Enabled)
	v.SetDefault("cors.allow_origins", defaults.CORS.AllowOrigins)
	v.SetDefault("cors.allow_methods", defaults.CORS.AllowMethods)
	v.SetDefault("cors.allow_headers", defaults.CORS.AllowHeaders)
	v.SetDefault("cors.expose_headers", defaults.CORS.ExposeHeaders)
	v.SetDefault("cors.max_age", defaults.CORS.MaxAge)

	v.SetDefault("rate_limit.enabled", defaults.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", defaults.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", defaults.RateLimit.Burst)

	v.SetDefault("observability.log_level", defaults.Observability.LogLevel)
	v.SetDefault("observability.log_format", defaults.Observability.LogFormat)
	v.SetDefault("observability.metrics_enabled", defaults.Observability.MetricsEnabled)
}

// bindEnvVars binds nested keys explicitly; viper does not merge env vars
// into nested structs through AutomaticEnv alone.
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("service.name", l.prefixed("SERVICE_NAME"))
	v.BindEnv("service.environment", l.prefixed("SERVICE_ENVIRONMENT"), l.prefixed("ENVIRONMENT"))

	v.BindEnv("http.port", l.prefixed("HTTP_PORT"))
	v.BindEnv("http.read_timeout", l.prefixed("HTTP_READ_TIMEOUT"))
	v.BindEnv("http.write_timeout", l.prefixed("HTTP_WRITE_TIMEOUT"))
	v.BindEnv("http.idle_timeout", l.prefixed("HTTP_IDLE_TIMEOUT"))
	v.BindEnv("http.request_timeout", l.prefixed("HTTP_REQUEST_TIMEOUT"))

	v.BindEnv("management.enabled", l.prefixed("MGMT_ENABLED"))
	v.BindEnv("management.port", l.prefixed("MGMT_PORT"))

	v.BindEnv("database.url", l.prefixed("DATABASE_URL"), l.prefixed("MONGODB_URL"))
	v.BindEnv("database.database", l.prefixed("DATABASE_NAME"))
	v.BindEnv("database.connect_timeout", l.prefixed("DATABASE_CONNECT_TIMEOUT"))
	v.BindEnv("database.operation_timeout", l.prefixed("DATABASE_OPERATION_TIMEOUT"))

	v.BindEnv("media.enabled", l.prefixed("MEDIA_ENABLED"))
	v.BindEnv("media.bucket", l.prefixed("MEDIA_BUCKET"))
	v.BindEnv("media.region", l.prefixed("MEDIA_REGION"))
	v.BindEnv("media.endpoint", l.prefixed("MEDIA_ENDPOINT"))
	v.BindEnv("media.access_key_id", l.prefixed("MEDIA_ACCESS_KEY_ID"))
	v.BindEnv("media.secret_access_key", l.prefixed("MEDIA_SECRET_ACCESS_KEY"))
	v.BindEnv("media.key_prefix", l.prefixed("MEDIA_KEY_PREFIX"))
	v.BindEnv("media.public_base_url", l.prefixed("MEDIA_PUBLIC_BASE_URL"))
	v.BindEnv("media.use_path_style", l.prefixed("MEDIA_USE_PATH_STYLE"))

	v.BindEnv("cors.enabled", l.prefixed("CORS_ENABLED"))
	v.BindEnv("cors.allow_origins", l.prefixed("CORS_ALLOW_ORIGINS"))
	v.BindEnv("cors.allow_methods", l.prefixed("CORS_ALLOW_METHODS"))
	v.BindEnv("cors.allow_headers", l.prefixed("CORS_ALLOW_HEADERS"))
	v.BindEnv("cors.expose_headers", l.prefixed("CORS_EXPOSE_HEADERS"))
	v.BindEnv("cors.max_age", l.prefixed("CORS_MAX_AGE"))

	v.BindEnv("rate_limit.enabled", l.prefixed("RATE_LIMIT_ENABLED"))
	v.BindEnv("rate_limit.requests_per_second", l.prefixed("RATE_LIMIT_RPS"))
	v.BindEnv("rate_limit.burst", l.prefixed("RATE_LIMIT_BURST"))

	v.BindEnv("observability.log_level", l.prefixed("LOG_LEVEL"))
	v.BindEnv("observability.log_format", l.prefixed("LOG_FORMAT"))
	v.BindEnv("observability.metrics_enabled", l.prefixed("METRICS_ENABLED"))
}

func (l *ViperLoader) prefixed(name string) string {
	return l.envPrefix + "_" + name
}
