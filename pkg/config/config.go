package config

import "time"

// Config is the root configuration of the service.
type Config struct {
	Service       ServiceConfig
	HTTP          HTTPConfig
	Management    ManagementConfig
	Database      DatabaseConfig
	Media         MediaConfig
	CORS          CORSConfig
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Services      map[string]ServiceEndpoint
}

// ServiceConfig holds service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the public API server.
type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ManagementConfig configures the management server carrying health and
// metrics endpoints.
type ManagementConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DatabaseConfig configures the document store connection.
type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	Database         string        `mapstructure:"database"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// MediaConfig configures the object storage backing media uploads.
type MediaConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// CORSConfig configures cross-origin access for browser clients.
type CORSConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
	AllowMethods  []string `mapstructure:"allow_methods"`
	AllowHeaders  []string `mapstructure:"allow_headers"`
	ExposeHeaders []string `mapstructure:"expose_headers"`
	MaxAge        int      `mapstructure:"max_age"`
}

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// ServiceEndpoint locates a peer content service.
type ServiceEndpoint struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "eventual",
			Environment: "development",
		},
		HTTP: HTTPConfig{
			Port:           8000,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 15 * time.Second,
		},
		Management: ManagementConfig{
			Enabled: true,
			Port:    9090,
		},
		Database: DatabaseConfig{
			URL:              "mongodb://localhost:27017",
			Database:         "eventual",
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		Media: MediaConfig{
			Enabled: false,
			Region:  "eu-west-1",
		},
		CORS: CORSConfig{
			Enabled:       true,
			AllowOrigins:  []string{"*"},
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"*"},
			ExposeHeaders: []string{"X-Total-Count", "Location"},
			MaxAge:        600,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
		Services: map[string]ServiceEndpoint{},
	}
}
