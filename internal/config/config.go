// Package config loads service settings from environment variables.
// Defaults are applied for unset values and everything is validated on
// startup so misconfiguration fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Cache    CacheConfig
	Storage  StorageConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the graceful shutdown wait.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout applies to non-upload routes.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	// URL accepts DATABASE_URL or DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds logger file ingestion settings.
type UploadConfig struct {
	// MaxFileSize is enforced on the request body and again by the service (default: 10 MB).
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent caps files ingested (and dry-run parses) at once.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxBacklog is how many dry-run parse requests may wait for a slot.
	MaxBacklog int `env:"UPLOAD_MAX_BACKLOG" default:"20"`

	// MaxWaitTime is how long a queued upload waits before 429.
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// BatchSize is the number of measurement rows per COPY batch.
	BatchSize int `env:"UPLOAD_BATCH_SIZE" default:"1000"`

	// Timeout bounds parsing plus persistence of one file.
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"5m"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireUserID rejects /api requests without an x-user-id header.
	RequireUserID bool `env:"REQUIRE_USER_ID" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// CacheConfig enables the Redis summary cache when URL is set.
type CacheConfig struct {
	URL string        `env:"REDIS_URL"`
	TTL time.Duration `env:"CACHE_TTL" default:"10m"`
}

// Enabled reports whether a cache is configured.
func (c *CacheConfig) Enabled() bool {
	return c.URL != ""
}

// StorageConfig enables original-file storage in MinIO when Endpoint is set.
type StorageConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" default:"logger-files"`
	Region    string `env:"MINIO_REGION"`
	Secure    bool   `env:"MINIO_SECURE" default:"false"`
}

// Enabled reports whether attachment storage is configured.
func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
