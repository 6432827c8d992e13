// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables; the section tag
// is the variable prefix, so Server.Port is read from SERVER_PORT.
type Config struct {
	Server   ServerConfig    `envconfig:"SERVER"`
	Upload   UploadConfig    `envconfig:"UPLOAD"`
	Rate     RateLimitConfig `envconfig:"RATE_LIMIT"`
	Security SecurityConfig  `envconfig:"SECURITY"`
	Logging  LoggingConfig   `envconfig:"LOG"`
	Pipeline PipelineConfig  `envconfig:"PIPELINE"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading the request, uploads included (default: 60s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"60s" validate:"gte=0"`

	// WriteTimeout is the maximum duration for writing the archive (default: 120s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"120s" validate:"gte=0"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s" validate:"gte=0"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s" validate:"gt=0"`
}

// UploadConfig holds limits on uploaded batches.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one CSV file in bytes (default: 10MB)
	MaxFileSize int64 `envconfig:"MAX_FILE_SIZE" default:"10485760" validate:"gt=0"`

	// MaxFiles is the maximum number of files in one batch (default: 50)
	MaxFiles int `envconfig:"MAX_FILES" default:"50" validate:"min=1"`

	// MaxConcurrent is the maximum number of batches generated at once (default: 4)
	MaxConcurrent int `envconfig:"MAX_CONCURRENT" default:"4" validate:"min=1"`

	// MaxWaitTime is how long a batch waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"MAX_WAIT_TIME" default:"30s" validate:"gt=0"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate allowed per IP (default: 60)
	RequestsPerMinute int `envconfig:"REQUESTS_PER_MINUTE" default:"60" validate:"gte=0"`

	// Burst is how many requests an IP may make at once (default: 10)
	Burst int `envconfig:"BURST" default:"10" validate:"gte=0"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// PipelineConfig holds list generation settings.
type PipelineConfig struct {
	// Workers is how many files of one batch are rendered in parallel (default: 1)
	Workers int `envconfig:"WORKERS" default:"1" validate:"min=1,max=64"`

	// ArchiveName is the download file name (default: listas_processadas.zip)
	ArchiveName string `envconfig:"ARCHIVE_NAME" default:"listas_processadas.zip" validate:"required,endswith=.zip"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
