package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// LoadPipeline reads only the PIPELINE_* settings, for tools that generate
// lists without running the server.
func LoadPipeline() (PipelineConfig, error) {
	var pc PipelineConfig

	if err := envconfig.Process("PIPELINE", &pc); err != nil {
		return pc, fmt.Errorf("config load: %w", err)
	}

	if err := newValidator().Struct(&pc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return pc, err
		}
		errs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			errs = append(errs, "PIPELINE_"+describe(fe))
		}
		return pc, fmt.Errorf("config validation: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return pc, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// newValidator reports fields by their envconfig tag so a failure on
// Config.Server.Port surfaces as SERVER_PORT.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("envconfig"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// envName turns a validator namespace like "Config.SERVER.PORT" into SERVER_PORT.
func envName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, "_")
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, describe(fe))
		}
	}

	// Cross-field checks
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	if c.Pipeline.Workers > c.Upload.MaxFiles && c.Upload.MaxFiles > 0 {
		errs = append(errs, fmt.Sprintf("PIPELINE_WORKERS (%d) must not exceed UPLOAD_MAX_FILES (%d)",
			c.Pipeline.Workers, c.Upload.MaxFiles))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func describe(fe validator.FieldError) string {
	name := envName(fe.Namespace())
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s (%q) must be one of: %s", name, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return fmt.Sprintf("%s (%v) must be at least %s", name, fe.Value(), fe.Param())
	case "max":
		return fmt.Sprintf("%s (%v) must be at most %s", name, fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be positive", name)
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "endswith":
		return fmt.Sprintf("%s (%q) must end with %s", name, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s (%v) failed %s validation", name, fe.Value(), fe.Tag())
	}
}

// String returns a compact representation of the config for startup logs.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d, MaxFiles: %d, MaxConcurrent: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxFiles, c.Upload.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d, Burst: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.Burst))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}, ",
		c.Logging.Level, c.Logging.Format))
	b.WriteString(fmt.Sprintf("Pipeline: {Workers: %d}", c.Pipeline.Workers))
	b.WriteString("}")
	return b.String()
}
