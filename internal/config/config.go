package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Environment holds the settings for one testing environment.
// Values can be overridden through environment variables.
type Environment struct {
	Name string `yaml:"-" env:"-"`

	JSONPlaceholderBaseURL string `yaml:"jsonplaceholder_base_url" env:"JSONPLACEHOLDER_BASE_URL"`
	GoRestBaseURL          string `yaml:"gorest_base_url" env:"GOREST_BASE_URL"`
	GoRestToken            string `yaml:"gorest_api_key" env:"GOREST_API_KEY"`
	HTTPBinBaseURL         string `yaml:"httpbin_base_url" env:"HTTPBIN_BASE_URL"`

	RequestTimeoutSec int     `yaml:"default_timeout" env:"API_TIMEOUT"`
	MaxRetries        int     `yaml:"max_retries" env:"MAX_RETRIES"`
	RetryDelaySec     float64 `yaml:"retry_delay" env:"RETRY_DELAY"`
	ProbeDurationSec  int     `yaml:"probe_duration" env:"PROBE_DURATION"`
	MaxRPS            int     `yaml:"max_rps" env:"MAX_RPS"`
}

// environments holds the built-in presets. Production is deliberately the
// most aggressive: shorter timeouts, fewer retries, longer measurement runs.
var environments = map[string]Environment{
	"development": {
		JSONPlaceholderBaseURL: "https://jsonplaceholder.typicode.com",
		GoRestBaseURL:          "https://gorest.co.in/public/v2",
		GoRestToken:            "test-key",
		HTTPBinBaseURL:         "https://httpbin.org",
		RequestTimeoutSec:      30,
		MaxRetries:             3,
		RetryDelaySec:          1.0,
		ProbeDurationSec:       30,
		MaxRPS:                 50,
	},
	"staging": {
		JSONPlaceholderBaseURL: "https://jsonplaceholder.typicode.com",
		GoRestBaseURL:          "https://gorest.co.in/public/v2",
		GoRestToken:            "test-key",
		HTTPBinBaseURL:         "https://httpbin.org",
		RequestTimeoutSec:      20,
		MaxRetries:             2,
		RetryDelaySec:          0.5,
		ProbeDurationSec:       60,
		MaxRPS:                 100,
	},
	"production": {
		JSONPlaceholderBaseURL: "https://jsonplaceholder.typicode.com",
		GoRestBaseURL:          "https://gorest.co.in/public/v2",
		GoRestToken:            "test-key",
		HTTPBinBaseURL:         "https://httpbin.org",
		RequestTimeoutSec:      15,
		MaxRetries:             1,
		RetryDelaySec:          0.2,
		ProbeDurationSec:       120,
		MaxRPS:                 200,
	},
}

// Load returns the configuration for the named environment with any
// environment-variable overrides applied on top of the preset.
func Load(name string) (*Environment, error) {
	preset, ok := environments[name]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q (available: development, staging, production)", name)
	}

	cfg := preset
	cfg.Name = name

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile loads environment definitions from a YAML file and returns the
// named environment. File values replace the built-in preset entirely;
// environment-variable overrides still apply on top.
func LoadFile(path, name string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environments file: %w", err)
	}

	var envs map[string]Environment
	if err := yaml.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("failed to parse environments file: %w", err)
	}

	cfg, ok := envs[name]
	if !ok {
		return nil, fmt.Errorf("environment %q not defined in %s", name, path)
	}
	cfg.Name = name

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the environment settings for values that would make
// a test run meaningless.
func (e *Environment) Validate() error {
	if e.JSONPlaceholderBaseURL == "" {
		return fmt.Errorf("jsonplaceholder base URL is required")
	}
	if e.RequestTimeoutSec <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if e.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if e.ProbeDurationSec <= 0 {
		return fmt.Errorf("probe duration must be greater than 0")
	}
	if e.MaxRPS <= 0 {
		return fmt.Errorf("max rps must be greater than 0")
	}
	return nil
}

// RequestTimeout returns the per-request timeout as time.Duration.
func (e *Environment) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutSec) * time.Second
}

// RetryDelay returns the initial retry delay as time.Duration.
func (e *Environment) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelaySec * float64(time.Second))
}

// ProbeDuration returns the measurement window for one probe.
func (e *Environment) ProbeDuration() time.Duration {
	return time.Duration(e.ProbeDurationSec) * time.Second
}
