// Package config loads the configuration shared by the pizzamock command and
// the e2e suites.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the effective configuration.
type Config struct {
	// The base URL of the storefront under test.
	BaseURL string `mapstructure:"base_url"`
	// The browser engine used by the e2e suites: chromium, firefox, or webkit.
	Browser string `mapstructure:"browser"`
	// Whether the browser runs headless.
	Headless bool `mapstructure:"headless"`
	// The default timeout of a single browser action or wait.
	Timeout time.Duration `mapstructure:"timeout"`
	// When set, requests not fulfilled by a mock fail the scenario.
	Offline bool `mapstructure:"offline"`
	// The minimum log level.
	LogLevel string `mapstructure:"log_level"`

	Serve ServeConfig `mapstructure:"serve"`
}

// ServeConfig configures the "pizzamock serve" command.
type ServeConfig struct {
	// The TCP address to listen on.
	Addr string `mapstructure:"addr"`
	// The path of a mockfile with the routes to serve, if empty the
	// built-in storefront mocks are served.
	Fixtures string `mapstructure:"fixtures"`
	// The URL of the real backend to which unmatched requests are forwarded.
	Upstream string `mapstructure:"upstream"`
	// The path of the HTML transcript written on shutdown, or empty.
	Transcript string `mapstructure:"transcript"`
	// The path of the mockfile, replaying the served exchanges, written
	// on shutdown, or empty.
	Record string `mapstructure:"record"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:5173",
		Browser:  "chromium",
		Headless: true,
		Timeout:  10 * time.Second,
		LogLevel: "info",
		Serve: ServeConfig{
			Addr: "localhost:3000",
		},
	}
}

// Validate reports the first invalid value of cfg.
func Validate(cfg Config) error {
	if _, err := parseAbsURL(cfg.BaseURL); err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	switch cfg.Browser {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("browser: unsupported browser %q", cfg.Browser)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout: must be positive, got %s", cfg.Timeout)
	}
	if cfg.Serve.Addr == "" {
		return fmt.Errorf("serve.addr: must not be empty")
	}
	if cfg.Serve.Upstream != "" {
		if _, err := parseAbsURL(cfg.Serve.Upstream); err != nil {
			return fmt.Errorf("serve.upstream: %w", err)
		}
	}
	return nil
}

// URL returns the storefront URL of the given path.
func (c Config) URL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func parseAbsURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}
