package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables that override the
// configuration, e.g. PIZZAMOCK_BASE_URL or PIZZAMOCK_SERVE_ADDR.
const EnvPrefix = "PIZZAMOCK"

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "pizzamock.yaml"

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ConfigPath overrides the default config file path. Unlike the default
	// path, an explicitly given path must exist.
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dot-notated keys).
	FlagOverrides map[string]any
}

// Load returns the effective configuration after applying precedence:
// defaults < config file < env (PIZZAMOCK_*) < flags.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	path, required := opts.ConfigPath, true
	if path == "" {
		path, required = DefaultPath, false
	}
	if err := mergeConfigFile(v, path, required); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range opts.FlagOverrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults seeds viper with built-in defaults. Every key must have
// a default for the env overrides to be picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("browser", def.Browser)
	v.SetDefault("headless", def.Headless)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("offline", def.Offline)
	v.SetDefault("log_level", def.LogLevel)

	v.SetDefault("serve.addr", def.Serve.Addr)
	v.SetDefault("serve.fixtures", def.Serve.Fixtures)
	v.SetDefault("serve.upstream", def.Serve.Upstream)
	v.SetDefault("serve.transcript", def.Serve.Transcript)
	v.SetDefault("serve.record", def.Serve.Record)
}

// mergeConfigFile merges the YAML config file if it exists.
func mergeConfigFile(v *viper.Viper, path string, required bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}
