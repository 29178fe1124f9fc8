package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/refman/internal/atomicfile"
)

// GlobalConfig represents configuration stored in ~/.config/refman/config.yml.
type GlobalConfig struct {
	DataPath  string `yaml:"data_path,omitempty"`
	Mailto    string `yaml:"mailto,omitempty"`     // Crossref polite pool contact
	MirrorURL string `yaml:"mirror_url,omitempty"` // empty disables the mirror source
	PDFReader string `yaml:"pdf_reader,omitempty"` // "system" or a command
	Timeout   string `yaml:"timeout,omitempty"`    // Go duration, per HTTP request
	LogLevel  string `yaml:"log_level,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "refman"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// DefaultTimeout applies when timeout is unset.
const DefaultTimeout = 30 * time.Second

// ErrUnknownKey is returned by Get and Set for keys GlobalConfig lacks.
var ErrUnknownKey = errors.New("unknown config key")

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/refman/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("global config %s: %w", path, err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// SaveGlobalConfig writes cfg to the global config file and refreshes the cache.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	path := GlobalConfigPath()
	if path == "" {
		return errors.New("cannot locate the config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding global config: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}
	globalConfigCache = cfg
	return nil
}

// Validate checks the values that have a fixed format.
func (c *GlobalConfig) Validate() error {
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q (want a duration such as 30s)", c.Timeout)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q (want debug, info, warn or error)", c.LogLevel)
	}
	if c.MirrorURL != "" && !strings.HasPrefix(c.MirrorURL, "http://") && !strings.HasPrefix(c.MirrorURL, "https://") {
		return fmt.Errorf("invalid mirror_url %q (want an http(s) URL)", c.MirrorURL)
	}
	return nil
}

// RequestTimeout returns the configured timeout or DefaultTimeout.
func (c *GlobalConfig) RequestTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

// fields maps config keys to their storage.
func (c *GlobalConfig) fields() map[string]*string {
	return map[string]*string{
		"data_path":  &c.DataPath,
		"mailto":     &c.Mailto,
		"mirror_url": &c.MirrorURL,
		"pdf_reader": &c.PDFReader,
		"timeout":    &c.Timeout,
		"log_level":  &c.LogLevel,
	}
}

// Keys lists the config keys in sorted order.
func Keys() []string {
	var c GlobalConfig
	keys := make([]string, 0, len(c.fields()))
	for k := range c.fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key.
func (c *GlobalConfig) Get(key string) (string, error) {
	p, ok := c.fields()[key]
	if !ok {
		return "", fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	return *p, nil
}

// Set assigns value to key and validates the result. An empty value unsets key.
func (c *GlobalConfig) Set(key, value string) error {
	p, ok := c.fields()[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	old := *p
	*p = strings.TrimSpace(value)
	if err := c.Validate(); err != nil {
		*p = old
		return err
	}
	return nil
}
