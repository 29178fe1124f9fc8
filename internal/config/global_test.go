package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/refman/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "refman", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if *cfg != (GlobalConfig{}) {
		t.Errorf("LoadGlobalConfig() = %+v, want empty", cfg)
	}
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, GlobalConfigDir, GlobalConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)
	writeConfig(t, `data_path: ~/refs
mailto: me@example.org
mirror_url: https://mirror.example
pdf_reader: zathura
timeout: 45s
log_level: debug
`)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg.DataPath != "~/refs" || cfg.Mailto != "me@example.org" || cfg.PDFReader != "zathura" {
		t.Errorf("LoadGlobalConfig() = %+v", cfg)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Errorf("RequestTimeout() = %v, want 45s", got)
	}

	// cached
	again, _ := LoadGlobalConfig()
	if again != cfg {
		t.Error("LoadGlobalConfig() did not return the cached config")
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"yaml", "data_path: [unclosed", "parsing global config"},
		{"timeout", "timeout: soon", "invalid timeout"},
		{"log level", "log_level: loud", "invalid log_level"},
		{"mirror", "mirror_url: mirror.example", "invalid mirror_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetGlobalConfigCache()
			t.Cleanup(ResetGlobalConfigCache)
			writeConfig(t, tt.content)
			_, err := LoadGlobalConfig()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadGlobalConfig() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := &GlobalConfig{}
	if err := cfg.Set("mailto", " me@example.org "); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := cfg.Get("mailto"); v != "me@example.org" {
		t.Errorf("Get(mailto) = %q", v)
	}

	if err := cfg.Set("timeout", "-1s"); err == nil {
		t.Error("Set(timeout, -1s) succeeded")
	}
	if cfg.Timeout != "" {
		t.Errorf("invalid value kept: %q", cfg.Timeout)
	}

	if _, err := cfg.Get("nexus_path"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownKey", err)
	}
	if err := cfg.Set("nexus_path", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(unknown) error = %v, want ErrUnknownKey", err)
	}
}

func TestSaveGlobalConfig(t *testing.T) {
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := SaveGlobalConfig(&GlobalConfig{Mailto: "me@example.org", Timeout: "10s"}); err != nil {
		t.Fatalf("SaveGlobalConfig() error = %v", err)
	}
	data, err := os.ReadFile(GlobalConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "mailto: me@example.org\ntimeout: 10s\n" {
		t.Errorf("saved config = %q", got)
	}

	ResetGlobalConfigCache()
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.Mailto != "me@example.org" {
		t.Errorf("reloaded config = %+v, %v", cfg, err)
	}
}

func TestKeys(t *testing.T) {
	got := strings.Join(Keys(), ",")
	if want := "data_path,log_level,mailto,mirror_url,pdf_reader,timeout"; got != want {
		t.Errorf("Keys() = %s, want %s", got, want)
	}
}
