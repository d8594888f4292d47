package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Display.DateLayout != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[display]
date-layout = "2006-01-02"
timezone = "UTC"
table-length = 5

[import]
logdir = "/srv/logs"

[server]
addr = ":9000"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Display.DateLayout == nil || *cfg.Display.DateLayout != "2006-01-02" {
		t.Fatalf("unexpected date layout: %v", cfg.Display.DateLayout)
	}
	if cfg.Display.TableLength == nil || *cfg.Display.TableLength != 5 {
		t.Fatalf("unexpected table length: %v", cfg.Display.TableLength)
	}
	if cfg.Display.ShowGames != nil {
		t.Fatalf("expected unset show-games to stay nil")
	}
	if cfg.Import.LogDir == nil || *cfg.Import.LogDir != "/srv/logs" {
		t.Fatalf("unexpected logdir: %v", cfg.Import.LogDir)
	}
	if cfg.Server.Addr == nil || *cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %v", cfg.Server.Addr)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[display\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTemplateDecodes(t *testing.T) {
	var cfg FileConfig
	if _, err := toml.Decode(Template(), &cfg); err != nil {
		t.Fatalf("template is not valid TOML: %v", err)
	}
}

func TestLoadLocation(t *testing.T) {
	if loc, err := LoadLocation(""); err != nil || loc != time.Local {
		t.Fatalf("expected local zone for empty name")
	}
	if loc, err := LoadLocation("UTC"); err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v %v", loc, err)
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/conf")
	if got := DefaultDBPath(); got != filepath.Join("/data", "crawlboard", "crawlboard.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultLogDir(); got != filepath.Join("/data", "crawlboard", "logfiles") {
		t.Fatalf("unexpected log dir %q", got)
	}
	if got := DefaultBlacklistPath(); got != filepath.Join("/conf", "crawlboard", "blacklist.txt") {
		t.Fatalf("unexpected blacklist path %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/conf", "crawlboard", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
}
