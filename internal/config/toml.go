// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults used by the CLI when neither a flag nor the config sets a value.
const (
	DefaultTableLength = 10
	DefaultShowGames   = 100
	DefaultServerAddr  = "127.0.0.1:8080"
	DefaultLogLevel    = "info"
	DefaultEnvironment = "development"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Display DisplayConfig `toml:"display"`
	Import  ImportConfig  `toml:"import"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// DisplayConfig maps how dates and tables are rendered.
type DisplayConfig struct {
	DateLayout  *string `toml:"date-layout"`
	Timezone    *string `toml:"timezone"`
	TableLength *int    `toml:"table-length"`
	ShowGames   *int    `toml:"show-games"`
}

// ImportConfig maps logfile import settings.
type ImportConfig struct {
	LogDir    *string `toml:"logdir"`
	Blacklist *string `toml:"blacklist"`
}

// ServerConfig maps the HTTP server settings.
type ServerConfig struct {
	Addr    *string `toml:"addr"`
	URLBase *string `toml:"urlbase"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level       *string `toml:"level"`
	Environment *string `toml:"environment"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadLocation resolves a timezone name. Empty and "local" select time.Local.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// Template returns the commented config file written by `crawlboard config`.
func Template() string {
	return fmt.Sprintf(`# crawlboard configuration
# Uncomment a value to enable it. CLI flags override config values.

[display]
# date-layout = "1/2/2006, 3:04:05 PM"  # Go time layout for the Date column
# timezone = "local"                    # IANA zone name, e.g. "Europe/Berlin"
# table-length = %d                     # Rows per highscore table
# show-games = %d                       # Games listed per player

[import]
# logdir = %q
# blacklist = %q

[server]
# addr = %q
# urlbase = ""                          # Prefix for links in API responses

[log]
# level = %q                          # debug, info, warn, error
# environment = %q             # production logs JSON
`,
		DefaultTableLength,
		DefaultShowGames,
		DefaultLogDir(),
		DefaultBlacklistPath(),
		DefaultServerAddr,
		DefaultLogLevel,
		DefaultEnvironment,
	)
}
