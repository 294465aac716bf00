// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Draw       DrawConfig       `toml:"draw"`
	Committees CommitteesConfig `toml:"committees"`
	Portal     PortalConfig     `toml:"portal"`
	History    HistoryConfig    `toml:"history"`
	Log        LogConfig        `toml:"log"`
	Report     ReportConfig     `toml:"report"`
}

// DrawConfig maps the weighting knobs.
type DrawConfig struct {
	BaseWeight        *float64 `toml:"base-weight"`
	Occurrence        *bool    `toml:"occurrence"`
	OccurrenceDivider *float64 `toml:"occurrence-divider"`
	Recency           *bool    `toml:"recency"`
	RecencyMin        *float64 `toml:"recency-min"`
	RecencyPower      *float64 `toml:"recency-power"`
	Seed              *int64   `toml:"seed"`
}

// CommitteesConfig maps committee adjustments.
type CommitteesConfig struct {
	Extra map[string]int `toml:"extra"`
}

// PortalConfig maps registration portal settings.
type PortalConfig struct {
	BaseURL  *string `toml:"base-url"`
	Attempts *int    `toml:"attempts"`
	Delay    *string `toml:"delay"`
	Timeout  *string `toml:"timeout"`
}

// HistoryConfig maps the history backend.
type HistoryConfig struct {
	Backend *string `toml:"backend"`
	Path    *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	File   *string `toml:"file"`
	Format *string `toml:"format"`
}

// ReportConfig maps HTML report settings.
type ReportConfig struct {
	Dir  *string `toml:"dir"`
	Open *bool   `toml:"open"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ExtraCounts validates the [committees.extra] table.
func (c CommitteesConfig) ExtraCounts() (model.Counts, error) {
	if len(c.Extra) == 0 {
		return nil, nil
	}
	counts, err := model.NewCounts(c.Extra)
	if err != nil {
		return nil, fmt.Errorf("committees.extra: %w", err)
	}
	return counts, nil
}

// Credentials returns the portal e-mail and password from the environment.
// The password may be empty; callers prompt for it when possible.
func Credentials(getenv func(string) string) (string, string, error) {
	email := strings.TrimSpace(getenv("EMAIL"))
	if email == "" {
		return "", "", fmt.Errorf("EMAIL environment variable is not set")
	}
	return email, getenv("PASSWORD"), nil
}
