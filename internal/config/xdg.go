package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "tracer-picker"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultJSONHistoryPath returns the default path of the legacy history file.
func DefaultJSONHistoryPath() string {
	return filepath.Join(XDGDataHome(), appName, "tracer-history.json")
}

// DefaultReportDir returns the directory HTML reports are written to.
func DefaultReportDir() string {
	return filepath.Join(XDGDataHome(), appName, "reports")
}

// DefaultHistoryPath returns the default store path for a backend.
func DefaultHistoryPath(backend string) string {
	if strings.EqualFold(strings.TrimSpace(backend), "json") {
		return DefaultJSONHistoryPath()
	}
	return DefaultDBPath()
}
