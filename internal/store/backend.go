package store

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Backend names accepted by OpenBackend.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// NormalizeBackend returns the canonical name of a history backend. An empty
// name selects SQLite.
func NormalizeBackend(backend string) (string, error) {
	switch name := strings.ToLower(strings.TrimSpace(backend)); name {
	case BackendSQLite, "":
		return BackendSQLite, nil
	case BackendJSON:
		return BackendJSON, nil
	default:
		return "", fmt.Errorf("unknown history backend %q (expected %s or %s)", backend, BackendSQLite, BackendJSON)
	}
}

// OpenBackend opens the history store selected in the configuration.
func OpenBackend(backend, path string, log *zap.Logger) (HistoryStore, error) {
	name, err := NormalizeBackend(backend)
	if err != nil {
		return nil, err
	}
	if name == BackendJSON {
		return NewJSONFile(path, log), nil
	}
	return Open(path)
}
