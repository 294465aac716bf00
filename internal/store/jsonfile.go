package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

// JSONFile keeps the history in the legacy keyed JSON file.
type JSONFile struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// NewJSONFile returns a store backed by the file at path.
func NewJSONFile(path string, log *zap.Logger) *JSONFile {
	if log == nil {
		log = zap.NewNop()
	}
	return &JSONFile{path: path, log: log}
}

// ErrMalformedHistory is returned when a save finds an existing history file
// it cannot decode. The file is left untouched.
var ErrMalformedHistory = errors.New("malformed history file")

// LoadHistory reads the file. An absent or malformed file yields an empty history.
func (f *JSONFile) LoadHistory(_ context.Context) (model.SelectionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	history, err := f.read()
	if err != nil {
		f.log.Warn("history file unusable, starting empty", zap.String("path", f.path), zap.Error(err))
		return model.SelectionHistory{}, nil
	}
	return history, nil
}

// read decodes the file strictly. Only a missing file counts as empty.
func (f *JSONFile) read() (model.SelectionHistory, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.SelectionHistory{}, nil
		}
		return model.SelectionHistory{}, err
	}
	history, err := DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return model.SelectionHistory{}, fmt.Errorf("%w %s: %v", ErrMalformedHistory, f.path, err)
	}
	return history, nil
}

// SaveSelection appends the entry and rewrites the file atomically. It refuses
// to write over a file it cannot decode.
func (f *JSONFile) SaveSelection(_ context.Context, sel Selection) error {
	if sel.Entry.Key == "" {
		return fmt.Errorf("selection has an empty key")
	}
	if err := sel.Entry.Record.Traceurs.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	history, err := f.read()
	if err != nil {
		return fmt.Errorf("refusing to overwrite history: %w", err)
	}
	return f.write(history.Append(sel.Entry))
}

func (f *JSONFile) write(history model.SelectionHistory) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, history); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tracer-history-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rerr := os.Remove(tmpName); rerr != nil {
			// Best-effort temp cleanup.
			_ = rerr
		}
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Close is a no-op; the file is rewritten on every save.
func (f *JSONFile) Close() error {
	return nil
}
