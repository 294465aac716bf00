package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DecodeJSON reads the keyed history layout. Key order in the document is the
// history order.
func DecodeJSON(r io.Reader) (model.SelectionHistory, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err == io.EOF {
		return model.SelectionHistory{}, nil
	}
	if err != nil {
		return model.SelectionHistory{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return model.SelectionHistory{}, fmt.Errorf("history must be a JSON object, got %v", tok)
	}

	var entries []model.HistoryEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return model.SelectionHistory{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return model.SelectionHistory{}, fmt.Errorf("unexpected token %v", tok)
		}
		var rec model.HistoryRecord
		if err := dec.Decode(&rec); err != nil {
			return model.SelectionHistory{}, fmt.Errorf("record %q: %w", key, err)
		}
		entries = append(entries, model.HistoryEntry{Key: key, Record: rec})
	}
	if _, err := dec.Token(); err != nil {
		return model.SelectionHistory{}, err
	}
	return model.NewSelectionHistory(entries...), nil
}

// EncodeJSON writes the history as an indented JSON object in history order.
func EncodeJSON(w io.Writer, history model.SelectionHistory) error {
	var buf bytes.Buffer
	entries := history.Entries()
	if len(entries) == 0 {
		buf.WriteString("{}\n")
		_, err := w.Write(buf.Bytes())
		return err
	}
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(e.Key)
		if err != nil {
			return err
		}
		rec, err := json.MarshalIndent(e.Record, "  ", "  ")
		if err != nil {
			return err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(rec)
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeYAML writes the history as a YAML mapping in history order.
func EncodeYAML(w io.Writer, history model.SelectionHistory) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range history.Entries() {
		var value yaml.Node
		if err := value.Encode(e.Record); err != nil {
			return err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&value,
		)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

// ExportHistory writes the history in the given format.
func ExportHistory(w io.Writer, history model.SelectionHistory, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return EncodeJSON(w, history)
	case FormatYAML, "yml":
		return EncodeYAML(w, history)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ImportJSON copies a legacy history file into dst and returns the number of
// imported entries. Competition metadata is recovered from the keys.
func ImportJSON(ctx context.Context, path string, dst HistoryStore) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after read.
			_ = cerr
		}
	}()

	history, err := DecodeJSON(f)
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	for i, e := range history.Entries() {
		sel := NewSelection(e, CompetitionFromKey(e.Key))
		sel.Competition.Home = e.Record.Traceurs.Manche1
		if err := dst.SaveSelection(ctx, sel); err != nil {
			return i, fmt.Errorf("import %q: %w", e.Key, err)
		}
	}
	return history.Len(), nil
}

// CompetitionFromKey splits a date_location_discipline key. The date is the
// first part and the discipline the last; everything between is the location.
func CompetitionFromKey(key string) model.Competition {
	parts := strings.Split(key, "_")
	switch len(parts) {
	case 0:
		return model.Competition{}
	case 1:
		return model.Competition{Date: parts[0]}
	case 2:
		return model.Competition{Date: parts[0], Discipline: parts[1]}
	}
	return model.Competition{
		Date:       parts[0],
		Location:   strings.Join(parts[1:len(parts)-1], " "),
		Discipline: parts[len(parts)-1],
	}
}
