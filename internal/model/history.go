package model

import (
	"fmt"
	"strings"
)

// Traceurs records the committee selected for each manche.
type Traceurs struct {
	Manche1 Committee `json:"manche1" yaml:"manche1"`
	Manche2 Committee `json:"manche2" yaml:"manche2"`
	Manche3 Committee `json:"manche3" yaml:"manche3"`
	Manche4 Committee `json:"manche4" yaml:"manche4"`
}

// Get returns the committee recorded for a manche.
func (t Traceurs) Get(m Manche) Committee {
	switch m {
	case Manche1:
		return t.Manche1
	case Manche2:
		return t.Manche2
	case Manche3:
		return t.Manche3
	case Manche4:
		return t.Manche4
	default:
		return ""
	}
}

// Set records the committee of a manche.
func (t *Traceurs) Set(m Manche, c Committee) {
	switch m {
	case Manche1:
		t.Manche1 = c
	case Manche2:
		t.Manche2 = c
	case Manche3:
		t.Manche3 = c
	case Manche4:
		t.Manche4 = c
	}
}

// All returns the four committees in manche order.
func (t Traceurs) All() [NumManches]Committee {
	return [NumManches]Committee{t.Manche1, t.Manche2, t.Manche3, t.Manche4}
}

// Validate checks every manche holds a known committee.
func (t Traceurs) Validate() error {
	for _, m := range AllManches {
		if c := t.Get(m); !c.Valid() {
			return fmt.Errorf("%s: %w: %q", m, ErrUnknownCommittee, string(c))
		}
	}
	return nil
}

// HistoryRecord is the persisted outcome of one past competition.
type HistoryRecord struct {
	Traceurs Traceurs `json:"traceurs" yaml:"traceurs"`
}

// HistoryEntry pairs a record with its competition key.
type HistoryEntry struct {
	Key    string
	Record HistoryRecord
}

// SelectionHistory is the ordered log of past selections, oldest first.
type SelectionHistory struct {
	entries []HistoryEntry
	index   map[string]int
}

// NewSelectionHistory builds a history from entries in chronological order.
// A repeated key replaces the earlier record in place.
func NewSelectionHistory(entries ...HistoryEntry) SelectionHistory {
	h := SelectionHistory{
		entries: make([]HistoryEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if i, ok := h.index[e.Key]; ok {
			h.entries[i] = e
			continue
		}
		h.index[e.Key] = len(h.entries)
		h.entries = append(h.entries, e)
	}
	return h
}

// Append returns a history with e added. The receiver is left untouched.
func (h SelectionHistory) Append(e HistoryEntry) SelectionHistory {
	out := SelectionHistory{
		entries: make([]HistoryEntry, len(h.entries), len(h.entries)+1),
		index:   make(map[string]int, len(h.entries)+1),
	}
	copy(out.entries, h.entries)
	for k, v := range h.index {
		out.index[k] = v
	}
	if i, ok := out.index[e.Key]; ok {
		out.entries[i] = e
		return out
	}
	out.index[e.Key] = len(out.entries)
	out.entries = append(out.entries, e)
	return out
}

// Len returns the number of recorded competitions.
func (h SelectionHistory) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h SelectionHistory) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

// Lookup returns the record stored under key.
func (h SelectionHistory) Lookup(key string) (HistoryRecord, bool) {
	i, ok := h.index[key]
	if !ok {
		return HistoryRecord{}, false
	}
	return h.entries[i].Record, true
}

// HistoryKey builds the normalized date_location_discipline key.
func HistoryKey(date, location, discipline string) string {
	parts := []string{normalizeKeyPart(date), normalizeKeyPart(location), normalizeKeyPart(discipline)}
	return strings.Join(parts, "_")
}

func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}
