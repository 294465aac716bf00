package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCountCompetitors(t *testing.T) {
	counts, err := CountCompetitors([]string{"EQ", " sa", "EQ", "MB", "eq"})
	if err != nil {
		t.Fatalf("count competitors: %v", err)
	}
	want := Counts{EQ: 3, SA: 1, MB: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("unexpected counts (-want +got):\n%s", diff)
	}
}

func TestCountCompetitorsRejectsUnknownCodes(t *testing.T) {
	_, err := CountCompetitors([]string{"EQ", "XX", ""})
	if !errors.Is(err, ErrUnknownCommittee) {
		t.Fatalf("expected ErrUnknownCommittee, got %v", err)
	}
	if _, err := CountCompetitors(nil); !errors.Is(err, ErrNoCompetitors) {
		t.Fatalf("expected ErrNoCompetitors, got %v", err)
	}
}

func TestNewCountsValidates(t *testing.T) {
	if _, err := NewCounts(map[string]int{"SA": -1}); err == nil {
		t.Fatalf("expected error for negative count")
	}
	counts, err := NewCounts(map[string]int{"apex": 2})
	if err != nil {
		t.Fatalf("new counts: %v", err)
	}
	if counts[APEX] != 2 {
		t.Fatalf("expected APEX=2, got %v", counts)
	}
}

func TestCountsAddDoesNotMutate(t *testing.T) {
	base := Counts{SA: 2}
	out := base.Add(Counts{SA: 3, AU: 1})
	if base[SA] != 2 {
		t.Fatalf("base counts mutated: %v", base)
	}
	if out[SA] != 5 || out[AU] != 1 {
		t.Fatalf("unexpected sum: %v", out)
	}
	if got := out.Sorted(); !cmp.Equal(got, []Committee{SA, AU}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestHistoryKey(t *testing.T) {
	got := HistoryKey(" 12/01/2025 ", "Val  d'Isère", "GS")
	if got != "12/01/2025_val_d'isère_gs" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestSelectionHistoryAppendReplacesInPlace(t *testing.T) {
	rec := func(c Committee) HistoryRecord {
		return HistoryRecord{Traceurs: Traceurs{Manche1: c, Manche2: c, Manche3: c, Manche4: c}}
	}
	h := NewSelectionHistory(
		HistoryEntry{Key: "a", Record: rec(EQ)},
		HistoryEntry{Key: "b", Record: rec(SA)},
	)
	h2 := h.Append(HistoryEntry{Key: "a", Record: rec(MB)})
	if h2.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", h2.Len())
	}
	entries := h2.Entries()
	if entries[0].Key != "a" || entries[0].Record.Traceurs.Manche1 != MB {
		t.Fatalf("expected replaced record first, got %+v", entries[0])
	}
	if got, _ := h.Lookup("a"); got.Traceurs.Manche1 != EQ {
		t.Fatalf("original history mutated: %+v", got)
	}
}

func TestNewSelectionHistoryRepeatedKeys(t *testing.T) {
	rec := func(c Committee) HistoryRecord {
		return HistoryRecord{Traceurs: Traceurs{Manche1: c, Manche2: c, Manche3: c, Manche4: c}}
	}
	entries := make([]HistoryEntry, 0, 2000)
	for i := 0; i < 1000; i++ {
		entries = append(entries, HistoryEntry{Key: fmt.Sprintf("k%04d", i), Record: rec(EQ)})
	}
	entries = append(entries, HistoryEntry{Key: "k0000", Record: rec(SA)})
	h := NewSelectionHistory(entries...)
	if h.Len() != 1000 {
		t.Fatalf("expected 1000 entries, got %d", h.Len())
	}
	first := h.Entries()[0]
	if first.Key != "k0000" || first.Record.Traceurs.Manche1 != SA {
		t.Fatalf("expected replaced record in first position, got %+v", first)
	}
	if got, ok := h.Lookup("k0999"); !ok || got.Traceurs.Manche1 != EQ {
		t.Fatalf("expected last key indexed, got %+v %v", got, ok)
	}
	h2 := h.Append(HistoryEntry{Key: "new", Record: rec(MB)})
	if h2.Len() != 1001 || h.Len() != 1000 {
		t.Fatalf("append must not touch the receiver: %d / %d", h2.Len(), h.Len())
	}
}

func TestParseManche(t *testing.T) {
	for input, want := range map[string]Manche{"1": Manche1, "m2": Manche2, "M3": Manche3, "manche4": Manche4} {
		got, err := ParseManche(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %v, got %v", input, want, got)
		}
	}
	if _, err := ParseManche("5"); err == nil {
		t.Fatalf("expected error for manche 5")
	}
}
