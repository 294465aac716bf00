package draw

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

func drawnResults(t *testing.T) model.Results {
	t.Helper()
	comp := model.Competition{Date: "01/02/2025", Location: "Tignes", Discipline: "GS", Home: model.EQ}
	results, err := NewBuilder(WithSource(fixedSource(0.3))).Generate(
		model.Counts{model.EQ: 10, model.SA: 5, model.MB: 5},
		comp,
		model.SelectionHistory{},
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return results
}

func pickedCount(entries []model.Entry) int {
	n := 0
	for _, e := range entries {
		if e.IsPicked {
			n++
		}
	}
	return n
}

func TestOverrideExistingCommittee(t *testing.T) {
	results := drawnResults(t)
	out, err := Override(results, model.Manche2, model.MB)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	entries := out.Entries(model.Manche2)
	if entries[0].Committee != model.MB || !entries[0].IsPicked || !entries[0].IsHandpicked {
		t.Fatalf("expected MB forced first, got %+v", entries)
	}
	if entries[0].Count != 5 || entries[0].Percentage != 50 {
		t.Fatalf("expected MB count and percentage kept, got %+v", entries[0])
	}
	if pickedCount(entries) != 1 {
		t.Fatalf("expected exactly one pick, got %+v", entries)
	}
	for _, m := range []model.Manche{model.Manche1, model.Manche3, model.Manche4} {
		if diff := cmp.Diff(results.Entries(m), out.Entries(m)); diff != "" {
			t.Fatalf("%s changed by override (-before +after):\n%s", m, diff)
		}
	}
	if w, _ := results.Picked(model.Manche2); w.Committee != model.SA {
		t.Fatalf("input results mutated: %+v", results.Entries(model.Manche2))
	}
}

func TestOverrideAbsentCommittee(t *testing.T) {
	out, err := Override(drawnResults(t), model.Manche1, model.PE)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	entries := out.Entries(model.Manche1)
	if len(entries) != 2 {
		t.Fatalf("expected forced entry plus home, got %+v", entries)
	}
	forced := entries[0]
	if forced.Committee != model.PE || forced.Count != 0 || forced.Percentage != 0 || forced.IsHomeCommittee {
		t.Fatalf("unexpected forced entry %+v", forced)
	}
	if entries[1].IsPicked {
		t.Fatalf("home entry still picked after override")
	}
}

func TestOverrideClearsPending(t *testing.T) {
	results, err := NewBuilder(WithSource(fixedSource(0.1))).Generate(
		model.Counts{model.EQ: 3, model.SA: 2},
		model.Competition{Home: model.EQ},
		model.SelectionHistory{},
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	out, err := Override(results, model.Manche4, model.AP)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if len(out.Pending) != 0 {
		t.Fatalf("expected no pending manche, got %v", out.Pending)
	}
	if _, err := Confirm(out); err != nil {
		t.Fatalf("confirm after override: %v", err)
	}
}

func TestOverrideRejectsInvalidInput(t *testing.T) {
	results := drawnResults(t)
	if _, err := Override(results, model.Manche(5), model.SA); err == nil {
		t.Fatalf("expected error for manche 5")
	}
	if _, err := Override(results, model.Manche2, "ZZ"); !errors.Is(err, model.ErrUnknownCommittee) {
		t.Fatalf("expected ErrUnknownCommittee, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	entry, err := Confirm(drawnResults(t))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	want := model.HistoryEntry{
		Key:    "01/02/2025_tignes_gs",
		Record: record(model.EQ, model.SA, model.EQ, model.MB),
	}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Fatalf("history entry mismatch (-want +got):\n%s", diff)
	}
}

func TestConfirmIncomplete(t *testing.T) {
	results := drawnResults(t)
	results.Manches[model.Manche4-1] = nil
	if _, err := Confirm(results); !errors.Is(err, ErrIncompleteResults) {
		t.Fatalf("expected ErrIncompleteResults, got %v", err)
	}
}

func TestRepeatedDraw(t *testing.T) {
	results := drawnResults(t)
	if c, ok := RepeatedDraw(results); ok {
		t.Fatalf("fresh draw must not repeat a committee, got %s", c)
	}
	forced, err := Override(results, model.Manche2, model.MB)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	c, ok := RepeatedDraw(forced)
	if !ok || c != model.MB {
		t.Fatalf("expected MB on both drawn manches, got %q %v", c, ok)
	}
	forced.Manches[model.Manche4-1] = nil
	if _, ok := RepeatedDraw(forced); ok {
		t.Fatalf("a pending manche cannot repeat")
	}
}

func TestReviewTransitions(t *testing.T) {
	r := NewReview(drawnResults(t))
	if r.State() != Proposed {
		t.Fatalf("expected proposed, got %s", r.State())
	}
	if err := r.Force(model.Manche2, model.MB); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected force from proposed to fail, got %v", err)
	}
	if err := r.Reject(); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := r.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := r.Reject(); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := r.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected confirm while revising to fail, got %v", err)
	}
	if err := r.Force(model.Manche4, model.AU); err != nil {
		t.Fatalf("force: %v", err)
	}
	if r.State() != Proposed {
		t.Fatalf("expected proposed after force, got %s", r.State())
	}
	entry, err := r.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if entry.Record.Traceurs.Manche4 != model.AU {
		t.Fatalf("expected forced committee recorded, got %+v", entry.Record.Traceurs)
	}
	if r.State() != Confirmed {
		t.Fatalf("expected confirmed, got %s", r.State())
	}
	if err := r.Reject(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected reject after confirm to fail, got %v", err)
	}
}
