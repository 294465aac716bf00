package draw

import (
	"errors"
	"fmt"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

var (
	// ErrIncompleteResults is returned when a manche has no single picked committee.
	ErrIncompleteResults = errors.New("incomplete results")
	// ErrInvalidTransition is returned for review actions not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid review transition")
)

// Override forces committee c on manche m. The forced entry comes first and is
// marked picked by hand; its count and percentage are taken from the existing
// list when the committee is already there.
func Override(results model.Results, m model.Manche, c model.Committee) (model.Results, error) {
	if !m.Valid() {
		return model.Results{}, fmt.Errorf("invalid manche %d", int(m))
	}
	if !c.Valid() {
		return model.Results{}, fmt.Errorf("%w: %q", model.ErrUnknownCommittee, string(c))
	}

	out := results.Clone()
	current := out.Entries(m)
	forced := model.Entry{Committee: c, IsPicked: true, IsHandpicked: true}
	siblings := make([]model.Entry, 0, len(current))
	for _, e := range current {
		if e.Committee == c {
			forced.Count = e.Count
			forced.Percentage = e.Percentage
			continue
		}
		e.IsPicked = false
		siblings = append(siblings, e)
	}
	out.Manches[m-1] = append([]model.Entry{forced}, siblings...)
	out.Pending = removeManche(out.Pending, m)
	return out, nil
}

func removeManche(ms []model.Manche, m model.Manche) []model.Manche {
	var out []model.Manche
	for _, x := range ms {
		if x != m {
			out = append(out, x)
		}
	}
	return out
}

// RepeatedDraw reports the committee picked for both drawn manches. The draw
// never does this on its own; only an override can.
func RepeatedDraw(results model.Results) (model.Committee, bool) {
	m2, ok2 := results.Picked(model.Manche2)
	m4, ok4 := results.Picked(model.Manche4)
	if !ok2 || !ok4 || m2.Committee != m4.Committee {
		return "", false
	}
	return m2.Committee, true
}

// Confirm turns validated results into the history entry to persist.
func Confirm(results model.Results) (model.HistoryEntry, error) {
	var traceurs model.Traceurs
	for _, m := range model.AllManches {
		picked := 0
		for _, e := range results.Entries(m) {
			if e.IsPicked {
				picked++
				traceurs.Set(m, e.Committee)
			}
		}
		if picked != 1 {
			return model.HistoryEntry{}, fmt.Errorf("%w: %s has %d picked committees", ErrIncompleteResults, m, picked)
		}
	}
	return model.HistoryEntry{
		Key:    results.Competition.Key(),
		Record: model.HistoryRecord{Traceurs: traceurs},
	}, nil
}

// State is a step of the operator review.
type State int

// Review states.
const (
	Proposed State = iota
	Revising
	Confirmed
)

func (s State) String() string {
	switch s {
	case Proposed:
		return "proposed"
	case Revising:
		return "revising"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Review tracks a draw result through operator confirmation.
type Review struct {
	state   State
	results model.Results
}

// NewReview starts a review of freshly drawn results.
func NewReview(results model.Results) *Review {
	return &Review{state: Proposed, results: results.Clone()}
}

// State returns the current review state.
func (r *Review) State() State {
	return r.state
}

// Results returns the results currently under review.
func (r *Review) Results() model.Results {
	return r.results.Clone()
}

// Reject moves a proposal to revision.
func (r *Review) Reject() error {
	if r.state != Proposed {
		return fmt.Errorf("%w: reject from %s", ErrInvalidTransition, r.state)
	}
	r.state = Revising
	return nil
}

// Force overrides a manche and returns to the proposed state.
func (r *Review) Force(m model.Manche, c model.Committee) error {
	if r.state != Revising {
		return fmt.Errorf("%w: force from %s", ErrInvalidTransition, r.state)
	}
	updated, err := Override(r.results, m, c)
	if err != nil {
		return err
	}
	r.results = updated
	r.state = Proposed
	return nil
}

// Cancel abandons a revision without changes.
func (r *Review) Cancel() error {
	if r.state != Revising {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, r.state)
	}
	r.state = Proposed
	return nil
}

// Confirm accepts the proposal and returns the history entry to save.
func (r *Review) Confirm() (model.HistoryEntry, error) {
	if r.state != Proposed {
		return model.HistoryEntry{}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, r.state)
	}
	entry, err := Confirm(r.results)
	if err != nil {
		return model.HistoryEntry{}, err
	}
	r.state = Confirmed
	return entry, nil
}
