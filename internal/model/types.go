// Package model defines shared data structures.
package model

import "fmt"

// Manche identifies one of the four race rounds (1-based).
type Manche int

// The four manches of a competition.
const (
	Manche1 Manche = iota + 1
	Manche2
	Manche3
	Manche4
)

// NumManches is the number of rounds that need a traceur committee.
const NumManches = 4

// AllManches lists the manches in race order.
var AllManches = []Manche{Manche1, Manche2, Manche3, Manche4}

// Valid reports whether m is one of the four manches.
func (m Manche) Valid() bool {
	return m >= Manche1 && m <= Manche4
}

func (m Manche) String() string {
	return fmt.Sprintf("M%d", int(m))
}

// ParseManche parses "1".."4", "m1".."m4" or "manche1".."manche4".
func ParseManche(s string) (Manche, error) {
	var n int
	for _, format := range []string{"%d", "m%d", "M%d", "manche%d"} {
		if _, err := fmt.Sscanf(s, format, &n); err == nil {
			m := Manche(n)
			if m.Valid() {
				return m, nil
			}
			break
		}
	}
	return 0, fmt.Errorf("invalid manche %q (expected 1-4)", s)
}

// WeightConfig holds the knobs of the historical weighting model.
type WeightConfig struct {
	BasePercentageWeight float64

	OccurrenceWeightEnabled bool
	OccurrenceDivider       float64

	CompetitionsSinceLastTraceWeightEnabled bool
	CompetitionsSinceLastTraceWeightMin     float64
	CompetitionsSinceLastTraceWeightPower   float64
}

// DefaultWeightConfig returns the weighting used when nothing is configured.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		BasePercentageWeight:                    1,
		OccurrenceWeightEnabled:                 true,
		OccurrenceDivider:                       1,
		CompetitionsSinceLastTraceWeightEnabled: true,
		CompetitionsSinceLastTraceWeightMin:     1,
		CompetitionsSinceLastTraceWeightPower:   1,
	}
}

// Validate rejects knob values that would make weights negative or undefined.
func (c WeightConfig) Validate() error {
	if c.BasePercentageWeight < 0 {
		return fmt.Errorf("base percentage weight must be >= 0")
	}
	if c.OccurrenceWeightEnabled && c.OccurrenceDivider <= 0 {
		return fmt.Errorf("occurrence divider must be > 0")
	}
	if c.CompetitionsSinceLastTraceWeightEnabled && c.CompetitionsSinceLastTraceWeightMin < 0 {
		return fmt.Errorf("competitions-since-last-trace min must be >= 0")
	}
	if c.CompetitionsSinceLastTraceWeightEnabled && c.CompetitionsSinceLastTraceWeightPower < 0 {
		return fmt.Errorf("competitions-since-last-trace power must be >= 0")
	}
	return nil
}

// Competition describes the event a draw is made for.
type Competition struct {
	Code       string
	Date       string
	Location   string
	Discipline string
	Home       Committee
}

// Key returns the normalized history key of the competition.
func (c Competition) Key() string {
	return HistoryKey(c.Date, c.Location, c.Discipline)
}

// Entry is one committee's state within one manche.
type Entry struct {
	Committee       Committee
	Count           int
	Percentage      float64
	IsHomeCommittee bool
	IsPicked        bool
	IsHandpicked    bool

	// Derived on every draw; never persisted.
	Occurrences                int
	CompetitionsSinceLastTrace int
	BaseWeight                 float64
	Weight                     float64
	Probability                float64
	Excluded                   bool
}

// Results holds the four manche lists of a draw.
type Results struct {
	Competition Competition
	Manches     [NumManches][]Entry
	// Pending lists manches a draw could not fill; they need an override.
	Pending []Manche
}

// Entries returns the entry list of a manche.
func (r Results) Entries(m Manche) []Entry {
	if !m.Valid() {
		return nil
	}
	return r.Manches[m-1]
}

// Picked returns the picked entry of a manche, if any.
func (r Results) Picked(m Manche) (Entry, bool) {
	for _, e := range r.Entries(m) {
		if e.IsPicked {
			return e, true
		}
	}
	return Entry{}, false
}

// Clone returns a deep copy of the results.
func (r Results) Clone() Results {
	out := Results{Competition: r.Competition}
	for i, entries := range r.Manches {
		if entries == nil {
			continue
		}
		out.Manches[i] = append([]Entry(nil), entries...)
	}
	if len(r.Pending) > 0 {
		out.Pending = append([]Manche(nil), r.Pending...)
	}
	return out
}
