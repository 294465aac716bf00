package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Committee is a regional ski committee code.
type Committee string

// Known committees.
const (
	EQ   Committee = "EQ"
	SA   Committee = "SA"
	MB   Committee = "MB"
	AP   Committee = "AP"
	DA   Committee = "DA"
	ORS  Committee = "ORS"
	APEX Committee = "APEX"
	MV   Committee = "MV"
	MJ   Committee = "MJ"
	PE   Committee = "PE"
	CA   Committee = "CA"
	AU   Committee = "AU"
)

// Committees lists every known committee in canonical order.
var Committees = []Committee{EQ, SA, MB, AP, DA, ORS, APEX, MV, MJ, PE, CA, AU}

var committeeOrder = func() map[Committee]int {
	order := make(map[Committee]int, len(Committees))
	for i, c := range Committees {
		order[c] = i
	}
	return order
}()

// ErrUnknownCommittee is returned for codes outside the committee enumeration.
var ErrUnknownCommittee = errors.New("unknown committee")

// ErrNoCompetitors is returned when a competition has no registered competitor.
var ErrNoCompetitors = errors.New("no competitors")

// Valid reports whether c belongs to the enumeration.
func (c Committee) Valid() bool {
	_, ok := committeeOrder[c]
	return ok
}

// ParseCommittee normalizes and validates a committee code.
func ParseCommittee(s string) (Committee, error) {
	c := Committee(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommittee, s)
	}
	return c, nil
}

// CommitteeLess reports whether a comes before b in canonical order.
func CommitteeLess(a, b Committee) bool {
	return committeeOrder[a] < committeeOrder[b]
}

// SortCommittees orders committees by their canonical position.
func SortCommittees(cs []Committee) {
	sort.SliceStable(cs, func(i, j int) bool {
		return CommitteeLess(cs[i], cs[j])
	})
}

// Counts maps committees to their number of registered competitors.
type Counts map[Committee]int

// NewCounts validates raw committee counts.
func NewCounts(raw map[string]int) (Counts, error) {
	counts := make(Counts, len(raw))
	for code, n := range raw {
		c, err := ParseCommittee(code)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative count %d for committee %s", n, c)
		}
		counts[c] += n
	}
	return counts, nil
}

// CountCompetitors tallies one committee code per competitor. Every code must
// belong to the enumeration; blank cells are rejected too.
func CountCompetitors(codes []string) (Counts, error) {
	if len(codes) == 0 {
		return nil, ErrNoCompetitors
	}
	counts := Counts{}
	var unknown []string
	for _, code := range codes {
		c, err := ParseCommittee(code)
		if err != nil {
			unknown = append(unknown, fmt.Sprintf("%q", code))
			continue
		}
		counts[c]++
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommittee, strings.Join(unknown, ", "))
	}
	return counts, nil
}

// Add returns a copy of the counts with extra competitors added per committee.
func (c Counts) Add(extra Counts) Counts {
	out := make(Counts, len(c)+len(extra))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range extra {
		out[k] += v
	}
	return out
}

// Total returns the number of competitors.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Sorted returns the committees with a positive count in canonical order.
func (c Counts) Sorted() []Committee {
	out := make([]Committee, 0, len(c))
	for k, n := range c {
		if n > 0 {
			out = append(out, k)
		}
	}
	SortCommittees(out)
	return out
}
