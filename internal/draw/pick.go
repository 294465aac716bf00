package draw

import (
	"errors"
	"fmt"
	"math"

	"lukechampine.com/frand"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

var (
	// ErrNoCandidates is returned when no entry can be selected.
	ErrNoCandidates = errors.New("no eligible candidate")
	// ErrInvalidWeight is returned for negative, infinite or NaN weights.
	ErrInvalidWeight = errors.New("invalid weight")
)

// Source yields uniform random values in [0, 1). *math/rand.Rand and
// *frand.RNG both satisfy it.
type Source interface {
	Float64() float64
}

// NewSource returns an unseeded cryptographic source.
func NewSource() Source {
	return frand.New()
}

// Pick selects one entry with probability weight/total. It returns the
// selected index and copies of the entries with Probability set (percent).
//
// When every weight is zero the draw falls back to a uniform choice over the
// entries that are not excluded.
func Pick(entries []model.Entry, src Source) (int, []model.Entry, error) {
	normalized := make([]model.Entry, len(entries))
	copy(normalized, entries)

	total := 0.0
	for _, e := range normalized {
		if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return -1, nil, fmt.Errorf("%w: %s has weight %v", ErrInvalidWeight, e.Committee, e.Weight)
		}
		total += e.Weight
	}
	if math.IsInf(total, 0) {
		return -1, nil, fmt.Errorf("%w: total weight overflows", ErrInvalidWeight)
	}

	if total == 0 {
		eligible := 0
		for _, e := range normalized {
			if !e.Excluded {
				eligible++
			}
		}
		if eligible == 0 {
			return -1, normalized, ErrNoCandidates
		}
		for i := range normalized {
			if normalized[i].Excluded {
				normalized[i].Probability = 0
				continue
			}
			normalized[i].Probability = 100 / float64(eligible)
		}
	} else {
		for i := range normalized {
			normalized[i].Probability = normalized[i].Weight / total * 100
		}
	}

	r := src.Float64() * 100
	last := -1
	for i, e := range normalized {
		if e.Probability <= 0 {
			continue
		}
		last = i
		r -= e.Probability
		if r < 0 {
			return i, normalized, nil
		}
	}
	// Rounding can leave r just above zero after the last entry.
	return last, normalized, nil
}
