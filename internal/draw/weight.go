package draw

import (
	"math"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

// ApplyWeights returns copies of entries carrying history statistics and a
// draw weight. An entry for exclude gets a zero weight. The input slice is not
// modified.
func ApplyWeights(entries []model.Entry, idx Index, cfg model.WeightConfig, exclude model.Committee) []model.Entry {
	out := make([]model.Entry, len(entries))
	for i, e := range entries {
		st := idx.Stats(e.Committee)
		e.Occurrences = st.Occurrences
		e.CompetitionsSinceLastTrace = st.CompetitionsSinceLastTrace
		e.BaseWeight = e.Percentage * cfg.BasePercentageWeight
		e.Probability = 0
		e.Excluded = exclude != "" && e.Committee == exclude
		if e.Excluded {
			e.Weight = 0
		} else {
			e.Weight = e.BaseWeight * occurrenceFactor(st, cfg) * competitionsFactor(st, cfg)
		}
		out[i] = e
	}
	return out
}

// occurrenceFactor penalizes committees drawn often. Never-drawn committees
// count as one occurrence.
func occurrenceFactor(st Stats, cfg model.WeightConfig) float64 {
	if !cfg.OccurrenceWeightEnabled {
		return 1
	}
	occ := math.Max(float64(st.Occurrences), 1)
	return 1 / (occ * cfg.OccurrenceDivider)
}

// competitionsFactor rewards committees that have waited longest.
func competitionsFactor(st Stats, cfg model.WeightConfig) float64 {
	if !cfg.CompetitionsSinceLastTraceWeightEnabled {
		return 1
	}
	base := math.Max(cfg.CompetitionsSinceLastTraceWeightMin, float64(st.CompetitionsSinceLastTrace))
	return math.Pow(base, cfg.CompetitionsSinceLastTraceWeightPower)
}
