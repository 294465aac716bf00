package draw

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

// Option configures a Builder.
type Option func(*Builder)

// WithSource sets the random source used by the draws.
func WithSource(src Source) Option {
	return func(b *Builder) {
		if src != nil {
			b.src = src
		}
	}
}

// WithWeightConfig sets the weighting knobs.
func WithWeightConfig(cfg model.WeightConfig) Option {
	return func(b *Builder) {
		b.weights = cfg
	}
}

// WithExtraCounts grants committees synthetic competitors before the draw.
func WithExtraCounts(extra model.Counts) Option {
	return func(b *Builder) {
		b.extra = extra
	}
}

// WithLogger sets the logger receiving the draw audit trail.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// Builder assembles the four manche lists and performs the draws.
type Builder struct {
	src     Source
	weights model.WeightConfig
	extra   model.Counts
	log     *zap.Logger
}

// NewBuilder creates a Builder with default weighting and a cryptographic source.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		weights: model.DefaultWeightConfig(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.src == nil {
		b.src = NewSource()
	}
	return b
}

// Generate builds the results for a competition organized by comp.Home.
func (b *Builder) Generate(counts model.Counts, comp model.Competition, history model.SelectionHistory) (model.Results, error) {
	if !comp.Home.Valid() {
		return model.Results{}, fmt.Errorf("home committee: %w: %q", model.ErrUnknownCommittee, string(comp.Home))
	}
	if err := b.weights.Validate(); err != nil {
		return model.Results{}, fmt.Errorf("invalid weight config: %w", err)
	}
	counts = counts.Add(b.extra)
	if counts.Total() == 0 {
		return model.Results{}, model.ErrNoCompetitors
	}

	home := model.Entry{
		Committee:       comp.Home,
		Count:           counts[comp.Home],
		Percentage:      100,
		IsHomeCommittee: true,
		IsPicked:        true,
	}
	candidates := candidateEntries(counts, comp.Home)

	results := model.Results{Competition: comp}
	results.Manches[model.Manche1-1] = []model.Entry{home}
	results.Manches[model.Manche3-1] = []model.Entry{home}

	committees := make([]model.Committee, len(candidates))
	for i, e := range candidates {
		committees[i] = e.Committee
	}
	idx := BuildIndex(history, committees)

	manche2, winner2, err := b.drawManche(model.Manche2, candidates, idx, "")
	if err != nil {
		if !errors.Is(err, ErrNoCandidates) {
			return model.Results{}, err
		}
		results.Pending = append(results.Pending, model.Manche2)
	}
	manche4, _, err := b.drawManche(model.Manche4, candidates, idx, winner2)
	if err != nil {
		if !errors.Is(err, ErrNoCandidates) {
			return model.Results{}, err
		}
		results.Pending = append(results.Pending, model.Manche4)
	}
	results.Manches[model.Manche2-1] = manche2
	results.Manches[model.Manche4-1] = manche4
	return results, nil
}

// candidateEntries lists non-home committees with competitors, in canonical order.
func candidateEntries(counts model.Counts, home model.Committee) []model.Entry {
	totalNonHome := 0
	for c, n := range counts {
		if c != home && n > 0 {
			totalNonHome += n
		}
	}
	entries := []model.Entry{}
	for _, c := range counts.Sorted() {
		if c == home {
			continue
		}
		pct := 0.0
		if totalNonHome > 0 {
			pct = math.Round(float64(counts[c]) / float64(totalNonHome) * 100)
		}
		entries = append(entries, model.Entry{Committee: c, Count: counts[c], Percentage: pct})
	}
	return entries
}

func (b *Builder) drawManche(m model.Manche, candidates []model.Entry, idx Index, exclude model.Committee) ([]model.Entry, model.Committee, error) {
	weighted := ApplyWeights(candidates, idx, b.weights, exclude)
	selected, normalized, err := Pick(weighted, b.src)
	if err != nil {
		b.log.Warn("draw has no winner", zap.Stringer("manche", m), zap.Error(err))
		if normalized == nil {
			normalized = weighted
		}
		return normalized, "", err
	}
	for i := range normalized {
		normalized[i].IsPicked = i == selected
		b.log.Debug("committee weight",
			zap.Stringer("manche", m),
			zap.String("committee", string(normalized[i].Committee)),
			zap.Float64("percentage", normalized[i].Percentage),
			zap.Int("occurrences", normalized[i].Occurrences),
			zap.Int("competitionsSinceLastTrace", normalized[i].CompetitionsSinceLastTrace),
			zap.Float64("weight", normalized[i].Weight),
			zap.Float64("probability", normalized[i].Probability),
			zap.Bool("excluded", normalized[i].Excluded),
		)
	}
	winner := normalized[selected].Committee
	b.log.Info("manche drawn", zap.Stringer("manche", m), zap.String("committee", string(winner)))
	return normalized, winner, nil
}
