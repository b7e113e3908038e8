package barhmm

import (
	"fmt"

	"github.com/00001101-xt/bartrack/pkg/gmm"
)

// ObservationModel scores beat-synchronous feature blocks against the
// per-state Gaussian mixtures.
//
// The fitted mixtures of all patterns are stacked into one flat table,
// one entry per (pattern, beat position); each state's pointer into that
// table is computed once at construction. A state's log-likelihood for a
// beat is the sum over all beat subdivisions of the corresponding
// mixture's log-density.
type ObservationModel struct {
	ss           *StateSpace
	table        [][]*gmm.Mixture // flat: one row of per-subdivision mixtures per (pattern, position)
	pointers     []int            // per state, index into table
	subdivisions int
	featDim      int
}

// NewObservationModel builds the observation model from mixtures indexed
// [pattern][position][subdivision], as produced by pattern.File.Build.
func NewObservationModel(ss *StateSpace, mixtures [][][]*gmm.Mixture) (*ObservationModel, error) {
	if len(mixtures) == 0 {
		return nil, ErrNoPatterns
	}
	if len(mixtures) != ss.NumPatterns() {
		return nil, fmt.Errorf("barhmm: %d mixture patterns for %d state patterns", len(mixtures), ss.NumPatterns())
	}
	if len(mixtures[0]) == 0 || len(mixtures[0][0]) == 0 {
		return nil, fmt.Errorf("barhmm: pattern 0 has no fitted mixtures")
	}

	om := &ObservationModel{
		ss:           ss,
		subdivisions: len(mixtures[0][0]),
		featDim:      mixtures[0][0][0].Dim(),
		pointers:     make([]int, ss.NumStates()),
	}
	// Stack the patterns' per-position mixture lists on top of each other
	// and point every state at its (pattern, position) row.
	offset := 0
	for p, positions := range mixtures {
		if len(positions) != ss.BeatsPerBar(p) {
			return nil, fmt.Errorf("barhmm: pattern %d: %d mixture positions for %d beats per bar", p, len(positions), ss.BeatsPerBar(p))
		}
		for pos, divs := range positions {
			if len(divs) != om.subdivisions {
				return nil, fmt.Errorf("barhmm: pattern %d position %d: %d subdivisions, want %d", p, pos, len(divs), om.subdivisions)
			}
			for div, mix := range divs {
				if mix.Dim() != om.featDim {
					return nil, fmt.Errorf("barhmm: pattern %d position %d subdivision %d: feature dim %d, want %d",
						p, pos, div, mix.Dim(), om.featDim)
				}
			}
			om.pointers[ss.State(p, pos)] = offset + pos
			om.table = append(om.table, divs)
		}
		offset += len(positions)
	}
	return om, nil
}

// Subdivisions returns the number of beat subdivisions the mixtures were
// fitted with.
func (om *ObservationModel) Subdivisions() int { return om.subdivisions }

// FeatDim returns the feature dimensionality of the mixtures.
func (om *ObservationModel) FeatDim() int { return om.featDim }

// LogDensities scores a sequence of beat-synchronous observations.
//
// obs must be [beats][subdivisions][featDim]; the result is one row per
// beat with one log-density column per hidden state. Any shape mismatch
// is rejected before scoring.
func (om *ObservationModel) LogDensities(obs [][][]float64) ([][]float64, error) {
	out := make([][]float64, len(obs))
	for b, block := range obs {
		row, err := om.LogDensitiesAt(block)
		if err != nil {
			return nil, fmt.Errorf("beat %d: %w", b, err)
		}
		out[b] = row
	}
	return out, nil
}

// LogDensitiesAt scores a single beat's [subdivisions][featDim] block,
// returning one log-density per hidden state.
func (om *ObservationModel) LogDensitiesAt(block [][]float64) ([]float64, error) {
	if len(block) != om.subdivisions {
		return nil, fmt.Errorf("barhmm: observation has %d subdivisions, models were fitted with %d", len(block), om.subdivisions)
	}
	for div, vec := range block {
		if len(vec) != om.featDim {
			return nil, fmt.Errorf("barhmm: subdivision %d has feature dim %d, models were fitted with %d", div, len(vec), om.featDim)
		}
	}
	// Score each table row once, then fan out to states via pointers.
	scores := make([]float64, len(om.table))
	for i, divs := range om.table {
		var sum float64
		for div, mix := range divs {
			sum += mix.LogProb(block[div])
		}
		scores[i] = sum
	}
	row := make([]float64, om.ss.NumStates())
	for state, ptr := range om.pointers {
		row[state] = scores[ptr]
	}
	return row, nil
}
