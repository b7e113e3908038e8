// Package pattern defines the on-disk schema for rhythmic pattern models.
//
// A pattern couples a bar length (beats per bar) with fitted Gaussian
// mixture parameters for every (beat position, beat subdivision) cell.
// The schema is plain data, independent of any serialization technology;
// [Load] and [Save] support YAML for hand-editable files and msgpack for
// compact binary files.
package pattern

import (
	"errors"
	"fmt"

	"github.com/00001101-xt/bartrack/pkg/gmm"
)

// ErrNoPatterns is returned when a pattern file contains no patterns.
// At least one rhythmic pattern is required to build a tracking model.
var ErrNoPatterns = errors.New("pattern: no patterns defined")

// ComponentSpec holds the serialized parameters of one mixture component.
type ComponentSpec struct {
	Weight     float64   `yaml:"weight" msgpack:"w"`
	Mean       []float64 `yaml:"mean" msgpack:"m"`
	Covariance []float64 `yaml:"covariance" msgpack:"c"` // row-major, dim×dim
}

// MixtureSpec is the serialized form of one fitted mixture.
type MixtureSpec struct {
	Components []ComponentSpec `yaml:"components" msgpack:"k"`
}

// Pattern describes one rhythmic template.
//
// GMMs is indexed [beat position][beat subdivision]; its outer length must
// equal BeatsPerBar and every position must carry the same number of
// subdivisions.
type Pattern struct {
	Name        string          `yaml:"name" msgpack:"n"`
	BeatsPerBar int             `yaml:"beats_per_bar" msgpack:"b"`
	GMMs        [][]MixtureSpec `yaml:"gmms" msgpack:"g"`
}

// File is the root of a pattern configuration file.
type File struct {
	Patterns []Pattern `yaml:"patterns" msgpack:"p"`
}

// Subdivisions returns the number of beat subdivisions the pattern was
// fitted with, or 0 for a malformed pattern.
func (p *Pattern) Subdivisions() int {
	if len(p.GMMs) == 0 {
		return 0
	}
	return len(p.GMMs[0])
}

// Validate checks the internal consistency of a single pattern.
func (p *Pattern) Validate() error {
	if p.BeatsPerBar < 1 {
		return fmt.Errorf("pattern %q: beats_per_bar %d, want >= 1", p.Name, p.BeatsPerBar)
	}
	if len(p.GMMs) != p.BeatsPerBar {
		return fmt.Errorf("pattern %q: %d GMM positions, want beats_per_bar=%d", p.Name, len(p.GMMs), p.BeatsPerBar)
	}
	subdiv := p.Subdivisions()
	if subdiv == 0 {
		return fmt.Errorf("pattern %q: position 0 has no subdivisions", p.Name)
	}
	for pos, mixes := range p.GMMs {
		if len(mixes) != subdiv {
			return fmt.Errorf("pattern %q: position %d has %d subdivisions, want %d", p.Name, pos, len(mixes), subdiv)
		}
		for div, mix := range mixes {
			if len(mix.Components) == 0 {
				return fmt.Errorf("pattern %q: position %d subdivision %d has no components", p.Name, pos, div)
			}
		}
	}
	return nil
}

// Validate checks the whole file: every pattern must be valid on its own
// and all patterns must agree on subdivision count and feature dimension.
func (f *File) Validate() error {
	if len(f.Patterns) == 0 {
		return ErrNoPatterns
	}
	subdiv := f.Patterns[0].Subdivisions()
	dim := f.FeatDim()
	for i := range f.Patterns {
		p := &f.Patterns[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if p.Subdivisions() != subdiv {
			return fmt.Errorf("pattern %q: %d subdivisions, other patterns use %d", p.Name, p.Subdivisions(), subdiv)
		}
		for pos, mixes := range p.GMMs {
			for div, mix := range mixes {
				for c, comp := range mix.Components {
					if len(comp.Mean) != dim {
						return fmt.Errorf("pattern %q: position %d subdivision %d component %d: feature dim %d, want %d",
							p.Name, pos, div, c, len(comp.Mean), dim)
					}
				}
			}
		}
	}
	return nil
}

// BeatsPerBar lists the bar length of every pattern, in file order.
func (f *File) BeatsPerBar() []int {
	beats := make([]int, len(f.Patterns))
	for i := range f.Patterns {
		beats[i] = f.Patterns[i].BeatsPerBar
	}
	return beats
}

// FeatDim returns the feature dimensionality of the fitted models, or 0
// if the file is empty or malformed.
func (f *File) FeatDim() int {
	for _, p := range f.Patterns {
		for _, mixes := range p.GMMs {
			for _, mix := range mixes {
				for _, comp := range mix.Components {
					return len(comp.Mean)
				}
			}
		}
	}
	return 0
}

// Build compiles the mixture specs of every pattern into evaluable
// mixtures, indexed [pattern][position][subdivision]. The file must have
// been validated first; parameter-level problems (e.g. a covariance that
// is not positive definite) still surface as errors here.
func (f *File) Build() ([][][]*gmm.Mixture, error) {
	if len(f.Patterns) == 0 {
		return nil, ErrNoPatterns
	}
	out := make([][][]*gmm.Mixture, len(f.Patterns))
	for i := range f.Patterns {
		p := &f.Patterns[i]
		out[i] = make([][]*gmm.Mixture, len(p.GMMs))
		for pos, mixes := range p.GMMs {
			out[i][pos] = make([]*gmm.Mixture, len(mixes))
			for div, mix := range mixes {
				comps := make([]gmm.Component, len(mix.Components))
				for c, spec := range mix.Components {
					comps[c] = gmm.Component{
						Weight:     spec.Weight,
						Mean:       spec.Mean,
						Covariance: spec.Covariance,
					}
				}
				m, err := gmm.New(comps)
				if err != nil {
					return nil, fmt.Errorf("pattern %q: position %d subdivision %d: %w", p.Name, pos, div, err)
				}
				out[i][pos][div] = m
			}
		}
	}
	return out, nil
}
