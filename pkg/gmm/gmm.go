// Package gmm evaluates Gaussian mixture model densities.
//
// A [Mixture] is a weighted sum of full-covariance multivariate normal
// components. Mixtures are fitted offline; this package only loads the
// parameters and evaluates log-densities, which is all the bar tracking
// observation model needs.
//
// A Mixture is immutable after construction and safe for concurrent use.
package gmm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// ErrNoComponents is returned when a mixture is constructed without any
// components.
var ErrNoComponents = errors.New("gmm: mixture has no components")

// Component holds the parameters of a single Gaussian mixture component.
type Component struct {
	// Weight is the mixing weight. Weights must be positive; they are
	// renormalized to sum to one during construction.
	Weight float64

	// Mean is the component mean, one entry per feature dimension.
	Mean []float64

	// Covariance is the full covariance matrix in row-major order,
	// len(Mean)*len(Mean) entries. It must be symmetric positive definite.
	Covariance []float64
}

// Mixture is a fitted Gaussian mixture over vectors of a fixed dimension.
type Mixture struct {
	dim        int
	logWeights []float64
	normals    []*distmv.Normal
}

// New builds a Mixture from fitted component parameters.
func New(components []Component) (*Mixture, error) {
	if len(components) == 0 {
		return nil, ErrNoComponents
	}
	dim := len(components[0].Mean)
	if dim == 0 {
		return nil, errors.New("gmm: component mean is empty")
	}

	var total float64
	for i, c := range components {
		if len(c.Mean) != dim {
			return nil, fmt.Errorf("gmm: component %d: mean dim %d, want %d", i, len(c.Mean), dim)
		}
		if len(c.Covariance) != dim*dim {
			return nil, fmt.Errorf("gmm: component %d: covariance has %d entries, want %d", i, len(c.Covariance), dim*dim)
		}
		if c.Weight <= 0 || math.IsNaN(c.Weight) {
			return nil, fmt.Errorf("gmm: component %d: weight %v must be positive", i, c.Weight)
		}
		total += c.Weight
	}

	m := &Mixture{
		dim:        dim,
		logWeights: make([]float64, len(components)),
		normals:    make([]*distmv.Normal, len(components)),
	}
	for i, c := range components {
		m.logWeights[i] = math.Log(c.Weight / total)
		sigma := mat.NewSymDense(dim, nil)
		for r := 0; r < dim; r++ {
			for s := r; s < dim; s++ {
				sigma.SetSym(r, s, c.Covariance[r*dim+s])
			}
		}
		normal, ok := distmv.NewNormal(c.Mean, sigma, nil)
		if !ok {
			return nil, fmt.Errorf("gmm: component %d: covariance is not positive definite", i)
		}
		m.normals[i] = normal
	}
	return m, nil
}

// Dim returns the feature dimensionality the mixture was fitted on.
func (m *Mixture) Dim() int { return m.dim }

// NumComponents returns the number of mixture components.
func (m *Mixture) NumComponents() int { return len(m.normals) }

// LogProb returns the log-density log Σ wᵢ·N(x; μᵢ, Σᵢ) of x under the
// mixture. The sum is evaluated in the log domain so very unlikely
// observations do not underflow to zero.
func (m *Mixture) LogProb(x []float64) float64 {
	terms := make([]float64, len(m.normals))
	for i, n := range m.normals {
		terms[i] = m.logWeights[i] + n.LogProb(x)
	}
	return floats.LogSumExp(terms)
}
