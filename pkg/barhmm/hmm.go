package barhmm

import (
	"errors"
	"math"
)

// ErrNoObservations is returned by Viterbi when the observation sequence
// is empty.
var ErrNoObservations = errors.New("barhmm: no observations")

// HMM pairs a transition model with an observation model. It is immutable
// and safe to share across concurrent sessions; all per-stream state lives
// in [Forward] filters.
type HMM struct {
	tm *TransitionModel
	om *ObservationModel
}

// New creates an HMM from a transition and an observation model defined
// over the same state space.
func New(tm *TransitionModel, om *ObservationModel) *HMM {
	return &HMM{tm: tm, om: om}
}

// TransitionModel returns the shared transition model.
func (h *HMM) TransitionModel() *TransitionModel { return h.tm }

// ObservationModel returns the shared observation model.
func (h *HMM) ObservationModel() *ObservationModel { return h.om }

// Viterbi decodes the exact maximum-probability state path for a full
// log-density matrix (one row per beat, one column per state), starting
// from a uniform initial distribution. It returns the path and its joint
// log-probability.
func (h *HMM) Viterbi(logDens [][]float64) ([]int, float64, error) {
	if len(logDens) == 0 {
		return nil, 0, ErrNoObservations
	}
	n := h.tm.ss.NumStates()
	logInit := -math.Log(float64(n))

	delta := make([]float64, n)
	next := make([]float64, n)
	backtrack := make([][]int, len(logDens))

	for j := 0; j < n; j++ {
		delta[j] = logInit + logDens[0][j]
	}
	for t := 1; t < len(logDens); t++ {
		bt := make([]int, n)
		for j := 0; j < n; j++ {
			best := math.Inf(-1)
			arg := -1
			for _, a := range h.tm.incoming[j] {
				if v := delta[a.from] + a.logProb; v > best {
					best = v
					arg = a.from
				}
			}
			next[j] = best + logDens[t][j]
			bt[j] = arg
		}
		backtrack[t] = bt
		delta, next = next, delta
	}

	// Best final state, then walk the backtrack pointers.
	bestState := 0
	for j := 1; j < n; j++ {
		if delta[j] > delta[bestState] {
			bestState = j
		}
	}
	path := make([]int, len(logDens))
	path[len(path)-1] = bestState
	for t := len(path) - 1; t > 0; t-- {
		path[t-1] = backtrack[t][path[t]]
	}
	return path, delta[bestState], nil
}

// Forward is a streaming forward filter over the HMM's states. It owns a
// mutable probability distribution and must be used by one stream only.
type Forward struct {
	h       *HMM
	dist    []float64
	scratch []float64
}

// NewForward returns a forward filter initialized with the uniform
// distribution.
func (h *HMM) NewForward() *Forward {
	n := h.tm.ss.NumStates()
	f := &Forward{
		h:       h,
		dist:    make([]float64, n),
		scratch: make([]float64, n),
	}
	f.Reset()
	return f
}

// Reset restores the uniform initial distribution.
func (f *Forward) Reset() {
	n := len(f.dist)
	for j := range f.dist {
		f.dist[j] = 1 / float64(n)
	}
}

// Step advances the filter by one beat: one transition step followed by
// one observation update, and returns the index of the most probable
// state. logDens holds one observation log-density per state.
//
// The distribution is rescaled by the largest observation log-density
// before exponentiation and renormalized to sum one afterwards, so the
// filter neither under- nor overflows on arbitrarily long streams. Both
// rescalings are uniform across states and never change the argmax. If
// the update cannot be applied, the previous distribution is left intact.
func (f *Forward) Step(logDens []float64) (int, error) {
	n := len(f.dist)
	if len(logDens) != n {
		return 0, errors.New("barhmm: log-density length does not match state count")
	}
	maxDens := math.Inf(-1)
	for _, d := range logDens {
		if d > maxDens {
			maxDens = d
		}
	}

	var total float64
	for j := 0; j < n; j++ {
		var pred float64
		for _, a := range f.h.tm.incoming[j] {
			pred += f.dist[a.from] * a.prob
		}
		v := pred * math.Exp(logDens[j]-maxDens)
		f.scratch[j] = v
		total += v
	}
	if total <= 0 || math.IsNaN(total) {
		return 0, errors.New("barhmm: forward distribution collapsed")
	}

	argmax := 0
	for j := 0; j < n; j++ {
		f.dist[j] = f.scratch[j] / total
		if f.dist[j] > f.dist[argmax] {
			argmax = j
		}
	}
	return argmax, nil
}

// Dist returns the current distribution. The slice is owned by the filter
// and must not be modified.
func (f *Forward) Dist() []float64 {
	return f.dist
}
