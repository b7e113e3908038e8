package barhmm

import (
	"fmt"
	"math"
)

// arc is one incoming transition of a destination state.
type arc struct {
	from    int
	prob    float64
	logProb float64
}

// TransitionModel defines the per-beat state transition distribution.
//
// From (p, k) the model advances to (p, (k+1) mod B_p) with probability
// 1−changeProb. The remaining changeProb mass is split uniformly over the
// other patterns, entering each at the equivalent next phase
// (q, (k+1) mod B_q), so a pattern switch never interrupts the beat
// count. Every row of the implied matrix sums to one by construction; a
// single-pattern model keeps all mass on the within-pattern advance
// regardless of changeProb.
type TransitionModel struct {
	ss         *StateSpace
	changeProb float64
	incoming   [][]arc // indexed by destination state
}

// NewTransitionModel builds the sparse transition model. changeProb must
// lie in [0, 1).
func NewTransitionModel(ss *StateSpace, changeProb float64) (*TransitionModel, error) {
	if changeProb < 0 || changeProb >= 1 {
		return nil, fmt.Errorf("barhmm: pattern change probability %v outside [0, 1)", changeProb)
	}
	tm := &TransitionModel{
		ss:         ss,
		changeProb: changeProb,
		incoming:   make([][]arc, ss.NumStates()),
	}
	numPatterns := ss.NumPatterns()
	stay := 1.0
	cross := 0.0
	if numPatterns > 1 && changeProb > 0 {
		stay = 1 - changeProb
		cross = changeProb / float64(numPatterns-1)
	}
	add := func(from, to int, prob float64) {
		tm.incoming[to] = append(tm.incoming[to], arc{from: from, prob: prob, logProb: math.Log(prob)})
	}
	for from := 0; from < ss.NumStates(); from++ {
		p := ss.Pattern(from)
		next := (ss.Position(from) + 1) % ss.BeatsPerBar(p)
		add(from, ss.State(p, next), stay)
		if cross == 0 {
			continue
		}
		for q := 0; q < numPatterns; q++ {
			if q == p {
				continue
			}
			add(from, ss.State(q, (ss.Position(from)+1)%ss.BeatsPerBar(q)), cross)
		}
	}
	return tm, nil
}

// StateSpace returns the state space the model is defined over.
func (tm *TransitionModel) StateSpace() *StateSpace { return tm.ss }

// Prob returns the transition probability from one global state to
// another. Most pairs are zero; the matrix is stored sparsely.
func (tm *TransitionModel) Prob(from, to int) float64 {
	var total float64
	for _, a := range tm.incoming[to] {
		if a.from == from {
			total += a.prob
		}
	}
	return total
}
