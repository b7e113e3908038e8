// Package barhmm implements a hidden Markov model over bar positions for
// downbeat and rhythmic pattern tracking.
//
// The hidden state identifies a (pattern, bar position) pair; the global
// state enumeration is the concatenation of every pattern's position range.
// One HMM step corresponds to exactly one beat: tempo is resolved upstream
// by the beat tracker that supplies beat timestamps, so the model carries
// no tempo dimension.
//
// [StateSpace], [TransitionModel], [ObservationModel] and [HMM] are
// immutable after construction and may be shared by any number of
// concurrent decoding sessions. A [Forward] filter holds per-session state
// and must stay confined to one goroutine.
package barhmm

import (
	"errors"
	"fmt"
)

// ErrNoPatterns is returned when a state space is built without patterns.
var ErrNoPatterns = errors.New("barhmm: no patterns")

// StateSpace enumerates all (pattern, bar position) hidden states.
type StateSpace struct {
	beatsPerBar []int
	offsets     []int // first global state of each pattern
	patterns    []int // per global state
	positions   []int // per global state
}

// NewStateSpace builds the state space for the given bar lengths, one
// entry per rhythmic pattern.
func NewStateSpace(beatsPerBar []int) (*StateSpace, error) {
	if len(beatsPerBar) == 0 {
		return nil, ErrNoPatterns
	}
	total := 0
	for p, beats := range beatsPerBar {
		if beats < 1 {
			return nil, fmt.Errorf("barhmm: pattern %d: beats per bar %d, want >= 1", p, beats)
		}
		total += beats
	}
	ss := &StateSpace{
		beatsPerBar: append([]int(nil), beatsPerBar...),
		offsets:     make([]int, len(beatsPerBar)),
		patterns:    make([]int, 0, total),
		positions:   make([]int, 0, total),
	}
	for p, beats := range beatsPerBar {
		ss.offsets[p] = len(ss.patterns)
		for k := 0; k < beats; k++ {
			ss.patterns = append(ss.patterns, p)
			ss.positions = append(ss.positions, k)
		}
	}
	return ss, nil
}

// NumStates returns the total number of hidden states, Σ beats per bar.
func (ss *StateSpace) NumStates() int { return len(ss.patterns) }

// NumPatterns returns the number of rhythmic patterns.
func (ss *StateSpace) NumPatterns() int { return len(ss.beatsPerBar) }

// BeatsPerBar returns the bar length of pattern p.
func (ss *StateSpace) BeatsPerBar(p int) int { return ss.beatsPerBar[p] }

// Pattern returns the rhythmic pattern of a global state.
func (ss *StateSpace) Pattern(state int) int { return ss.patterns[state] }

// Position returns the bar position of a global state.
func (ss *StateSpace) Position(state int) int { return ss.positions[state] }

// State returns the global state index of (pattern, position).
func (ss *StateSpace) State(pattern, position int) int {
	return ss.offsets[pattern] + position
}
