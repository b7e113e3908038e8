package barhmm

import (
	"math"
	"testing"
)

func TestNewTransitionModelValidation(t *testing.T) {
	ss, _ := NewStateSpace([]int{3, 4})
	for _, p := range []float64{-0.1, 1, 1.5} {
		if _, err := NewTransitionModel(ss, p); err == nil {
			t.Errorf("changeProb=%v: expected error", p)
		}
	}
}

func TestTransitionRowsStochastic(t *testing.T) {
	tests := []struct {
		beatsPerBar []int
		changeProb  float64
	}{
		{[]int{4}, 0},
		{[]int{4}, 0.5},
		{[]int{3, 4}, 0},
		{[]int{3, 4}, 1e-3},
		{[]int{2, 3, 4}, 0.2},
		{[]int{1, 1}, 0.5},
	}
	for _, tt := range tests {
		ss, err := NewStateSpace(tt.beatsPerBar)
		if err != nil {
			t.Fatal(err)
		}
		tm, err := NewTransitionModel(ss, tt.changeProb)
		if err != nil {
			t.Fatal(err)
		}
		for from := 0; from < ss.NumStates(); from++ {
			var row float64
			for to := 0; to < ss.NumStates(); to++ {
				row += tm.Prob(from, to)
			}
			if math.Abs(row-1) > 1e-12 {
				t.Errorf("beatsPerBar=%v changeProb=%v: row %d sums to %v", tt.beatsPerBar, tt.changeProb, from, row)
			}
		}
	}
}

func TestTransitionAdvancesPosition(t *testing.T) {
	ss, _ := NewStateSpace([]int{3, 4})
	tm, err := NewTransitionModel(ss, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	for from := 0; from < ss.NumStates(); from++ {
		p, k := ss.Pattern(from), ss.Position(from)
		// Within-pattern advance carries the bulk of the mass.
		stay := tm.Prob(from, ss.State(p, (k+1)%ss.BeatsPerBar(p)))
		if math.Abs(stay-0.9) > 1e-12 {
			t.Errorf("state %d: within-pattern prob = %v, want 0.9", from, stay)
		}
		// The switch enters the other pattern at the equivalent next phase.
		q := 1 - p
		cross := tm.Prob(from, ss.State(q, (k+1)%ss.BeatsPerBar(q)))
		if math.Abs(cross-0.1) > 1e-12 {
			t.Errorf("state %d: cross-pattern prob = %v, want 0.1", from, cross)
		}
	}
}

func TestTransitionSinglePatternIgnoresChangeProb(t *testing.T) {
	ss, _ := NewStateSpace([]int{4})
	tm, err := NewTransitionModel(ss, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	for from := 0; from < 4; from++ {
		next := ss.State(0, (from+1)%4)
		if got := tm.Prob(from, next); got != 1 {
			t.Errorf("state %d: advance prob = %v, want 1", from, got)
		}
	}
}
