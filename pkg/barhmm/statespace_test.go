package barhmm

import (
	"errors"
	"testing"
)

func TestNewStateSpaceEmpty(t *testing.T) {
	if _, err := NewStateSpace(nil); !errors.Is(err, ErrNoPatterns) {
		t.Fatalf("expected ErrNoPatterns, got %v", err)
	}
	if _, err := NewStateSpace([]int{4, 0}); err == nil {
		t.Fatal("expected error for zero beats per bar")
	}
}

func TestStateSpaceRoundTrip(t *testing.T) {
	tests := [][]int{
		{4},
		{3, 4},
		{2, 3, 4, 5},
		{1, 1},
	}
	for _, beatsPerBar := range tests {
		ss, err := NewStateSpace(beatsPerBar)
		if err != nil {
			t.Fatalf("%v: %v", beatsPerBar, err)
		}
		total := 0
		for _, b := range beatsPerBar {
			total += b
		}
		if ss.NumStates() != total {
			t.Errorf("%v: NumStates = %d, want %d", beatsPerBar, ss.NumStates(), total)
		}
		if ss.NumPatterns() != len(beatsPerBar) {
			t.Errorf("%v: NumPatterns = %d, want %d", beatsPerBar, ss.NumPatterns(), len(beatsPerBar))
		}

		// Walking all states and regrouping them by pattern must
		// reproduce the original configuration exactly.
		got := make([]int, len(beatsPerBar))
		prevPattern, prevPosition := -1, 0
		for s := 0; s < ss.NumStates(); s++ {
			p, k := ss.Pattern(s), ss.Position(s)
			if ss.State(p, k) != s {
				t.Fatalf("%v: State(%d, %d) = %d, want %d", beatsPerBar, p, k, ss.State(p, k), s)
			}
			// Enumeration is ordered: positions 0..B_p-1 within each
			// pattern, patterns in input order.
			if p != prevPattern {
				if p != prevPattern+1 || k != 0 {
					t.Fatalf("%v: state %d breaks enumeration order", beatsPerBar, s)
				}
			} else if k != prevPosition+1 {
				t.Fatalf("%v: state %d breaks position order", beatsPerBar, s)
			}
			prevPattern, prevPosition = p, k
			got[p]++
		}
		for p, want := range beatsPerBar {
			if got[p] != want {
				t.Errorf("%v: pattern %d has %d states, want %d", beatsPerBar, p, got[p], want)
			}
		}
	}
}
