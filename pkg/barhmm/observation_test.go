package barhmm

import (
	"testing"

	"github.com/00001101-xt/bartrack/pkg/gmm"
)

// testMixtures builds [pattern][position][subdivision] single-component 1D
// mixtures whose means encode the position index, so the most likely state
// for an observation near x is the state at position round(x).
func testMixtures(t *testing.T, beatsPerBar []int, subdivisions int) [][][]*gmm.Mixture {
	t.Helper()
	out := make([][][]*gmm.Mixture, len(beatsPerBar))
	for p, beats := range beatsPerBar {
		out[p] = make([][]*gmm.Mixture, beats)
		for pos := 0; pos < beats; pos++ {
			out[p][pos] = make([]*gmm.Mixture, subdivisions)
			for div := 0; div < subdivisions; div++ {
				m, err := gmm.New([]gmm.Component{{
					Weight:     1,
					Mean:       []float64{float64(pos)},
					Covariance: []float64{0.1},
				}})
				if err != nil {
					t.Fatal(err)
				}
				out[p][pos][div] = m
			}
		}
	}
	return out
}

func block(subdivisions int, value float64) [][]float64 {
	b := make([][]float64, subdivisions)
	for i := range b {
		b[i] = []float64{value}
	}
	return b
}

func TestNewObservationModelEmpty(t *testing.T) {
	ss, _ := NewStateSpace([]int{4})
	if _, err := NewObservationModel(ss, nil); err == nil {
		t.Fatal("expected error for empty mixture list")
	}
}

func TestNewObservationModelPatternMismatch(t *testing.T) {
	ss, _ := NewStateSpace([]int{3, 4})
	mixes := testMixtures(t, []int{3}, 2)
	if _, err := NewObservationModel(ss, mixes); err == nil {
		t.Fatal("expected error for pattern count mismatch")
	}
}

func TestLogDensitiesFavorsMatchingPosition(t *testing.T) {
	ss, _ := NewStateSpace([]int{3, 4})
	om, err := NewObservationModel(ss, testMixtures(t, []int{3, 4}, 2))
	if err != nil {
		t.Fatal(err)
	}

	obs := [][][]float64{block(2, 0), block(2, 1), block(2, 2)}
	rows, err := om.LogDensities(obs)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("%d rows, want 3", len(rows))
	}
	for beat, row := range rows {
		if len(row) != ss.NumStates() {
			t.Fatalf("beat %d: %d columns, want %d", beat, len(row), ss.NumStates())
		}
		// For an observation at value v, states at position v (in either
		// pattern) must outscore all other positions.
		for s := 0; s < ss.NumStates(); s++ {
			matching := ss.Position(s) == beat
			best := row[ss.State(0, beat)]
			if matching && row[s] != best {
				t.Errorf("beat %d: matching state %d scores %v, want %v", beat, s, row[s], best)
			}
			if !matching && row[s] >= best {
				t.Errorf("beat %d: state %d (position %d) outscores matching position", beat, s, ss.Position(s))
			}
		}
	}
}

func TestLogDensitiesShapeErrors(t *testing.T) {
	ss, _ := NewStateSpace([]int{4})
	om, err := NewObservationModel(ss, testMixtures(t, []int{4}, 2))
	if err != nil {
		t.Fatal(err)
	}

	// Wrong subdivision count.
	if _, err := om.LogDensities([][][]float64{block(3, 0)}); err == nil {
		t.Error("expected error for wrong subdivision count")
	}
	// Wrong feature dimension.
	bad := [][]float64{{0, 0}, {0, 0}}
	if _, err := om.LogDensities([][][]float64{bad}); err == nil {
		t.Error("expected error for wrong feature dimension")
	}
}
