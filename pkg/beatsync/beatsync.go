// Package beatsync aggregates per-frame audio features into beat-synchronous
// feature vectors.
//
// Each beat interval is divided into a fixed number of subdivisions and all
// feature frames falling into one subdivision are averaged, yielding one
// [Subdivisions][FeatDim] block per beat. Two operations are provided:
// a [Synchronizer] for frame-by-frame streaming use, and [Synchronize] for
// whole-sequence batch use. They share only configuration, never state.
package beatsync

import (
	"math"
)

// Config controls beat-synchronous aggregation.
type Config struct {
	Subdivisions int     // number of subdivisions per beat interval (default 4)
	FPS          float64 // feature frame rate in Hz (default 100)
	FeatDim      int     // feature dimensionality (default 1)
	Offset       int     // frames carried across a beat boundary in streaming mode (default 2)
}

// DefaultConfig returns the configuration used by the downbeat tracking
// pipeline: 4 subdivisions at 100 frames per second over a scalar feature.
func DefaultConfig() Config {
	return Config{
		Subdivisions: 4,
		FPS:          100,
		FeatDim:      1,
		Offset:       2,
	}
}

// Beat is a beat event at frame granularity: either a timestamp in seconds
// or an explicit "no beat" marker.
type Beat struct {
	time    float64
	present bool
}

// At returns a beat event at the given time in seconds.
func At(seconds float64) Beat { return Beat{time: seconds, present: true} }

// NoBeat returns the marker for a frame that carries no beat.
func NoBeat() Beat { return Beat{} }

// Present reports whether the event is an actual beat.
func (b Beat) Present() bool { return b.present }

// Time returns the beat time in seconds. Only meaningful if Present.
func (b Beat) Time() float64 { return b.time }

// Synchronizer accumulates streaming features into beat-synchronous blocks.
//
// A Synchronizer owns mutable per-stream state and must not be shared
// between streams or goroutines; create one per audio stream.
type Synchronizer struct {
	cfg Config

	// frames allotted to each subdivision of the current beat interval.
	// Nil until the first inter-beat interval has been observed.
	divFrames []int

	featSum    []float64 // running sum for the current subdivision
	counter    int       // frames accumulated in the current subdivision
	currentDiv int

	lastBeat    float64
	haveBeat    bool
	beatFeature [][]float64 // [Subdivisions][FeatDim] block under construction
}

// NewSynchronizer returns a Synchronizer for one audio stream.
func NewSynchronizer(cfg Config) *Synchronizer {
	return &Synchronizer{
		cfg:         cfg,
		featSum:     make([]float64, cfg.FeatDim),
		beatFeature: newBlock(cfg.Subdivisions, cfg.FeatDim),
	}
}

// Process consumes one frame's beat event and feature value.
//
// It returns a zero Beat and nil feature until a full beat interval has
// been aggregated. On every beat from the second one onward it emits the
// beat together with the completed [Subdivisions][FeatDim] block.
func (s *Synchronizer) Process(beat Beat, feature []float64) (Beat, [][]float64) {
	// Before the first beat: only record the beat time.
	if !s.haveBeat {
		if beat.Present() {
			s.lastBeat = beat.Time()
			s.haveBeat = true
		}
		return NoBeat(), nil
	}

	// Before the second beat: derive the subdivision lengths from the
	// first observed inter-beat interval.
	if s.divFrames == nil {
		if beat.Present() {
			s.divFrames = divideInterval(beat.Time()-s.lastBeat, s.cfg.FPS, s.cfg.Subdivisions)
			s.lastBeat = beat.Time()
		}
		return NoBeat(), nil
	}

	// Fully initialized: accumulate the frame.
	for d := range s.featSum {
		s.featSum[d] += feature[d]
	}
	s.counter++
	if s.counter >= s.divFrames[s.currentDiv] {
		// Subdivision complete: store its mean and advance the window.
		for d := range s.featSum {
			s.beatFeature[s.currentDiv][d] = s.featSum[d] / float64(s.counter)
		}
		s.currentDiv = (s.currentDiv + 1) % s.cfg.Subdivisions
		for d := range s.featSum {
			s.featSum[d] = 0
		}
		s.counter = 0
	}

	if !beat.Present() {
		return NoBeat(), nil
	}

	// Beat boundary: emit the aggregated block and rebase on the new
	// inter-beat interval.
	out := s.beatFeature
	s.divFrames = divideInterval(beat.Time()-s.lastBeat, s.cfg.FPS, s.cfg.Subdivisions)
	// Carry a small, constant amount of the partial subdivision sum
	// across the boundary so the first subdivision of the next beat can
	// collect features slightly before its nominal border.
	if s.counter > s.cfg.Offset {
		scale := float64(s.cfg.Offset) / float64(s.counter)
		for d := range s.featSum {
			s.featSum[d] *= scale
		}
	} else {
		for d := range s.featSum {
			s.featSum[d] = out[s.cfg.Subdivisions-1][d] * float64(s.cfg.Offset)
		}
	}
	s.counter = s.cfg.Offset
	s.currentDiv = 0
	s.lastBeat = beat.Time()
	s.beatFeature = newBlock(s.cfg.Subdivisions, s.cfg.FeatDim)
	return beat, out
}

// divideInterval splits a beat interval of the given length (seconds) into
// n subdivisions measured in frames. Boundaries are placed evenly in time
// and rounded, so adjacent subdivision lengths differ by at most one frame.
func divideInterval(interval, fps float64, n int) []int {
	frames := make([]int, n)
	prev := 0.0
	for i := 1; i <= n; i++ {
		edge := math.Round(interval * fps * float64(i) / float64(n))
		frames[i-1] = int(edge - prev)
		prev = edge
	}
	return frames
}

func newBlock(subdivisions, featDim int) [][]float64 {
	block := make([][]float64, subdivisions)
	for i := range block {
		block[i] = make([]float64, featDim)
	}
	return block
}
