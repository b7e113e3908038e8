package beatsync

import (
	"fmt"
	"log/slog"
	"math"
)

// firstBeatTolerance lets the first beat start slightly before its
// timestamp, seconds.
const firstBeatTolerance = 0.02

// NoSupportError reports a beat interval in which every subdivision bin is
// empty, leaving nothing to interpolate from.
type NoSupportError struct {
	Beat int // index of the offending beat interval
}

func (e *NoSupportError) Error() string {
	return fmt.Sprintf("beatsync: beat %d has no feature frames in any subdivision", e.Beat)
}

// Synchronize aggregates a full feature sequence to a full beat sequence.
//
// beats are timestamps in seconds, features is the per-frame sequence
// (frames × feature dimensions). The result holds one
// [Subdivisions][FeatDim] block per beat interval, i.e. len(beats)-1
// blocks. Zero beats yield empty results and no error. Beats extending
// past the end of the feature sequence are dropped with a warning.
//
// Frames are binned by center time, shifted by half a subdivision so bins
// are phase-centered on the beat grid. Empty bins are filled by linear
// interpolation across the supported bins of the same beat; a beat with no
// supported bins at all is a *NoSupportError.
func Synchronize(cfg Config, beats []float64, features [][]float64) ([]float64, [][][]float64, error) {
	if len(beats) == 0 {
		return []float64{}, [][][]float64{}, nil
	}

	// Drop beats the feature sequence does not cover.
	for len(beats) > 0 && float64(len(features))/cfg.FPS < beats[len(beats)-1] {
		slog.Warn("beatsync: beat sequence extends past features, dropping trailing beat",
			"beat", beats[len(beats)-1], "frames", len(features))
		beats = beats[:len(beats)-1]
	}
	if len(beats) < 2 {
		return beats, [][][]float64{}, nil
	}

	featDim := cfg.FeatDim
	if len(features) > 0 {
		featDim = len(features[0])
	}

	n := cfg.Subdivisions
	out := make([][][]float64, len(beats)-1)

	// Bins are centered on the beat grid: each beat's first bin starts half
	// a subdivision before the beat time.
	nextStart := int(math.Max(0, math.Floor((beats[0]-firstBeatTolerance)*cfg.FPS)))
	for i := 0; i < len(beats)-1; i++ {
		duration := beats[i+1] - beats[i]
		halfDiv := 0.5 * duration / float64(n)
		start := nextStart
		nextStart = int(math.Floor((beats[i+1] - halfDiv) * cfg.FPS))
		if nextStart > len(features) {
			nextStart = len(features)
		}

		sums := newBlock(n, featDim)
		counts := make([]int, n)
		numFrames := nextStart - start
		for f := 0; f < numFrames; f++ {
			// Distribute the interval's frames evenly over the n bins.
			div := int(float64(f) * float64(n) / float64(numFrames))
			if div >= n {
				div = n - 1
			}
			for d := 0; d < featDim; d++ {
				sums[div][d] += features[start+f][d]
			}
			counts[div]++
		}

		block, err := fillBins(sums, counts, featDim, i)
		if err != nil {
			return nil, nil, err
		}
		out[i] = block
	}
	return beats, out, nil
}

// fillBins turns per-bin sums into means and interpolates empty bins from
// the supported ones.
func fillBins(sums [][]float64, counts []int, featDim, beatIdx int) ([][]float64, error) {
	n := len(sums)
	supported := make([]int, 0, n)
	for div := 0; div < n; div++ {
		if counts[div] > 0 {
			supported = append(supported, div)
			for d := 0; d < featDim; d++ {
				sums[div][d] /= float64(counts[div])
			}
		}
	}
	if len(supported) == 0 {
		return nil, &NoSupportError{Beat: beatIdx}
	}
	if len(supported) == n {
		return sums, nil
	}
	for div := 0; div < n; div++ {
		if counts[div] > 0 {
			continue
		}
		for d := 0; d < featDim; d++ {
			sums[div][d] = interpolate(div, supported, sums, d)
		}
	}
	return sums, nil
}

// interpolate linearly interpolates the value at position div from the
// supported bins, clamping to the nearest supported value at the edges.
func interpolate(div int, supported []int, means [][]float64, dim int) float64 {
	if div <= supported[0] {
		return means[supported[0]][dim]
	}
	last := supported[len(supported)-1]
	if div >= last {
		return means[last][dim]
	}
	// Find the supported neighbors around div.
	hi := 0
	for supported[hi] < div {
		hi++
	}
	lo := hi - 1
	x0, x1 := float64(supported[lo]), float64(supported[hi])
	y0, y1 := means[supported[lo]][dim], means[supported[hi]][dim]
	t := (float64(div) - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
