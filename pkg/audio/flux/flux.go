// Package flux computes a per-frame spectral flux feature from PCM audio.
//
// This is the percussive onset feature the bar tracking GMMs are fitted
// on: a framed STFT is reduced to a small number of logarithmically spaced
// frequency bands, log-compressed, differentiated in time, and the
// positive differences are summed over bands, yielding one scalar per
// frame.
//
// Default parameters match the feature the pattern models were trained
// with:
//
//	SampleRate: 44100
//	FrameSize:  2048
//	FPS:        100 (hop = SampleRate/FPS)
//	NumBands:   12
//	FMin:       60
//	FMax:       17000
package flux

import (
	"math"
)

// Config controls spectral flux extraction parameters.
type Config struct {
	SampleRate int     // audio sample rate in Hz (default 44100)
	FrameSize  int     // window length in samples, power of 2 (default 2048)
	FPS        int     // output frame rate in Hz (default 100)
	NumBands   int     // number of log-spaced frequency bands (default 12)
	FMin       float64 // lowest band frequency (default 60)
	FMax       float64 // highest band frequency (default 17000)
}

// DefaultConfig returns the standard config for the bar tracking feature.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		FrameSize:  2048,
		FPS:        100,
		NumBands:   12,
		FMin:       60,
		FMax:       17000,
	}
}

// Extractor computes spectral flux features from PCM samples.
type Extractor struct {
	cfg    Config
	window []float64 // Hamming window
	bank   [][]float64
}

// New creates a new flux Extractor with the given config.
func New(cfg Config) *Extractor {
	e := &Extractor{cfg: cfg}
	e.window = hammingWindow(cfg.FrameSize)
	e.bank = logFilterBank(cfg.NumBands, cfg.FrameSize, cfg.SampleRate, cfg.FMin, cfg.FMax)
	return e
}

// Extract computes one spectral flux value per frame.
// Input: pcm is normalized float32 audio samples (range [-1, 1]).
// Output: [T]float64 where T = (len(pcm) - frameSize) / hop + 1, with the
// first frame's flux defined as 0 (no predecessor to differentiate
// against).
func (e *Extractor) Extract(pcm []float32) []float64 {
	cfg := e.cfg
	hop := cfg.SampleRate / cfg.FPS
	n := len(pcm)
	if n < cfg.FrameSize {
		return nil
	}

	numFrames := (n-cfg.FrameSize)/hop + 1
	nfft := cfg.FrameSize
	halfFFT := nfft/2 + 1

	flux := make([]float64, numFrames)

	re := make([]float64, nfft)
	im := make([]float64, nfft)
	power := make([]float64, halfFFT)
	bands := make([]float64, cfg.NumBands)
	prev := make([]float64, cfg.NumBands)

	for t := 0; t < numFrames; t++ {
		start := t * hop
		for i := 0; i < nfft; i++ {
			re[i] = float64(pcm[start+i]) * e.window[i]
			im[i] = 0
		}
		fft(re, im)
		for i := 0; i < halfFFT; i++ {
			power[i] = math.Sqrt(re[i]*re[i] + im[i]*im[i])
		}

		// Band energies with logarithmic compression.
		for b := 0; b < cfg.NumBands; b++ {
			sum := 0.0
			for k, w := range e.bank[b] {
				sum += w * power[k]
			}
			bands[b] = math.Log(1 + sum)
		}

		// Positive first-order difference summed over bands.
		if t > 0 {
			var f float64
			for b := range bands {
				if d := bands[b] - prev[b]; d > 0 {
					f += d
				}
			}
			flux[t] = f
		}
		copy(prev, bands)
	}
	return flux
}

// logFilterBank creates triangular filters with logarithmically spaced
// center frequencies. Returns [numBands][halfFFT] weights.
func logFilterBank(numBands, fftSize, sampleRate int, fMin, fMax float64) [][]float64 {
	halfFFT := fftSize/2 + 1
	binHz := float64(sampleRate) / float64(fftSize)

	// numBands + 2 log-spaced edge frequencies.
	logMin := math.Log(fMin)
	logMax := math.Log(fMax)
	edges := make([]int, numBands+2)
	for i := range edges {
		f := math.Exp(logMin + (logMax-logMin)*float64(i)/float64(numBands+1))
		bin := int(math.Round(f / binHz))
		if bin > halfFFT-1 {
			bin = halfFFT - 1
		}
		edges[i] = bin
	}
	// Adjacent edges may collapse onto the same bin at low frequencies;
	// force strictly increasing edges so every filter has support.
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			edges[i] = edges[i-1] + 1
		}
	}

	bank := make([][]float64, numBands)
	for b := 0; b < numBands; b++ {
		filter := make([]float64, halfFFT)
		lo, mid, hi := edges[b], edges[b+1], edges[b+2]
		for k := lo; k < mid && k < halfFFT; k++ {
			filter[k] = float64(k-lo) / float64(mid-lo)
		}
		for k := mid; k <= hi && k < halfFFT; k++ {
			filter[k] = float64(hi-k) / float64(hi-mid)
		}
		// Peak weight 1 at the center bin.
		filter[min(mid, halfFFT-1)] = 1
		bank[b] = filter
	}
	return bank
}
