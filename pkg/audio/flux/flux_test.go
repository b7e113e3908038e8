package flux

import (
	"math"
	"testing"
)

func TestFFTKnownSignal(t *testing.T) {
	// DC + 1Hz cosine in 8-sample window.
	n := 8
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = 1.0 + math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	fft(re, im)

	if math.Abs(re[0]-float64(n)) > 0.01 {
		t.Errorf("DC = %f, want %d", re[0], n)
	}
	if math.Abs(re[1]-float64(n)/2) > 0.01 {
		t.Errorf("H1 real = %f, want %f", re[1], float64(n)/2)
	}
}

func TestLogFilterBank(t *testing.T) {
	bank := logFilterBank(12, 2048, 44100, 60, 17000)
	if len(bank) != 12 {
		t.Fatalf("expected 12 filters, got %d", len(bank))
	}
	halfFFT := 2048/2 + 1
	for i, f := range bank {
		if len(f) != halfFFT {
			t.Fatalf("filter %d: %d bins, want %d", i, len(f), halfFFT)
		}
		hasNonZero := false
		for _, v := range f {
			if v > 0 {
				hasNonZero = true
				break
			}
		}
		if !hasNonZero {
			t.Errorf("filter %d is all zeros", i)
		}
	}
}

func TestExtractSilence(t *testing.T) {
	ext := New(DefaultConfig())
	pcm := make([]float32, 44100)
	flux := ext.Extract(pcm)
	if len(flux) == 0 {
		t.Fatal("no frames extracted")
	}
	for i, v := range flux {
		if v != 0 {
			t.Errorf("frame %d: flux %v for silence, want 0", i, v)
		}
	}
}

func TestExtractOnset(t *testing.T) {
	cfg := DefaultConfig()
	ext := New(cfg)

	// Silence, then a burst of broadband noise: the flux must spike at the
	// transition and stay low inside the steady segments.
	n := 44100
	pcm := make([]float32, n)
	onset := n / 2
	seed := uint32(1)
	for i := onset; i < n; i++ {
		seed = seed*1664525 + 1013904223
		pcm[i] = float32(seed%2000)/1000 - 1
	}

	flux := ext.Extract(pcm)
	if len(flux) == 0 {
		t.Fatal("no frames extracted")
	}
	hop := cfg.SampleRate / cfg.FPS
	onsetFrame := onset / hop

	peak := 0
	for i, v := range flux {
		if v > flux[peak] {
			peak = i
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("frame %d: flux %v not finite", i, v)
		}
	}
	// The window is much longer than the hop, so the peak lands within a
	// window's worth of frames before the onset.
	windowFrames := cfg.FrameSize/hop + 1
	if peak < onsetFrame-windowFrames || peak > onsetFrame+windowFrames {
		t.Errorf("flux peak at frame %d, onset at frame %d", peak, onsetFrame)
	}
}

func BenchmarkExtract(b *testing.B) {
	ext := New(DefaultConfig())
	pcm := make([]float32, 3*44100)
	for i := range pcm {
		pcm[i] = float32(math.Sin(2 * math.Pi * 220 * float64(i) / 44100))
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = ext.Extract(pcm)
	}
}
