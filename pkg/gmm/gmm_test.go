package gmm

import (
	"errors"
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoComponents) {
		t.Fatalf("expected ErrNoComponents, got %v", err)
	}

	// Mismatched mean dimensions.
	_, err := New([]Component{
		{Weight: 1, Mean: []float64{0, 0}, Covariance: []float64{1, 0, 0, 1}},
		{Weight: 1, Mean: []float64{0}, Covariance: []float64{1}},
	})
	if err == nil {
		t.Fatal("expected error for mismatched dimensions")
	}

	// Non-positive weight.
	_, err = New([]Component{{Weight: 0, Mean: []float64{0}, Covariance: []float64{1}}})
	if err == nil {
		t.Fatal("expected error for zero weight")
	}

	// Covariance not positive definite.
	_, err = New([]Component{{Weight: 1, Mean: []float64{0, 0}, Covariance: []float64{1, 2, 2, 1}}})
	if err == nil {
		t.Fatal("expected error for non-PD covariance")
	}
}

func TestLogProbSingleGaussian(t *testing.T) {
	// Standard 1D normal: logProb(0) = -0.5*log(2π).
	m, err := New([]Component{{Weight: 1, Mean: []float64{0}, Covariance: []float64{1}}})
	if err != nil {
		t.Fatal(err)
	}
	want := -0.5 * math.Log(2*math.Pi)
	got := m.LogProb([]float64{0})
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb(0) = %v, want %v", got, want)
	}
	// Symmetry.
	if a, b := m.LogProb([]float64{1.5}), m.LogProb([]float64{-1.5}); math.Abs(a-b) > 1e-12 {
		t.Errorf("asymmetric density: %v vs %v", a, b)
	}
}

func TestLogProbMixtureWeights(t *testing.T) {
	// Two well-separated components; near each mean the mixture density is
	// approximately weight * component density.
	m, err := New([]Component{
		{Weight: 3, Mean: []float64{-10}, Covariance: []float64{1}},
		{Weight: 1, Mean: []float64{10}, Covariance: []float64{1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Weights renormalize to 0.75 / 0.25.
	gauss := -0.5 * math.Log(2*math.Pi)
	if got, want := m.LogProb([]float64{-10}), math.Log(0.75)+gauss; math.Abs(got-want) > 1e-6 {
		t.Errorf("LogProb(-10) = %v, want %v", got, want)
	}
	if got, want := m.LogProb([]float64{10}), math.Log(0.25)+gauss; math.Abs(got-want) > 1e-6 {
		t.Errorf("LogProb(10) = %v, want %v", got, want)
	}
}

func TestLogProbFarTailNoUnderflow(t *testing.T) {
	m, err := New([]Component{{Weight: 1, Mean: []float64{0}, Covariance: []float64{1}}})
	if err != nil {
		t.Fatal(err)
	}
	got := m.LogProb([]float64{100})
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("far-tail log-density not finite: %v", got)
	}
	if got > -1000 {
		t.Errorf("far-tail log-density suspiciously large: %v", got)
	}
}
