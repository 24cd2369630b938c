package svd_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/blindmarkctl/blindmark/internal/svd"
)

const epsilon = 1e-6

func TestReconstructRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	flat := make([]float64, 16)
	for i := range flat {
		flat[i] = rng.Float64()*200 - 100
	}

	dec, err := svd.Decompose(flat, 4)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	rec := dec.Reconstruct()

	max := 0.0
	for i := range flat {
		if d := math.Abs(flat[i] - rec[i]); d > max {
			max = d
		}
	}
	if max > epsilon {
		t.Errorf("reconstruct max diff = %e, want < %e", max, epsilon)
	}
}

func TestSingularValuesNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	flat := make([]float64, 16)
	for i := range flat {
		flat[i] = rng.Float64() * 255
	}
	dec, err := svd.Decompose(flat, 4)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	for i := 1; i < len(dec.S); i++ {
		if dec.S[i] > dec.S[i-1]+1e-12 {
			t.Errorf("S not non-increasing: S[%d]=%v > S[%d]=%v", i, dec.S[i], i-1, dec.S[i-1])
		}
	}
}

func TestDecomposeWrongSize(t *testing.T) {
	if _, err := svd.Decompose(make([]float64, 10), 4); err == nil {
		t.Error("expected error for mismatched block length")
	}
}
