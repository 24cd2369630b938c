package qim_test

import (
	"math/rand"
	"testing"

	"github.com/blindmarkctl/blindmark/internal/qim"
)

func TestEncodeSoftDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	steps := []float64{qim.D1, qim.D2, 5, 100}
	for i := 0; i < 200; i++ {
		s := rng.Float64() * 1000
		bit := i % 2
		d := steps[i%len(steps)]
		encoded := qim.Encode(s, bit, d)
		got := qim.SoftDecode(encoded, d)
		if int(got) != bit {
			t.Fatalf("s=%v bit=%v d=%v: Encode/SoftDecode round trip got %v", s, bit, d, got)
		}
	}
}

func TestSoftDecodeZeroStep(t *testing.T) {
	if got := qim.SoftDecode(5, 0); got != 0.5 {
		t.Errorf("SoftDecode with d=0 = %v, want 0.5", got)
	}
}

func TestBlockSoftBitWeighting(t *testing.T) {
	s0 := qim.Encode(40, 1, qim.D1)
	s1 := qim.Encode(25, 0, qim.D2)
	got := qim.BlockSoftBit(s0, s1)
	want := (3*1.0 + 0.0) / 4
	if got != want {
		t.Errorf("BlockSoftBit = %v, want %v", got, want)
	}
}
