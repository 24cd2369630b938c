package dct_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/blindmarkctl/blindmark/internal/dct"
)

const roundTripEpsilon = 1e-9

func makeBlock(rows, cols int, rng *rand.Rand) [][]float64 {
	b := make([][]float64, rows)
	for y := 0; y < rows; y++ {
		b[y] = make([]float64, cols)
		for x := 0; x < cols; x++ {
			b[y][x] = rng.Float64()*512.0 - 256.0
		}
	}
	return b
}

func maxAbsDiff(a, b [][]float64) float64 {
	max := 0.0
	for y := range a {
		for x := range a[y] {
			d := math.Abs(a[y][x] - b[y][x])
			if d > max {
				max = d
			}
		}
	}
	return max
}

func TestRoundTrip4x4(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := makeBlock(4, 4, rng)
	rec := dct.Inverse2D(dct.Forward2D(b))
	if d := maxAbsDiff(b, rec); d > roundTripEpsilon {
		t.Errorf("4x4 round-trip max diff = %e, want < %e", d, roundTripEpsilon)
	}
}

func TestRoundTrip8x8(t *testing.T) {
	rng := rand.New(rand.NewSource(1337))
	b := makeBlock(8, 8, rng)
	rec := dct.Inverse2D(dct.Forward2D(b))
	if d := maxAbsDiff(b, rec); d > roundTripEpsilon {
		t.Errorf("8x8 round-trip max diff = %e, want < %e", d, roundTripEpsilon)
	}
}

func TestRoundTrip64x64(t *testing.T) {
	rng := rand.New(rand.NewSource(99999))
	b := makeBlock(64, 64, rng)
	rec := dct.Inverse2D(dct.Forward2D(b))
	if d := maxAbsDiff(b, rec); d > roundTripEpsilon {
		t.Errorf("64x64 round-trip max diff = %e, want < %e", d, roundTripEpsilon)
	}
}

// TestKnown4x4Constant checks the watermark codec's required DC invariant:
// for a constant 4x4 block of value v, DCT[0][0] == 4v and every other
// coefficient is 0.
func TestKnown4x4Constant(t *testing.T) {
	const v = 10.0
	const n = dct.BlockSize
	b := make([][]float64, n)
	for y := 0; y < n; y++ {
		b[y] = make([]float64, n)
		for x := 0; x < n; x++ {
			b[y][x] = v
		}
	}
	out := dct.Forward2D(b)

	wantDC := v * float64(n)
	if math.Abs(out[0][0]-wantDC) > 1e-9 {
		t.Errorf("DC coefficient = %v, want %v", out[0][0], wantDC)
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if y == 0 && x == 0 {
				continue
			}
			if math.Abs(out[y][x]) > 1e-9 {
				t.Errorf("out[%d][%d] = %v, want ~0 for constant input", y, x, out[y][x])
			}
		}
	}
}

func TestKnown4x4Reference(t *testing.T) {
	input := [][]float64{
		{16, 11, 10, 16},
		{12, 12, 14, 19},
		{14, 13, 16, 24},
		{14, 17, 22, 29},
	}
	sumAll := 0.0
	for _, row := range input {
		for _, v := range row {
			sumAll += v
		}
	}
	expectedDC := sumAll / float64(4)

	out := dct.Forward2D(input)
	if math.Abs(out[0][0]-expectedDC) > 1e-9 {
		t.Errorf("DC out[0][0] = %v, want %v (analytical)", out[0][0], expectedDC)
	}

	rec := dct.Inverse2D(out)
	if d := maxAbsDiff(input, rec); d > roundTripEpsilon {
		t.Errorf("4x4 reference round-trip max diff = %e, want < %e", d, roundTripEpsilon)
	}
}

func TestForwardInverseBlockFlat(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	flat := make([]float64, 16)
	for i := range flat {
		flat[i] = rng.Float64()*200 - 100
	}
	rec := dct.InverseBlock(dct.ForwardBlock(flat))
	for i := range flat {
		if d := math.Abs(flat[i] - rec[i]); d > roundTripEpsilon {
			t.Errorf("flat round-trip[%d] diff = %e, want < %e", i, d, roundTripEpsilon)
		}
	}
}
