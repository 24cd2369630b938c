// Package watermark composes the DWT, DCT, SVD, shuffle and QIM primitives
// into the image embed/extract pipeline (spec components C7/C8).
package watermark

import (
	"fmt"

	"github.com/blindmarkctl/blindmark/internal/blinderr"
	"github.com/blindmarkctl/blindmark/internal/dct"
	"github.com/blindmarkctl/blindmark/internal/qim"
	"github.com/blindmarkctl/blindmark/internal/shuffle"
	"github.com/blindmarkctl/blindmark/internal/svd"
)

// password is the fixed shuffle seed component; the scheme has no
// per-call password knob, only the block index varies the seed.
const password uint64 = 1

// blockWidth returns the number of 4x4 blocks per row of an LL subband of
// the given width.
func blockWidth(llW int) int {
	return llW / dct.BlockSize
}

// blockCount returns the total number of 4x4 blocks in an LL subband of
// the given shape.
func blockCount(llH, llW int) int {
	return (llH / dct.BlockSize) * blockWidth(llW)
}

// readBlock extracts the flat, row-major 4x4 tile at block index b from ll.
func readBlock(ll [][]float64, b int) []float64 {
	bw := blockWidth(len(ll[0]))
	bi, bj := b/bw, b%bw
	y0, x0 := bi*dct.BlockSize, bj*dct.BlockSize

	flat := make([]float64, 0, dct.BlockSize*dct.BlockSize)
	for dy := 0; dy < dct.BlockSize; dy++ {
		flat = append(flat, ll[y0+dy][x0:x0+dct.BlockSize]...)
	}
	return flat
}

// writeBlock writes a flat, row-major 4x4 tile back into ll at block index b.
func writeBlock(ll [][]float64, b int, flat []float64) {
	bw := blockWidth(len(ll[0]))
	bi, bj := b/bw, b%bw
	y0, x0 := bi*dct.BlockSize, bj*dct.BlockSize

	for dy := 0; dy < dct.BlockSize; dy++ {
		copy(ll[y0+dy][x0:x0+dct.BlockSize], flat[dy*dct.BlockSize:(dy+1)*dct.BlockSize])
	}
}

// embedBlocks embeds the bit vector redundantly across every 4x4 block of
// ll, cycling the payload when there are more blocks than bits. Mutates ll
// in place. Fails with blinderr.EmbeddingFailed if ll has fewer blocks than
// the payload is long (spec.md's "capacity check").
func embedBlocks(ll [][]float64, bits []int) error {
	n := blockCount(len(ll), len(ll[0]))
	w := len(bits)
	if n < w {
		return blinderr.New(blinderr.EmbeddingFailed,
			fmt.Sprintf("image too small for payload: have %d blocks, need %d", n, w))
	}

	for b := 0; b < n; b++ {
		bit := bits[b%w]

		flat := readBlock(ll, b)
		dctFlat := dct.ForwardBlock(flat)

		perm := shuffle.Permutation(password, b)
		shuffled := shuffle.Apply(dctFlat, perm)

		dec, err := svd.Decompose(shuffled, dct.BlockSize)
		if err != nil {
			return blinderr.Wrap(blinderr.EmbeddingFailed, err, "svd failed during embed")
		}
		dec.S[0] = qim.Encode(dec.S[0], bit, qim.D1)
		dec.S[1] = qim.Encode(dec.S[1], bit, qim.D2)
		modified := dec.Reconstruct()

		unshuffled := shuffle.Unapply(modified, perm)
		idctFlat := dct.InverseBlock(unshuffled)

		writeBlock(ll, b, idctFlat)
	}
	return nil
}

// extractSoft recovers the per-block soft bit vector from the unmutated ll,
// then folds it by cyclic-copy averaging into a length-wmSize real vector
// with values approximately in [0,1].
func extractSoft(ll [][]float64, wmSize int) ([]float64, error) {
	n := blockCount(len(ll), len(ll[0]))

	q := make([]float64, n)
	for b := 0; b < n; b++ {
		flat := readBlock(ll, b)
		dctFlat := dct.ForwardBlock(flat)

		perm := shuffle.Permutation(password, b)
		shuffled := shuffle.Apply(dctFlat, perm)

		dec, err := svd.Decompose(shuffled, dct.BlockSize)
		if err != nil {
			return nil, blinderr.Wrap(blinderr.ExtractionFailed, err, "svd failed during extract")
		}
		q[b] = qim.BlockSoftBit(dec.S[0], dec.S[1])
	}

	out := make([]float64, wmSize)
	for i := 0; i < wmSize; i++ {
		sum, count := 0.0, 0
		for j := i; j < n; j += wmSize {
			sum += q[j]
			count++
		}
		if count == 0 {
			out[i] = 0.5
		} else {
			out[i] = sum / float64(count)
		}
	}
	return out, nil
}
