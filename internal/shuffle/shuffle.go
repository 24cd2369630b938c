// Package shuffle produces the deterministic, password-seeded permutation
// of a block's DCT coefficients used before SVD, and its inverse.
package shuffle

import "math/rand"

// BlockCoeffs is the number of coefficients permuted per block (a 4x4 tile).
const BlockCoeffs = 16

// seedMultiplier mirrors the fixed scheme constant: seed = password*seedMultiplier + blockIndex.
const seedMultiplier = 1_000_003

// Permutation returns the deterministic permutation π_b for the given
// password and block index: π_b[i] is the source index that ends up at
// position i after shuffling. Identical (password, blockIndex) always
// yields an identical permutation.
func Permutation(password uint64, blockIndex int) []int {
	seed := password*seedMultiplier + uint64(blockIndex)
	rng := rand.New(rand.NewSource(int64(seed)))

	perm := make([]int, BlockCoeffs)
	for i := range perm {
		perm[i] = i
	}
	rng.Shuffle(BlockCoeffs, func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})
	return perm
}

// Apply returns a new slice holding src reordered according to perm:
// out[i] = src[perm[i]].
func Apply(src []float64, perm []int) []float64 {
	out := make([]float64, len(src))
	for i, p := range perm {
		out[i] = src[p]
	}
	return out
}

// Unapply inverts Apply: given the shuffled values and the same perm used
// to produce them, reconstructs the original ordering, i.e.
// out[perm[i]] = shuffled[i].
func Unapply(shuffled []float64, perm []int) []float64 {
	out := make([]float64, len(shuffled))
	for i, p := range perm {
		out[p] = shuffled[i]
	}
	return out
}
