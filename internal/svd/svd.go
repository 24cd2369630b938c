// Package svd wraps gonum's singular value decomposition for the fixed 4x4
// blocks the watermark codec operates on.
package svd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Decomposition holds the factors of a 4x4 SVD: M = U * diag(S) * Vt.
type Decomposition struct {
	U  *mat.Dense
	S  []float64
	Vt *mat.Dense
	n  int
}

// Decompose runs a full SVD on a flat, row-major n*n block (n=4 for the
// watermark codec). Singular values in S are non-increasing, matching
// gonum's convention.
func Decompose(flat []float64, n int) (*Decomposition, error) {
	if len(flat) != n*n {
		return nil, fmt.Errorf("svd: block has %d elements, want %d", len(flat), n*n)
	}
	m := mat.NewDense(n, n, append([]float64(nil), flat...))

	var factorization mat.SVD
	if ok := factorization.Factorize(m, mat.SVDFull); !ok {
		return nil, fmt.Errorf("svd: factorization failed")
	}

	s := factorization.Values(nil)

	var u, v mat.Dense
	factorization.UTo(&u)
	factorization.VTo(&v)

	var vt mat.Dense
	vt.CloneFrom(v.T())

	return &Decomposition{U: &u, S: s, Vt: &vt, n: n}, nil
}

// Reconstruct rebuilds the flat, row-major block U * diag(S) * Vt.
func (d *Decomposition) Reconstruct() []float64 {
	diagS := mat.NewDiagDense(d.n, d.S)

	var us mat.Dense
	us.Mul(d.U, diagS)

	var rec mat.Dense
	rec.Mul(&us, d.Vt)

	flat := make([]float64, d.n*d.n)
	for i := 0; i < d.n; i++ {
		for j := 0; j < d.n; j++ {
			flat[i*d.n+j] = rec.At(i, j)
		}
	}
	return flat
}
