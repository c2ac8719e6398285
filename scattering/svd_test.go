package scattering

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func matMul(a, b [][]float64) [][]float64 {
	m, k, n := len(a), len(b), len(b[0])
	out := make([][]float64, m)
	for i := range out {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			sum := 0.0
			for p := 0; p < k; p++ {
				sum += a[i][p] * b[p][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func approxEqualMat(t *testing.T, got, want [][]float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("row count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		chk.Vector(t, "row", tol, got[i], want[i])
	}
}

func TestPseudoinverseOfSquareInvertibleMatrixRecoversIdentity(t *testing.T) {
	a := [][]float64{
		{4, 0},
		{0, 9},
	}
	inv, ok := pseudoinverse(a)
	if !ok {
		t.Fatal("expected a stable pseudoinverse for a well-conditioned diagonal matrix")
	}
	got := matMul(a, inv)
	want := identity(2)
	approxEqualMat(t, got, want, 1e-8)
}

func TestPseudoinverseOfOverdeterminedSystemIsLeastSquares(t *testing.T) {
	// 3 equations, 2 unknowns; A^T A is well-conditioned so A+ A should be the identity.
	a := [][]float64{
		{1, 0},
		{0, 1},
		{1, 1},
	}
	inv, ok := pseudoinverse(a)
	if !ok {
		t.Fatal("expected a stable pseudoinverse for an overdetermined full-rank system")
	}
	got := matMul(inv, a)
	want := identity(2)
	approxEqualMat(t, got, want, 1e-8)
}

func TestPseudoinverseOfUnderdeterminedSystemTransposesCleanly(t *testing.T) {
	a := [][]float64{
		{1, 0, 1},
		{0, 1, 1},
	}
	inv, ok := pseudoinverse(a)
	if !ok {
		t.Fatal("expected a stable pseudoinverse for an underdetermined full-rank system")
	}
	if len(inv) != 3 || len(inv[0]) != 2 {
		t.Fatalf("pseudoinverse shape = %dx%d, want 3x2", len(inv), len(inv[0]))
	}
	got := matMul(a, inv)
	want := identity(2)
	approxEqualMat(t, got, want, 1e-8)
}
