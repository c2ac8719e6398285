package box

import (
	"math"
	"testing"
)

func TestCubicFoldWrapsIntoPrimaryCell(t *testing.T) {
	b := NewCubic(10.0)
	r := [3]float64{12.5, -3.0, 10.0}
	f := b.Fold(r)
	for i, v := range f {
		if v < -1e-9 || v > 10.0+1e-9 {
			t.Fatalf("Fold()[%d] = %v, want within [0,10)", i, v)
		}
	}
}

func TestMinimumImageIsSymmetric(t *testing.T) {
	b := NewCubic(20.0)
	a := [3]float64{1, 1, 1}
	c := [3]float64{18, 2, 19}
	dAB := b.MinimumImageDistance(a, c)
	dBA := b.MinimumImageDistance(c, a)
	if math.Abs(dAB-dBA) > 1e-9 {
		t.Fatalf("minimum image distance not symmetric: %v vs %v", dAB, dBA)
	}
	if dAB > 10.0 {
		t.Fatalf("minimum image distance %v should be within half the box side for this pair", dAB)
	}
}

func TestOrthorhombicRoundTrip(t *testing.T) {
	b := NewOrthorhombic(10, 20, 30)
	r := [3]float64{3.5, 17.25, 8.0}
	f := b.ToFractional(r)
	back := b.ToReal(f)
	for i := 0; i < 3; i++ {
		if math.Abs(back[i]-r[i]) > 1e-9 {
			t.Fatalf("round trip failed at axis %d: got %v want %v", i, back[i], r[i])
		}
	}
}

func TestVolumeMatchesProductForOrthorhombic(t *testing.T) {
	b := NewOrthorhombic(4, 5, 6)
	if math.Abs(b.Volume()-120.0) > 1e-9 {
		t.Fatalf("Volume() = %v, want 120", b.Volume())
	}
}

func TestDegenerateTriclinicRejected(t *testing.T) {
	_, err := NewTriclinic([]float64{1, 0, 0}, []float64{2, 0, 0}, []float64{0, 0, 1})
	if err == nil {
		t.Fatal("expected error for degenerate lattice vectors")
	}
}
