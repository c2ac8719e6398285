// Package box implements the periodic simulation cell: lattice
// geometry, fractional/real coordinate mapping, minimum-image
// separation, and the cell-partition/neighbour-list machinery used by
// every energy and distribution routine.
//
// The lattice itself is a small 3x3 linear-algebra problem, so its
// setup-time inverse is computed with github.com/cpmech/gosl/la (the
// same MatAlloc/MatInv idiom gofem's element matrices use); the hot
// per-atom mapping functions operate directly on the cached axes to
// avoid allocating through la on every call.
package box

import (
	"math"

	"github.com/cpmech/gosl/la"

	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// Kind distinguishes the lattice shapes relevant to export formats
// (DL_POLY's imcon flag) and to a couple of geometry fast paths.
type Kind int

const (
	NonPeriodic Kind = iota
	Cubic
	Orthorhombic
	Triclinic
)

// DLPolyImcon returns the DL_POLY CONFIG imcon code for this kind.
func (k Kind) DLPolyImcon() int {
	switch k {
	case Cubic:
		return 1
	case Orthorhombic:
		return 2
	case Triclinic:
		return 3
	default:
		return 0
	}
}

// Box holds the lattice vectors of a (possibly triclinic) periodic
// cell plus their inverse, precomputed once at construction.
type Box struct {
	kind     Kind
	axes     [][]float64 // axes[i] is the i-th real-space lattice vector, row-major
	inverse  [][]float64 // inverse[i] is row i of axes^-1
	lengths  [3]float64
	angles   [3]float64 // alpha, beta, gamma in degrees
	volume   float64
	periodic bool
}

// NewCubic constructs a cubic box of side length a.
func NewCubic(a float64) *Box {
	return NewOrthorhombic(a, a, a)
}

// NewOrthorhombic constructs an axis-aligned box with sides a, b, c.
func NewOrthorhombic(a, b, c float64) *Box {
	axes := la.MatAlloc(3, 3)
	axes[0][0] = a
	axes[1][1] = b
	axes[2][2] = c
	kind := Orthorhombic
	if a == b && b == c {
		kind = Cubic
	}
	bx, err := newFromAxes(axes, kind)
	if err != nil {
		// a,b,c > 0 is the only precondition and is enforced by the
		// caller's input validation; a failure here is a programming error.
		panic(err)
	}
	return bx
}

// NewTriclinic constructs a general box from its three lattice
// vectors a, b, c (each a length-3 slice).
func NewTriclinic(a, b, c []float64) (*Box, error) {
	axes := la.MatAlloc(3, 3)
	copy(axes[0], a)
	copy(axes[1], b)
	copy(axes[2], c)
	return newFromAxes(axes, Triclinic)
}

func newFromAxes(axes [][]float64, kind Kind) (*Box, error) {
	inv := la.MatAlloc(3, 3)
	det, err := la.MatInv(inv, axes, 1e-14)
	if err != nil || math.Abs(det) < 1e-12 {
		return nil, dserr.New(dserr.Setup, "box.NewTriclinic", "lattice vectors are degenerate (det=%g)", det)
	}
	bx := &Box{kind: kind, axes: axes, inverse: inv, volume: math.Abs(det), periodic: true}
	for i := 0; i < 3; i++ {
		bx.lengths[i] = vecLength(axes[i])
	}
	bx.angles[0] = angleBetween(axes[1], axes[2])
	bx.angles[1] = angleBetween(axes[0], axes[2])
	bx.angles[2] = angleBetween(axes[0], axes[1])
	return bx, nil
}

func vecLength(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func angleBetween(u, v []float64) float64 {
	dot := u[0]*v[0] + u[1]*v[1] + u[2]*v[2]
	cosA := dot / (vecLength(u) * vecLength(v))
	if cosA > 1 {
		cosA = 1
	} else if cosA < -1 {
		cosA = -1
	}
	return math.Acos(cosA) * 180.0 / math.Pi
}

// Kind returns the box's lattice shape.
func (b *Box) Kind() Kind { return b.kind }

// Volume returns the real-space cell volume.
func (b *Box) Volume() float64 { return b.volume }

// Lengths returns the three axis lengths (a, b, c).
func (b *Box) Lengths() [3]float64 { return b.lengths }

// Angles returns the three inter-axial angles in degrees (alpha, beta, gamma).
func (b *Box) Angles() [3]float64 { return b.angles }

// AxisVector returns a copy of the i-th real-space lattice vector.
func (b *Box) AxisVector(i int) [3]float64 {
	return [3]float64{b.axes[i][0], b.axes[i][1], b.axes[i][2]}
}

// ToFractional converts a real-space position to fractional coordinates.
func (b *Box) ToFractional(r [3]float64) [3]float64 {
	var f [3]float64
	for i := 0; i < 3; i++ {
		f[i] = b.inverse[i][0]*r[0] + b.inverse[i][1]*r[1] + b.inverse[i][2]*r[2]
	}
	return f
}

// ToReal converts fractional coordinates to a real-space position.
func (b *Box) ToReal(f [3]float64) [3]float64 {
	var r [3]float64
	for i := 0; i < 3; i++ {
		r[i] = b.axes[0][i]*f[0] + b.axes[1][i]*f[1] + b.axes[2][i]*f[2]
	}
	return r
}

// Fold wraps a real-space position back into the primary cell.
func (b *Box) Fold(r [3]float64) [3]float64 {
	f := b.ToFractional(r)
	for i := 0; i < 3; i++ {
		f[i] -= math.Floor(f[i])
	}
	return b.ToReal(f)
}

// MinimumImage returns the minimum-image displacement vector from i to j.
func (b *Box) MinimumImage(i, j [3]float64) [3]float64 {
	d := [3]float64{j[0] - i[0], j[1] - i[1], j[2] - i[2]}
	f := b.ToFractional(d)
	for k := 0; k < 3; k++ {
		f[k] -= math.Round(f[k])
	}
	return b.ToReal(f)
}

// MinimumImageDistance is the scalar minimum-image distance between i and j.
func (b *Box) MinimumImageDistance(i, j [3]float64) float64 {
	d := b.MinimumImage(i, j)
	return vecLength(d[:])
}

// InverseLengthScale returns the fractional-space length of one real
// unit along axis index (used by cell-array generation to convert a
// desired real-space cell side into a fractional cell size).
func (b *Box) InverseLengthScale(axis int) float64 {
	return 1.0 / b.lengths[axis]
}
