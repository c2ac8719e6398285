// Package kernel evaluates energies and forces: pair-potential terms
// via the cell neighbour list (EnergyKernel/ForceKernel) and
// intramolecular geometry terms (GeometryKernel) for whatever bonded
// functional form a species registers. Forms are opaque to the
// kernel, dispatched the same way potential.Form dispatches pair
// potentials — a named factory map initialised from a flat parameter
// list, following msolid's kgcfactory idiom.
package kernel

import (
	"math"

	"github.com/cpmech/gosl/utl"
)

// BondForm evaluates a two-body intramolecular term: energy and
// dU/dr at separation r.
type BondForm interface {
	EnergyForce(r float64, params []float64) (energy, dEdr float64)
}

// AngleForm evaluates a three-body term in terms of the angle theta
// (radians) subtended at the central atom: energy and dU/dtheta.
type AngleForm interface {
	EnergyForce(theta float64, params []float64) (energy, dEdtheta float64)
}

// TorsionForm evaluates a four-body dihedral term in terms of the
// torsion angle phi (radians): energy and dU/dphi. Used for both
// proper torsions and impropers (an improper is simply a torsion form
// evaluated on the improper's defining quartet).
type TorsionForm interface {
	EnergyForce(phi float64, params []float64) (energy, dEdphi float64)
}

var bondForms = map[string]BondForm{
	"harmonic": harmonicBond{},
}

var angleForms = map[string]AngleForm{
	"harmonic": harmonicAngle{},
	"cosine":   cosineAngle{},
}

var torsionForms = map[string]TorsionForm{
	"cosine":             cosineTorsion{},
	"ryckaert-bellemans": ryckaertBellemansTorsion{},
}

func lookupBond(name string) BondForm {
	f, ok := bondForms[name]
	if !ok {
		utl.Panic("cannot find bond form named %s", name)
	}
	return f
}

func lookupAngle(name string) AngleForm {
	f, ok := angleForms[name]
	if !ok {
		utl.Panic("cannot find angle form named %s", name)
	}
	return f
}

func lookupTorsion(name string) TorsionForm {
	f, ok := torsionForms[name]
	if !ok {
		utl.Panic("cannot find torsion form named %s", name)
	}
	return f
}

// harmonicBond: U(r) = 0.5*k*(r-r0)^2. params = {k, r0}.
type harmonicBond struct{}

func (harmonicBond) EnergyForce(r float64, params []float64) (float64, float64) {
	k, r0 := params[0], params[1]
	dr := r - r0
	return 0.5 * k * dr * dr, k * dr
}

// harmonicAngle: U(theta) = 0.5*k*(theta-theta0)^2. params = {k, theta0 (radians)}.
type harmonicAngle struct{}

func (harmonicAngle) EnergyForce(theta float64, params []float64) (float64, float64) {
	k, theta0 := params[0], params[1]
	dtheta := theta - theta0
	return 0.5 * k * dtheta * dtheta, k * dtheta
}

// cosineAngle: U(theta) = k*(1 + cos(n*theta - theta0)). params = {k, n, theta0}.
type cosineAngle struct{}

func (cosineAngle) EnergyForce(theta float64, params []float64) (float64, float64) {
	k, n, theta0 := params[0], params[1], params[2]
	arg := n*theta - theta0
	return k * (1 + math.Cos(arg)), -k * n * math.Sin(arg)
}

// cosineTorsion: U(phi) = k*(1 + cos(n*phi - phi0)). params = {k, n, phi0}.
type cosineTorsion struct{}

func (cosineTorsion) EnergyForce(phi float64, params []float64) (float64, float64) {
	k, n, phi0 := params[0], params[1], params[2]
	arg := n*phi - phi0
	return k * (1 + math.Cos(arg)), -k * n * math.Sin(arg)
}

// ryckaertBellemansTorsion: U(phi) = sum_n C_n * cos(psi)^n, psi = phi - pi.
// params = {C0, C1, ..., C5}.
type ryckaertBellemansTorsion struct{}

func (ryckaertBellemansTorsion) EnergyForce(phi float64, params []float64) (float64, float64) {
	psi := phi - math.Pi
	c := math.Cos(psi)
	s := math.Sin(psi)
	energy := 0.0
	dEdc := 0.0
	power := 1.0
	for n, coeff := range params {
		energy += coeff * power
		if n > 0 {
			dEdc += float64(n) * coeff * powN(c, n-1)
		}
		power *= c
	}
	// dU/dphi = dU/dcos(psi) * dcos(psi)/dpsi * dpsi/dphi = dEdc * (-s) * 1
	return energy, -dEdc * s
}

func powN(x float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}
