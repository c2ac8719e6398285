// Package potential maps ordered atom-type pairs onto pair-potential
// evaluators plus a short-range cutoff, following the same
// named-form/factory-map/fun.Prms idiom msolid uses for constitutive
// models: a form registers an allocator under a name, and is
// initialised from a flat parameter list.
package potential

import (
	"math"

	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/utl"
)

// Form evaluates a pair potential's energy and forceOverR, the radial
// force -dU/dr divided by r (positive when the force is repulsive),
// at separation r.
type Form interface {
	Init(prms fun.Prms)
	EnergyForce(r float64) (energy, forceOverR float64)
	Name() string
}

var formFactory = map[string]func() Form{
	"lj":       func() Form { return &LennardJones{} },
	"coulomb":  func() Form { return &Coulomb{} },
	"buckingham": func() Form { return &Buckingham{} },
}

// GetForm allocates and initialises the named pair-potential form.
func GetForm(name string, prms fun.Prms) Form {
	allocator, ok := formFactory[name]
	if !ok {
		utl.Panic("cannot find pair-potential form named %s", name)
	}
	f := allocator()
	f.Init(prms)
	return f
}

// RegisterForm adds (or overrides) a named form allocator; used by the
// refinement loop to wire in the tabulated EPSR perturbation and by
// tests to install fakes.
func RegisterForm(name string, allocator func() Form) {
	formFactory[name] = allocator
}

// LennardJones is the classic 12-6 form, U(r) = 4*epsilon*((sigma/r)^12 - (sigma/r)^6).
type LennardJones struct {
	Epsilon, Sigma float64
}

func (o *LennardJones) Name() string { return "lj" }

func (o *LennardJones) Init(prms fun.Prms) {
	for _, p := range prms {
		switch p.N {
		case "epsilon":
			o.Epsilon = p.V
		case "sigma":
			o.Sigma = p.V
		}
	}
}

func (o *LennardJones) EnergyForce(r float64) (float64, float64) {
	if r <= 0 {
		return math.Inf(1), math.Inf(1)
	}
	sr6 := math.Pow(o.Sigma/r, 6)
	sr12 := sr6 * sr6
	energy := 4.0 * o.Epsilon * (sr12 - sr6)
	forceOverR := 4.0 * o.Epsilon * (12.0*sr12 - 6.0*sr6) / (r * r)
	return energy, forceOverR
}

// coulombConstant is 1/(4*pi*epsilon0) in units of kJ/mol . Angstrom / e^2,
// matching the convention used by the species charge/energy bookkeeping.
const coulombConstant = 1389.35458

// Coulomb is the bare Coulomb form between two point charges,
// U(r) = k * q_i * q_j / r, grounded on the pairwise electrostatic
// term in leelasd-mmdevel's AMBER nonbonded-energy decomposition.
type Coulomb struct {
	QiQj float64
}

func (o *Coulomb) Name() string { return "coulomb" }

func (o *Coulomb) Init(prms fun.Prms) {
	for _, p := range prms {
		if p.N == "qiqj" {
			o.QiQj = p.V
		}
	}
}

func (o *Coulomb) EnergyForce(r float64) (float64, float64) {
	if r <= 0 {
		return math.Inf(1), math.Inf(1)
	}
	energy := coulombConstant * o.QiQj / r
	forceOverR := energy / (r * r)
	return energy, forceOverR
}

// Buckingham is the exp-6 form, U(r) = A*exp(-r/rho) - C/r^6.
type Buckingham struct {
	A, Rho, C float64
}

func (o *Buckingham) Name() string { return "buckingham" }

func (o *Buckingham) Init(prms fun.Prms) {
	for _, p := range prms {
		switch p.N {
		case "A":
			o.A = p.V
		case "rho":
			o.Rho = p.V
		case "C":
			o.C = p.V
		}
	}
}

func (o *Buckingham) EnergyForce(r float64) (float64, float64) {
	if r <= 0 {
		return math.Inf(1), math.Inf(1)
	}
	exp := o.A * math.Exp(-r/o.Rho)
	r6 := math.Pow(r, 6)
	energy := exp - o.C/r6
	forceOverR := (exp/o.Rho/r - 6.0*o.C/(r6*r*r))
	return energy, forceOverR
}
