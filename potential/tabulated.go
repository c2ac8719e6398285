package potential

import (
	"math"

	"github.com/cpmech/gosl/fun"
)

// Tabulated is a pair potential defined by linearly-interpolated
// (r, energy) samples on a regular grid, used for the EPSR-generated
// perturbation channel produced by the refinement loop (an analytic
// form table has no entry for "whatever shape the data inversion
// produced").
type Tabulated struct {
	Delta  float64
	Values []float64 // energy at r = i*Delta, i = 0..len-1
}

func (o *Tabulated) Name() string { return "tabulated" }

// Init is a no-op for Tabulated; use SetData to load its table.
func (o *Tabulated) Init(prms fun.Prms) {}

// SetData installs the sampled potential, replacing any previous table.
func (o *Tabulated) SetData(delta float64, values []float64) {
	o.Delta = delta
	o.Values = values
}

// Accumulate adds delta onto an existing table (growing it if delta is
// longer), implementing the refinement loop's "accumulating" channel
// mode rather than overwriting.
func (o *Tabulated) Accumulate(delta float64, values []float64) {
	if o.Values == nil {
		o.SetData(delta, append([]float64(nil), values...))
		return
	}
	if len(values) > len(o.Values) {
		grown := make([]float64, len(values))
		copy(grown, o.Values)
		o.Values = grown
	}
	for i, v := range values {
		o.Values[i] += v
	}
}

func (o *Tabulated) EnergyForce(r float64) (float64, float64) {
	if len(o.Values) == 0 || o.Delta <= 0 {
		return 0, 0
	}
	x := r / o.Delta
	i := int(math.Floor(x))
	if i < 0 {
		i = 0
	}
	if i >= len(o.Values)-1 {
		return o.Values[len(o.Values)-1], 0
	}
	frac := x - float64(i)
	u0, u1 := o.Values[i], o.Values[i+1]
	energy := u0 + frac*(u1-u0)
	// central-difference slope of the interpolated segment, converted
	// to force/r the same way the analytic forms report it.
	dudr := (u1 - u0) / o.Delta
	if r <= 0 {
		return energy, 0
	}
	return energy, -dudr / r
}
