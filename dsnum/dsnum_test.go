package dsnum

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestTrapzIntegratesAConstantExactly(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{2, 2, 2, 2, 2}
	chk.Scalar(t, "Trapz", 1e-9, Trapz(x, y), 8.0)
}

func TestTrapzIntegratesALinearRampExactly(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 2, 3}
	chk.Scalar(t, "Trapz", 1e-9, Trapz(x, y), 4.5)
}

func TestTrapzWeightIsHalfAtEndpoints(t *testing.T) {
	chk.Scalar(t, "TrapzWeight(0,5)", 1e-15, TrapzWeight(0, 5), 0.5)
	chk.Scalar(t, "TrapzWeight(4,5)", 1e-15, TrapzWeight(4, 5), 0.5)
	chk.Scalar(t, "TrapzWeight(2,5)", 1e-15, TrapzWeight(2, 5), 1.0)
}

func TestDerivCentralRecoversTheDerivativeOfAQuadratic(t *testing.T) {
	f := func(x float64) float64 { return x * x }
	chk.Scalar(t, "DerivCentral", 1e-3, DerivCentral(f, 3.0, 1e-4), 6.0)
}
