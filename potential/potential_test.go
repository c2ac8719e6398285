package potential

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

func TestLennardJonesMinimumAtExpectedRadius(t *testing.T) {
	lj := GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 1.0}, &fun.Prm{N: "sigma", V: 1.0}}).(*LennardJones)
	rMin := math.Pow(2, 1.0/6.0) * lj.Sigma
	e0, _ := lj.EnergyForce(rMin)
	if e0 >= -0.999 {
		t.Fatalf("energy at minimum = %v, want approx -epsilon (-1)", e0)
	}
	eBefore, _ := lj.EnergyForce(rMin - 0.01)
	eAfter, _ := lj.EnergyForce(rMin + 0.01)
	if eBefore < e0 || eAfter < e0 {
		t.Fatalf("rMin=%v is not a local minimum: e(-)=%v e(0)=%v e(+)=%v", rMin, eBefore, e0, eAfter)
	}
}

func TestCoulombEnergySignMatchesChargeProduct(t *testing.T) {
	repulsive := GetForm("coulomb", fun.Prms{&fun.Prm{N: "qiqj", V: 1.0}})
	attractive := GetForm("coulomb", fun.Prms{&fun.Prm{N: "qiqj", V: -1.0}})
	eRep, _ := repulsive.EnergyForce(3.0)
	eAtt, _ := attractive.EnergyForce(3.0)
	if eRep <= 0 {
		t.Fatalf("like-charge Coulomb energy = %v, want positive", eRep)
	}
	if eAtt >= 0 {
		t.Fatalf("opposite-charge Coulomb energy = %v, want negative", eAtt)
	}
}

func TestPotentialMapRequiresBaseForm(t *testing.T) {
	m := NewPotentialMap(10.0)
	if _, _, err := m.EnergyForce(0, 2.0); err == nil {
		t.Fatal("expected SetupError for unregistered pair")
	}
}

func TestPotentialMapCombinesBaseAndAdditional(t *testing.T) {
	m := NewPotentialMap(10.0)
	m.SetBase(0, GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 1.0}, &fun.Prm{N: "sigma", V: 1.0}}))
	eBase, _, err := m.EnergyForce(0, 1.5)
	if err != nil {
		t.Fatalf("EnergyForce() error: %v", err)
	}
	m.ApplyPerturbation(0, 0.5, []float64{0, 1, 2, 3, 4, 5})
	eCombined, _, err := m.EnergyForce(0, 1.5)
	if err != nil {
		t.Fatalf("EnergyForce() error: %v", err)
	}
	if eCombined == eBase {
		t.Fatal("expected additional channel to change the combined energy")
	}
}

func TestPotentialMapOverwriteVsAccumulate(t *testing.T) {
	m := NewPotentialMap(10.0)
	m.SetBase(0, GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 1.0}, &fun.Prm{N: "sigma", V: 1.0}}))
	m.SetOverwriteMode(0, true)
	m.ApplyPerturbation(0, 1.0, []float64{0, 10, 20})
	m.ApplyPerturbation(0, 1.0, []float64{0, 1, 2})
	_, _, err := m.EnergyForce(0, 1.0)
	if err != nil {
		t.Fatalf("EnergyForce() error: %v", err)
	}
	e1, _ := m.entries[0].additional.EnergyForce(1.0)
	chk.Scalar(t, "overwrite-mode additional energy at r=1 (latest table, not accumulated)", 1e-12, e1, 1.0)
}
