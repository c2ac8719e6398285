package refine

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/fun"
	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
	"github.com/disorderedmaterials/dissolve-sub013/sq"
)

func argonLikeConfig(t *testing.T) *config.Configuration {
	t.Helper()
	b := box.NewCubic(30.0)
	cfg := config.New(b)
	cfg.Types.Add(config.AtomType{Name: "AR", Z: 18})
	sp := config.NewSpecies("ar")
	sp.Atoms = []config.SpeciesAtom{{Z: 18, TypeName: "AR"}}
	cfg.AddSpecies(sp)
	if err := cfg.GenerateCells(4.0, 8.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := cfg.AddMolecule("ar", [3]float64{float64(i)*2 + 1, 1, 1}); err != nil {
			t.Fatalf("AddMolecule() error: %v", err)
		}
	}
	return cfg
}

func flatData(tag string, qMin, qMax, step, value float64) *dsio.Data1D {
	n := int((qMax-qMin)/step) + 1
	d := dsio.New(tag)
	d.Initialise(n, false)
	for i := range d.X {
		d.X[i] = qMin + float64(i)*step
		d.Values[i] = value
	}
	return d
}

func TestRFactorIsZeroForIdenticalCurves(t *testing.T) {
	a := flatData("a", 0.5, 10, 0.1, 1.2)
	b := flatData("b", 0.5, 10, 0.1, 1.2)
	if r := rFactor(a, b, 0.5, 10); r != 0 {
		t.Fatalf("rFactor() = %v, want 0 for identical curves", r)
	}
}

func TestRFactorIsPositiveForDifferingCurves(t *testing.T) {
	ref := flatData("ref", 0.5, 10, 0.1, 1.0)
	calc := flatData("calc", 0.5, 10, 0.1, 1.1)
	r := rFactor(ref, calc, 0.5, 10)
	if r <= 0 {
		t.Fatalf("rFactor() = %v, want > 0 for a systematic offset", r)
	}
}

func TestTruncateAndTaperZeroesBelowMinimumRadius(t *testing.T) {
	d := flatData("d", 0, 10, 0.5, 2.0)
	out := truncateAndTaper(d, 5.0, 9.0)
	if out.Values[0] != 0 {
		t.Fatalf("value at r=0 = %v, want 0 (below truncation window)", out.Values[0])
	}
	if out.Values[len(out.Values)-1] != 0 {
		t.Fatalf("value at the final point = %v, want 0 (linear taper reaches zero)", out.Values[len(out.Values)-1])
	}
}

func TestTruncateAndTaperIsContinuousThroughRampRegion(t *testing.T) {
	d := flatData("d", 0, 10, 0.1, 1.0)
	out := truncateAndTaper(d, 5.0, 9.0)
	for i := 1; i < len(out.X); i++ {
		if out.X[i] < 3.0 || out.X[i] > 5.0 {
			continue
		}
		jump := math.Abs(out.Values[i] - out.Values[i-1])
		if jump > 0.2 {
			t.Fatalf("discontinuous jump of %v between r=%v and r=%v", jump, out.X[i-1], out.X[i])
		}
	}
}

func TestFitExpansionRecoversConstantOffset(t *testing.T) {
	d := flatData("d", 0.5, 10, 0.1, 0.7)
	coeffs := fitExpansion(d, GaussianExpansion, 12, 1.5)
	fit := evaluateExpansion(d.X, coeffs, GaussianExpansion, 1.5)
	for i, want := range d.Values {
		if math.Abs(fit.Values[i]-want) > 0.1 {
			t.Fatalf("fit[%d] = %v, want approx %v", i, fit.Values[i], want)
		}
	}
}

func TestIterateRejectsNoTargets(t *testing.T) {
	cfg := argonLikeConfig(t)
	l := NewLoop(Config{Feedback: 0.9, QMin: 0.5, QMax: 10, Weighting: 1.0, ERequired: 3.0}, cfg.Types)
	pot := potential.NewPotentialMap(15.0)
	if _, _, err := l.Iterate(cfg, nil, &sq.SQSet{Pairs: map[[2]int]sq.PairSQ{}}, 0.03, pot, true); err == nil {
		t.Fatal("expected an error when no targets are supplied")
	}
}

func TestIterateSkipsWhenEnergyNotStable(t *testing.T) {
	cfg := argonLikeConfig(t)
	l := NewLoop(Config{Feedback: 0.9, QMin: 0.5, QMax: 10, Weighting: 1.0, ERequired: 3.0}, cfg.Types)
	pot := potential.NewPotentialMap(15.0)

	target := Target{
		Name:        "ar-neutron",
		ReferenceFQ: flatData("ref", 0.5, 10, 0.1, 1.05),
		SimulatedFQ: flatData("sim", 0.5, 10, 0.1, 1.0),
		UsedTypes:   []int{0},
	}
	simSet := &sq.SQSet{Pairs: map[[2]int]sq.PairSQ{}}

	result, outcome, err := l.Iterate(cfg, []Target{target}, simSet, 0.021, pot, false)
	if err != nil {
		t.Fatalf("Iterate() error: %v", err)
	}
	if outcome != dserr.NotExecuted {
		t.Fatalf("outcome = %v, want dserr.NotExecuted", outcome)
	}
	if result != nil {
		t.Fatalf("result = %v, want nil when the stability guard skips the step", result)
	}
}

func TestIterateAppliesAPerturbationForASingleTypeSystem(t *testing.T) {
	cfg := argonLikeConfig(t)
	pot := potential.NewPotentialMap(15.0)
	pairIdx := cfg.Types.PairIndex(0, 0)
	pot.SetBase(pairIdx, potential.GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 1.0}, &fun.Prm{N: "sigma", V: 3.4}}))

	qGrid := flatData("grid", 0.5, 10, 0.1, 0)
	ref := flatData("ref", 0.5, 10, 0.1, 1.05)
	sim := flatData("sim", 0.5, 10, 0.1, 1.0)

	simulatedPartial := dsio.New("AR-AR//SQ")
	simulatedPartial.InitialiseLike(qGrid)
	for i := range simulatedPartial.Values {
		simulatedPartial.Values[i] = 1.0
	}
	simSet := &sq.SQSet{Pairs: map[[2]int]sq.PairSQ{
		{0, 0}: {Full: simulatedPartial, Bound: simulatedPartial, Unbound: simulatedPartial},
	}}

	target := Target{
		Name:        "ar-neutron",
		ReferenceFQ: ref,
		SimulatedFQ: sim,
		UsedTypes:   []int{0},
	}

	l := NewLoop(Config{
		Feedback:  0.9,
		QMin:      0.5,
		QMax:      10,
		Weighting: 0.1,
		ERequired: 3.0,
		NCoeffP:   10,
		GSigma1:   1.0,
		RMaxPT:    15.0,
		RMinPT:    2.0,
	}, cfg.Types)

	eBefore, _, err := pot.EnergyForce(pairIdx, 3.4)
	if err != nil {
		t.Fatalf("EnergyForce() error: %v", err)
	}

	result, outcome, err := l.Iterate(cfg, []Target{target}, simSet, 0.021, pot, true)
	if err != nil {
		t.Fatalf("Iterate() error: %v", err)
	}
	if outcome != dserr.Success {
		t.Fatalf("outcome = %v, want dserr.Success", outcome)
	}
	if result.TotalRFactor <= 0 {
		t.Fatalf("TotalRFactor = %v, want > 0 for a mismatched reference/simulated pair", result.TotalRFactor)
	}

	eAfter, _, err := pot.EnergyForce(pairIdx, 3.4)
	if err != nil {
		t.Fatalf("EnergyForce() error after Iterate: %v", err)
	}
	if eAfter == eBefore {
		t.Fatal("expected Iterate to install a nonzero additional-potential perturbation")
	}
}
