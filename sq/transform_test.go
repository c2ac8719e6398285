package sq

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/histogram"
)

func TestSineFTIsUnityAtZeroDensity(t *testing.T) {
	gr := dsio.New("g(r)")
	gr.Initialise(5, false)
	for i := range gr.X {
		gr.X[i] = float64(i) * 0.5
		gr.Values[i] = 1.5 // any nontrivial g(r)
	}
	sq := SineFT(gr, 0.0, 0.0, 0.5, 2.0, WindowFunction{}, BroadeningFunction{})
	want := make([]float64, len(sq.Values))
	for i := range want {
		want[i] = 1.0
	}
	chk.Vector(t, "S(Q) at zero density", 1e-12, sq.Values, want)
}

func TestSineFTQZeroIsUnity(t *testing.T) {
	gr := dsio.New("g(r)")
	gr.Initialise(5, false)
	for i := range gr.X {
		gr.X[i] = float64(i) * 0.5
		gr.Values[i] = 2.0
	}
	sq := SineFT(gr, 0.05, 0.0, 0.5, 2.0, WindowFunction{}, BroadeningFunction{})
	chk.Scalar(t, "S(0)", 1e-12, sq.Values[0], 1.0)
}

func TestLorch0WindowVanishesAtRMax(t *testing.T) {
	w := WindowFunction{Form: Lorch0}
	chk.Scalar(t, "Lorch0 window at r=rMax", 1e-9, w.Factor(10.0, 10.0), 0.0)
	chk.Scalar(t, "Lorch0 window at r=0", 1e-9, w.Factor(0.0, 10.0), 1.0)
}

func TestBroadeningFactorIsOneAtZeroSeparation(t *testing.T) {
	b := BroadeningFunction{SigmaQ: 0.1}
	chk.Scalar(t, "Factor(0)", 1e-12, b.Factor(0.0), 1.0)
	if f := b.Factor(5.0); f >= 1.0 {
		t.Fatalf("Factor(5) = %v, want damped below 1", f)
	}
}

func argonSQSet(t *testing.T) (*histogram.PartialSet, *config.Configuration) {
	t.Helper()
	b := box.NewCubic(20.0)
	cfg := config.New(b)
	cfg.Types.Add(config.AtomType{Name: "Ar", Z: 18})
	sp := config.NewSpecies("argon")
	sp.Atoms = []config.SpeciesAtom{{Z: 18, TypeName: "Ar"}}
	cfg.AddSpecies(sp)
	if err := cfg.GenerateCells(4.0, 10.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := cfg.AddMolecule("argon", [3]float64{float64(i)*3 + 1, 1, 1}); err != nil {
			t.Fatalf("AddMolecule() error: %v", err)
		}
	}
	p, err := histogram.ComputeGR(cfg, nil, 10.0, 0.5)
	if err != nil {
		t.Fatalf("ComputeGR() error: %v", err)
	}
	return p, cfg
}

func TestComputeSQSetProducesTotalAndPerPairResults(t *testing.T) {
	ps, _ := argonSQSet(t)
	set := ComputeSQSet(ps, 0.0025, 0.0, 0.1, 5.0, WindowFunction{Form: Lorch0}, BroadeningFunction{})
	pair, ok := set.Pairs[[2]int{0, 0}]
	if !ok {
		t.Fatal("expected an Ar-Ar pair entry")
	}
	if pair.Full == nil || set.Total == nil {
		t.Fatal("expected both a per-pair Full result and an overall Total")
	}
	if len(set.Total.Values) != len(pair.Full.Values) {
		t.Fatal("expected Total and per-pair results to share the same Q-grid")
	}
}

func TestNeutronWeightedSQUnknownElementIsZero(t *testing.T) {
	ps, cfg := argonSQSet(t)
	set := ComputeSQSet(ps, 0.0025, 0.0, 0.1, 5.0, WindowFunction{}, BroadeningFunction{})
	// Argon has no scattering length in the table, so the neutron
	// weighted total should come out identically zero.
	fq := NeutronWeightedSQ(set, cfg, cfg.Types)
	for i, v := range fq.Values {
		if v != 0 {
			t.Fatalf("F(Q)[%d] = %v, want 0 for an element missing from the scattering-length table", i, v)
		}
	}
}

func TestXRayWeightedSQUsesFormFactorTable(t *testing.T) {
	b := box.NewCubic(20.0)
	cfg := config.New(b)
	cfg.Types.Add(config.AtomType{Name: "O", Z: 8})
	sp := config.NewSpecies("o")
	sp.Atoms = []config.SpeciesAtom{{Z: 8, TypeName: "O"}}
	cfg.AddSpecies(sp)
	if err := cfg.GenerateCells(4.0, 10.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := cfg.AddMolecule("o", [3]float64{float64(i)*3 + 1, 1, 1}); err != nil {
			t.Fatalf("AddMolecule() error: %v", err)
		}
	}
	ps, err := histogram.ComputeGR(cfg, nil, 10.0, 0.5)
	if err != nil {
		t.Fatalf("ComputeGR() error: %v", err)
	}
	set := ComputeSQSet(ps, 0.0025, 0.0, 0.1, 5.0, WindowFunction{}, BroadeningFunction{})
	fq, err := XRayWeightedSQ(set, cfg, cfg.Types, XRayNoNormalisation)
	if err != nil {
		t.Fatalf("XRayWeightedSQ() error: %v", err)
	}
	if fq.Values[0] == 0 {
		t.Fatal("expected a nonzero X-ray weighted total for oxygen, which has a form-factor table entry")
	}
}

func TestXRayWeightedSQErrorsOnMissingFormFactor(t *testing.T) {
	b := box.NewCubic(20.0)
	cfg := config.New(b)
	cfg.Types.Add(config.AtomType{Name: "XX", Z: 0})
	sp := config.NewSpecies("xx")
	sp.Atoms = []config.SpeciesAtom{{Z: 0, TypeName: "XX"}}
	cfg.AddSpecies(sp)
	if err := cfg.GenerateCells(4.0, 10.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := cfg.AddMolecule("xx", [3]float64{float64(i)*3 + 1, 1, 1}); err != nil {
			t.Fatalf("AddMolecule() error: %v", err)
		}
	}
	ps, err := histogram.ComputeGR(cfg, nil, 10.0, 0.5)
	if err != nil {
		t.Fatalf("ComputeGR() error: %v", err)
	}
	set := ComputeSQSet(ps, 0.0025, 0.0, 0.1, 5.0, WindowFunction{}, BroadeningFunction{})
	if _, err := XRayWeightedSQ(set, cfg, cfg.Types, XRayNoNormalisation); err == nil {
		t.Fatal("expected a dserr.Setup error for an atom type with no WK1995 form factor")
	}
}

func TestFormFactorMagnitudeDecreasesWithQ(t *testing.T) {
	f, ok := LookupFormFactor("O")
	if !ok {
		t.Fatal("expected oxygen to be present in the WK1995 table")
	}
	low := f.Magnitude(0.5)
	high := f.Magnitude(5.0)
	if high >= low {
		t.Fatalf("expected form factor to fall off with Q: f(0.5)=%v f(5.0)=%v", low, high)
	}
}
