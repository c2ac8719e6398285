package scattering

import (
	"math"
	"testing"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
)

func twoTypeConfig(t *testing.T) *config.Configuration {
	t.Helper()
	b := box.NewCubic(20.0)
	cfg := config.New(b)
	cfg.Types.Add(config.AtomType{Name: "H", Z: 1})
	cfg.Types.Add(config.AtomType{Name: "O", Z: 8})
	spH := config.NewSpecies("h")
	spH.Atoms = []config.SpeciesAtom{{Z: 1, TypeName: "H"}}
	spO := config.NewSpecies("o")
	spO.Atoms = []config.SpeciesAtom{{Z: 8, TypeName: "O"}}
	cfg.AddSpecies(spH)
	cfg.AddSpecies(spO)
	if err := cfg.GenerateCells(4.0, 6.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := cfg.AddMolecule("h", [3]float64{float64(i) + 1, 1, 1}); err != nil {
			t.Fatalf("AddMolecule(h) error: %v", err)
		}
	}
	if _, err := cfg.AddMolecule("o", [3]float64{5, 1, 1}); err != nil {
		t.Fatalf("AddMolecule(o) error: %v", err)
	}
	return cfg
}

func constantData(tag string, n int, value float64) *dsio.Data1D {
	d := dsio.New(tag)
	d.Initialise(n, false)
	for i := range d.X {
		d.X[i] = float64(i) * 0.1
		d.Values[i] = value
	}
	return d
}

func TestMatrixRejectsGeneratePartialsWhenUnderdetermined(t *testing.T) {
	cfg := twoTypeConfig(t)
	m := New(cfg.Types)
	// 2 types -> 3 pair columns (H-H, H-O, O-O); only add one row.
	if err := m.AddNeutronReferenceData(constantData("d1", 5, 1.0), cfg, []int{0, 1}, 1.0); err != nil {
		t.Fatalf("AddNeutronReferenceData() error: %v", err)
	}
	if !m.UnderDetermined() {
		t.Fatal("expected the matrix to be underdetermined with 1 row and 3 columns")
	}
	if _, err := m.GeneratePartials(cfg, []float64{0, 0.1, 0.2, 0.3, 0.4}); err == nil {
		t.Fatal("expected GeneratePartials to fail when underdetermined")
	}
}

func TestMatrixGeneratePartialsRecoversKnownPartial(t *testing.T) {
	cfg := twoTypeConfig(t)
	m := New(cfg.Types)

	// Directly specify each pair's "measured" partial with unit weight,
	// so the system is exactly square and diagonal: the recovered
	// partials should equal the input data exactly.
	hh := constantData("HH", 5, 2.0)
	ho := constantData("HO", 5, 3.0)
	oo := constantData("OO", 5, 4.0)
	if err := m.AddPartialReferenceData(hh, 0, 0, 1.0, 1.0); err != nil {
		t.Fatalf("AddPartialReferenceData(HH) error: %v", err)
	}
	if err := m.AddPartialReferenceData(ho, 0, 1, 1.0, 1.0); err != nil {
		t.Fatalf("AddPartialReferenceData(HO) error: %v", err)
	}
	if err := m.AddPartialReferenceData(oo, 1, 1, 1.0, 1.0); err != nil {
		t.Fatalf("AddPartialReferenceData(OO) error: %v", err)
	}

	qGrid := []float64{0, 0.1, 0.2, 0.3, 0.4}
	estimated, err := m.GeneratePartials(cfg, qGrid)
	if err != nil {
		t.Fatalf("GeneratePartials() error: %v", err)
	}

	checks := []struct {
		pair [2]int
		want float64
	}{
		{[2]int{0, 0}, 2.0},
		{[2]int{0, 1}, 3.0},
		{[2]int{1, 1}, 4.0},
	}
	for _, c := range checks {
		d, ok := estimated[c.pair]
		if !ok {
			t.Fatalf("missing estimated partial for pair %v", c.pair)
		}
		for i, v := range d.Values {
			if math.Abs(v-c.want) > 1e-6 {
				t.Fatalf("pair %v value[%d] = %v, want %v", c.pair, i, v, c.want)
			}
		}
	}
}

func TestAddNeutronReferenceDataRejectsEmptyTypeList(t *testing.T) {
	cfg := twoTypeConfig(t)
	m := New(cfg.Types)
	if err := m.AddNeutronReferenceData(constantData("d", 3, 1.0), cfg, nil, 1.0); err == nil {
		t.Fatal("expected an error when no atom types are associated with the reference data")
	}
}
