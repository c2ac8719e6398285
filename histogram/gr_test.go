package histogram

import (
	"testing"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
)

func twoMoleculeDiatomic(t *testing.T) *config.Configuration {
	t.Helper()
	b := box.NewCubic(20.0)
	cfg := config.New(b)
	cfg.Types.Add(config.AtomType{Name: "A", Z: 1})
	sp := config.NewSpecies("diatomic")
	sp.Atoms = []config.SpeciesAtom{
		{Z: 1, TypeName: "A", Reference: [3]float64{0, 0, 0}},
		{Z: 1, TypeName: "A", Reference: [3]float64{1.0, 0, 0}},
	}
	sp.AddBond(config.SpeciesBond{I: 0, J: 1, Form: "harmonic"})
	cfg.AddSpecies(sp)
	if err := cfg.GenerateCells(4.0, 10.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	if _, err := cfg.AddMolecule("diatomic", [3]float64{5, 5, 5}); err != nil {
		t.Fatalf("AddMolecule() error: %v", err)
	}
	if _, err := cfg.AddMolecule("diatomic", [3]float64{10, 5, 5}); err != nil {
		t.Fatalf("AddMolecule() error: %v", err)
	}
	return cfg
}

func TestIsBoundPairDistinguishesIntraFromInterMolecular(t *testing.T) {
	cfg := twoMoleculeDiatomic(t)
	// Atoms 0,1 are the first molecule's directly-bonded pair.
	if !isBoundPair(cfg, 0, 1) {
		t.Fatal("expected the directly-bonded intramolecular pair to be classified bound")
	}
	// Atom 0 (molecule 1) vs atom 2 (molecule 2) is intermolecular.
	if isBoundPair(cfg, 0, 2) {
		t.Fatal("expected an intermolecular pair to be classified unbound")
	}
}

func TestComputeGRSeparatesBoundAndUnboundHistograms(t *testing.T) {
	cfg := twoMoleculeDiatomic(t)
	p, err := ComputeGR(cfg, nil, 10.0, 0.5)
	if err != nil {
		t.Fatalf("ComputeGR() error: %v", err)
	}
	if p.BoundHistogram(0, 0).NBinned() == 0 {
		t.Fatal("expected the bonded 1.0 Angstrom separation to land in the bound histogram")
	}
	if p.UnboundHistogram(0, 0).NBinned() == 0 {
		t.Fatal("expected intermolecular separations to land in the unbound histogram")
	}
	if p.IsBoundPartialEmpty(0, 0) {
		t.Fatal("bound partial should not be flagged empty: the species has a direct bond")
	}
}

func TestComputeGRFingerprintChangesWithContentsVersion(t *testing.T) {
	cfg := twoMoleculeDiatomic(t)
	first, err := ComputeGR(cfg, nil, 10.0, 0.5)
	if err != nil {
		t.Fatalf("ComputeGR() error: %v", err)
	}
	cfg.SetAtomPosition(0, [3]float64{2, 2, 2})
	cfg.BumpVersion()
	second, err := ComputeGR(cfg, nil, 10.0, 0.5)
	if err != nil {
		t.Fatalf("ComputeGR() error: %v", err)
	}
	if first.Fingerprint() == second.Fingerprint() {
		t.Fatal("expected the fingerprint to change once the configuration's contents version bumped")
	}
}
