package change

import (
	"testing"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
)

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	b := box.NewCubic(50.0)
	cfg := config.New(b)
	if err := cfg.GenerateCells(5.0, 5.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	cfg.Types.Add(config.AtomType{Name: "Ar", Z: 18})
	sp := config.NewSpecies("argon")
	sp.Atoms = []config.SpeciesAtom{{Z: 18, TypeName: "Ar"}}
	cfg.AddSpecies(sp)
	for i := 0; i < 3; i++ {
		if _, err := cfg.AddMolecule("argon", [3]float64{float64(i) * 5, 5, 5}); err != nil {
			t.Fatalf("AddMolecule() error: %v", err)
		}
	}
	return cfg
}

func TestRevertAllRestoresOriginalPositions(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, nil)
	s.AddAtom(0)
	s.AddAtom(1)
	original := cfg.Atoms[0].Position

	cfg.SetAtomPosition(0, [3]float64{1, 1, 1})
	cfg.SetAtomPosition(1, [3]float64{2, 2, 2})
	s.UpdateAll()
	s.RevertAll()

	if cfg.Atoms[0].Position != original {
		t.Fatalf("RevertAll() left atom 0 at %v, want %v", cfg.Atoms[0].Position, original)
	}
}

func TestStoreAndResetOnlyKeepsMovedAtoms(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, nil)
	s.AddAtom(0)
	s.AddAtom(1)

	cfg.SetAtomPosition(0, [3]float64{3, 3, 3})
	// atom 1 left untouched
	s.UpdateAll()
	s.StoreAndReset()

	if s.NTargets() != 0 {
		t.Fatalf("StoreAndReset() left %d targets, want 0", s.NTargets())
	}
	if len(s.changes) != 1 {
		t.Fatalf("StoreAndReset() kept %d changes, want 1 (only the moved atom)", len(s.changes))
	}
	if s.changes[0].atomIndex != 0 {
		t.Fatalf("StoreAndReset() recorded atom index %d, want 0", s.changes[0].atomIndex)
	}
}

func TestDistributeAndApplySerialAppliesPendingChanges(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, nil)
	s.AddAtom(2)
	cfg.SetAtomPosition(2, [3]float64{7, 7, 7})
	s.UpdateAll()
	s.StoreAndReset()

	if err := s.DistributeAndApply(); err != nil {
		t.Fatalf("DistributeAndApply() error: %v", err)
	}
	if cfg.Atoms[2].Position != ([3]float64{7, 7, 7}) {
		t.Fatalf("DistributeAndApply() left atom 2 at %v, want {7,7,7}", cfg.Atoms[2].Position)
	}
	if len(s.changes) != 0 {
		t.Fatalf("DistributeAndApply() left %d pending changes, want 0", len(s.changes))
	}
}
