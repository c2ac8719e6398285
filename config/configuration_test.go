package config

import (
	"testing"

	"github.com/disorderedmaterials/dissolve-sub013/box"
)

func newTestConfiguration(t *testing.T) *Configuration {
	t.Helper()
	b := box.NewCubic(20.0)
	c := New(b)
	c.Types.Add(AtomType{Name: "OW", Z: 8})
	c.Types.Add(AtomType{Name: "HW", Z: 1})
	sp := NewSpecies("water")
	sp.Atoms = []SpeciesAtom{
		{Z: 8, TypeName: "OW", Reference: [3]float64{0, 0, 0}},
		{Z: 1, TypeName: "HW", Reference: [3]float64{0.96, 0, 0}},
		{Z: 1, TypeName: "HW", Reference: [3]float64{-0.24, 0.93, 0}},
	}
	sp.AddBond(SpeciesBond{I: 0, J: 1, Form: "harmonic"})
	sp.AddBond(SpeciesBond{I: 0, J: 2, Form: "harmonic"})
	c.AddSpecies(sp)
	if err := c.GenerateCells(4.0, 6.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	return c
}

func TestAddMoleculePopulatesAtomsAndCells(t *testing.T) {
	c := newTestConfiguration(t)
	if _, err := c.AddMolecule("water", [3]float64{5, 5, 5}); err != nil {
		t.Fatalf("AddMolecule() error: %v", err)
	}
	if c.NAtoms() != 3 {
		t.Fatalf("NAtoms() = %d, want 3", c.NAtoms())
	}
	total := 0
	for i := 0; i < c.Cells.NCells(); i++ {
		total += len(c.Cells.CellAt(i).Atoms)
	}
	if total != 3 {
		t.Fatalf("atoms distributed across cells = %d, want 3", total)
	}
}

func TestUnknownSpeciesFails(t *testing.T) {
	c := newTestConfiguration(t)
	if _, err := c.AddMolecule("nonexistent", [3]float64{}); err == nil {
		t.Fatal("expected error for unknown species")
	}
}

func TestSetAtomPositionUpdatesCellMembership(t *testing.T) {
	c := newTestConfiguration(t)
	if _, err := c.AddMolecule("water", [3]float64{1, 1, 1}); err != nil {
		t.Fatalf("AddMolecule() error: %v", err)
	}
	oldCell := c.Atoms[0].CellID
	c.SetAtomPosition(0, [3]float64{18, 18, 18})
	newCell := c.Atoms[0].CellID
	if newCell == oldCell {
		t.Fatal("expected atom to move to a different cell")
	}
	found := false
	for _, a := range c.Cells.CellAt(newCell).Atoms {
		if a == 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("moved atom not registered in its new cell's occupant list")
	}
	for _, a := range c.Cells.CellAt(oldCell).Atoms {
		if a == 0 {
			t.Fatal("moved atom still registered in its old cell's occupant list")
		}
	}
}

func TestSpeciesScalingDefaultsToFullStrength(t *testing.T) {
	sp := NewSpecies("x")
	sc := sp.Scaling(0, 5)
	if sc.Electrostatic != 1 || sc.VanDerWaals != 1 {
		t.Fatalf("default scaling = %+v, want {1,1}", sc)
	}
	sp.SetScaling(0, 5, PairScaling{Electrostatic: 0.5, VanDerWaals: 0.5})
	sc = sp.Scaling(5, 0)
	if sc.Electrostatic != 0.5 {
		t.Fatalf("Scaling(5,0) = %+v, want symmetric lookup to find {0.5,0.5}", sc)
	}
}

func TestBondedPairsAreExcludedFromNonBonded(t *testing.T) {
	c := newTestConfiguration(t)
	sp := c.Species["water"]
	if !sp.Bonded(0, 1) || !sp.Bonded(1, 0) {
		t.Fatal("expected bond (0,1) to be symmetric")
	}
	if sp.Bonded(1, 2) {
		t.Fatal("atoms 1 and 2 are not directly bonded in this topology")
	}
}

func TestAtomTypeMixPairIndexIsSymmetric(t *testing.T) {
	m := NewAtomTypeMix()
	m.Add(AtomType{Name: "A"})
	m.Add(AtomType{Name: "B"})
	m.Add(AtomType{Name: "C"})
	if m.PairIndex(0, 1) != m.PairIndex(1, 0) {
		t.Fatal("PairIndex should be symmetric in its arguments")
	}
	seen := make(map[int]bool)
	for i := 0; i < m.N(); i++ {
		for j := i; j < m.N(); j++ {
			idx := m.PairIndex(i, j)
			if seen[idx] {
				t.Fatalf("pair index %d reused for (%d,%d)", idx, i, j)
			}
			seen[idx] = true
		}
	}
	if len(seen) != m.NPairs() {
		t.Fatalf("distinct pair indices = %d, want %d", len(seen), m.NPairs())
	}
}
