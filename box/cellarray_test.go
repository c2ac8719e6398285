package box

import "testing"

func TestGenerateRespectsMinimumCellsPerSide(t *testing.T) {
	b := NewCubic(30.0)
	ca, err := Generate(b, 5.0, 8.0)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	div := ca.Divisions()
	for i, d := range div {
		if d < minCellsPerSide {
			t.Fatalf("divisions[%d] = %d, want >= %d", i, d, minCellsPerSide)
		}
	}
}

func TestCellMembershipPartitionsAtoms(t *testing.T) {
	b := NewCubic(20.0)
	ca, err := Generate(b, 4.0, 6.0)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	positions := [][3]float64{
		{1, 1, 1}, {19, 19, 19}, {10, 10, 10}, {0.5, 15, 3},
	}
	total := 0
	for i, r := range positions {
		c := ca.CellContaining(r)
		ca.AddAtom(c.ID, i)
	}
	for i := 0; i < ca.NCells(); i++ {
		total += len(ca.CellAt(i).Atoms)
	}
	if total != len(positions) {
		t.Fatalf("total atoms across cells = %d, want %d", total, len(positions))
	}
}

func TestNeighbourPairsAreUpperTriangular(t *testing.T) {
	b := NewCubic(20.0)
	ca, err := Generate(b, 4.0, 6.0)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for _, p := range ca.NeighbourPairs() {
		if p.MasterID > p.NeighbourID {
			t.Fatalf("neighbour pair (%d,%d) is not upper-triangular", p.MasterID, p.NeighbourID)
		}
	}
}

func TestEveryCellIsOwnFirstNeighbour(t *testing.T) {
	b := NewCubic(20.0)
	ca, err := Generate(b, 4.0, 6.0)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for i := 0; i < ca.NCells(); i++ {
		nbrs := ca.Neighbours(i)
		if len(nbrs) == 0 || nbrs[0].NeighbourID != i || nbrs[0].RequiresMIM {
			t.Fatalf("cell %d neighbour list does not start with itself (non-MIM)", i)
		}
	}
}

func TestResetCycleClearsLocks(t *testing.T) {
	b := NewCubic(20.0)
	ca, err := Generate(b, 4.0, 6.0)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	ca.SetStatus(0, LockedForEditing, 3)
	ca.ResetCycle()
	status, owner := ca.Status(0)
	if status != Unused || owner != -1 {
		t.Fatalf("ResetCycle() left status=%v owner=%d, want Unused/-1", status, owner)
	}
}
