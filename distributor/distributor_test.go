package distributor

import (
	"testing"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

func buildConfig(t *testing.T, n int) *config.Configuration {
	t.Helper()
	b := box.NewCubic(30.0)
	cfg := config.New(b)
	if err := cfg.GenerateCells(3.0, 3.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	cfg.Types.Add(config.AtomType{Name: "Ar", Z: 18})
	sp := config.NewSpecies("argon")
	sp.Atoms = []config.SpeciesAtom{{Z: 18, TypeName: "Ar"}}
	cfg.AddSpecies(sp)
	for i := 0; i < n; i++ {
		x := float64(i%5) * 5
		y := float64((i/5)%5) * 5
		z := float64(i/25) * 5
		if _, err := cfg.AddMolecule("argon", [3]float64{x + 1, y + 1, z + 1}); err != nil {
			t.Fatalf("AddMolecule() error: %v", err)
		}
	}
	return cfg
}

func TestSerialDistributorAssignsEveryMoleculeInOneCycle(t *testing.T) {
	cfg := buildConfig(t, 12)
	d := New(cfg, nil, pool.PoolStrategy)

	if !d.Cycle() {
		t.Fatal("Cycle() returned false on first call, want true")
	}
	if len(d.AssignedMolecules()) != 12 {
		t.Fatalf("AssignedMolecules() = %d entries, want 12", len(d.AssignedMolecules()))
	}
	if d.Cycle() {
		t.Fatal("Cycle() returned true after every molecule was distributed, want false")
	}
}

func TestSetTargetMoleculesRestrictsDistribution(t *testing.T) {
	cfg := buildConfig(t, 12)
	d := New(cfg, nil, pool.PoolStrategy)
	d.SetTargetMolecules([]int{2, 5, 7})

	if !d.Cycle() {
		t.Fatal("Cycle() returned false, want true")
	}
	assigned := d.AssignedMolecules()
	if len(assigned) != 3 {
		t.Fatalf("AssignedMolecules() = %d entries, want 3", len(assigned))
	}
	want := map[int]bool{2: true, 5: true, 7: true}
	for _, m := range assigned {
		if !want[m] {
			t.Fatalf("AssignedMolecules() included unexpected molecule %d", m)
		}
	}
}

func TestCollectStatisticsTrueUnderPoolStrategy(t *testing.T) {
	cfg := buildConfig(t, 4)
	d := New(cfg, nil, pool.PoolStrategy)
	d.Cycle()
	if !d.CollectStatistics() {
		t.Fatal("CollectStatistics() = false under PoolStrategy with nil pool, want true")
	}
}

func TestIncrementOnlyFiresWhenCollectingStatistics(t *testing.T) {
	cfg := buildConfig(t, 4)
	d := New(cfg, nil, pool.PoolStrategy)
	d.Cycle()
	counter := 0
	d.Increment(&counter)
	if counter != 1 {
		t.Fatalf("Increment() left counter at %d, want 1 (serial run always collects statistics)", counter)
	}
}
