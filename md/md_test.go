package md

import (
	"strings"
	"testing"

	"github.com/cpmech/gosl/fun"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
)

func argonGas(t *testing.T, n int) (*config.Configuration, *potential.PotentialMap) {
	t.Helper()
	b := box.NewCubic(40.0)
	cfg := config.New(b)
	if err := cfg.GenerateCells(8.0, 8.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	cfg.Temperature = 300.0
	cfg.Types.Add(config.AtomType{Name: "Ar", Z: 18})
	sp := config.NewSpecies("argon")
	sp.Atoms = []config.SpeciesAtom{{Z: 18, TypeName: "Ar"}}
	cfg.AddSpecies(sp)

	side := 1
	for side*side*side < n {
		side++
	}
	spacing := 3.0
	placed := 0
	for x := 0; x < side && placed < n; x++ {
		for y := 0; y < side && placed < n; y++ {
			for z := 0; z < side && placed < n; z++ {
				pos := [3]float64{5 + float64(x)*spacing, 5 + float64(y)*spacing, 5 + float64(z)*spacing}
				if _, err := cfg.AddMolecule("argon", pos); err != nil {
					t.Fatalf("AddMolecule() error: %v", err)
				}
				placed++
			}
		}
	}

	potMap := potential.NewPotentialMap(8.0)
	lj := potential.GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 0.5}, &fun.Prm{N: "sigma", V: 3.4}})
	potMap.SetBase(cfg.Types.PairIndex(0, 0), lj)
	return cfg, potMap
}

func TestDetermineTimestepFixedAlwaysReturnsFixedDT(t *testing.T) {
	huge := [][3]float64{{1e9, 0, 0}}
	dt, ok := determineTimestep(FixedTimestep, 0.001, huge, huge)
	if !ok || dt != 0.001 {
		t.Fatalf("determineTimestep(Fixed) = (%v, %v), want (0.001, true)", dt, ok)
	}
}

func TestDetermineTimestepVariableShrinksUnderLargeForce(t *testing.T) {
	small := [][3]float64{{1.0, 0, 0}}
	large := [][3]float64{{1e8, 0, 0}}
	zero := [][3]float64{{0, 0, 0}}

	dtSmall, ok := determineTimestep(VariableTimestep, 0, small, zero)
	if !ok {
		t.Fatal("expected a stable timestep for a small force")
	}
	dtLarge, ok := determineTimestep(VariableTimestep, 0, large, zero)
	if !ok {
		t.Fatal("expected a (small) stable timestep even for a large force")
	}
	if dtLarge >= dtSmall {
		t.Fatalf("dtLarge=%v should be smaller than dtSmall=%v as forces increase", dtLarge, dtSmall)
	}
}

func TestCapForceClampsComponentsAndCountsThem(t *testing.T) {
	unbound := [][3]float64{{100, -100, 0}}
	bound := [][3]float64{{0, 0, 5}}
	n := capForce(10.0, unbound, bound)
	if n != 2 {
		t.Fatalf("capForce() capped %d components, want 2", n)
	}
	if unbound[0][0] != 10 || unbound[0][1] != -10 {
		t.Fatalf("capForce() left unbound=%v, want components clamped to +-10", unbound[0])
	}
	if bound[0][2] != 5 {
		t.Fatalf("capForce() should not touch components under the cap, got %v", bound[0][2])
	}
}

func TestMDRunPropagatesAllStepsAndBumpsVersion(t *testing.T) {
	cfg, potMap := argonGas(t, 8)
	integrator := NewMD()
	integrator.NSteps = 5
	integrator.RandomVelocities = true
	integrator.Seed = 7

	before := cfg.ContentsVersion()
	res, err := integrator.Run(cfg, potMap, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.StepsPerformed != 5 {
		t.Fatalf("StepsPerformed = %d, want 5", res.StepsPerformed)
	}
	if cfg.ContentsVersion() == before {
		t.Fatal("expected ContentsVersion to increase after MD propagation")
	}
}

func TestMDRunWritesTrajectoryFrames(t *testing.T) {
	cfg, potMap := argonGas(t, 4)
	integrator := NewMD()
	integrator.NSteps = 4
	integrator.RandomVelocities = true
	integrator.TrajectoryFrequency = 2
	integrator.Seed = 11
	var buf strings.Builder
	integrator.Trajectory = &buf

	if _, err := integrator.Run(cfg, potMap, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "Step ") != 2 {
		t.Fatalf("expected 2 trajectory frames (every 2 of 4 steps), got output:\n%s", out)
	}
}

func TestMDRunZeroesVelocitiesForIntramolecularForcesOnly(t *testing.T) {
	cfg, potMap := argonGas(t, 4)
	integrator := NewMD()
	integrator.NSteps = 0 // no propagation: only the velocity-initialisation path runs
	integrator.IntramolecularForcesOnly = true

	if _, err := integrator.Run(cfg, potMap, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	for i := range cfg.Atoms {
		if cfg.Atoms[i].Velocity != ([3]float64{}) {
			t.Fatalf("atom %d velocity = %v, want zero under IntramolecularForcesOnly", i, cfg.Atoms[i].Velocity)
		}
	}
}
