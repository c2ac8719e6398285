package kernel

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/fun"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
)

// threeAtomChain builds a configuration holding a single species with
// three atoms (0-1-2), a harmonic bond on each link, and a harmonic
// angle at atom 1, placed in a large non-interacting box.
func threeAtomChain(t *testing.T) (*config.Configuration, int) {
	t.Helper()
	b := box.NewCubic(100.0)
	cfg := config.New(b)
	if err := cfg.GenerateCells(5.0, 5.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	cfg.Types.Add(config.AtomType{Name: "C", Z: 6})

	sp := config.NewSpecies("chain")
	sp.Atoms = []config.SpeciesAtom{
		{Z: 6, TypeName: "C", Reference: [3]float64{0, 0, 0}},
		{Z: 6, TypeName: "C", Reference: [3]float64{1.5, 0, 0}},
		{Z: 6, TypeName: "C", Reference: [3]float64{1.5, 1.4, 0.3}},
	}
	sp.AddBond(config.SpeciesBond{I: 0, J: 1, Form: "harmonic", Parameters: []float64{400.0, 1.5}})
	sp.AddBond(config.SpeciesBond{I: 1, J: 2, Form: "harmonic", Parameters: []float64{400.0, 1.5}})
	sp.Angles = []config.SpeciesAngle{
		{I: 0, J: 1, K: 2, Form: "harmonic", Parameters: []float64{60.0, 1.9106}},
	}
	cfg.AddSpecies(sp)

	molIndex, err := cfg.AddMolecule("chain", [3]float64{10, 10, 10})
	if err != nil {
		t.Fatalf("AddMolecule() error: %v", err)
	}
	return cfg, molIndex
}

func TestGeometryForcesMatchFiniteDifferenceEnergyGradient(t *testing.T) {
	cfg, molIndex := threeAtomChain(t)
	gk := NewGeometryKernel(cfg)

	mol := cfg.Molecules[molIndex]
	n := len(mol.AtomIndices)
	analytic := make([][3]float64, n)
	gk.TotalGeometryForces(molIndex, analytic)

	const h = 1e-6
	for local := 0; local < n; local++ {
		atomIdx := mol.AtomIndices[local]
		for axis := 0; axis < 3; axis++ {
			orig := cfg.Atoms[atomIdx].Position
			plus := orig
			plus[axis] += h
			cfg.Atoms[atomIdx].Position = plus
			ePlus := gk.TotalGeometryEnergy(molIndex)

			minus := orig
			minus[axis] -= h
			cfg.Atoms[atomIdx].Position = minus
			eMinus := gk.TotalGeometryEnergy(molIndex)

			cfg.Atoms[atomIdx].Position = orig

			// force = -dE/dx
			numericForce := -(ePlus - eMinus) / (2 * h)
			if math.Abs(numericForce-analytic[local][axis]) > 1e-3*math.Max(1, math.Abs(numericForce)) {
				t.Fatalf("atom %d axis %d: analytic force %v, finite-difference %v", local, axis, analytic[local][axis], numericForce)
			}
		}
	}
}

func TestBondExcludedFromPairPotential(t *testing.T) {
	cfg, molIndex := threeAtomChain(t)
	potMap := potential.NewPotentialMap(10.0)
	lj := potential.GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 1.0}, &fun.Prm{N: "sigma", V: 1.0}})
	potMap.SetBase(cfg.Types.PairIndex(0, 0), lj)

	ek := NewEnergyKernel(cfg, potMap, nil)
	mol := cfg.Molecules[molIndex]
	scale, excluded := ek.pairScale(mol.AtomIndices[0], mol.AtomIndices[1])
	if !excluded {
		t.Fatalf("directly bonded atoms should be excluded from pair potential, got scale=%v", scale)
	}
}

func TestPairPotentialEnergyBetweenSeparateMolecules(t *testing.T) {
	b := box.NewCubic(100.0)
	cfg := config.New(b)
	if err := cfg.GenerateCells(5.0, 5.0); err != nil {
		t.Fatalf("GenerateCells() error: %v", err)
	}
	cfg.Types.Add(config.AtomType{Name: "Ar", Z: 18})
	sp := config.NewSpecies("argon")
	sp.Atoms = []config.SpeciesAtom{{Z: 18, TypeName: "Ar"}}
	cfg.AddSpecies(sp)

	if _, err := cfg.AddMolecule("argon", [3]float64{10, 10, 10}); err != nil {
		t.Fatalf("AddMolecule() error: %v", err)
	}
	if _, err := cfg.AddMolecule("argon", [3]float64{11.5, 10, 10}); err != nil {
		t.Fatalf("AddMolecule() error: %v", err)
	}

	potMap := potential.NewPotentialMap(10.0)
	lj := potential.GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 1.0}, &fun.Prm{N: "sigma", V: 1.0}})
	potMap.SetBase(cfg.Types.PairIndex(0, 0), lj)

	ek := NewEnergyKernel(cfg, potMap, nil)
	result, err := ek.TotalEnergy()
	if err != nil {
		t.Fatalf("TotalEnergy() error: %v", err)
	}
	if result.PairPotential.InterMolecular == 0 {
		t.Fatal("expected non-zero intermolecular pair-potential energy between two nearby argon atoms")
	}
	if result.PairPotential.IntraMolecular != 0 {
		t.Fatalf("expected zero intramolecular pair energy for single-atom species, got %v", result.PairPotential.IntraMolecular)
	}
	if result.Geometry != 0 {
		t.Fatalf("expected zero geometry energy for single-atom species, got %v", result.Geometry)
	}
}

func TestMoleculeEnergyMatchesTotalDecomposition(t *testing.T) {
	cfg, molIndex := threeAtomChain(t)
	potMap := potential.NewPotentialMap(10.0)
	lj := potential.GetForm("lj", fun.Prms{&fun.Prm{N: "epsilon", V: 0.1}, &fun.Prm{N: "sigma", V: 1.0}})
	potMap.SetBase(cfg.Types.PairIndex(0, 0), lj)

	ek := NewEnergyKernel(cfg, potMap, nil)
	molE, err := ek.MoleculeEnergy(molIndex)
	if err != nil {
		t.Fatalf("MoleculeEnergy() error: %v", err)
	}
	if molE.Geometry <= 0 {
		t.Fatalf("expected strictly positive geometry energy for a distorted chain, got %v", molE.Geometry)
	}
}
