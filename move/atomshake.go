// Package move implements the single-atom and rigid-molecule Monte
// Carlo trial moves that perturb a Configuration's positions towards
// thermal equilibrium. Both routines share the same shape: a
// distributor hands out disjoint molecules per cycle, a change.Store
// records trial positions so rejections are free to revert, and the
// accepted step size self-tunes towards a target acceptance rate.
//
// Grounded on original_source/src/modules/atomShake/process.cpp and
// original_source/src/modules/molShake/process.cpp.
package move

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/change"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/distributor"
	"github.com/disorderedmaterials/dissolve-sub013/kernel"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
	"github.com/disorderedmaterials/dissolve-sub013/prng"
)

// boltzmannK is the gas constant in kJ/mol/K, matching the original
// module's hard-coded Metropolis factor.
const boltzmannK = .008314472

// AtomShake performs single-atom translational MC moves.
type AtomShake struct {
	// NShakesPerAtom is the number of trial translations attempted per atom per cycle.
	NShakesPerAtom int
	// StepSize is the current per-axis translation half-range, in Angstroms.
	StepSize float64
	// StepSizeMin/StepSizeMax bound the adaptive step size.
	StepSizeMin, StepSizeMax float64
	// TargetAcceptanceRate is the acceptance fraction the step size adapts towards.
	TargetAcceptanceRate float64

	Seed int64
}

// NewAtomShake returns an AtomShake with the original module's defaults.
func NewAtomShake() *AtomShake {
	return &AtomShake{
		NShakesPerAtom:       1,
		StepSize:             0.05,
		StepSizeMin:          0.001,
		StepSizeMax:          1.0,
		TargetAcceptanceRate: 0.33,
	}
}

// AtomShakeResult summarises one Run's outcome.
type AtomShakeResult struct {
	NAttempts  int
	NAccepted  int
	TotalDelta float64
	AnyMoved   bool
}

// AcceptanceRate returns NAccepted/NAttempts, or 0 if nothing was attempted.
func (r AtomShakeResult) AcceptanceRate() float64 {
	if r.NAttempts == 0 {
		return 0
	}
	return float64(r.NAccepted) / float64(r.NAttempts)
}

// Run executes one full pass of atom-shake moves over cfg, distributed
// across procPool (nil runs serially), then adapts a.StepSize towards
// a.TargetAcceptanceRate.
func (a *AtomShake) Run(cfg *config.Configuration, potMap *potential.PotentialMap, procPool *pool.ProcessPool) (AtomShakeResult, error) {
	strategy := pool.PoolStrategy
	if procPool != nil {
		strategy = procPool.BestStrategy()
	}

	dist := distributor.New(cfg, procPool, strategy)
	store := change.New(cfg, procPool)
	ek := kernel.NewEnergyKernel(cfg, potMap, procPool)
	rb := prng.NewForStrategy(procPool, pool.SubDivisionStrategy(strategy), a.Seed)

	rRT := 1.0 / (boltzmannK * cfg.Temperature)

	var res AtomShakeResult
	for dist.Cycle() {
		targetMolecules := dist.AssignedMolecules()

		if dist.CurrentStrategy() != strategy {
			strategy = dist.CurrentStrategy()
			rb.ResetStrategy(pool.SubDivisionStrategy(strategy))
		}

		for _, molID := range targetMolecules {
			mol := cfg.Molecules[molID]
			store.AddMolecule(molID)

			for storeIndex, atomIndex := range mol.AtomIndices {
				er, err := ek.AtomEnergy(atomIndex)
				if err != nil {
					return AtomShakeResult{}, err
				}
				currentEnergy := er.PairPotential.Total()
				currentIntraEnergy := er.Geometry

				for n := 0; n < a.NShakesPerAtom; n++ {
					delta3 := [3]float64{
						rb.RandomPlusMinusOne() * a.StepSize,
						rb.RandomPlusMinusOne() * a.StepSize,
						rb.RandomPlusMinusOne() * a.StepSize,
					}
					p := cfg.Atoms[atomIndex].Position
					cfg.SetAtomPosition(atomIndex, [3]float64{p[0] + delta3[0], p[1] + delta3[1], p[2] + delta3[2]})

					newEr, err := ek.AtomEnergy(atomIndex)
					if err != nil {
						return AtomShakeResult{}, err
					}
					newEnergy := newEr.PairPotential.Total()
					newIntraEnergy := newEr.Geometry

					delta := (newEnergy + newIntraEnergy) - (currentEnergy + currentIntraEnergy)
					accept := delta < 0 || rb.Random() < math.Exp(-delta*rRT)

					if accept {
						store.UpdateAtom(storeIndex)
						currentEnergy = newEnergy
						currentIntraEnergy = newIntraEnergy
					} else {
						store.Revert(storeIndex)
					}

					if dist.CollectStatistics() {
						if accept {
							res.TotalDelta += delta
							res.NAccepted++
						}
						res.NAttempts++
					}
				}
			}

			store.StoreAndReset()
		}

		if err := store.DistributeAndApply(); err != nil {
			return AtomShakeResult{}, err
		}
		store.Reset()
	}

	if procPool != nil {
		sums := []int{res.NAccepted, res.NAttempts}
		if err := procPool.AllSumInt(sums, pool.CommunicatorForStrategy(strategy)); err != nil {
			return AtomShakeResult{}, pool.CommunicationFailure("AtomShake.Run", err)
		}
		res.NAccepted, res.NAttempts = sums[0], sums[1]
		deltaSum := []float64{res.TotalDelta}
		if err := procPool.AllSumStrategy(deltaSum, strategy); err != nil {
			return AtomShakeResult{}, pool.CommunicationFailure("AtomShake.Run", err)
		}
		res.TotalDelta = deltaSum[0]
	}

	rate := res.AcceptanceRate()
	if res.NAccepted == 0 {
		a.StepSize *= 0.8
	} else {
		a.StepSize *= rate / a.TargetAcceptanceRate
	}
	if a.StepSize < a.StepSizeMin {
		a.StepSize = a.StepSizeMin
	} else if a.StepSize > a.StepSizeMax {
		a.StepSize = a.StepSizeMax
	}

	res.AnyMoved = res.NAccepted > 0
	if res.AnyMoved {
		cfg.BumpVersion()
	}
	return res, nil
}
