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

// rotationXY returns the combined rotation matrix of a rotation about
// the X axis by angleXDeg followed by a rotation about the Y axis by
// angleYDeg, matching Matrix3::createRotationXY.
func rotationXY(angleXDeg, angleYDeg float64) [3][3]float64 {
	rx := angleXDeg * math.Pi / 180.0
	ry := angleYDeg * math.Pi / 180.0
	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	// X-rotation then Y-rotation, composed as Ry * Rx.
	x := [3][3]float64{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	y := [3][3]float64{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	var m [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = y[i][0]*x[0][j] + y[i][1]*x[1][j] + y[i][2]*x[2][j]
		}
	}
	return m
}

// MolShake performs rigid-body translation and rotation MC moves on
// whole molecules.
type MolShake struct {
	// NShakesPerMolecule is the number of trial moves attempted per molecule per cycle.
	NShakesPerMolecule int
	// TranslationStepSize/Min/Max bound the adaptive translation step, in Angstroms.
	TranslationStepSize, TranslationStepSizeMin, TranslationStepSizeMax float64
	// RotationStepSize/Min/Max bound the adaptive rotation step, in degrees.
	RotationStepSize, RotationStepSizeMin, RotationStepSizeMax float64
	// TargetAcceptanceRate is the acceptance fraction both step sizes adapt towards.
	TargetAcceptanceRate float64
	// RestrictToSpecies, when non-empty, limits moves to molecules of the named species.
	RestrictToSpecies []string

	Seed int64
}

// NewMolShake returns a MolShake with the original module's defaults.
func NewMolShake() *MolShake {
	return &MolShake{
		NShakesPerMolecule:     1,
		TranslationStepSize:    0.4,
		TranslationStepSizeMin: 0.001,
		TranslationStepSizeMax: 3.0,
		RotationStepSize:       20.0,
		RotationStepSizeMin:    0.5,
		RotationStepSizeMax:    90.0,
		TargetAcceptanceRate:   0.33,
	}
}

// MolShakeResult summarises one Run's outcome.
type MolShakeResult struct {
	NTranslationAttempts, NTranslationsAccepted int
	NRotationAttempts, NRotationsAccepted       int
	NGeneralAttempts                            int
	TotalDelta                                  float64
	AnyMoved                                    bool
}

func (r MolShakeResult) TranslationRate() float64 {
	if r.NTranslationAttempts == 0 {
		return 0
	}
	return float64(r.NTranslationsAccepted) / float64(r.NTranslationAttempts)
}

func (r MolShakeResult) RotationRate() float64 {
	if r.NRotationAttempts == 0 {
		return 0
	}
	return float64(r.NRotationsAccepted) / float64(r.NRotationAttempts)
}

// targetMoleculeIndices returns the molecule indices belonging to the
// species in m.RestrictToSpecies, or nil if unrestricted.
func (m *MolShake) targetMoleculeIndices(cfg *config.Configuration) []int {
	if len(m.RestrictToSpecies) == 0 {
		return nil
	}
	want := make(map[string]bool, len(m.RestrictToSpecies))
	for _, s := range m.RestrictToSpecies {
		want[s] = true
	}
	var out []int
	for i, mol := range cfg.Molecules {
		if want[mol.SpeciesName] {
			out = append(out, i)
		}
	}
	return out
}

// Run executes one full pass of mol-shake moves over cfg, distributed
// across procPool (nil runs serially). Every move trials a rotation, a
// translation, or both, cycling 80% both / 10% translation-only / 10%
// rotation-only across the ten-move counter, so each step size can be
// adapted independently afterwards.
func (m *MolShake) Run(cfg *config.Configuration, potMap *potential.PotentialMap, procPool *pool.ProcessPool) (MolShakeResult, error) {
	strategy := pool.PoolStrategy
	if procPool != nil {
		strategy = procPool.BestStrategy()
	}

	dist := distributor.New(cfg, procPool, strategy)
	if indices := m.targetMoleculeIndices(cfg); indices != nil {
		dist.SetTargetMolecules(indices)
	}
	store := change.New(cfg, procPool)
	ek := kernel.NewEnergyKernel(cfg, potMap, procPool)
	rb := prng.NewForStrategy(procPool, pool.SubDivisionStrategy(strategy), m.Seed)

	rRT := 1.0 / (boltzmannK * cfg.Temperature)
	count := int(rb.Random() * 10)

	var res MolShakeResult
	for dist.Cycle() {
		targetMolecules := dist.AssignedMolecules()

		if dist.CurrentStrategy() != strategy {
			strategy = dist.CurrentStrategy()
			rb.ResetStrategy(pool.SubDivisionStrategy(strategy))
		}

		for _, molID := range targetMolecules {
			store.AddMolecule(molID)

			me, err := ek.MoleculeEnergy(molID)
			if err != nil {
				return MolShakeResult{}, err
			}
			currentEnergy := me.PairPotential.InterMolecular

			for s := 0; s < m.NShakesPerMolecule; s++ {
				var rotate, translate bool
				switch count {
				case 0:
					rotate, translate = true, false
				case 1:
					rotate, translate = false, true
				default:
					rotate, translate = true, true
				}

				if translate {
					delta := [3]float64{
						rb.RandomPlusMinusOne() * m.TranslationStepSize,
						rb.RandomPlusMinusOne() * m.TranslationStepSize,
						rb.RandomPlusMinusOne() * m.TranslationStepSize,
					}
					cfg.Translate(molID, delta)
				}
				if rotate {
					rot := rotationXY(rb.RandomPlusMinusOne()*m.RotationStepSize, rb.RandomPlusMinusOne()*m.RotationStepSize)
					cfg.Rotate(molID, rot)
				}

				newEr, err := ek.MoleculeEnergy(molID)
				if err != nil {
					return MolShakeResult{}, err
				}
				newEnergy := newEr.PairPotential.InterMolecular

				delta := newEnergy - currentEnergy
				accept := delta < 0 || rb.Random() < math.Exp(-delta*rRT)

				if accept {
					store.UpdateAll()
					currentEnergy = newEnergy
				} else {
					store.RevertAll()
				}

				if dist.CollectStatistics() {
					if accept {
						res.TotalDelta += delta
					}
					if rotate {
						if accept {
							res.NRotationsAccepted++
						}
						res.NRotationAttempts++
					}
					if translate {
						if accept {
							res.NTranslationsAccepted++
						}
						res.NTranslationAttempts++
					}
					res.NGeneralAttempts++
				}

				count++
				if count > 9 {
					count = 0
				}
			}

			store.StoreAndReset()
		}

		if err := store.DistributeAndApply(); err != nil {
			return MolShakeResult{}, err
		}
		store.Reset()
	}

	if procPool != nil {
		ints := []int{res.NGeneralAttempts, res.NTranslationAttempts, res.NTranslationsAccepted, res.NRotationAttempts, res.NRotationsAccepted}
		if err := procPool.AllSumInt(ints, pool.CommunicatorForStrategy(strategy)); err != nil {
			return MolShakeResult{}, pool.CommunicationFailure("MolShake.Run", err)
		}
		res.NGeneralAttempts, res.NTranslationAttempts, res.NTranslationsAccepted, res.NRotationAttempts, res.NRotationsAccepted =
			ints[0], ints[1], ints[2], ints[3], ints[4]
		deltaSum := []float64{res.TotalDelta}
		if err := procPool.AllSumStrategy(deltaSum, strategy); err != nil {
			return MolShakeResult{}, pool.CommunicationFailure("MolShake.Run", err)
		}
		res.TotalDelta = deltaSum[0]
	}

	transRate := res.TranslationRate()
	if res.NTranslationsAccepted == 0 {
		m.TranslationStepSize *= 0.8
	} else {
		m.TranslationStepSize *= transRate / m.TargetAcceptanceRate
	}
	if m.TranslationStepSize < m.TranslationStepSizeMin {
		m.TranslationStepSize = m.TranslationStepSizeMin
	} else if m.TranslationStepSize > m.TranslationStepSizeMax {
		m.TranslationStepSize = m.TranslationStepSizeMax
	}

	rotRate := res.RotationRate()
	if res.NRotationsAccepted == 0 {
		m.RotationStepSize *= 0.8
	} else {
		m.RotationStepSize *= rotRate / m.TargetAcceptanceRate
	}
	if m.RotationStepSize < m.RotationStepSizeMin {
		m.RotationStepSize = m.RotationStepSizeMin
	} else if m.RotationStepSize > m.RotationStepSizeMax {
		m.RotationStepSize = m.RotationStepSizeMax
	}

	res.AnyMoved = res.NRotationsAccepted > 0 || res.NTranslationsAccepted > 0
	if res.AnyMoved {
		cfg.BumpVersion()
	}
	return res, nil
}
