package kernel

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
)

// PairPotentialEnergyValue splits a pair-potential energy total into
// its inter- and intra-molecular components, mirroring how the
// refinement loop and the per-configuration energy log report them
// separately (EPSR's structural term only ever acts on intermolecular
// correlations).
type PairPotentialEnergyValue struct {
	InterMolecular float64
	IntraMolecular float64
}

// Total returns the sum of the two components.
func (v PairPotentialEnergyValue) Total() float64 { return v.InterMolecular + v.IntraMolecular }

// Add returns the component-wise sum of v and o.
func (v PairPotentialEnergyValue) Add(o PairPotentialEnergyValue) PairPotentialEnergyValue {
	return PairPotentialEnergyValue{
		InterMolecular: v.InterMolecular + o.InterMolecular,
		IntraMolecular: v.IntraMolecular + o.IntraMolecular,
	}
}

// EnergyResult is the full decomposition of a configuration's energy:
// pair potential (inter/intra), bonded geometry, and any extended
// (module-contributed) term.
type EnergyResult struct {
	PairPotential PairPotentialEnergyValue
	Geometry      float64
	Extended      float64
}

// Total returns the grand total energy.
func (r EnergyResult) Total() float64 {
	return r.PairPotential.Total() + r.Geometry + r.Extended
}

// ExtendedEnergyFunc lets a module (e.g. an external-field term) add a
// configuration-dependent energy contribution without EnergyKernel
// needing to know about it.
type ExtendedEnergyFunc func(cfg *config.Configuration) float64

// EnergyKernel composes cell-based pair-potential summation with
// GeometryKernel's bonded terms, honouring minimum-image cell pairs,
// bonded exclusions, and species 1-4 scale factors. Every total*
// method performs its own reduction over the process pool, so it may
// be called identically whether running serially or distributed.
type EnergyKernel struct {
	*GeometryKernel
	cfg      *config.Configuration
	potMap   *potential.PotentialMap
	procPool *pool.ProcessPool
	extended ExtendedEnergyFunc
}

// NewEnergyKernel builds an EnergyKernel over cfg, evaluating pair
// potentials through potMap and reducing totals across procPool (which
// may be nil for a purely serial evaluation).
func NewEnergyKernel(cfg *config.Configuration, potMap *potential.PotentialMap, procPool *pool.ProcessPool) *EnergyKernel {
	return &EnergyKernel{
		GeometryKernel: NewGeometryKernel(cfg),
		cfg:            cfg,
		potMap:         potMap,
		procPool:       procPool,
	}
}

// SetExtendedEnergy installs (or clears, with nil) the extended-energy hook.
func (k *EnergyKernel) SetExtendedEnergy(fn ExtendedEnergyFunc) { k.extended = fn }

// pairScale returns the (electrostatic, vdW) scale factor to apply
// between atoms i and j of the same molecule, and whether the pair is
// fully excluded (directly bonded).
func (k *EnergyKernel) pairScale(i, j int) (scale config.PairScaling, excluded bool) {
	ai, aj := &k.cfg.Atoms[i], &k.cfg.Atoms[j]
	if ai.MoleculeIndex != aj.MoleculeIndex {
		return config.PairScaling{Electrostatic: 1, VanDerWaals: 1}, false
	}
	mol := k.cfg.Molecules[ai.MoleculeIndex]
	sp := k.cfg.Species[mol.SpeciesName]
	if sp.Bonded(ai.LocalIndex, aj.LocalIndex) {
		return config.PairScaling{}, true
	}
	return sp.Scaling(ai.LocalIndex, aj.LocalIndex), false
}

// pairEnergy evaluates the (possibly scaled) pair-potential energy
// between atoms i and j at a known separation r, classifying it as
// inter- or intra-molecular. The energy is multiplied by the mean of
// the pair's electrostatic and van-der-Waals scale factors, since both
// terms share a single tabulated/analytic channel in PotentialMap.
func (k *EnergyKernel) pairEnergy(i, j int, r float64) (PairPotentialEnergyValue, error) {
	scale, excluded := k.pairScale(i, j)
	if excluded {
		return PairPotentialEnergyValue{}, nil
	}
	ti, tj := k.cfg.Atoms[i].TypeIndex, k.cfg.Atoms[j].TypeIndex
	pairIdx := k.cfg.Types.PairIndex(ti, tj)
	e, _, err := k.potMap.EnergyForce(pairIdx, r)
	if err != nil {
		return PairPotentialEnergyValue{}, err
	}
	avgScale := 0.5 * (scale.Electrostatic + scale.VanDerWaals)
	e *= avgScale
	if k.cfg.Atoms[i].MoleculeIndex == k.cfg.Atoms[j].MoleculeIndex {
		return PairPotentialEnergyValue{IntraMolecular: e}, nil
	}
	return PairPotentialEnergyValue{InterMolecular: e}, nil
}

func (k *EnergyKernel) separation(i, j int) float64 {
	ri, rj := k.cfg.Atoms[i].Position, k.cfg.Atoms[j].Position
	if k.cfg.Box != nil {
		return k.cfg.Box.MinimumImageDistance(ri, rj)
	}
	d := [3]float64{rj[0] - ri[0], rj[1] - ri[1], rj[2] - ri[2]}
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

// cellEnergy returns the pair-potential energy among the atoms within
// a single cell (each unordered pair counted once).
func (k *EnergyKernel) cellEnergy(cellID int) (PairPotentialEnergyValue, error) {
	atoms := k.cfg.Cells.CellAt(cellID).Atoms
	total := PairPotentialEnergyValue{}
	for a := 0; a < len(atoms); a++ {
		for b := a + 1; b < len(atoms); b++ {
			i, j := atoms[a], atoms[b]
			r := k.separation(i, j)
			if r > k.potMap.Cutoff() {
				continue
			}
			e, err := k.pairEnergy(i, j, r)
			if err != nil {
				return PairPotentialEnergyValue{}, err
			}
			total = total.Add(e)
		}
	}
	return total, nil
}

// cellToCellEnergy returns the pair-potential energy between every
// atom of cell a and every atom of cell b (a != b); mim selects
// whether minimum-image separations must be used for this cell pair.
func (k *EnergyKernel) cellToCellEnergy(cellA, cellB int, mim bool) (PairPotentialEnergyValue, error) {
	atomsA := k.cfg.Cells.CellAt(cellA).Atoms
	atomsB := k.cfg.Cells.CellAt(cellB).Atoms
	total := PairPotentialEnergyValue{}
	for _, i := range atomsA {
		for _, j := range atomsB {
			var r float64
			if mim {
				r = k.separation(i, j)
			} else {
				ri, rj := k.cfg.Atoms[i].Position, k.cfg.Atoms[j].Position
				d := [3]float64{rj[0] - ri[0], rj[1] - ri[1], rj[2] - ri[2]}
				r = math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
			}
			if r > k.potMap.Cutoff() {
				continue
			}
			e, err := k.pairEnergy(i, j, r)
			if err != nil {
				return PairPotentialEnergyValue{}, err
			}
			total = total.Add(e)
		}
	}
	return total, nil
}

// TotalPairPotentialEnergy sums the pair-potential energy of the whole
// configuration by walking the cell array's unique neighbour-pair
// list, then reduces the partial sum across the process pool (each
// rank owning a disjoint slice of cell pairs in a distributed run; in
// a serial run the pool argument to NewEnergyKernel may be nil and the
// loop simply covers every pair locally).
func (k *EnergyKernel) TotalPairPotentialEnergy() (PairPotentialEnergyValue, error) {
	pairs := k.cfg.Cells.NeighbourPairs()
	start, stride := 0, 1
	if k.procPool != nil {
		strategy := k.procPool.BestStrategy()
		start = k.procPool.InterleavedLoopStart(strategy)
		stride = k.procPool.InterleavedLoopStride(strategy)
	}
	total := PairPotentialEnergyValue{}
	for idx := start; idx < len(pairs); idx += stride {
		p := pairs[idx]
		var e PairPotentialEnergyValue
		var err error
		if p.MasterID == p.NeighbourID {
			e, err = k.cellEnergy(p.MasterID)
		} else {
			e, err = k.cellToCellEnergy(p.MasterID, p.NeighbourID, p.RequiresMIM)
		}
		if err != nil {
			return PairPotentialEnergyValue{}, err
		}
		total = total.Add(e)
	}
	if k.procPool != nil {
		strategy := k.procPool.BestStrategy()
		sums := []float64{total.InterMolecular, total.IntraMolecular}
		if err := k.procPool.AllSumStrategy(sums, strategy); err != nil {
			return PairPotentialEnergyValue{}, pool.CommunicationFailure("EnergyKernel.TotalPairPotentialEnergy", err)
		}
		total.InterMolecular, total.IntraMolecular = sums[0], sums[1]
	}
	return total, nil
}

// TotalGeometryEnergyAll sums TotalGeometryEnergy over every molecule
// in the configuration, reduced across the process pool.
func (k *EnergyKernel) TotalGeometryEnergyAll() float64 {
	n := k.cfg.NMolecules()
	start, stride := 0, 1
	if k.procPool != nil {
		strategy := k.procPool.BestStrategy()
		start = k.procPool.InterleavedLoopStart(strategy)
		stride = k.procPool.InterleavedLoopStride(strategy)
	}
	total := 0.0
	for m := start; m < n; m += stride {
		total += k.GeometryKernel.TotalGeometryEnergy(m)
	}
	if k.procPool != nil {
		strategy := k.procPool.BestStrategy()
		sums := []float64{total}
		if err := k.procPool.AllSumStrategy(sums, strategy); err == nil {
			total = sums[0]
		}
	}
	return total
}

// TotalEnergy returns the full decomposed energy of the configuration:
// pair potential (summed over the cell neighbour list), bonded
// geometry (summed over every molecule), and any extended term.
func (k *EnergyKernel) TotalEnergy() (EnergyResult, error) {
	pp, err := k.TotalPairPotentialEnergy()
	if err != nil {
		return EnergyResult{}, err
	}
	geom := k.TotalGeometryEnergyAll()
	ext := 0.0
	if k.extended != nil {
		ext = k.extended(k.cfg)
	}
	return EnergyResult{PairPotential: pp, Geometry: geom, Extended: ext}, nil
}

// AtomEnergy returns the energy of a single atom: its pair-potential
// interaction with every other atom within cutoff (both inter- and
// intra-molecular, scaled/excluded exactly as TotalPairPotentialEnergy
// would count that atom's share of each pair) plus the bonded geometry
// terms that involve it directly. Used by single-atom MC moves, which
// only ever need one atom's contribution to decide a trial move's
// energy delta (mirrors the original totalEnergy(Atom&) overload).
func (k *EnergyKernel) AtomEnergy(atomIndex int) (EnergyResult, error) {
	geom := k.GeometryKernel.AtomGeometryEnergy(atomIndex)
	pp := PairPotentialEnergyValue{}
	cellID := k.cfg.Atoms[atomIndex].CellID
	for _, nbr := range k.cfg.Cells.Neighbours(cellID) {
		for _, j := range k.cfg.Cells.CellAt(nbr.NeighbourID).Atoms {
			if j == atomIndex {
				continue
			}
			r := k.separation(atomIndex, j)
			if r > k.potMap.Cutoff() {
				continue
			}
			e, err := k.pairEnergy(atomIndex, j, r)
			if err != nil {
				return EnergyResult{}, err
			}
			pp = pp.Add(e)
		}
	}
	return EnergyResult{PairPotential: pp, Geometry: geom}, nil
}

// MoleculeEnergy returns the energy of a single molecule: its own
// bonded geometry terms plus its pair-potential interaction with every
// other atom in the configuration (used by MC moves to evaluate the
// energy delta of moving one molecule without recomputing the whole
// configuration).
func (k *EnergyKernel) MoleculeEnergy(molIndex int) (EnergyResult, error) {
	geom := k.GeometryKernel.TotalGeometryEnergy(molIndex)
	pp := PairPotentialEnergyValue{}
	mol := k.cfg.Molecules[molIndex]
	inMol := make(map[int]bool, len(mol.AtomIndices))
	for _, ai := range mol.AtomIndices {
		inMol[ai] = true
	}
	for _, i := range mol.AtomIndices {
		cellID := k.cfg.Atoms[i].CellID
		for _, nbr := range k.cfg.Cells.Neighbours(cellID) {
			for _, j := range k.cfg.Cells.CellAt(nbr.NeighbourID).Atoms {
				if inMol[j] {
					continue // counted once via geometry / avoided self-double-count
				}
				r := k.separation(i, j)
				if r > k.potMap.Cutoff() {
					continue
				}
				e, err := k.pairEnergy(i, j, r)
				if err != nil {
					return EnergyResult{}, err
				}
				pp = pp.Add(e)
			}
		}
	}
	return EnergyResult{PairPotential: pp, Geometry: geom}, nil
}
