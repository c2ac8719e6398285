package kernel

import "math"

// ForceKernel accumulates the full force (pair-potential plus bonded
// geometry) acting on every atom of a configuration, reusing
// EnergyKernel's cell traversal and pair-scaling rules so force and
// energy evaluation never disagree about which pairs are excluded or
// scaled.
type ForceKernel struct {
	*EnergyKernel
}

// NewForceKernel wraps an existing EnergyKernel for force evaluation.
func NewForceKernel(ek *EnergyKernel) *ForceKernel {
	return &ForceKernel{EnergyKernel: ek}
}

// pairForce returns the force vector (acting on atom i, directed away
// from j for a repulsive interaction) between i and j at separation r,
// honouring the same bonded-exclusion and 1-4 scaling rules as
// EnergyKernel.pairEnergy.
func (k *ForceKernel) pairForce(i, j int, vecIJ [3]float64, r float64) ([3]float64, error) {
	scale, excluded := k.pairScale(i, j)
	if excluded || r == 0 {
		return [3]float64{}, nil
	}
	ti, tj := k.cfg.Atoms[i].TypeIndex, k.cfg.Atoms[j].TypeIndex
	pairIdx := k.cfg.Types.PairIndex(ti, tj)
	_, forceOverR, err := k.potMap.EnergyForce(pairIdx, r)
	if err != nil {
		return [3]float64{}, err
	}
	avgScale := 0.5 * (scale.Electrostatic + scale.VanDerWaals)
	magnitude := forceOverR * avgScale
	// vecIJ points from i to j; the force on i from a repulsive
	// potential (forceOverR > 0) points away from j, i.e. along -vecIJ.
	return [3]float64{-magnitude * vecIJ[0], -magnitude * vecIJ[1], -magnitude * vecIJ[2]}, nil
}

func (k *ForceKernel) displacement(i, j int) [3]float64 {
	ri, rj := k.cfg.Atoms[i].Position, k.cfg.Atoms[j].Position
	if k.cfg.Box != nil {
		return k.cfg.Box.MinimumImage(ri, rj)
	}
	return [3]float64{rj[0] - ri[0], rj[1] - ri[1], rj[2] - ri[2]}
}

// cellForces accumulates the pair-potential forces between every atom
// pair within a single cell into f, indexed by global atom index.
func (k *ForceKernel) cellForces(cellID int, f [][3]float64) error {
	atoms := k.cfg.Cells.CellAt(cellID).Atoms
	for a := 0; a < len(atoms); a++ {
		for b := a + 1; b < len(atoms); b++ {
			i, j := atoms[a], atoms[b]
			vec := k.displacement(i, j)
			r := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1] + vec[2]*vec[2])
			if r > k.potMap.Cutoff() {
				continue
			}
			force, err := k.pairForce(i, j, vec, r)
			if err != nil {
				return err
			}
			f[i] = add3(f[i], force)
			f[j] = add3(f[j], scale(force, -1))
		}
	}
	return nil
}

// cellToCellForces accumulates forces between every atom of cellA and
// every atom of cellB (cellA != cellB) into f.
func (k *ForceKernel) cellToCellForces(cellA, cellB int, f [][3]float64) error {
	atomsA := k.cfg.Cells.CellAt(cellA).Atoms
	atomsB := k.cfg.Cells.CellAt(cellB).Atoms
	for _, i := range atomsA {
		for _, j := range atomsB {
			vec := k.displacement(i, j)
			r := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1] + vec[2]*vec[2])
			if r > k.potMap.Cutoff() {
				continue
			}
			force, err := k.pairForce(i, j, vec, r)
			if err != nil {
				return err
			}
			f[i] = add3(f[i], force)
			f[j] = add3(f[j], scale(force, -1))
		}
	}
	return nil
}

// TotalForcesSplit returns the pair-potential ("unbound") and bonded
// geometry ("bound") force contributions on every atom separately,
// each reduced across the process pool. MD needs both separately (to
// decide a stable timestep and to cap each independently, as the
// original integrator does); MC moves only ever need the energy side.
func (k *ForceKernel) TotalForcesSplit() (unbound, bound [][3]float64, err error) {
	n := k.cfg.NAtoms()
	unbound = make([][3]float64, n)
	bound = make([][3]float64, n)

	pairs := k.cfg.Cells.NeighbourPairs()
	start, stride := 0, 1
	if k.procPool != nil {
		strategy := k.procPool.BestStrategy()
		start = k.procPool.InterleavedLoopStart(strategy)
		stride = k.procPool.InterleavedLoopStride(strategy)
	}
	for idx := start; idx < len(pairs); idx += stride {
		p := pairs[idx]
		var e error
		if p.MasterID == p.NeighbourID {
			e = k.cellForces(p.MasterID, unbound)
		} else {
			e = k.cellToCellForces(p.MasterID, p.NeighbourID, unbound)
		}
		if e != nil {
			return nil, nil, e
		}
	}

	nMol := k.cfg.NMolecules()
	molStart, molStride := 0, 1
	if k.procPool != nil {
		strategy := k.procPool.BestStrategy()
		molStart = k.procPool.InterleavedLoopStart(strategy)
		molStride = k.procPool.InterleavedLoopStride(strategy)
	}
	for m := molStart; m < nMol; m += molStride {
		mol := k.cfg.Molecules[m]
		local := make([][3]float64, len(mol.AtomIndices))
		k.GeometryKernel.TotalGeometryForces(m, local)
		for li, ai := range mol.AtomIndices {
			bound[ai] = add3(bound[ai], local[li])
		}
	}

	if k.procPool != nil {
		strategy := k.procPool.BestStrategy()
		flat := make([]float64, 6*n)
		for i := 0; i < n; i++ {
			flat[3*i], flat[3*i+1], flat[3*i+2] = unbound[i][0], unbound[i][1], unbound[i][2]
			flat[3*n+3*i], flat[3*n+3*i+1], flat[3*n+3*i+2] = bound[i][0], bound[i][1], bound[i][2]
		}
		if e := k.procPool.AllSumStrategy(flat, strategy); e == nil {
			for i := 0; i < n; i++ {
				unbound[i] = [3]float64{flat[3*i], flat[3*i+1], flat[3*i+2]}
				bound[i] = [3]float64{flat[3*n+3*i], flat[3*n+3*i+1], flat[3*n+3*i+2]}
			}
		}
	}
	return unbound, bound, nil
}

// TotalForces returns the force on every atom (pair potential plus
// bonded geometry), reduced across the process pool exactly as
// TotalPairPotentialEnergy is. The returned slice is indexed by global
// atom index.
func (k *ForceKernel) TotalForces() ([][3]float64, error) {
	unbound, bound, err := k.TotalForcesSplit()
	if err != nil {
		return nil, err
	}
	f := make([][3]float64, len(unbound))
	for i := range f {
		f[i] = add3(unbound[i], bound[i])
	}
	return f, nil
}
