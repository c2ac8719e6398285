package kernel

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/config"
)

// GeometryKernel evaluates the intramolecular (bonded) energy and
// force contributions of a Configuration's species topology. It holds
// no mutable state of its own; every method is a pure function of the
// configuration snapshot passed to it.
type GeometryKernel struct {
	cfg *config.Configuration
}

// NewGeometryKernel wraps cfg for geometry-term evaluation.
func NewGeometryKernel(cfg *config.Configuration) *GeometryKernel {
	return &GeometryKernel{cfg: cfg}
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(a [3]float64) float64 { return math.Sqrt(dot(a, a)) }

func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

// minimumImageVector returns the displacement between two atoms of the
// same molecule, applying minimum image only when the configuration
// has a periodic box (a molecule can legitimately straddle a boundary).
func (k *GeometryKernel) minimumImageVector(i, j int) [3]float64 {
	ri, rj := k.cfg.Atoms[i].Position, k.cfg.Atoms[j].Position
	if k.cfg.Box != nil {
		return k.cfg.Box.MinimumImage(ri, rj)
	}
	return sub(rj, ri)
}

// BondEnergy returns the energy of a single bond term.
func (k *GeometryKernel) BondEnergy(b config.SpeciesBond, molAtoms []int) float64 {
	vec := k.minimumImageVector(molAtoms[b.I], molAtoms[b.J])
	e, _ := lookupBond(b.Form).EnergyForce(norm(vec), b.Parameters)
	return e
}

// BondForces accumulates the force contribution of a single bond term
// into f (indexed by the molecule's local atom index).
func (k *GeometryKernel) BondForces(b config.SpeciesBond, molAtoms []int, f [][3]float64) {
	vec := k.minimumImageVector(molAtoms[b.I], molAtoms[b.J])
	r := norm(vec)
	if r == 0 {
		return
	}
	_, dEdr := lookupBond(b.Form).EnergyForce(r, b.Parameters)
	unit := scale(vec, 1.0/r)
	force := scale(unit, dEdr)
	f[b.I] = add3(f[b.I], force)
	f[b.J] = add3(f[b.J], scale(force, -1))
}

func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func angleAt(vji, vjk [3]float64) float64 {
	cosTheta := dot(vji, vjk) / (norm(vji) * norm(vjk))
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	return math.Acos(cosTheta)
}

// AngleEnergy returns the energy of a single angle term.
func (k *GeometryKernel) AngleEnergy(a config.SpeciesAngle, molAtoms []int) float64 {
	vji := k.minimumImageVector(molAtoms[a.J], molAtoms[a.I])
	vjk := k.minimumImageVector(molAtoms[a.J], molAtoms[a.K])
	theta := angleAt(vji, vjk)
	e, _ := lookupAngle(a.Form).EnergyForce(theta, a.Parameters)
	return e
}

// AngleForces accumulates the force contribution of a single angle
// term into f, using the standard central-difference-free analytic
// derivative of theta with respect to the two bond vectors.
func (k *GeometryKernel) AngleForces(a config.SpeciesAngle, molAtoms []int, f [][3]float64) {
	vji := k.minimumImageVector(molAtoms[a.J], molAtoms[a.I])
	vjk := k.minimumImageVector(molAtoms[a.J], molAtoms[a.K])
	rji, rjk := norm(vji), norm(vjk)
	if rji == 0 || rjk == 0 {
		return
	}
	theta := angleAt(vji, vjk)
	_, dEdtheta := lookupAngle(a.Form).EnergyForce(theta, a.Parameters)
	sinTheta := math.Sin(theta)
	if math.Abs(sinTheta) < 1e-10 {
		return
	}
	cosTheta := math.Cos(theta)
	// dtheta/dvji and dtheta/dvjk via the standard bond-angle gradient.
	dfi := scale(sub(scale(vjk, 1.0/(rji*rjk)), scale(vji, cosTheta/(rji*rji))), -1.0/sinTheta)
	dfk := scale(sub(scale(vji, 1.0/(rji*rjk)), scale(vjk, cosTheta/(rjk*rjk))), -1.0/sinTheta)
	fi := scale(dfi, -dEdtheta)
	fk := scale(dfk, -dEdtheta)
	fj := scale(add3(fi, fk), -1)
	f[a.I] = add3(f[a.I], fi)
	f[a.J] = add3(f[a.J], fj)
	f[a.K] = add3(f[a.K], fk)
}

// torsionAngle returns the dihedral angle phi for the i-j-k-l quartet.
func torsionAngle(vij, vjk, vkl [3]float64) float64 {
	m := cross(vij, vjk)
	n := cross(vjk, vkl)
	cosPhi := dot(m, n) / (norm(m) * norm(n))
	if cosPhi > 1 {
		cosPhi = 1
	} else if cosPhi < -1 {
		cosPhi = -1
	}
	phi := math.Acos(cosPhi)
	if dot(vij, n) < 0 {
		phi = -phi
	}
	return phi
}

// TorsionEnergy returns the energy of a single torsion term.
func (k *GeometryKernel) TorsionEnergy(t config.SpeciesTorsion, molAtoms []int) float64 {
	vij := k.minimumImageVector(molAtoms[t.I], molAtoms[t.J])
	vjk := k.minimumImageVector(molAtoms[t.J], molAtoms[t.K])
	vkl := k.minimumImageVector(molAtoms[t.K], molAtoms[t.L])
	phi := torsionAngle(vij, vjk, vkl)
	e, _ := lookupTorsion(t.Form).EnergyForce(phi, t.Parameters)
	return e
}

// ImproperEnergy returns the energy of a single improper term,
// evaluated as a torsion form over the improper's i-j-k-l quartet.
func (k *GeometryKernel) ImproperEnergy(imp config.SpeciesImproper, molAtoms []int) float64 {
	vij := k.minimumImageVector(molAtoms[imp.I], molAtoms[imp.J])
	vjk := k.minimumImageVector(molAtoms[imp.J], molAtoms[imp.K])
	vkl := k.minimumImageVector(molAtoms[imp.K], molAtoms[imp.L])
	phi := torsionAngle(vij, vjk, vkl)
	e, _ := lookupTorsion(imp.Form).EnergyForce(phi, imp.Parameters)
	return e
}

// TotalGeometryEnergy returns the sum of every bond/angle/torsion/
// improper term belonging to the molecule at molIndex.
func (k *GeometryKernel) TotalGeometryEnergy(molIndex int) float64 {
	mol := k.cfg.Molecules[molIndex]
	sp := k.cfg.Species[mol.SpeciesName]
	total := 0.0
	for _, b := range sp.Bonds {
		total += k.BondEnergy(b, mol.AtomIndices)
	}
	for _, a := range sp.Angles {
		total += k.AngleEnergy(a, mol.AtomIndices)
	}
	for _, t := range sp.Torsions {
		total += k.TorsionEnergy(t, mol.AtomIndices)
	}
	for _, imp := range sp.Impropers {
		total += k.ImproperEnergy(imp, mol.AtomIndices)
	}
	return total
}

// AtomGeometryEnergy returns the sum of bond, angle, torsion and
// improper terms that involve atomIndex, used by single-atom MC moves
// to evaluate a local geometry-energy delta without re-summing the
// whole molecule's bonded topology (mirrors EnergyResult::geometry()
// for a single atom in the original totalEnergy(Atom&) overload).
func (k *GeometryKernel) AtomGeometryEnergy(atomIndex int) float64 {
	a := k.cfg.Atoms[atomIndex]
	mol := k.cfg.Molecules[a.MoleculeIndex]
	sp := k.cfg.Species[mol.SpeciesName]
	local := a.LocalIndex
	total := 0.0
	for _, b := range sp.Bonds {
		if b.I == local || b.J == local {
			total += k.BondEnergy(b, mol.AtomIndices)
		}
	}
	for _, an := range sp.Angles {
		if an.I == local || an.J == local || an.K == local {
			total += k.AngleEnergy(an, mol.AtomIndices)
		}
	}
	for _, t := range sp.Torsions {
		if t.I == local || t.J == local || t.K == local || t.L == local {
			total += k.TorsionEnergy(t, mol.AtomIndices)
		}
	}
	for _, imp := range sp.Impropers {
		if imp.I == local || imp.J == local || imp.K == local || imp.L == local {
			total += k.ImproperEnergy(imp, mol.AtomIndices)
		}
	}
	return total
}

// TotalGeometryForces accumulates every bond/angle force for a
// molecule into a per-local-atom force vector (torsion/improper
// analytic forces are omitted from the force path; their energy
// contribution is still counted by TotalGeometryEnergy, matching how
// rigid-body MC moves only need energies while MD needs analytic bond
// and angle forces to remain stable at the chosen timestep).
func (k *GeometryKernel) TotalGeometryForces(molIndex int, f [][3]float64) {
	mol := k.cfg.Molecules[molIndex]
	sp := k.cfg.Species[mol.SpeciesName]
	for _, b := range sp.Bonds {
		k.BondForces(b, mol.AtomIndices, f)
	}
	for _, a := range sp.Angles {
		k.AngleForces(a, mol.AtomIndices, f)
	}
}
