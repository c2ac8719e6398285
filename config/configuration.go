package config

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// Atom is a single particle owned by a Configuration's dense atom
// vector. MoleculeIndex and CellID are weak references (plain indices)
// into the owning Configuration, not pointers, so the atom vector can
// be reallocated freely.
type Atom struct {
	Z             int
	Position      [3]float64
	Velocity      [3]float64
	TypeIndex     int // index into the Configuration's AtomTypeMix
	Charge        float64
	MoleculeIndex int
	LocalIndex    int // index of this atom within its molecule's atom list
	CellID        int
}

// Molecule is an ordered list of atom indices instantiated from a
// Species template; the Configuration is the sole owner, and moves /
// kernels address it by index so multiple goroutines can hold a
// read-only handle without copying atom data.
type Molecule struct {
	SpeciesName string
	AtomIndices []int
}

// Configuration owns every atom and molecule in a simulation cell,
// the box geometry, and the cell partition used to accelerate
// neighbour search. contentsVersion increments on every accepted
// mutation, and is the fingerprint PartialSet/ScatteringMatrix compare
// against to decide whether cached data is stale.
type Configuration struct {
	Box         *box.Box
	Cells       *box.CellArray
	Types       *AtomTypeMix
	Species     map[string]*Species
	Atoms       []Atom
	Molecules   []Molecule
	Temperature float64 // kelvin; sets the Metropolis rRT factor for MC moves

	// Stability tracks the recent total-energy trend, gating the
	// refine loop's stability guard (spec.md §4.12).
	Stability *EnergyStabilityTracker

	contentsVersion int64
}

// New constructs an empty Configuration over the given box, at a
// default temperature of 300 K.
func New(b *box.Box) *Configuration {
	return &Configuration{
		Box:         b,
		Types:       NewAtomTypeMix(),
		Species:     make(map[string]*Species),
		Temperature: 300.0,
		Stability:   NewEnergyStabilityTracker(10, 0.01),
	}
}

// ContentsVersion returns the current contents fingerprint.
func (c *Configuration) ContentsVersion() int64 { return c.contentsVersion }

// BumpVersion increments the contents fingerprint; called once per
// accepted MC/MD move.
func (c *Configuration) BumpVersion() { c.contentsVersion++ }

// GenerateCells (re)builds the cell partition; must be called whenever
// the box changes or the potential cutoff changes.
func (c *Configuration) GenerateCells(cellSize, pairPotentialRange float64) error {
	cells, err := box.Generate(c.Box, cellSize, pairPotentialRange)
	if err != nil {
		return err
	}
	c.Cells = cells
	c.rehomeAllAtoms()
	return nil
}

func (c *Configuration) rehomeAllAtoms() {
	c.Cells.ClearAtoms()
	for i := range c.Atoms {
		cell := c.Cells.CellContaining(c.Atoms[i].Position)
		c.Atoms[i].CellID = cell.ID
		c.Cells.AddAtom(cell.ID, i)
	}
}

// AddSpecies registers a species template by name.
func (c *Configuration) AddSpecies(s *Species) { c.Species[s.Name] = s }

// AddMolecule instantiates one copy of the named species at the given
// reference-frame translation (species-local coordinates are used
// unmodified otherwise), appending its atoms to the dense atom vector
// and returning the new molecule's index.
func (c *Configuration) AddMolecule(speciesName string, translate [3]float64) (int, error) {
	sp, ok := c.Species[speciesName]
	if !ok {
		return -1, dserr.New(dserr.Setup, "Configuration.AddMolecule", "unknown species %q", speciesName)
	}
	molIndex := len(c.Molecules)
	mol := Molecule{SpeciesName: speciesName}
	for local, proto := range sp.Atoms {
		typeIdx := c.Types.IndexOf(proto.TypeName)
		if typeIdx == -1 {
			return -1, dserr.New(dserr.Setup, "Configuration.AddMolecule", "species %q atom %d references unregistered type %q", speciesName, local, proto.TypeName)
		}
		atomIndex := len(c.Atoms)
		pos := [3]float64{
			proto.Reference[0] + translate[0],
			proto.Reference[1] + translate[1],
			proto.Reference[2] + translate[2],
		}
		if c.Box != nil {
			pos = c.Box.Fold(pos)
		}
		atom := Atom{
			Z:             proto.Z,
			Position:      pos,
			TypeIndex:     typeIdx,
			Charge:        proto.Charge,
			MoleculeIndex: molIndex,
			LocalIndex:    local,
		}
		if c.Cells != nil {
			cell := c.Cells.CellContaining(atom.Position)
			atom.CellID = cell.ID
			c.Cells.AddAtom(cell.ID, atomIndex)
		}
		c.Atoms = append(c.Atoms, atom)
		mol.AtomIndices = append(mol.AtomIndices, atomIndex)
	}
	c.Molecules = append(c.Molecules, mol)
	return molIndex, nil
}

// NAtoms returns the total number of atoms in the configuration.
func (c *Configuration) NAtoms() int { return len(c.Atoms) }

// NMolecules returns the total number of molecules in the configuration.
func (c *Configuration) NMolecules() int { return len(c.Molecules) }

// SetAtomPosition moves atom i to r, updating its cell membership if
// the cell partition has changed.
func (c *Configuration) SetAtomPosition(i int, r [3]float64) {
	if c.Box != nil {
		r = c.Box.Fold(r)
	}
	oldCell := c.Atoms[i].CellID
	c.Atoms[i].Position = r
	if c.Cells == nil {
		return
	}
	newCell := c.Cells.CellContaining(r).ID
	if newCell != oldCell {
		c.Cells.RemoveAtom(oldCell, i)
		c.Cells.AddAtom(newCell, i)
		c.Atoms[i].CellID = newCell
	}
}

// CentreOfGeometry returns the unweighted mean position of a
// molecule's atoms, resolved through the nearest periodic image of
// each atom to the molecule's first atom (so a molecule that straddles
// a periodic boundary is not split in half by the average).
func (c *Configuration) CentreOfGeometry(molIndex int) [3]float64 {
	mol := c.Molecules[molIndex]
	if len(mol.AtomIndices) == 0 {
		return [3]float64{}
	}
	ref := c.Atoms[mol.AtomIndices[0]].Position
	var sum [3]float64
	for _, ai := range mol.AtomIndices {
		p := c.Atoms[ai].Position
		if c.Box != nil {
			d := c.Box.MinimumImage(ref, p)
			p = [3]float64{ref[0] + d[0], ref[1] + d[1], ref[2] + d[2]}
		}
		sum[0] += p[0]
		sum[1] += p[1]
		sum[2] += p[2]
	}
	n := float64(len(mol.AtomIndices))
	return [3]float64{sum[0] / n, sum[1] / n, sum[2] / n}
}

// CentreOfMass is as CentreOfGeometry but weighted by atomic mass
// (approximated here by atomic number, matching the coarse RMM used by
// moves that only need a representative pivot, not a physical mass).
func (c *Configuration) CentreOfMass(molIndex int) [3]float64 {
	mol := c.Molecules[molIndex]
	if len(mol.AtomIndices) == 0 {
		return [3]float64{}
	}
	ref := c.Atoms[mol.AtomIndices[0]].Position
	var sum [3]float64
	totalMass := 0.0
	for _, ai := range mol.AtomIndices {
		p := c.Atoms[ai].Position
		if c.Box != nil {
			d := c.Box.MinimumImage(ref, p)
			p = [3]float64{ref[0] + d[0], ref[1] + d[1], ref[2] + d[2]}
		}
		mass := math.Max(1.0, float64(c.Atoms[ai].Z))
		sum[0] += p[0] * mass
		sum[1] += p[1] * mass
		sum[2] += p[2] * mass
		totalMass += mass
	}
	return [3]float64{sum[0] / totalMass, sum[1] / totalMass, sum[2] / totalMass}
}

// Translate rigidly shifts every atom of a molecule by delta.
func (c *Configuration) Translate(molIndex int, delta [3]float64) {
	for _, ai := range c.Molecules[molIndex].AtomIndices {
		p := c.Atoms[ai].Position
		c.SetAtomPosition(ai, [3]float64{p[0] + delta[0], p[1] + delta[1], p[2] + delta[2]})
	}
}

// Rotate rigidly rotates a molecule's atoms about its centre of
// geometry by the given rotation matrix (row-major 3x3).
func (c *Configuration) Rotate(molIndex int, rot [3][3]float64) {
	centre := c.CentreOfGeometry(molIndex)
	for _, ai := range c.Molecules[molIndex].AtomIndices {
		p := c.Atoms[ai].Position
		rel := [3]float64{p[0] - centre[0], p[1] - centre[1], p[2] - centre[2]}
		rotated := [3]float64{
			rot[0][0]*rel[0] + rot[0][1]*rel[1] + rot[0][2]*rel[2],
			rot[1][0]*rel[0] + rot[1][1]*rel[1] + rot[1][2]*rel[2],
			rot[2][0]*rel[0] + rot[2][1]*rel[1] + rot[2][2]*rel[2],
		}
		c.SetAtomPosition(ai, [3]float64{centre[0] + rotated[0], centre[1] + rotated[1], centre[2] + rotated[2]})
	}
}
