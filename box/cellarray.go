package box

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// minCellsPerSide is the minimum number of cell divisions required
// along any axis; below this the cell-list optimisation degenerates.
const minCellsPerSide = 3

const cellSizeTolerance = 0.01

// Cell is one partition of the box: a grid reference, its real-space
// centre, and the set of atom indices currently inside it.
type Cell struct {
	ID      int
	Grid    [3]int
	Centre  [3]float64
	Atoms   []int
	lockOwner int
	status    CellStatus
}

// CellStatus is the per-cycle distributor state of a cell.
type CellStatus int

const (
	Unused CellStatus = iota
	LockedForEditing
	ReadByOne
	ReadByMany
)

// CellNeighbour pairs a neighbour cell id with whether minimum image
// must be applied for interactions between the owning cell and it.
type CellNeighbour struct {
	NeighbourID int
	RequiresMIM bool
}

// CellNeighbourPair is one entry of the unique (upper-triangular) list
// of cell pairs, master.ID <= neighbour.ID.
type CellNeighbourPair struct {
	MasterID      int
	NeighbourID   int
	RequiresMIM bool
}

// CellArray partitions a Box into a grid of Cells and precomputes
// their neighbour lists, honouring a minimum-image requirement flag
// per cell pair.
type CellArray struct {
	box               *Box
	divisions         [3]int
	realCellSize      [3]float64
	fractionalSize    [3]float64
	extents           [3]int
	cells             []Cell
	neighbours        [][]CellNeighbour
	neighbourPairs    []CellNeighbourPair
}

// Generate builds a cell partition of box sized so that cells are at
// least cellSize along their shortest axis (but never fewer than
// minCellsPerSide per side), and precomputes neighbour lists that
// cover pairPotentialRange.
func Generate(b *Box, cellSize, pairPotentialRange float64) (*CellArray, error) {
	if cellSize <= 0 || pairPotentialRange <= 0 {
		return nil, dserr.New(dserr.Setup, "box.Generate", "cellSize and pairPotentialRange must be positive")
	}
	ca := &CellArray{box: b}

	lengths := b.Lengths()
	var divisions [3]int
	minDivisions := math.MaxInt32
	minAxis := 0
	for i := 0; i < 3; i++ {
		divisions[i] = int(lengths[i] / cellSize)
		if divisions[i] < minDivisions {
			minDivisions = divisions[i]
			minAxis = i
		}
	}

	var realSize [3]float64
	if minDivisions < minCellsPerSide {
		realSize[minAxis] = lengths[minAxis] / float64(minCellsPerSide)
		divisions[minAxis] = minCellsPerSide
	} else {
		realSize[minAxis] = lengths[minAxis] / float64(divisions[minAxis])
	}

	for n := 1; n < 3; n++ {
		axis := (minAxis + n) % 3
		x := lengths[axis] / realSize[minAxis]
		intPart := math.Floor(x)
		remainder := x - intPart

		switch {
		case remainder > 1.0-cellSizeTolerance:
			divisions[axis] = int(intPart) + 1
		case remainder < cellSizeTolerance:
			divisions[axis] = int(intPart)
		case remainder < 0.5:
			divisions[axis] = int(intPart)
		default:
			divisions[axis] = int(intPart) + 1
			candidate := lengths[axis] / float64(divisions[axis])
			if candidate < cellSize {
				divisions[axis]--
			}
		}
		if divisions[axis] < 1 {
			divisions[axis] = 1
		}
		realSize[axis] = lengths[axis] / float64(divisions[axis])
	}

	ca.divisions = divisions
	ca.realCellSize = realSize
	for i := 0; i < 3; i++ {
		ca.fractionalSize[i] = 1.0 / float64(divisions[i])
	}

	ca.buildCells()
	ca.computeExtents(pairPotentialRange)
	ca.buildNeighbours(pairPotentialRange)
	return ca, nil
}

func (ca *CellArray) nCells() int {
	return ca.divisions[0] * ca.divisions[1] * ca.divisions[2]
}

func (ca *CellArray) linearID(x, y, z int) int {
	return (x*ca.divisions[1]+y)*ca.divisions[2] + z
}

func (ca *CellArray) buildCells() {
	n := ca.nCells()
	ca.cells = make([]Cell, n)
	count := 0
	fc := [3]float64{ca.fractionalSize[0] * 0.5, 0, 0}
	for x := 0; x < ca.divisions[0]; x++ {
		fc[1] = ca.fractionalSize[1] * 0.5
		for y := 0; y < ca.divisions[1]; y++ {
			fc[2] = ca.fractionalSize[2] * 0.5
			for z := 0; z < ca.divisions[2]; z++ {
				ca.cells[count] = Cell{ID: count, Grid: [3]int{x, y, z}, Centre: ca.box.ToReal(fc), lockOwner: -1}
				fc[2] += ca.fractionalSize[2]
				count++
			}
			fc[1] += ca.fractionalSize[1]
		}
		fc[0] += ca.fractionalSize[0]
	}
}

// cellAxisVector converts an integer cell-grid delta u into its
// real-space vector (u[i] fractional cell steps along each axis i).
func (ca *CellArray) cellAxisVector(u [3]int) [3]float64 {
	f := [3]float64{
		float64(u[0]) * ca.fractionalSize[0],
		float64(u[1]) * ca.fractionalSize[1],
		float64(u[2]) * ca.fractionalSize[2],
	}
	return ca.box.ToReal(f)
}

func sgn(x int) int {
	if x > 0 {
		return 1
	} else if x < 0 {
		return -1
	}
	return 0
}

// mimGridDelta returns the minimum-image equivalent of an integer grid delta.
func (ca *CellArray) mimGridDelta(delta [3]int) [3]int {
	for i := 0; i < 3; i++ {
		half := float64(ca.divisions[i]) * 0.5
		if float64(delta[i]) > half {
			delta[i] -= ca.divisions[i]
		} else if float64(delta[i]) < -half {
			delta[i] += ca.divisions[i]
		}
	}
	return delta
}

func vecMagnitude(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// withinRange reports whether the nearest-edge approximation of the
// distance between grid references a and b is within distance.
func (ca *CellArray) withinRange(a, b [3]int, distance float64) bool {
	u := ca.mimGridDelta([3]int{b[0] - a[0], b[1] - a[1], b[2] - a[2]})
	u[0] -= sgn(u[0])
	u[1] -= sgn(u[1])
	u[2] -= sgn(u[2])
	v := ca.cellAxisVector(u)
	return vecMagnitude(v) <= distance
}

// minimumImageRequired checks every corner-corner pair between the
// unit cells at grid references a and b; true iff at least one pair is
// closer through a periodic image than directly.
func (ca *CellArray) minimumImageRequired(a, b [3]int, distance float64) bool {
	for iCorner := 0; iCorner < 8; iCorner++ {
		i := [3]int{
			a[0] + bitOf(iCorner, 0),
			a[1] + bitOf(iCorner, 1),
			a[2] + bitOf(iCorner, 2),
		}
		for jCorner := 0; jCorner < 8; jCorner++ {
			j := [3]int{
				b[0] + bitOf(jCorner, 0),
				b[1] + bitOf(jCorner, 1),
				b[2] + bitOf(jCorner, 2),
			}
			delta := [3]int{j[0] - i[0], j[1] - i[1], j[2] - i[2]}
			direct := ca.cellAxisVector(delta)
			if vecMagnitude(direct) < distance {
				continue
			}
			mim := ca.cellAxisVector(ca.mimGridDelta(delta))
			if vecMagnitude(mim) < distance {
				return true
			}
		}
	}
	return false
}

func bitOf(corner, bit int) int {
	if corner&(1<<bit) != 0 {
		return 1
	}
	return 0
}

func (ca *CellArray) computeExtents(pairPotentialRange float64) {
	for n := 0; n < 3; n++ {
		ext := 0
		for {
			ext++
			u := [3]int{}
			u[n] = ext
			r := ca.cellAxisVector(u)
			if vecMagnitude(r) >= pairPotentialRange {
				break
			}
		}
		if ext*2+1 > ca.divisions[n] {
			ext = ca.divisions[n] / 2
		}
		ca.extents[n] = ext
	}
}

func (ca *CellArray) gridCellID(x, y, z int) int {
	x = wrapMod(x, ca.divisions[0])
	y = wrapMod(y, ca.divisions[1])
	z = wrapMod(z, ca.divisions[2])
	return ca.linearID(x, y, z)
}

func wrapMod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func (ca *CellArray) buildNeighbours(pairPotentialRange float64) {
	type rel struct{ x, y, z int }
	var relatives []rel
	seen := make(map[int]bool)
	ex, ey, ez := ca.extents[0], ca.extents[1], ca.extents[2]
	for x := -ex; x <= ex; x++ {
		for y := -ey; y <= ey; y++ {
			for z := -ez; z <= ez; z++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				if !ca.minimumImageRequired([3]int{0, 0, 0}, [3]int{x, y, z}, pairPotentialRange) &&
					!ca.withinRange([3]int{0, 0, 0}, [3]int{x, y, z}, pairPotentialRange) {
					continue
				}
				nbrID := ca.gridCellID(x, y, z)
				if seen[nbrID] {
					continue
				}
				seen[nbrID] = true
				relatives = append(relatives, rel{x, y, z})
			}
		}
	}

	ca.neighbours = make([][]CellNeighbour, len(ca.cells))
	for i := range ca.cells {
		cell := &ca.cells[i]
		ca.neighbours[i] = append(ca.neighbours[i], CellNeighbour{NeighbourID: cell.ID, RequiresMIM: false})
		for _, r := range relatives {
			nbrID := ca.gridCellID(cell.Grid[0]+r.x, cell.Grid[1]+r.y, cell.Grid[2]+r.z)
			mim := ca.minimumImageRequired(cell.Grid, ca.cells[nbrID].Grid, pairPotentialRange)
			ca.neighbours[i] = append(ca.neighbours[i], CellNeighbour{NeighbourID: nbrID, RequiresMIM: mim})
		}
	}

	ca.neighbourPairs = ca.neighbourPairs[:0]
	for i, nbrs := range ca.neighbours {
		for _, n := range nbrs {
			if i <= n.NeighbourID {
				ca.neighbourPairs = append(ca.neighbourPairs, CellNeighbourPair{MasterID: i, NeighbourID: n.NeighbourID, RequiresMIM: n.RequiresMIM})
			}
		}
	}
}

// NCells returns the total number of cells.
func (ca *CellArray) NCells() int { return len(ca.cells) }

// Divisions returns the number of cells along each axis.
func (ca *CellArray) Divisions() [3]int { return ca.divisions }

// Extents returns the cell-shell radius required to cover the pair
// potential range along each axis.
func (ca *CellArray) Extents() [3]int { return ca.extents }

// CellAt returns the cell with the given id.
func (ca *CellArray) CellAt(id int) *Cell { return &ca.cells[id] }

// CellContaining returns the cell that contains real-space position r.
func (ca *CellArray) CellContaining(r [3]float64) *Cell {
	f := ca.box.ToFractional(r)
	for i := 0; i < 3; i++ {
		f[i] -= math.Floor(f[i])
	}
	x := int(f[0] / ca.fractionalSize[0])
	y := int(f[1] / ca.fractionalSize[1])
	z := int(f[2] / ca.fractionalSize[2])
	return &ca.cells[ca.gridCellID(x, y, z)]
}

// Neighbours returns the neighbour list of the given cell, including
// itself as the first entry with RequiresMIM == false.
func (ca *CellArray) Neighbours(cellID int) []CellNeighbour { return ca.neighbours[cellID] }

// NeighbourPairs returns the unique, upper-triangular list of cell
// pairs covering the union of every cell's neighbour set.
func (ca *CellArray) NeighbourPairs() []CellNeighbourPair { return ca.neighbourPairs }

// MinimumImageRequired reports whether interactions between cells a
// and b require minimum-image treatment.
func (ca *CellArray) MinimumImageRequired(a, b int) bool {
	for _, n := range ca.neighbours[a] {
		if n.NeighbourID == b {
			return n.RequiresMIM
		}
	}
	return false
}

// AddAtom records atom index atomIndex as occupying cellID, appending
// it to that cell's occupant list.
func (ca *CellArray) AddAtom(cellID, atomIndex int) {
	ca.cells[cellID].Atoms = append(ca.cells[cellID].Atoms, atomIndex)
}

// RemoveAtom removes atomIndex from cellID's occupant list.
func (ca *CellArray) RemoveAtom(cellID, atomIndex int) {
	atoms := ca.cells[cellID].Atoms
	for i, a := range atoms {
		if a == atomIndex {
			ca.cells[cellID].Atoms = append(atoms[:i], atoms[i+1:]...)
			return
		}
	}
}

// ClearAtoms empties every cell's occupant list.
func (ca *CellArray) ClearAtoms() {
	for i := range ca.cells {
		ca.cells[i].Atoms = ca.cells[i].Atoms[:0]
	}
}

// ResetCycle marks every cell Unused ahead of a new distributor cycle.
func (ca *CellArray) ResetCycle() {
	for i := range ca.cells {
		ca.cells[i].status = Unused
		ca.cells[i].lockOwner = -1
	}
}

// Status returns a cell's current distributor status and lock owner
// (-1 if unowned).
func (ca *CellArray) Status(cellID int) (CellStatus, int) {
	return ca.cells[cellID].status, ca.cells[cellID].lockOwner
}

// SetStatus sets a cell's distributor status and lock owner.
func (ca *CellArray) SetStatus(cellID int, status CellStatus, owner int) {
	ca.cells[cellID].status = status
	ca.cells[cellID].lockOwner = owner
}
