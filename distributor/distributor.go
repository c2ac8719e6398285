// Package distributor implements RegionalDistributor: the cell-locking
// scheme that hands out disjoint sets of molecules to each process (or
// process group) every cycle, guaranteeing that no two processes ever
// edit overlapping regions of a configuration at the same time.
//
// Grounded on original_source/src/classes/regionalDistributor.{h,cpp}:
// a molecule can be assigned to a process/group only if every cell its
// atoms occupy can be locked for editing, and every neighbouring cell
// (read, not written, by the molecule's pair-potential/geometry terms)
// is not locked by a different owner. Cell status bookkeeping reuses
// box.CellArray's Status/SetStatus/ResetCycle, scaffolded there for
// exactly this purpose.
package distributor

import (
	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

// MoleculeStatus is a molecule's state within the current distribution cycle.
type MoleculeStatus int

const (
	ToDo MoleculeStatus = iota
	Assigned
	Completed
)

// Distributor hands out molecules from a Configuration to the
// processes/groups of a ProcessPool, one cycle at a time.
type Distributor struct {
	cfg      *config.Configuration
	procPool *pool.ProcessPool

	originalStrategy pool.DivisionStrategy
	currentStrategy  pool.DivisionStrategy
	nGroups          int
	groupIndex       int
	nCycles          int

	lockedCells []map[int]bool // per process/group: cell IDs locked this cycle

	nMolecules     int
	nToDistribute  int
	nDistributed   int
	moleculeStatus []MoleculeStatus
	assigned       [][]int
}

// New builds a Distributor over cfg's molecules, dividing work
// according to strategy across procPool (nil runs single-process).
func New(cfg *config.Configuration, procPool *pool.ProcessPool, strategy pool.DivisionStrategy) *Distributor {
	d := &Distributor{
		cfg:              cfg,
		procPool:         procPool,
		originalStrategy: strategy,
		currentStrategy:  strategy,
		nMolecules:       cfg.NMolecules(),
	}
	d.setProcessOrGroupLimits(strategy)
	d.moleculeStatus = make([]MoleculeStatus, d.nMolecules)
	d.nToDistribute = d.nMolecules
	d.assigned = make([][]int, d.nGroups)
	d.lockedCells = make([]map[int]bool, d.nGroups)
	for g := range d.lockedCells {
		d.lockedCells[g] = make(map[int]bool)
	}
	return d
}

func (d *Distributor) setProcessOrGroupLimits(strategy pool.DivisionStrategy) {
	if d.procPool == nil {
		d.nGroups = 1
		d.groupIndex = 0
		return
	}
	d.nGroups = d.procPool.StrategyNDivisions(strategy)
	d.groupIndex = d.procPool.StrategyProcessIndex(strategy)
}

// CurrentStrategy returns the division strategy actually in effect
// after the most recent Cycle (may differ from the original strategy
// if that cycle had to revert to PoolStrategy).
func (d *Distributor) CurrentStrategy() pool.DivisionStrategy { return d.currentStrategy }

// SetTargetMolecules restricts distribution to exactly the given
// molecule indices, marking every other molecule Completed (skipped).
func (d *Distributor) SetTargetMolecules(indices []int) {
	for i := range d.moleculeStatus {
		d.moleculeStatus[i] = Completed
	}
	for _, id := range indices {
		d.moleculeStatus[id] = ToDo
	}
	d.nToDistribute = len(indices)
	d.nDistributed = 0
}

// AssignedMolecules returns the molecule indices assigned to this
// process/group in the most recent cycle.
func (d *Distributor) AssignedMolecules() []int {
	if d.groupIndex >= len(d.assigned) {
		return nil
	}
	return d.assigned[d.groupIndex]
}

func (d *Distributor) canLockCellForEditing(group, cellID int) bool {
	status, owner := d.cfg.Cells.Status(cellID)
	switch status {
	case box.Unused:
		return true
	case box.LockedForEditing:
		return owner == group
	case box.ReadByOne:
		return owner == group
	default: // ReadByMany
		return false
	}
}

// assignMoleculeTo tries to lock every cell molIndex's atoms occupy
// (plus mark every neighbouring cell read-only) for group, returning
// whether the assignment succeeded.
func (d *Distributor) assignMoleculeTo(molIndex, group int) bool {
	if d.moleculeStatus[molIndex] != ToDo {
		return false
	}
	mol := d.cfg.Molecules[molIndex]

	var primaryCells []int
	seenPrimary := make(map[int]bool)
	for _, ai := range mol.AtomIndices {
		cellID := d.cfg.Atoms[ai].CellID
		if seenPrimary[cellID] {
			continue
		}
		status, owner := d.cfg.Cells.Status(cellID)
		if owner == group && status == box.LockedForEditing {
			seenPrimary[cellID] = true
			continue
		}
		if !d.canLockCellForEditing(group, cellID) {
			return false
		}
		seenPrimary[cellID] = true
		primaryCells = append(primaryCells, cellID)
	}

	readOnly := make(map[int]bool)
	for _, cellID := range primaryCells {
		for _, nbr := range d.cfg.Cells.Neighbours(cellID) {
			if nbr.NeighbourID == cellID {
				continue
			}
			status, owner := d.cfg.Cells.Status(nbr.NeighbourID)
			if status == box.LockedForEditing {
				if owner == group {
					continue
				}
				return false
			}
			readOnly[nbr.NeighbourID] = true
		}
	}

	// canLockCellForEditing already confirmed each primary cell is either
	// unused, or already locked/read by this same group.
	for _, cellID := range primaryCells {
		d.lockedCells[group][cellID] = true
		d.cfg.Cells.SetStatus(cellID, box.LockedForEditing, group)
	}

	for cellID := range readOnly {
		status, owner := d.cfg.Cells.Status(cellID)
		switch status {
		case box.LockedForEditing:
			if owner != group {
				return false
			}
		case box.Unused:
			d.cfg.Cells.SetStatus(cellID, box.ReadByOne, group)
		case box.ReadByOne:
			if owner != group {
				d.cfg.Cells.SetStatus(cellID, box.ReadByMany, -1)
			}
		case box.ReadByMany:
			// nothing more to do
		}
	}

	return true
}

// assignMoleculeFromCell looks for the first not-yet-checked molecule
// with an atom in cellID that can be assigned to group.
func (d *Distributor) assignMoleculeFromCell(cellID, group int) int {
	checked := make(map[int]bool)
	for _, ai := range d.cfg.Cells.CellAt(cellID).Atoms {
		molIndex := d.cfg.Atoms[ai].MoleculeIndex
		if checked[molIndex] {
			continue
		}
		if d.assignMoleculeTo(molIndex, group) {
			return molIndex
		}
		checked[molIndex] = true
	}
	return -1
}

// assignMoleculeForGroup finds the next molecule to give to group,
// preferring cells already locked by it, then cells it alone reads,
// then any still-unused cell.
func (d *Distributor) assignMoleculeForGroup(group int) int {
	for cellID := range d.lockedCells[group] {
		if m := d.assignMoleculeFromCell(cellID, group); m != -1 {
			return m
		}
	}
	if len(d.lockedCells[group]) > 0 {
		for cellID := 0; cellID < d.cfg.Cells.NCells(); cellID++ {
			status, owner := d.cfg.Cells.Status(cellID)
			if status != box.ReadByOne || owner != group {
				continue
			}
			if m := d.assignMoleculeFromCell(cellID, group); m != -1 {
				return m
			}
		}
	}
	for cellID := 0; cellID < d.cfg.Cells.NCells(); cellID++ {
		status, _ := d.cfg.Cells.Status(cellID)
		if status != box.Unused {
			continue
		}
		if m := d.assignMoleculeFromCell(cellID, group); m != -1 {
			return m
		}
	}
	return -1
}

// Cycle sets up the next round of molecule-to-process/group
// assignments, returning false once every target molecule has been
// distributed.
func (d *Distributor) Cycle() bool {
	if d.nDistributed == d.nToDistribute {
		return false
	}

	d.cfg.Cells.ResetCycle()
	d.currentStrategy = d.originalStrategy
	d.setProcessOrGroupLimits(d.originalStrategy)
	d.assigned = make([][]int, d.nGroups)
	d.lockedCells = make([]map[int]bool, d.nGroups)
	for g := range d.lockedCells {
		d.lockedCells[g] = make(map[int]bool)
	}

	if d.nGroups == 1 {
		for m := 0; m < d.nMolecules; m++ {
			if d.moleculeStatus[m] == ToDo {
				d.assigned[0] = append(d.assigned[0], m)
				d.nDistributed++
			}
		}
	} else {
		allAssigned := make([]bool, d.nGroups)
		allAssignedCount := 0
		for allAssignedCount < d.nGroups {
			for g := 0; g < d.nGroups; g++ {
				if allAssigned[g] {
					continue
				}
				m := d.assignMoleculeForGroup(g)
				if m == -1 {
					allAssigned[g] = true
					allAssignedCount++
				} else {
					d.assigned[g] = append(d.assigned[g], m)
					d.moleculeStatus[m] = Assigned
					d.nDistributed++
				}
				if allAssignedCount == d.nGroups {
					break
				}
			}

			anyEmpty := false
			for _, a := range d.assigned {
				if len(a) == 0 {
					anyEmpty = true
					break
				}
			}
			if anyEmpty {
				var union []int
				for m := 0; m < d.nMolecules; m++ {
					if d.moleculeStatus[m] == Assigned {
						union = append(union, m)
					}
				}
				d.assigned[0] = union
				for g := 1; g < d.nGroups; g++ {
					d.assigned[g] = append([]int(nil), union...)
				}
				d.currentStrategy = pool.PoolStrategy
				d.setProcessOrGroupLimits(pool.PoolStrategy)
				break
			}
		}
	}

	d.nCycles++
	for m := 0; m < d.nMolecules; m++ {
		if d.moleculeStatus[m] == Assigned {
			d.moleculeStatus[m] = Completed
		}
	}
	return true
}

// CollectStatistics reports whether this process should accumulate
// shared statistics (energies, counts) this cycle, so that a later
// pool-wide sum counts each contribution once: true on every process
// under PoolStrategy, where each process works its own molecules, and
// only on each group's leader otherwise, since the members of a group
// share one molecule list. Without a pool it is always true.
func (d *Distributor) CollectStatistics() bool {
	if d.currentStrategy == pool.PoolStrategy {
		return true
	}
	if d.procPool == nil {
		return true
	}
	return d.procPool.GroupLeader()
}

// Increment increments *counter only if CollectStatistics reports true.
func (d *Distributor) Increment(counter *int) {
	if d.CollectStatistics() {
		*counter++
	}
}

// Increase adds value to *v only if CollectStatistics reports true.
func (d *Distributor) Increase(v *float64, value float64) {
	if d.CollectStatistics() {
		*v += value
	}
}
