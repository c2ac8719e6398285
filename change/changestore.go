// Package change provides ChangeStore, the watch-list used by Monte
// Carlo move routines to track which atoms a trial move touched, so a
// rejected move can be cheaply reverted and an accepted move's final
// position can be distributed to every other process in the pool once
// a whole cycle of moves is complete.
//
// Grounded on original_source/src/classes/changeStore.{h,cpp}: atoms
// are watched by Add*, updated in place as moves are tried
// (UpdateAtom/UpdateAll), reverted on rejection (Revert/RevertAll),
// and promoted into a pending-changes list once accepted
// (StoreAndReset), ready for DistributeAndApply.
package change

import (
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

type changeData struct {
	atomIndex int
	original  [3]float64
	current   [3]float64
	moved     bool
}

// Store tracks a set of watched atoms across a sequence of trial
// moves against a single Configuration.
type Store struct {
	cfg      *config.Configuration
	procPool *pool.ProcessPool
	targets  []changeData
	changes  []changeData
}

// New returns a Store watching atoms of cfg, distributing accepted
// changes across procPool (nil runs purely locally).
func New(cfg *config.Configuration, procPool *pool.ProcessPool) *Store {
	return &Store{cfg: cfg, procPool: procPool}
}

// AddAtom begins watching the atom at atomIndex, recording its current
// position as the value a rejected move should revert to.
func (s *Store) AddAtom(atomIndex int) {
	pos := s.cfg.Atoms[atomIndex].Position
	s.targets = append(s.targets, changeData{atomIndex: atomIndex, original: pos, current: pos})
}

// AddMolecule watches every atom belonging to the molecule at molIndex.
func (s *Store) AddMolecule(molIndex int) {
	for _, ai := range s.cfg.Molecules[molIndex].AtomIndices {
		s.AddAtom(ai)
	}
}

// AddCell watches every atom currently occupying the named cell.
func (s *Store) AddCell(cellID int) {
	for _, ai := range s.cfg.Cells.CellAt(cellID).Atoms {
		s.AddAtom(ai)
	}
}

// Reset forgets every watched atom and every pending change.
func (s *Store) Reset() {
	s.targets = s.targets[:0]
	s.changes = s.changes[:0]
}

// NTargets returns the number of atoms currently being watched.
func (s *Store) NTargets() int { return len(s.targets) }

// updateOne re-reads the watched atom's live position from the
// configuration and marks it moved if it now differs from the
// originally recorded position.
func (s *Store) updateOne(i int) {
	t := &s.targets[i]
	t.current = s.cfg.Atoms[t.atomIndex].Position
	t.moved = t.current != t.original
}

// UpdateAll re-reads every watched atom's live position, marking any
// that have changed since AddAtom. Call this once a batch of trial
// moves has been applied (and, typically, accepted).
func (s *Store) UpdateAll() {
	for i := range s.targets {
		s.updateOne(i)
	}
}

// UpdateAtom re-reads a single watched atom's live position by its
// index within the watch list (not its configuration atom index).
func (s *Store) UpdateAtom(id int) {
	s.updateOne(id)
}

// revertOne restores a watched atom to its originally recorded
// position, updating cell membership.
func (s *Store) revertOne(i int) {
	t := &s.targets[i]
	s.cfg.SetAtomPosition(t.atomIndex, t.original)
	t.current = t.original
	t.moved = false
}

// RevertAll restores every watched atom to its originally recorded
// position. Call this when an entire batch of trial moves is rejected.
func (s *Store) RevertAll() {
	for i := range s.targets {
		s.revertOne(i)
	}
}

// Revert restores a single watched atom (by watch-list index) to its
// originally recorded position.
func (s *Store) Revert(id int) {
	s.revertOne(id)
}

// StoreAndReset promotes every watched atom that has actually moved
// into the pending-changes list (ready for DistributeAndApply), then
// clears the watch list entirely ahead of the next cycle.
func (s *Store) StoreAndReset() {
	for _, t := range s.targets {
		if t.moved {
			s.changes = append(s.changes, t)
		}
	}
	s.targets = s.targets[:0]
}

// DistributeAndApply reduces every process's pending changes across
// the pool and applies the union to cfg on every process, then clears
// the pending-changes list. It assumes disjoint ownership of atoms
// across the pool's regional distribution (the RegionalDistributor
// invariant): summing a per-atom indicator and a per-atom position
// contribution across ranks recovers exactly the locally-originated
// change on every rank, with no true gather/assemble primitive needed
// (gosl/mpi's only reduction observed in the corpus is AllReduceSum).
func (s *Store) DistributeAndApply() error {
	if s.procPool == nil || s.procPool.NProcesses() <= 1 {
		for _, c := range s.changes {
			s.cfg.SetAtomPosition(c.atomIndex, c.current)
		}
		s.changes = s.changes[:0]
		return nil
	}

	n := s.cfg.NAtoms()
	indicator := make([]float64, n)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)
	for _, c := range s.changes {
		indicator[c.atomIndex] = 1
		px[c.atomIndex] = c.current[0]
		py[c.atomIndex] = c.current[1]
		pz[c.atomIndex] = c.current[2]
	}

	if err := s.procPool.AllSum(indicator, pool.PoolProcessesCommunicator); err != nil {
		return pool.CommunicationFailure("Store.DistributeAndApply", err)
	}
	if err := s.procPool.AllSum(px, pool.PoolProcessesCommunicator); err != nil {
		return pool.CommunicationFailure("Store.DistributeAndApply", err)
	}
	if err := s.procPool.AllSum(py, pool.PoolProcessesCommunicator); err != nil {
		return pool.CommunicationFailure("Store.DistributeAndApply", err)
	}
	if err := s.procPool.AllSum(pz, pool.PoolProcessesCommunicator); err != nil {
		return pool.CommunicationFailure("Store.DistributeAndApply", err)
	}

	for atomIndex := 0; atomIndex < n; atomIndex++ {
		if indicator[atomIndex] < 0.5 {
			continue
		}
		s.cfg.SetAtomPosition(atomIndex, [3]float64{px[atomIndex], py[atomIndex], pz[atomIndex]})
	}
	s.changes = s.changes[:0]
	return nil
}
