// Package pool implements the cooperating worker set described by the
// configuration engine: a ProcessPool exposing collectives (barrier,
// broadcast, reduction, consensus) over three nested scopes, plus the
// two division-of-labour strategies used by the regional distributor
// and the energy/force kernels. No point-to-point send/receive
// operations are provided.
//
// The pool is built directly on top of github.com/cpmech/gosl/mpi, the
// same library gofem's FEM/Solver types use to detect parallel mode and
// perform residual reductions (mpi.IsOn, mpi.Rank, mpi.Size,
// mpi.AllReduceSum). When mpi.IsOn() is false the pool degrades to a
// single-process implementation, exactly as gofem runs serial when
// PARALLEL is undefined.
package pool

import (
	"fmt"

	"github.com/cpmech/gosl/mpi"

	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// CommunicatorType selects one of the three nested scopes a collective
// may run over.
type CommunicatorType int

const (
	// GroupProcessesCommunicator scopes a collective to the processes
	// within this process's own group.
	GroupProcessesCommunicator CommunicatorType = iota
	// GroupLeadersCommunicator scopes a collective to the leaders of
	// every group in the pool.
	GroupLeadersCommunicator
	// PoolProcessesCommunicator scopes a collective to every process
	// in the pool.
	PoolProcessesCommunicator
	// NoCommunicator marks a division of labour with no communication
	// at all (each process works in isolation).
	NoCommunicator
)

// DivisionStrategy selects how an outer loop's work is divided.
type DivisionStrategy int

const (
	// GroupsStrategy divides loop work over process groups within the pool.
	GroupsStrategy DivisionStrategy = iota
	// GroupProcessesStrategy divides loop work over processes within a group.
	GroupProcessesStrategy
	// PoolStrategy divides loop work over individual processes in the pool.
	PoolStrategy
	// PoolProcessesStrategy assigns the entire loop to a single process.
	PoolProcessesStrategy
)

// ProcessGroup is a contiguous slice of pool ranks that work together
// as one unit under GroupsStrategy/GroupProcessesStrategy.
type ProcessGroup struct {
	PoolRanks []int
}

// Leader returns the pool rank that leads this group (always its first member).
func (g ProcessGroup) Leader() int {
	if len(g.PoolRanks) == 0 {
		return -1
	}
	return g.PoolRanks[0]
}

func (g ProcessGroup) size() int { return len(g.PoolRanks) }

// ProcessPool is a named set of processes cooperating on one parallel
// task, with three nested communicators (group, group-leaders, pool).
type ProcessPool struct {
	name             string
	worldRanks       []int
	poolRank         int
	groupIndex       int
	groupRank        int
	groups           []ProcessGroup
	groupLeaders     []int
	maxProcessGroups int
	groupsModifiable bool
}

// New constructs an empty, unconfigured ProcessPool.
func New() *ProcessPool {
	return &ProcessPool{groupsModifiable: true}
}

// IsWorldMaster reports whether this process is world rank 0.
func IsWorldMaster() bool {
	if !mpi.IsOn() {
		return true
	}
	return mpi.Rank() == 0
}

// NWorldProcesses returns the total number of launched processes.
func NWorldProcesses() int {
	if !mpi.IsOn() {
		return 1
	}
	return mpi.Size()
}

// WorldRank returns this process's rank in MPI_COMM_WORLD.
func WorldRank() int {
	if !mpi.IsOn() {
		return 0
	}
	return mpi.Rank()
}

// SetUp assigns this process a place in the pool, given the explicit
// list of world ranks that participate. It fails with a SetupError if
// the local rank is absent from worldRanks on a process that expects
// to participate.
func (p *ProcessPool) SetUp(name string, worldRanks []int) error {
	p.name = name
	p.worldRanks = append([]int(nil), worldRanks...)
	p.poolRank = -1
	for i, r := range worldRanks {
		if r == WorldRank() {
			p.poolRank = i
			break
		}
	}
	if p.poolRank == -1 {
		return dserr.New(dserr.Setup, "ProcessPool.SetUp", "local world rank %d not present in pool %q", WorldRank(), name)
	}
	// Until grouped, every process is its own group and its own leader.
	p.groups = []ProcessGroup{{PoolRanks: append([]int(nil), indices(len(worldRanks))...)}}
	p.groupLeaders = []int{0}
	p.groupIndex = 0
	p.groupRank = p.poolRank
	p.maxProcessGroups = 1
	return nil
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Name returns the pool's name.
func (p *ProcessPool) Name() string { return p.name }

// NProcesses returns the total number of processes in the pool.
func (p *ProcessPool) NProcesses() int { return len(p.worldRanks) }

// RootWorldRank returns the world rank of pool rank 0.
func (p *ProcessPool) RootWorldRank() int {
	if len(p.worldRanks) == 0 {
		return -1
	}
	return p.worldRanks[0]
}

// PoolRank returns this process's rank within the pool.
func (p *ProcessPool) PoolRank() int { return p.poolRank }

// GroupIndex returns the index of the group this process belongs to.
func (p *ProcessPool) GroupIndex() int { return p.groupIndex }

// GroupRank returns this process's rank within its own group.
func (p *ProcessPool) GroupRank() int { return p.groupRank }

// GroupLeader reports whether this process leads its group.
func (p *ProcessPool) GroupLeader() bool { return p.groupRank == 0 }

// InvolvesMe reports whether this pool involves the calling process.
func (p *ProcessPool) InvolvesMe() bool { return p.poolRank != -1 }

// IsMe reports whether poolIndex identifies this process.
func (p *ProcessPool) IsMe(poolIndex int) bool { return poolIndex == p.poolRank }

// IsMaster reports whether this process leads the given communicator scope.
func (p *ProcessPool) IsMaster(commType CommunicatorType) bool {
	switch commType {
	case GroupProcessesCommunicator:
		return p.GroupLeader()
	case GroupLeadersCommunicator:
		return p.GroupLeader() && p.groupIndex == 0
	default:
		return p.poolRank == 0
	}
}

// AssignProcessesToGroups partitions the pool into at most maxGroups
// contiguous groups, each of which elects its leader (local rank 0).
// It fails with an InternalError if two workers would claim leadership
// of the same group.
func (p *ProcessPool) AssignProcessesToGroups(maxGroups int) error {
	if !p.groupsModifiable {
		return dserr.New(dserr.Internal, "ProcessPool.AssignProcessesToGroups", "group data is fixed and cannot be modified")
	}
	if maxGroups < 1 {
		maxGroups = 1
	}
	n := len(p.worldRanks)
	nGroups := maxGroups
	if nGroups > n {
		nGroups = n
	}
	base := n / nGroups
	rem := n % nGroups
	groups := make([]ProcessGroup, 0, nGroups)
	leaders := make(map[int]bool)
	start := 0
	for g := 0; g < nGroups; g++ {
		size := base
		if g < rem {
			size++
		}
		ranks := indices(size)
		for i := range ranks {
			ranks[i] = start + i
		}
		if len(ranks) == 0 {
			return dserr.New(dserr.Internal, "ProcessPool.AssignProcessesToGroups", "group %d has no processes", g)
		}
		leader := ranks[0]
		if leaders[leader] {
			return dserr.New(dserr.Internal, "ProcessPool.AssignProcessesToGroups", "rank %d claimed as leader of more than one group", leader)
		}
		leaders[leader] = true
		groups = append(groups, ProcessGroup{PoolRanks: ranks})
		start += size
	}
	p.groups = groups
	p.maxProcessGroups = nGroups
	p.groupLeaders = p.groupLeaders[:0]
	for _, g := range groups {
		p.groupLeaders = append(p.groupLeaders, g.Leader())
	}
	for gi, g := range groups {
		for ri, rank := range g.PoolRanks {
			if rank == p.poolRank {
				p.groupIndex = gi
				p.groupRank = ri
			}
		}
	}
	return nil
}

// NProcessGroups returns the number of process groups currently defined.
func (p *ProcessPool) NProcessGroups() int { return len(p.groups) }

// ProcessGroupAt returns the nth process group.
func (p *ProcessPool) ProcessGroupAt(n int) ProcessGroup { return p.groups[n] }

// NProcessesInGroup returns the number of processes in the given group.
func (p *ProcessPool) NProcessesInGroup(groupID int) int { return p.groups[groupID].size() }

// GroupsModifiable reports whether group assignment can still change.
func (p *ProcessPool) GroupsModifiable() bool { return p.groupsModifiable }

// SetGroupsFixed prevents further modification of group data.
func (p *ProcessPool) SetGroupsFixed() { p.groupsModifiable = false }

// MaxProcessGroups returns the maximum number of simultaneous groups.
func (p *ProcessPool) MaxProcessGroups() int { return p.maxProcessGroups }

func (p *ProcessPool) String() string {
	return fmt.Sprintf("pool %q: %d processes in %d groups (this=%d/%d)", p.name, p.NProcesses(), p.NProcessGroups(), p.poolRank, p.groupIndex)
}
