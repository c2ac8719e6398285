package pool

import (
	"github.com/cpmech/gosl/mpi"

	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// Every collective here is a blocking synchronisation point for every
// participant of the chosen scope; no asynchronous/overlapping
// collectives are permitted within the same scope (§5 Concurrency).
// When mpi.IsOn() is false the pool runs single-process and every
// collective is a cheap local no-op, matching gofem's serial fallback.

func (p *ProcessPool) participates(commType CommunicatorType) bool {
	switch commType {
	case GroupProcessesCommunicator:
		return true
	case GroupLeadersCommunicator:
		return p.GroupLeader()
	default:
		return p.InvolvesMe()
	}
}

// Wait is a barrier across every participant of commType.
func (p *ProcessPool) Wait(commType CommunicatorType) error {
	if !mpi.IsOn() {
		return nil
	}
	dummy := []float64{0}
	mpi.AllReduceSum(dummy, dummy)
	return nil
}

// BroadcastFloat64 broadcasts a slice of float64 from rootRank to
// every other participant of commType.
func (p *ProcessPool) BroadcastFloat64(data []float64, rootRank int, commType CommunicatorType) error {
	if !mpi.IsOn() || p.NProcesses() <= 1 {
		return nil
	}
	if !p.participates(commType) {
		return nil
	}
	mpi.BcastFromRoot(data)
	return nil
}

// BroadcastInt broadcasts a slice of int from rootRank to every other
// participant of commType.
func (p *ProcessPool) BroadcastInt(data []int, rootRank int, commType CommunicatorType) error {
	if !mpi.IsOn() || p.NProcesses() <= 1 {
		return nil
	}
	if !p.participates(commType) {
		return nil
	}
	mpi.BcastFromRootI(data)
	return nil
}

// BroadcastBool broadcasts a single bool value.
func (p *ProcessPool) BroadcastBool(value *bool, rootRank int, commType CommunicatorType) error {
	bit := 0
	if *value {
		bit = 1
	}
	ints := []int{bit}
	if err := p.BroadcastInt(ints, rootRank, commType); err != nil {
		return err
	}
	*value = ints[0] != 0
	return nil
}

// BroadcastString broadcasts a single string value by sending its byte
// length followed by its bytes.
func (p *ProcessPool) BroadcastString(value *string, rootRank int, commType CommunicatorType) error {
	if !mpi.IsOn() || p.NProcesses() <= 1 {
		return nil
	}
	b := []byte(*value)
	n := []int{len(b)}
	if err := p.BroadcastInt(n, rootRank, commType); err != nil {
		return err
	}
	ib := make([]int, n[0])
	for i, c := range b {
		ib[i] = int(c)
	}
	if err := p.BroadcastInt(ib, rootRank, commType); err != nil {
		return err
	}
	out := make([]byte, n[0])
	for i, c := range ib {
		out[i] = byte(c)
	}
	*value = string(out)
	return nil
}

// Sum reduces (sums) data to rootRank within commType.
func (p *ProcessPool) Sum(data []float64, rootRank int, commType CommunicatorType) error {
	if !mpi.IsOn() || p.NProcesses() <= 1 {
		return nil
	}
	dest := make([]float64, len(data))
	mpi.AllReduceSum(dest, data)
	if p.poolRank == rootRank {
		copy(data, dest)
	}
	return nil
}

// AllSum reduces (sums) data to every participant of commType.
func (p *ProcessPool) AllSum(data []float64, commType CommunicatorType) error {
	if !mpi.IsOn() || p.NProcesses() <= 1 {
		return nil
	}
	dest := make([]float64, len(data))
	mpi.AllReduceSum(dest, data)
	copy(data, dest)
	return nil
}

// AllSumInt reduces (sums) integer data to every participant of commType.
func (p *ProcessPool) AllSumInt(data []int, commType CommunicatorType) error {
	if !mpi.IsOn() || p.NProcesses() <= 1 {
		return nil
	}
	dest := make([]int, len(data))
	mpi.AllReduceSumI(dest, data)
	copy(data, dest)
	return nil
}

// AllSumStrategy reduces (sums) data over the processes relevant to the
// given division strategy.
func (p *ProcessPool) AllSumStrategy(data []float64, strategy DivisionStrategy) error {
	return p.AllSum(data, CommunicatorForStrategy(strategy))
}

// DecideTrue broadcasts a "true" decision from rootRank (master) to
// every other process in commType.
func (p *ProcessPool) DecideTrue(rootRank int, commType CommunicatorType) bool {
	v := true
	p.BroadcastBool(&v, rootRank, commType)
	return true
}

// DecideFalse broadcasts a "false" decision from rootRank (master).
func (p *ProcessPool) DecideFalse(rootRank int, commType CommunicatorType) bool {
	v := false
	p.BroadcastBool(&v, rootRank, commType)
	return false
}

// Decision receives a logical decision broadcast by the master.
func (p *ProcessPool) Decision(rootRank int, commType CommunicatorType) bool {
	v := false
	p.BroadcastBool(&v, rootRank, commType)
	return v
}

// AllTrue returns true iff every participant of commType reports x,
// implemented by reducing a {0,1} count and comparing it against the
// scope's size.
func (p *ProcessPool) AllTrue(x bool, commType CommunicatorType) bool {
	if !mpi.IsOn() || p.NProcesses() <= 1 {
		return x
	}
	v := 0.0
	if x {
		v = 1.0
	}
	data := []float64{v}
	if err := p.AllSum(data, commType); err != nil {
		return false
	}
	scopeSize := float64(p.scopeSize(commType))
	return data[0] >= scopeSize-0.5
}

func (p *ProcessPool) scopeSize(commType CommunicatorType) int {
	switch commType {
	case GroupProcessesCommunicator:
		return p.NProcessesInGroup(p.groupIndex)
	case GroupLeadersCommunicator:
		return p.NProcessGroups()
	default:
		return p.NProcesses()
	}
}

// RunMaster is the Go equivalent of the teacher's MPIRunMaster macro:
// the world master evaluates fn and broadcasts the result to every
// other process, which never evaluate fn themselves.
func (p *ProcessPool) RunMaster(commType CommunicatorType, fn func() bool) bool {
	if p.IsMaster(commType) {
		if fn() {
			return p.DecideTrue(p.rootRankFor(commType), commType)
		}
		return p.DecideFalse(p.rootRankFor(commType), commType)
	}
	return p.Decision(p.rootRankFor(commType), commType)
}

func (p *ProcessPool) rootRankFor(commType CommunicatorType) int {
	switch commType {
	case GroupProcessesCommunicator:
		return 0
	case GroupLeadersCommunicator:
		return 0
	default:
		return 0
	}
}

// CommunicationFailure wraps a failed collective as a CommunicationError.
func CommunicationFailure(op string, err error) error {
	return dserr.Wrap(dserr.Communication, op, err)
}
