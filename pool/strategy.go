package pool

// SubDivisionStrategy returns the sub-strategy to use for a second,
// nested loop when the outer loop already uses strategy.
func SubDivisionStrategy(strategy DivisionStrategy) DivisionStrategy {
	switch strategy {
	case GroupsStrategy:
		return GroupProcessesStrategy
	default:
		return PoolProcessesStrategy
	}
}

// StrategyNDivisions returns the number of divisions ("size") for the
// given strategy.
func (p *ProcessPool) StrategyNDivisions(strategy DivisionStrategy) int {
	switch strategy {
	case GroupsStrategy:
		return p.NProcessGroups()
	case GroupProcessesStrategy:
		return p.NProcessesInGroup(p.groupIndex)
	case PoolStrategy:
		return p.NProcesses()
	default:
		return 1
	}
}

// StrategyProcessIndex returns this process's index within the given strategy.
func (p *ProcessPool) StrategyProcessIndex(strategy DivisionStrategy) int {
	switch strategy {
	case GroupsStrategy:
		return p.groupIndex
	case GroupProcessesStrategy:
		return p.groupRank
	case PoolStrategy:
		return p.poolRank
	default:
		return 0
	}
}

// BestStrategy returns GroupsStrategy when the pool strictly exceeds
// its maximum number of process groups, else PoolStrategy — i.e. use
// whichever level of parallelism actually divides the work.
func (p *ProcessPool) BestStrategy() DivisionStrategy {
	if p.NProcesses() > p.MaxProcessGroups() {
		return GroupsStrategy
	}
	return PoolStrategy
}

// InterleavedLoopStart returns the starting index for an interleaved
// loop using the given strategy.
func (p *ProcessPool) InterleavedLoopStart(strategy DivisionStrategy) int {
	return p.StrategyProcessIndex(strategy)
}

// InterleavedLoopStride returns the stride for an interleaved loop
// using the given strategy.
func (p *ProcessPool) InterleavedLoopStride(strategy DivisionStrategy) int {
	n := p.StrategyNDivisions(strategy)
	if n < 1 {
		return 1
	}
	return n
}

// TwoBodyLoopStart returns the starting outer-loop index for a
// two-body interaction calculation where only the upper half (i >= j)
// is required, divided according to the given strategy.
func (p *ProcessPool) TwoBodyLoopStart(nItems int, strategy DivisionStrategy) int {
	return p.InterleavedLoopStart(strategy)
}

// TwoBodyLoopEnd returns the ending outer-loop index (exclusive) for a
// two-body interaction calculation.
func (p *ProcessPool) TwoBodyLoopEnd(nItems int, strategy DivisionStrategy) int {
	return nItems
}

// CommunicatorForStrategy maps a division strategy onto the
// communicator scope that should be used for decisions/randomness
// taken while dividing work that way.
func CommunicatorForStrategy(strategy DivisionStrategy) CommunicatorType {
	switch strategy {
	case GroupsStrategy:
		return GroupLeadersCommunicator
	case GroupProcessesStrategy:
		return GroupProcessesCommunicator
	case PoolStrategy:
		return PoolProcessesCommunicator
	default:
		return NoCommunicator
	}
}
