// Package prng implements the bulk random-number buffer shared by every
// stochastic module (Monte Carlo moves, MD velocity initialisation,
// distributor tie-breaking): a fixed-size array refilled by a single
// producer per communicator scope and broadcast to the rest of that
// scope, so that two workers deciding "the same" thing in the same
// parallel scope draw identical numbers.
package prng

import (
	"math/rand"

	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

// BufferSize is the number of doubles refilled per producer round.
const BufferSize = 16172

// RandomBuffer hands out uniform doubles from a buffer that is
// transparently refilled (and, in a multi-process pool, rebroadcast)
// whenever it is exhausted.
type RandomBuffer struct {
	procPool *pool.ProcessPool
	source   *rand.Rand
	commType pool.CommunicatorType
	buffer   [BufferSize]float64
	index    int
}

// NewForCommunicator constructs a RandomBuffer scoped to commType and
// fills it immediately.
func NewForCommunicator(procPool *pool.ProcessPool, commType pool.CommunicatorType, seed int64) *RandomBuffer {
	b := &RandomBuffer{
		procPool: procPool,
		source:   rand.New(rand.NewSource(seed)),
		commType: commType,
	}
	b.refill()
	return b
}

// NewForStrategy constructs a RandomBuffer scoped to the communicator
// implied by strategy.
func NewForStrategy(procPool *pool.ProcessPool, strategy pool.DivisionStrategy, seed int64) *RandomBuffer {
	return NewForCommunicator(procPool, pool.CommunicatorForStrategy(strategy), seed)
}

// ResetCommunicator rescopes the buffer to a new communicator and
// refills it.
func (b *RandomBuffer) ResetCommunicator(commType pool.CommunicatorType) {
	b.commType = commType
	b.refill()
}

// ResetStrategy rescopes the buffer to the communicator implied by
// strategy and refills it.
func (b *RandomBuffer) ResetStrategy(strategy pool.DivisionStrategy) {
	b.ResetCommunicator(pool.CommunicatorForStrategy(strategy))
}

// refill regenerates the buffer on the scope's producer and
// broadcasts it to every other participant: pool master for
// PoolProcessesCommunicator/GroupLeadersCommunicator, group leader for
// GroupProcessesCommunicator, or locally with no exchange at all for
// NoCommunicator.
func (b *RandomBuffer) refill() {
	b.index = 0
	if b.procPool == nil || b.procPool.NProcesses() <= 1 || b.commType == pool.NoCommunicator {
		b.fillLocal()
		return
	}
	if b.procPool.IsMaster(b.commType) {
		b.fillLocal()
	}
	b.procPool.BroadcastFloat64(b.buffer[:], 0, b.commType)
}

func (b *RandomBuffer) fillLocal() {
	for i := range b.buffer {
		b.buffer[i] = b.source.Float64()
	}
}

// Random returns the next buffered value in [0,1).
func (b *RandomBuffer) Random() float64 {
	if b.index == BufferSize {
		b.refill()
	}
	v := b.buffer[b.index]
	b.index++
	return v
}

// RandomPlusMinusOne returns the next buffered value mapped to [-1,1).
func (b *RandomBuffer) RandomPlusMinusOne() float64 {
	return (b.Random() - 0.5) * 2.0
}

// RandomInt returns a uniformly-distributed integer in [0,n).
func (b *RandomBuffer) RandomInt(n int) int {
	if n <= 0 {
		return 0
	}
	return int(b.Random() * float64(n))
}
