package prng

import "testing"

func TestRandomIsWithinUnitInterval(t *testing.T) {
	b := NewForCommunicator(nil, 0, 42)
	for i := 0; i < BufferSize*2+17; i++ {
		v := b.Random()
		if v < 0 || v >= 1 {
			t.Fatalf("Random() = %v, want [0,1)", v)
		}
	}
}

func TestRandomPlusMinusOneRange(t *testing.T) {
	b := NewForCommunicator(nil, 0, 7)
	for i := 0; i < 1000; i++ {
		v := b.RandomPlusMinusOne()
		if v < -1 || v >= 1 {
			t.Fatalf("RandomPlusMinusOne() = %v, want [-1,1)", v)
		}
	}
}

func TestRandomIntBounds(t *testing.T) {
	b := NewForCommunicator(nil, 0, 99)
	for i := 0; i < 1000; i++ {
		v := b.RandomInt(5)
		if v < 0 || v >= 5 {
			t.Fatalf("RandomInt(5) = %d, out of range", v)
		}
	}
}

func TestRefillAdvancesPastBufferEnd(t *testing.T) {
	b := NewForCommunicator(nil, 0, 1)
	for i := 0; i < BufferSize; i++ {
		b.Random()
	}
	if b.index != BufferSize {
		t.Fatalf("index = %d before refill trigger, want %d", b.index, BufferSize)
	}
	// One more draw must trigger a silent refill rather than panic.
	_ = b.Random()
	if b.index != 1 {
		t.Fatalf("index after refill+draw = %d, want 1", b.index)
	}
}
