package histogram

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestHistogram1DBinClampsMaximumToNearestBinBoundary(t *testing.T) {
	h := NewHistogram1D(0, 1.0, 0.3)
	chk.IntAssert(h.NBins(), 4) // 0.3*4=1.2 is the first multiple >= 1.0
	chk.Scalar(t, "Maximum", 1e-12, h.Maximum(), 1.2)
}

func TestHistogram1DBinCountsInRangeAndMisses(t *testing.T) {
	h := NewHistogram1D(0, 10.0, 1.0)
	for _, x := range []float64{0.5, 1.5, 1.9, -1, 11, 9.99} {
		h.Bin(x)
	}
	chk.IntAssert(int(h.NBinned()), 4)
	chk.IntAssert(int(h.NMissed()), 2)
	chk.IntAssert(int(h.Bins()[1]), 2) // 1.5 and 1.9 both land there
}

func TestHistogram1DAccumulateAveragesAcrossCycles(t *testing.T) {
	h := NewHistogram1D(0, 5.0, 1.0)
	h.Bin(0.5)
	h.Bin(0.5)
	h.Accumulate()
	h.ZeroBins()
	h.Bin(0.5)
	h.Accumulate()

	data := h.AccumulatedData()
	chk.Scalar(t, "accumulated mean for bin 0", 1e-12, data.Values[0], 1.5) // (2+1)/2
}

func TestHistogram1DZeroBinsDoesNotResetAccumulatedAverages(t *testing.T) {
	h := NewHistogram1D(0, 5.0, 1.0)
	h.Bin(0.5)
	h.Accumulate()
	h.ZeroBins()
	chk.IntAssert(int(h.NBinned()), 0)
	if h.AccumulatedData().Values[0] == 0 {
		t.Fatal("ZeroBins should not have cleared the accumulated averages")
	}
}

func TestHistogram1DAdd(t *testing.T) {
	a := NewHistogram1D(0, 5.0, 1.0)
	b := NewHistogram1D(0, 5.0, 1.0)
	a.Bin(0.5)
	b.Bin(0.5)
	b.Bin(0.5)
	a.Add(b, 2)
	chk.IntAssert(int(a.Bins()[0]), 5) // 1 + 2*2
}
