// Package histogram bins pairwise separations into one-dimensional
// count arrays and turns an accumulated set of them into normalised
// radial distribution functions, the same split of responsibility as
// the original engine's Histogram1D and PartialSet.
package histogram

import (
	"bytes"
	"encoding/gob"

	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

// Histogram1D bins samples of a single scalar quantity into
// fixed-width bins between a minimum and a (possibly bin-clamped)
// maximum, and separately accumulates per-bin running means across
// repeated bin()/accumulate() cycles.
type Histogram1D struct {
	minimum, maximum, binWidth float64
	binCentres                 []float64
	bins                       []int64
	averages                   []float64
	nAccumulations             int64
	nBinned, nMissed           int64
}

// NewHistogram1D returns a histogram initialised over [xMin, xMax)
// with the requested bin width, clamping the upper edge outward to
// the nearest whole bin boundary exactly as setUpAxis does.
func NewHistogram1D(xMin, xMax, binWidth float64) *Histogram1D {
	h := &Histogram1D{}
	h.Initialise(xMin, xMax, binWidth)
	return h
}

// Initialise (re)sets up the bin range, discarding any existing data.
func (h *Histogram1D) Initialise(xMin, xMax, binWidth float64) {
	h.minimum = xMin
	h.binWidth = binWidth
	nBins := int((xMax - xMin) / binWidth)
	if xMin+float64(nBins)*binWidth < xMax {
		nBins++
	}
	h.maximum = xMin + float64(nBins)*binWidth

	h.binCentres = make([]float64, nBins)
	centre := xMin + 0.5*binWidth
	for n := range h.binCentres {
		h.binCentres[n] = centre
		centre += binWidth
	}
	h.bins = make([]int64, nBins)
	h.averages = make([]float64, nBins)
	h.nAccumulations = 0
	h.nBinned, h.nMissed = 0, 0
}

// ZeroBins clears the bin counts (but not the accumulated averages)
// ready for a fresh sampling cycle.
func (h *Histogram1D) ZeroBins() {
	for i := range h.bins {
		h.bins[i] = 0
	}
	h.nBinned, h.nMissed = 0, 0
}

// Minimum, Maximum, BinWidth and NBins report the axis the histogram
// was initialised with.
func (h *Histogram1D) Minimum() float64 { return h.minimum }
func (h *Histogram1D) Maximum() float64 { return h.maximum }
func (h *Histogram1D) BinWidth() float64 { return h.binWidth }
func (h *Histogram1D) NBins() int        { return len(h.bins) }

// Bin records x, returning false (and incrementing the miss counter)
// if x falls outside [minimum, maximum).
func (h *Histogram1D) Bin(x float64) bool {
	bin := int((x - h.minimum) / h.binWidth)
	if x < h.minimum || bin < 0 || bin >= len(h.bins) {
		h.nMissed++
		return false
	}
	h.bins[bin]++
	h.nBinned++
	return true
}

// NBinned and NMissed report how many Bin calls landed in-range and
// out-of-range respectively, since the last ZeroBins.
func (h *Histogram1D) NBinned() int64 { return h.nBinned }
func (h *Histogram1D) NMissed() int64 { return h.nMissed }

// Bins exposes the raw per-bin counts for this cycle.
func (h *Histogram1D) Bins() []int64 { return h.bins }

// BinCentres exposes the fixed x-axis.
func (h *Histogram1D) BinCentres() []float64 { return h.binCentres }

// Accumulate folds the current cycle's bin counts into the running
// per-bin mean accumulator and bumps the accumulation count, the
// moving parts accumulatedData() later divides through by.
func (h *Histogram1D) Accumulate() {
	h.nAccumulations++
	for n := range h.bins {
		h.averages[n] += float64(h.bins[n])
	}
}

// AccumulatedData returns the per-bin mean count (summed bins divided
// by the number of accumulation cycles so far) as a Data1D, matching
// Histogram1D::accumulatedData().
func (h *Histogram1D) AccumulatedData() *dsio.Data1D {
	d := dsio.New("")
	d.Initialise(len(h.binCentres), false)
	copy(d.X, h.binCentres)
	n := h.nAccumulations
	if n == 0 {
		n = 1
	}
	for i, avg := range h.averages {
		d.Values[i] = avg / float64(n)
	}
	return d
}

// Add folds factor*other's raw bin counts into this histogram's bins;
// both must share the same number of bins.
func (h *Histogram1D) Add(other *Histogram1D, factor int64) {
	if len(h.bins) != len(other.bins) {
		return
	}
	for n := range h.bins {
		h.bins[n] += other.bins[n] * factor
	}
}

// histogram1DWire mirrors Histogram1D's fields in exported form, since
// gob.Encode only walks exported fields and the restart archive needs
// to carry a histogram's full binning state, not just its derived data.
type histogram1DWire struct {
	Minimum, Maximum, BinWidth float64
	BinCentres                 []float64
	Bins                       []int64
	Averages                   []float64
	NAccumulations             int64
	NBinned, NMissed           int64
}

// GobEncode lets a Histogram1D be archived directly by restart.Archive.
func (h *Histogram1D) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	w := histogram1DWire{
		Minimum: h.minimum, Maximum: h.maximum, BinWidth: h.binWidth,
		BinCentres: h.binCentres, Bins: h.bins, Averages: h.averages,
		NAccumulations: h.nAccumulations, NBinned: h.nBinned, NMissed: h.nMissed,
	}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode is GobEncode's inverse.
func (h *Histogram1D) GobDecode(data []byte) error {
	var w histogram1DWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	h.minimum, h.maximum, h.binWidth = w.Minimum, w.Maximum, w.BinWidth
	h.binCentres, h.bins, h.averages = w.BinCentres, w.Bins, w.Averages
	h.nAccumulations, h.nBinned, h.nMissed = w.NAccumulations, w.NBinned, w.NMissed
	return nil
}

// AllSum reduces this cycle's bin counts across every participant of
// commType, the integer-slice counterpart to ForceKernel's float
// reductions.
func (h *Histogram1D) AllSum(procPool *pool.ProcessPool, commType pool.CommunicatorType) error {
	if procPool == nil {
		return nil
	}
	counts := make([]int, len(h.bins))
	for i, b := range h.bins {
		counts[i] = int(b)
	}
	if err := procPool.AllSumInt(counts, commType); err != nil {
		return err
	}
	for i, c := range counts {
		h.bins[i] = int64(c)
	}
	return nil
}
