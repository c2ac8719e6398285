package histogram

import (
	"bytes"
	"encoding/gob"

	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

// axis1D is the shared min/max/width/centres bookkeeping Histogram2D
// and Histogram3D each carry one of per dimension.
type axis1D struct {
	minimum, maximum, binWidth float64
	centres                    []float64
}

func newAxis(xMin, xMax, binWidth float64) axis1D {
	nBins := int((xMax - xMin) / binWidth)
	if xMin+float64(nBins)*binWidth < xMax {
		nBins++
	}
	centres := make([]float64, nBins)
	c := xMin + 0.5*binWidth
	for i := range centres {
		centres[i] = c
		c += binWidth
	}
	return axis1D{minimum: xMin, maximum: xMin + float64(nBins)*binWidth, binWidth: binWidth, centres: centres}
}

func (a axis1D) nBins() int { return len(a.centres) }

func (a axis1D) binOf(x float64) (int, bool) {
	bin := int((x - a.minimum) / a.binWidth)
	if x < a.minimum || bin < 0 || bin >= len(a.centres) {
		return 0, false
	}
	return bin, true
}

// Histogram2D bins pairs of scalars into a flat row-major grid of
// xBins*yBins counts, the two-dimensional counterpart of Histogram1D
// (used for angle/distance maps and other joint distributions).
type Histogram2D struct {
	x, y             axis1D
	bins             []int64
	averages         []float64
	nAccumulations   int64
	nBinned, nMissed int64
}

// NewHistogram2D sets up a histogram over [xMin,xMax)x[yMin,yMax).
func NewHistogram2D(xMin, xMax, xBinWidth, yMin, yMax, yBinWidth float64) *Histogram2D {
	h := &Histogram2D{x: newAxis(xMin, xMax, xBinWidth), y: newAxis(yMin, yMax, yBinWidth)}
	h.bins = make([]int64, h.x.nBins()*h.y.nBins())
	h.averages = make([]float64, len(h.bins))
	return h
}

func (h *Histogram2D) index(xi, yi int) int { return xi*h.y.nBins() + yi }

// NXBins and NYBins report the per-axis bin counts.
func (h *Histogram2D) NXBins() int { return h.x.nBins() }
func (h *Histogram2D) NYBins() int { return h.y.nBins() }

// ZeroBins clears bin counts for a fresh sampling cycle.
func (h *Histogram2D) ZeroBins() {
	for i := range h.bins {
		h.bins[i] = 0
	}
	h.nBinned, h.nMissed = 0, 0
}

// Bin records (x, y), returning false if either coordinate is out of range.
func (h *Histogram2D) Bin(x, y float64) bool {
	xi, ok := h.x.binOf(x)
	if !ok {
		h.nMissed++
		return false
	}
	yi, ok := h.y.binOf(y)
	if !ok {
		h.nMissed++
		return false
	}
	h.bins[h.index(xi, yi)]++
	h.nBinned++
	return true
}

// NBinned and NMissed report in/out-of-range counts since ZeroBins.
func (h *Histogram2D) NBinned() int64 { return h.nBinned }
func (h *Histogram2D) NMissed() int64 { return h.nMissed }

// Accumulate folds the current cycle's counts into the running mean.
func (h *Histogram2D) Accumulate() {
	h.nAccumulations++
	for i := range h.bins {
		h.averages[i] += float64(h.bins[i])
	}
}

// AccumulatedValue returns the running mean count at (xi, yi).
func (h *Histogram2D) AccumulatedValue(xi, yi int) float64 {
	n := h.nAccumulations
	if n == 0 {
		n = 1
	}
	return h.averages[h.index(xi, yi)] / float64(n)
}

// Add folds factor*other's raw bin counts into this histogram.
func (h *Histogram2D) Add(other *Histogram2D, factor int64) {
	if len(h.bins) != len(other.bins) {
		return
	}
	for i := range h.bins {
		h.bins[i] += other.bins[i] * factor
	}
}

// AllSum reduces this cycle's bin counts across every pool participant.
func (h *Histogram2D) AllSum(procPool *pool.ProcessPool, commType pool.CommunicatorType) error {
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

// axisWire and the two histogramNDWire types mirror the unexported
// axis1D/Histogram2D/Histogram3D layouts in exported form, for the
// same reason histogram1DWire exists: gob only walks exported fields.
type axisWire struct {
	Minimum, Maximum, BinWidth float64
	Centres                    []float64
}

func (a axis1D) wire() axisWire {
	return axisWire{Minimum: a.minimum, Maximum: a.maximum, BinWidth: a.binWidth, Centres: a.centres}
}

func (w axisWire) axis() axis1D {
	return axis1D{minimum: w.Minimum, maximum: w.Maximum, binWidth: w.BinWidth, centres: w.Centres}
}

type histogram2DWire struct {
	X, Y             axisWire
	Bins             []int64
	Averages         []float64
	NAccumulations   int64
	NBinned, NMissed int64
}

// GobEncode lets a Histogram2D be archived directly by restart.Archive.
func (h *Histogram2D) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	w := histogram2DWire{
		X: h.x.wire(), Y: h.y.wire(), Bins: h.bins, Averages: h.averages,
		NAccumulations: h.nAccumulations, NBinned: h.nBinned, NMissed: h.nMissed,
	}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode is GobEncode's inverse.
func (h *Histogram2D) GobDecode(data []byte) error {
	var w histogram2DWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	h.x, h.y = w.X.axis(), w.Y.axis()
	h.bins, h.averages = w.Bins, w.Averages
	h.nAccumulations, h.nBinned, h.nMissed = w.NAccumulations, w.NBinned, w.NMissed
	return nil
}

// Histogram3D is the three-dimensional counterpart, flattened
// row-major over (x, y, z).
type Histogram3D struct {
	x, y, z          axis1D
	bins             []int64
	nBinned, nMissed int64
}

// NewHistogram3D sets up a histogram over the three given axis ranges.
func NewHistogram3D(xMin, xMax, xBinWidth, yMin, yMax, yBinWidth, zMin, zMax, zBinWidth float64) *Histogram3D {
	h := &Histogram3D{
		x: newAxis(xMin, xMax, xBinWidth),
		y: newAxis(yMin, yMax, yBinWidth),
		z: newAxis(zMin, zMax, zBinWidth),
	}
	h.bins = make([]int64, h.x.nBins()*h.y.nBins()*h.z.nBins())
	return h
}

func (h *Histogram3D) index(xi, yi, zi int) int {
	return (xi*h.y.nBins()+yi)*h.z.nBins() + zi
}

// NXBins, NYBins and NZBins report the per-axis bin counts.
func (h *Histogram3D) NXBins() int { return h.x.nBins() }
func (h *Histogram3D) NYBins() int { return h.y.nBins() }
func (h *Histogram3D) NZBins() int { return h.z.nBins() }

// ZeroBins clears bin counts for a fresh sampling cycle.
func (h *Histogram3D) ZeroBins() {
	for i := range h.bins {
		h.bins[i] = 0
	}
	h.nBinned, h.nMissed = 0, 0
}

// Bin records (x, y, z), returning false if any coordinate is out of range.
func (h *Histogram3D) Bin(x, y, z float64) bool {
	xi, ok := h.x.binOf(x)
	if !ok {
		h.nMissed++
		return false
	}
	yi, ok := h.y.binOf(y)
	if !ok {
		h.nMissed++
		return false
	}
	zi, ok := h.z.binOf(z)
	if !ok {
		h.nMissed++
		return false
	}
	h.bins[h.index(xi, yi, zi)]++
	h.nBinned++
	return true
}

// NBinned and NMissed report in/out-of-range counts since ZeroBins.
func (h *Histogram3D) NBinned() int64 { return h.nBinned }
func (h *Histogram3D) NMissed() int64 { return h.nMissed }

// AllSum reduces this cycle's bin counts across every pool participant.
func (h *Histogram3D) AllSum(procPool *pool.ProcessPool, commType pool.CommunicatorType) error {
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

type histogram3DWire struct {
	X, Y, Z          axisWire
	Bins             []int64
	NBinned, NMissed int64
}

// GobEncode lets a Histogram3D be archived directly by restart.Archive.
func (h *Histogram3D) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	w := histogram3DWire{X: h.x.wire(), Y: h.y.wire(), Z: h.z.wire(), Bins: h.bins, NBinned: h.nBinned, NMissed: h.nMissed}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode is GobEncode's inverse.
func (h *Histogram3D) GobDecode(data []byte) error {
	var w histogram3DWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	h.x, h.y, h.z = w.X.axis(), w.Y.axis(), w.Z.axis()
	h.bins, h.nBinned, h.nMissed = w.Bins, w.NBinned, w.NMissed
	return nil
}
