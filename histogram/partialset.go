package histogram

import (
	"bytes"
	"encoding/gob"
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

// PartialSet holds, for every unordered pair of atom types, a full, a
// bound and an unbound g(r) derived from accumulated Histogram1D
// samples, plus the weighted total over all pairs. Pair slots use the
// same packed upper-triangular index as AtomTypeMix.PairIndex, so a
// PartialSet naturally shares index space with PotentialMap and the
// scattering matrix.
type PartialSet struct {
	types *config.AtomTypeMix

	rdfRange, rdfBinWidth float64

	full, bound, unbound []*Histogram1D
	partials             []*dsio.Data1D
	boundPartials        []*dsio.Data1D
	unboundPartials      []*dsio.Data1D
	emptyBoundPartials   []bool

	total       *dsio.Data1D
	fingerprint string
}

// NewPartialSet sets up every histogram and Data1D slot for the given
// type mix, over [0, rdfRange) with the given bin width.
func NewPartialSet(types *config.AtomTypeMix, rdfRange, binWidth float64) *PartialSet {
	p := &PartialSet{types: types, fingerprint: "NO_FINGERPRINT"}
	p.setUpHistograms(rdfRange, binWidth)
	p.setUpPartials()
	return p
}

func (p *PartialSet) setUpHistograms(rdfRange, binWidth float64) {
	p.rdfRange, p.rdfBinWidth = rdfRange, binWidth
	n := p.types.NPairs()
	p.full = make([]*Histogram1D, n)
	p.bound = make([]*Histogram1D, n)
	p.unbound = make([]*Histogram1D, n)
	for i := range p.full {
		p.full[i] = NewHistogram1D(0, rdfRange, binWidth)
		p.bound[i] = NewHistogram1D(0, rdfRange, binWidth)
		p.unbound[i] = NewHistogram1D(0, rdfRange, binWidth)
	}
}

func (p *PartialSet) setUpPartials() {
	n := p.types.NPairs()
	p.partials = make([]*dsio.Data1D, n)
	p.boundPartials = make([]*dsio.Data1D, n)
	p.unboundPartials = make([]*dsio.Data1D, n)
	p.emptyBoundPartials = make([]bool, n)
	for i := 0; i < p.types.N(); i++ {
		for j := i; j < p.types.N(); j++ {
			slot := p.types.PairIndex(i, j)
			tag := p.types.At(i).Name + "-" + p.types.At(j).Name
			p.partials[slot] = dsio.New(tag + "//Full")
			p.boundPartials[slot] = dsio.New(tag + "//Bound")
			p.unboundPartials[slot] = dsio.New(tag + "//Unbound")
			p.emptyBoundPartials[slot] = true
		}
	}
	p.total = dsio.New("Total")
}

// RDFRange and RDFBinWidth report the histogram axis in force at setup.
func (p *PartialSet) RDFRange() float64    { return p.rdfRange }
func (p *PartialSet) RDFBinWidth() float64 { return p.rdfBinWidth }

// AtomTypes returns the type mix this set was built over.
func (p *PartialSet) AtomTypes() *config.AtomTypeMix { return p.types }

// Reset zeroes every histogram and partial ready for a fresh sampling
// pass, without discarding the arrays themselves.
func (p *PartialSet) Reset() {
	for i := range p.full {
		p.full[i].ZeroBins()
		p.bound[i].ZeroBins()
		p.unbound[i].ZeroBins()
	}
	for i := range p.partials {
		zeroValues(p.partials[i])
		zeroValues(p.boundPartials[i])
		zeroValues(p.unboundPartials[i])
		p.emptyBoundPartials[i] = true
	}
	zeroValues(p.total)
	p.fingerprint = "NO_FINGERPRINT"
}

func zeroValues(d *dsio.Data1D) {
	for i := range d.Values {
		d.Values[i] = 0
	}
}

// FullHistogram, BoundHistogram and UnboundHistogram return the
// writable histogram for pair (i, j), keyed by AtomTypeMix index.
func (p *PartialSet) FullHistogram(i, j int) *Histogram1D    { return p.full[p.types.PairIndex(i, j)] }
func (p *PartialSet) BoundHistogram(i, j int) *Histogram1D   { return p.bound[p.types.PairIndex(i, j)] }
func (p *PartialSet) UnboundHistogram(i, j int) *Histogram1D { return p.unbound[p.types.PairIndex(i, j)] }

// BinPair bins a single sampled separation r between an atom of type i
// and an atom of type j, into both the full histogram and, depending
// on bound, either the bound or unbound histogram for that pair.
func (p *PartialSet) BinPair(i, j int, r float64, bound bool) {
	slot := p.types.PairIndex(i, j)
	p.full[slot].Bin(r)
	if bound {
		p.bound[slot].Bin(r)
	} else {
		p.unbound[slot].Bin(r)
	}
}

// AccumulateHistograms folds the current sampling cycle into every
// histogram's running mean, the step formPartials then converts to
// g(r).
func (p *PartialSet) AccumulateHistograms() {
	for i := range p.full {
		p.full[i].Accumulate()
		p.bound[i].Accumulate()
		p.unbound[i].Accumulate()
	}
}

// Partial, BoundPartial and UnboundPartial return the derived g(r) for
// pair (i, j), valid after FormPartials.
func (p *PartialSet) Partial(i, j int) *dsio.Data1D {
	return p.partials[p.types.PairIndex(i, j)]
}
func (p *PartialSet) BoundPartial(i, j int) *dsio.Data1D {
	return p.boundPartials[p.types.PairIndex(i, j)]
}
func (p *PartialSet) UnboundPartial(i, j int) *dsio.Data1D {
	return p.unboundPartials[p.types.PairIndex(i, j)]
}

// IsBoundPartialEmpty reports whether pair (i, j) had zero samples in
// its bound histogram across every accumulation so far — the
// legitimate case of two types with no shared in-molecule bonded
// connectivity.
func (p *PartialSet) IsBoundPartialEmpty(i, j int) bool {
	return p.emptyBoundPartials[p.types.PairIndex(i, j)]
}

// Total returns the weighted sum over all pairs, valid after FormTotal.
func (p *PartialSet) Total() *dsio.Data1D { return p.total }

// calculateRDF converts a histogram's accumulated mean counts into
// g(r): N(r) / (nCentres * shellVolume(r) * numberDensity), scaled by
// multiplier (2.0 when i==j, since each same-type pair is only ever
// binned once but represents two directed contributions).
func calculateRDF(histogram *Histogram1D, boxVolume float64, nCentres, nSurrounding int, multiplier float64) *dsio.Data1D {
	accumulated := histogram.AccumulatedData()
	delta := histogram.BinWidth()
	numberDensity := float64(nSurrounding) / boxVolume

	dest := dsio.New("")
	dest.Initialise(len(accumulated.Values), false)

	lowerShellLimit := 0.0
	r := 0.5 * delta
	for n := range accumulated.Values {
		shellVolume := (4.0 / 3.0) * math.Pi * (cube(lowerShellLimit+delta) - cube(lowerShellLimit))
		factor := float64(nCentres) * (shellVolume * numberDensity)
		dest.X[n] = r
		if factor != 0 {
			dest.Values[n] = accumulated.Values[n] * (multiplier / factor)
		}
		r += delta
		lowerShellLimit += delta
	}
	return dest
}

func cube(x float64) float64 { return x * x * x }

// typePopulation counts how many atoms in cfg carry type index t.
func typePopulation(cfg *config.Configuration, t int) int {
	n := 0
	for i := range cfg.Atoms {
		if cfg.Atoms[i].TypeIndex == t {
			n++
		}
	}
	return n
}

// FormPartials converts every accumulated histogram into its g(r),
// using cfg's box volume and per-type atom populations, and records
// which bound partials turned out to have no samples at all.
func (p *PartialSet) FormPartials(cfg *config.Configuration) {
	boxVolume := cfg.Box.Volume()
	for i := 0; i < p.types.N(); i++ {
		for j := i; j < p.types.N(); j++ {
			slot := p.types.PairIndex(i, j)
			ni, nj := typePopulation(cfg, i), typePopulation(cfg, j)
			multiplier := 1.0
			if i == j {
				multiplier = 2.0
			}
			p.partials[slot] = calculateRDF(p.full[slot], boxVolume, ni, nj, multiplier)
			p.partials[slot].Tag = p.types.At(i).Name + "-" + p.types.At(j).Name + "//Full"
			p.boundPartials[slot] = calculateRDF(p.bound[slot], boxVolume, ni, nj, multiplier)
			p.boundPartials[slot].Tag = p.types.At(i).Name + "-" + p.types.At(j).Name + "//Bound"
			p.unboundPartials[slot] = calculateRDF(p.unbound[slot], boxVolume, ni, nj, multiplier)
			p.unboundPartials[slot].Tag = p.types.At(i).Name + "-" + p.types.At(j).Name + "//Unbound"
			p.emptyBoundPartials[slot] = p.bound[slot].NBinned() == 0
		}
	}
}

// concentration returns atom type t's overall atomic fraction in cfg.
func concentration(cfg *config.Configuration, t int) float64 {
	if len(cfg.Atoms) == 0 {
		return 0
	}
	return float64(typePopulation(cfg, t)) / float64(len(cfg.Atoms))
}

// FormTotal sums every pair partial (bound + unbound) into Total,
// weighting by c_i * c_j * (2 unless i==j) when applyConcentrationWeights
// is set, matching PartialSet::formTotal.
func (p *PartialSet) FormTotal(cfg *config.Configuration, applyConcentrationWeights bool) {
	if p.types.N() == 0 {
		p.total = dsio.New("Total")
		return
	}
	base := p.partials[p.types.PairIndex(0, 0)]
	p.total = dsio.New("Total")
	p.total.InitialiseLike(base)

	for i := 0; i < p.types.N(); i++ {
		for j := i; j < p.types.N(); j++ {
			factor := 1.0
			if applyConcentrationWeights {
				ci, cj := concentration(cfg, i), concentration(cfg, j)
				factor = ci * cj
				if i != j {
					factor *= 2.0
				}
			}
			part := p.partials[p.types.PairIndex(i, j)]
			for n := range p.total.Values {
				if n < len(part.Values) {
					p.total.Values[n] += part.Values[n] * factor
				}
			}
		}
	}
}

// AddPartials interpolates weight*source's partials onto this set's
// x-axis and adds them in, requiring every type in source to also be
// present in this set (by name).
func (p *PartialSet) AddPartials(source *PartialSet, weight float64) error {
	for si := 0; si < source.types.N(); si++ {
		li := p.types.IndexOf(source.types.At(si).Name)
		if li == -1 {
			return dserr.New(dserr.Setup, "PartialSet.AddPartials", "atom type %q not present in destination set", source.types.At(si).Name)
		}
		for sj := si; sj < source.types.N(); sj++ {
			lj := p.types.IndexOf(source.types.At(sj).Name)
			if lj == -1 {
				return dserr.New(dserr.Setup, "PartialSet.AddPartials", "atom type %q not present in destination set", source.types.At(sj).Name)
			}
			dsio.AddInterpolated(p.Partial(li, lj), source.Partial(si, sj), weight)
			dsio.AddInterpolated(p.BoundPartial(li, lj), source.BoundPartial(si, sj), weight)
			dsio.AddInterpolated(p.UnboundPartial(li, lj), source.UnboundPartial(si, sj), weight)
			if !source.IsBoundPartialEmpty(si, sj) {
				p.emptyBoundPartials[p.types.PairIndex(li, lj)] = false
			}
		}
	}
	dsio.AddInterpolated(p.total, source.total, weight)
	return nil
}

// SetFingerprint and Fingerprint record/retrieve the opaque version
// tag a consumer uses to decide whether a PartialSet is stale relative
// to the configuration it was computed from.
func (p *PartialSet) SetFingerprint(f string) { p.fingerprint = f }
func (p *PartialSet) Fingerprint() string     { return p.fingerprint }

// partialSetWire mirrors PartialSet's unexported fields other than
// types, which a restart archive's caller is expected to have already
// reconstructed (from the configuration the archive is keyed against)
// before calling GobDecode on it — the type mix isn't itself archived
// per-module, it belongs to the configuration.
type partialSetWire struct {
	RDFRange, RDFBinWidth float64
	Full, Bound, Unbound  []*Histogram1D
	Partials              []*dsio.Data1D
	BoundPartials         []*dsio.Data1D
	UnboundPartials       []*dsio.Data1D
	EmptyBoundPartials    []bool
	Total                 *dsio.Data1D
	Fingerprint           string
}

// GobEncode lets a PartialSet be archived directly by restart.Archive.
// The type mix it was built over is not encoded; GobDecode expects to
// be called on a PartialSet already constructed against the right mix.
func (p *PartialSet) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	w := partialSetWire{
		RDFRange: p.rdfRange, RDFBinWidth: p.rdfBinWidth,
		Full: p.full, Bound: p.bound, Unbound: p.unbound,
		Partials: p.partials, BoundPartials: p.boundPartials, UnboundPartials: p.unboundPartials,
		EmptyBoundPartials: p.emptyBoundPartials, Total: p.total, Fingerprint: p.fingerprint,
	}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode is GobEncode's inverse; it leaves p.types untouched.
func (p *PartialSet) GobDecode(data []byte) error {
	var w partialSetWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	p.rdfRange, p.rdfBinWidth = w.RDFRange, w.RDFBinWidth
	p.full, p.bound, p.unbound = w.Full, w.Bound, w.Unbound
	p.partials, p.boundPartials, p.unboundPartials = w.Partials, w.BoundPartials, w.UnboundPartials
	p.emptyBoundPartials, p.total, p.fingerprint = w.EmptyBoundPartials, w.Total, w.Fingerprint
	return nil
}

// AllSum reduces every histogram's bin counts across the process pool.
func (p *PartialSet) AllSum(procPool *pool.ProcessPool, commType pool.CommunicatorType) error {
	for i := range p.full {
		if err := p.full[i].AllSum(procPool, commType); err != nil {
			return err
		}
		if err := p.bound[i].AllSum(procPool, commType); err != nil {
			return err
		}
		if err := p.unbound[i].AllSum(procPool, commType); err != nil {
			return err
		}
	}
	return nil
}
