package histogram

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
)

// separation returns the minimum-image distance between atoms i and j.
func separation(cfg *config.Configuration, i, j int) float64 {
	ri, rj := cfg.Atoms[i].Position, cfg.Atoms[j].Position
	if cfg.Box != nil {
		return cfg.Box.MinimumImageDistance(ri, rj)
	}
	d := [3]float64{rj[0] - ri[0], rj[1] - ri[1], rj[2] - ri[2]}
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

// isBoundPair reports whether atoms i and j belong to the same
// molecule and are connected through that species' bonded topology —
// the classification BinPair uses to route a sample into the bound or
// unbound histogram for its type pair.
func isBoundPair(cfg *config.Configuration, i, j int) bool {
	ai, aj := &cfg.Atoms[i], &cfg.Atoms[j]
	if ai.MoleculeIndex != aj.MoleculeIndex {
		return false
	}
	mol := cfg.Molecules[ai.MoleculeIndex]
	sp := cfg.Species[mol.SpeciesName]
	return sp.IntramolecularBonded(ai.LocalIndex, aj.LocalIndex)
}

func (p *PartialSet) binCell(cfg *config.Configuration, cellID int) {
	atoms := cfg.Cells.CellAt(cellID).Atoms
	for a := 0; a < len(atoms); a++ {
		for b := a + 1; b < len(atoms); b++ {
			i, j := atoms[a], atoms[b]
			r := separation(cfg, i, j)
			if r >= p.rdfRange {
				continue
			}
			p.BinPair(cfg.Atoms[i].TypeIndex, cfg.Atoms[j].TypeIndex, r, isBoundPair(cfg, i, j))
		}
	}
}

func (p *PartialSet) binCellToCell(cfg *config.Configuration, cellA, cellB int) {
	atomsA := cfg.Cells.CellAt(cellA).Atoms
	atomsB := cfg.Cells.CellAt(cellB).Atoms
	for _, i := range atomsA {
		for _, j := range atomsB {
			r := separation(cfg, i, j)
			if r >= p.rdfRange {
				continue
			}
			p.BinPair(cfg.Atoms[i].TypeIndex, cfg.Atoms[j].TypeIndex, r, isBoundPair(cfg, i, j))
		}
	}
}

// ComputeGR builds a PartialSet for cfg: bins every atom pair within
// rdfRange (walking the configuration's cell array exactly as
// EnergyKernel.TotalPairPotentialEnergy does, dividing the unique
// cell-pair list over procPool when parallel), accumulates, and forms
// the normalised g(r) partials and total. Mirrors the original RDF
// module's calculateGRCells + formPartials pipeline.
func ComputeGR(cfg *config.Configuration, procPool *pool.ProcessPool, rdfRange, binWidth float64) (*PartialSet, error) {
	p := NewPartialSet(cfg.Types, rdfRange, binWidth)

	pairs := cfg.Cells.NeighbourPairs()
	start, stride := 0, 1
	if procPool != nil {
		strategy := procPool.BestStrategy()
		start = procPool.InterleavedLoopStart(strategy)
		stride = procPool.InterleavedLoopStride(strategy)
	}
	for idx := start; idx < len(pairs); idx += stride {
		pr := pairs[idx]
		if pr.MasterID == pr.NeighbourID {
			p.binCell(cfg, pr.MasterID)
		} else {
			p.binCellToCell(cfg, pr.MasterID, pr.NeighbourID)
		}
	}

	if procPool != nil {
		strategy := procPool.BestStrategy()
		if err := p.AllSum(procPool, pool.CommunicatorForStrategy(strategy)); err != nil {
			return nil, err
		}
	}

	p.AccumulateHistograms()
	p.FormPartials(cfg)
	p.FormTotal(cfg, true)
	p.SetFingerprint(fingerprintFor(cfg))
	return p, nil
}

// fingerprintFor derives a cheap staleness tag from the configuration's
// own content-version counter, so a cached PartialSet can be compared
// against a configuration's current state without recomputing it.
func fingerprintFor(cfg *config.Configuration) string {
	return "v" + itoa(cfg.ContentsVersion())
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
