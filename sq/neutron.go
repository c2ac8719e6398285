package sq

import (
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
)

// boundCoherentLengths holds standard bound coherent neutron
// scattering lengths (femtometres) for natural-abundance elements.
// neutronweights.h declares the weight(i,j) = c_i c_j b_i b_j (2-δij)
// formula but the isotope data table it draws b from is not present
// in this retrieval, so these are the published Sears (1992) natural-
// abundance values, not a transcription of anything in the pack.
var boundCoherentLengths = map[string]float64{
	"H":  -3.7390,
	"D":  6.6710,
	"C":  6.6460,
	"N":  9.3600,
	"O":  5.8030,
	"SI": 4.1491,
	"CL": 9.5770,
	"NA": 3.6300,
}

// LookupScatteringLength returns the bound coherent scattering length
// for symbol (case insensitive) and whether it was found.
func LookupScatteringLength(symbol string) (float64, bool) {
	b, ok := boundCoherentLengths[upperSymbol(symbol)]
	return b, ok
}

// typeConcentrations returns each atom type's overall atomic fraction
// in cfg, indexed the same way as cfg's AtomTypeMix.
func typeConcentrations(cfg *config.Configuration, n int) []float64 {
	counts := make([]float64, n)
	for i := range cfg.Atoms {
		t := cfg.Atoms[i].TypeIndex
		if t >= 0 && t < n {
			counts[t]++
		}
	}
	total := float64(len(cfg.Atoms))
	if total == 0 {
		return counts
	}
	for i := range counts {
		counts[i] /= total
	}
	return counts
}

// NeutronWeightedSQ forms the neutron-weighted total structure factor
// F(Q) = Σ_{i<=j} c_i c_j b_i b_j (2-δij) S_ij(Q), matching
// NeutronWeights::weight and the formula spec.md §4.10 gives for F(Q).
// Types missing from the scattering-length table contribute zero
// weight rather than erroring, so a partially-characterised system
// still produces a (incomplete) total instead of refusing outright.
func NeutronWeightedSQ(set *SQSet, cfg *config.Configuration, types *config.AtomTypeMix) *dsio.Data1D {
	out := dsio.New("F(Q)//Neutron")

	n := types.N()
	length := make([]float64, n)
	for i := 0; i < n; i++ {
		length[i], _ = LookupScatteringLength(types.At(i).Name)
	}
	conc := typeConcentrations(cfg, n)

	for pair, sq := range set.Pairs {
		i, j := pair[0], pair[1]
		if out.X == nil {
			out.InitialiseLike(sq.Full)
		}
		factor := conc[i] * conc[j] * length[i] * length[j]
		if i != j {
			factor *= 2.0
		}
		for k := range out.Values {
			if k < len(sq.Full.Values) {
				out.Values[k] += factor * sq.Full.Values[k]
			}
		}
	}
	return out
}
