// Package scattering builds the linear system AX = B relating
// weighted reference data to per-type-pair partial structure factors,
// and solves it for the partials via a pseudoinverse.
package scattering

import (
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/sq"
)

// row is one reference dataset's entry: its coefficient in each pair
// column, the dataset itself (already scaled by any applied factor),
// and, for X-ray data, the Q-dependent weighting to apply on top.
type row struct {
	coefficients []float64
	data         *dsio.Data1D
	isXRay       bool
	norm         sq.XRayNormalisation
}

// Matrix represents AX = B: a growable set of weighted reference-data
// rows (A's rows, B's entries) against the fixed column space of type
// pairs fixed at construction — pairIndex(i,j) is AtomTypeMix.PairIndex,
// so this shares index space with PartialSet and PotentialMap.
type Matrix struct {
	types *config.AtomTypeMix
	rows  []row
}

// New fixes the column index space from types.
func New(types *config.AtomTypeMix) *Matrix {
	return &Matrix{types: types}
}

// NPairs returns the number of columns (distinct type pairs).
func (m *Matrix) NPairs() int { return m.types.NPairs() }

// NRows returns the number of reference-data rows added so far.
func (m *Matrix) NRows() int { return len(m.rows) }

// UnderDetermined reports whether there are fewer rows than columns,
// the condition under which GeneratePartials would refuse to run.
func (m *Matrix) UnderDetermined() bool { return len(m.rows) < m.NPairs() }

// AddNeutronReferenceData appends a row whose coefficient at column
// pairIndex(i,j) is weight(i,j) = c_i*c_j*b_i*b_j*(2-δij) for every
// (i,j) present in usedTypes, scaled by factor; weightedData and
// factor are applied to the stored dataset as in the original's
// addReferenceData(Data1D, NeutronWeights, factor).
func (m *Matrix) AddNeutronReferenceData(weightedData *dsio.Data1D, cfg *config.Configuration, usedTypes []int, factor float64) error {
	if len(usedTypes) == 0 {
		return dserr.New(dserr.Setup, "Matrix.AddNeutronReferenceData", "reference data %q has no associated atom types", weightedData.Tag)
	}
	coeffs := make([]float64, m.NPairs())
	lengths := make([]float64, m.types.N())
	for _, t := range usedTypes {
		lengths[t], _ = sq.LookupScatteringLength(m.types.At(t).Name)
	}
	conc := typeConcentrations(cfg, m.types.N())
	for ni, i := range usedTypes {
		for _, j := range usedTypes[ni:] {
			weight := conc[i] * conc[j] * lengths[i] * lengths[j]
			if i != j {
				weight *= 2.0
			}
			coeffs[m.types.PairIndex(i, j)] = weight * factor
		}
	}
	m.addRow(coeffs, weightedData, factor, false, sq.XRayNoNormalisation)
	return nil
}

// AddXRayReferenceData appends a row whose coefficients are the
// concentration products c_i*c_j*(2-δij) for usedTypes, flagged as
// X-ray so Matrix(q) substitutes Q-dependent form-factor products for
// every column at evaluation time, per the original's matrix(q).
func (m *Matrix) AddXRayReferenceData(weightedData *dsio.Data1D, cfg *config.Configuration, usedTypes []int, factor float64, norm sq.XRayNormalisation) error {
	if len(usedTypes) == 0 {
		return dserr.New(dserr.Setup, "Matrix.AddXRayReferenceData", "reference data %q has no associated atom types", weightedData.Tag)
	}
	coeffs := make([]float64, m.NPairs())
	conc := typeConcentrations(cfg, m.types.N())
	for ni, i := range usedTypes {
		for _, j := range usedTypes[ni:] {
			weight := conc[i] * conc[j]
			if i != j {
				weight *= 2.0
			}
			coeffs[m.types.PairIndex(i, j)] = weight * factor
		}
	}
	m.addRow(coeffs, weightedData, factor, true, norm)
	return nil
}

// AddPartialReferenceData appends a row attributing the entire weight
// to the single pair (i,j), for directly-measured partial structure
// factors.
func (m *Matrix) AddPartialReferenceData(weightedData *dsio.Data1D, i, j int, dataWeight, factor float64) error {
	coeffs := make([]float64, m.NPairs())
	coeffs[m.types.PairIndex(i, j)] = dataWeight * factor
	m.addRow(coeffs, weightedData, factor, false, sq.XRayNoNormalisation)
	return nil
}

func (m *Matrix) addRow(coeffs []float64, data *dsio.Data1D, factor float64, isXRay bool, norm sq.XRayNormalisation) {
	scaled := dsio.New(data.Tag)
	scaled.X = append([]float64(nil), data.X...)
	scaled.Values = make([]float64, len(data.Values))
	for i, v := range data.Values {
		scaled.Values[i] = v * factor
	}
	m.rows = append(m.rows, row{coefficients: coeffs, data: scaled, isXRay: isXRay, norm: norm})
}

// AugmentWithSimulated adds simulated partial set as a set of
// synthetic per-pair rows at weight (1-feedback), the mechanism
// spec.md §4.11 describes for making an underdetermined matrix square:
// "the refine loop feeds the current simulated partials back in as
// additional synthetic rows with a complementary weight 1-feedback".
func (m *Matrix) AugmentWithSimulated(simulated *sq.SQSet, feedback float64) {
	weight := 1.0 - feedback
	for pair, s := range simulated.Pairs {
		i, j := pair[0], pair[1]
		_ = m.AddPartialReferenceData(s.Full, i, j, 1.0, weight)
	}
}

// columnPair recovers the (i,j) type indices for column col, the
// inverse of AtomTypeMix.PairIndex — needed to look up per-column form
// factors when evaluating an X-ray row.
func (m *Matrix) columnPair(col int) (int, int) {
	n := m.types.N()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if m.types.PairIndex(i, j) == col {
				return i, j
			}
		}
	}
	return -1, -1
}

// At evaluates the coefficient matrix A at Q, substituting Q-dependent
// form-factor products into every column of any row flagged X-ray.
//
// Per spec.md §9, a type with no WK1995 form-factor table entry is a
// SetupError: leaving its column's raw concentration coefficient
// unmultiplied would silently corrupt the scattering matrix for any
// element absent from sq/formfactor.go's small table.
func (m *Matrix) At(cfg *config.Configuration, q float64) ([][]float64, error) {
	a := make([][]float64, len(m.rows))
	for r := range m.rows {
		a[r] = append([]float64(nil), m.rows[r].coefficients...)
		if !m.rows[r].isXRay {
			continue
		}
		normFactor, err := m.xrayNormFactor(cfg, q, m.rows[r].norm)
		if err != nil {
			return nil, err
		}
		if normFactor == 0 {
			normFactor = 1.0
		}
		for col := range a[r] {
			i, j := m.columnPair(col)
			fi, okI := sq.LookupFormFactor(m.types.At(i).Name)
			fj, okJ := sq.LookupFormFactor(m.types.At(j).Name)
			if !okI {
				return nil, dserr.New(dserr.Setup, "Matrix.At", "no WK1995 form factor for atom type %q", m.types.At(i).Name)
			}
			if !okJ {
				return nil, dserr.New(dserr.Setup, "Matrix.At", "no WK1995 form factor for atom type %q", m.types.At(j).Name)
			}
			a[r][col] *= fi.Magnitude(q) * fj.Magnitude(q) / normFactor
		}
	}
	return a, nil
}

// xrayNormFactor computes the concentration-weighted mean form factor
// used by XRayAverageSquared/XRaySquaredAverage normalisation. Per spec.md
// §9, a type missing from the WK1995 table is a SetupError here too:
// silently excluding it from the mean would understate the
// normalisation for any configuration containing that type, the same
// corruption At itself now refuses to let through.
func (m *Matrix) xrayNormFactor(cfg *config.Configuration, q float64, norm sq.XRayNormalisation) (float64, error) {
	if norm == sq.XRayNoNormalisation {
		return 1.0, nil
	}
	conc := typeConcentrations(cfg, m.types.N())
	meanF, meanF2 := 0.0, 0.0
	for i := 0; i < m.types.N(); i++ {
		f, ok := sq.LookupFormFactor(m.types.At(i).Name)
		if !ok {
			return 0, dserr.New(dserr.Setup, "Matrix.xrayNormFactor", "no WK1995 form factor for atom type %q", m.types.At(i).Name)
		}
		mag := f.Magnitude(q)
		meanF += conc[i] * mag
		meanF2 += conc[i] * mag * mag
	}
	if norm == sq.XRayAverageSquared {
		return meanF * meanF, nil
	}
	return meanF2, nil
}

// Inverse returns pseudoinverse(At(cfg, q)), failing with a
// dserr.Computation error if the SVD could not produce a stable
// pseudoinverse (spec.md §4.11's RankError).
func (m *Matrix) Inverse(cfg *config.Configuration, q float64) ([][]float64, error) {
	a, err := m.At(cfg, q)
	if err != nil {
		return nil, err
	}
	inv, ok := pseudoinverse(a)
	if !ok {
		return nil, dserr.New(dserr.Computation, "Matrix.Inverse", "SVD could not produce a stable pseudoinverse at Q=%g", q)
	}
	return inv, nil
}

// GeneratePartials multiplies the inverse matrix into the stacked
// reference data to recover an estimated S(Q) for every pair, once if
// no row is X-ray-weighted (Q-independent A), or per Q-bin otherwise
// (interpolating every row's data onto the output Q grid first).
func (m *Matrix) GeneratePartials(cfg *config.Configuration, qGrid []float64) (map[[2]int]*dsio.Data1D, error) {
	if len(m.rows) < m.NPairs() {
		return nil, dserr.New(dserr.Setup, "Matrix.GeneratePartials",
			"not enough reference data (%d) compared to columns in the matrix (%d)", len(m.rows), m.NPairs())
	}

	out := make(map[[2]int]*dsio.Data1D)
	n := m.types.N()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := dsio.New(m.types.At(i).Name + "-" + m.types.At(j).Name + "//Estimated")
			d.Initialise(len(qGrid), false)
			copy(d.X, qGrid)
			out[[2]int{i, j}] = d
		}
	}

	anyXRay := false
	for _, r := range m.rows {
		if r.isXRay {
			anyXRay = true
			break
		}
	}

	if !anyXRay {
		inv, err := m.Inverse(cfg, 0.0)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				col := m.types.PairIndex(i, j)
				for r := range m.rows {
					dsio.AddInterpolated(out[[2]int{i, j}], m.rows[r].data, inv[col][r])
				}
			}
		}
		return out, nil
	}

	for qi, q := range qGrid {
		inv, err := m.Inverse(cfg, q)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				col := m.types.PairIndex(i, j)
				sum := 0.0
				for r := range m.rows {
					data := m.rows[r].data
					if len(data.X) == 0 || q < data.X[0] || q > data.X[len(data.X)-1] {
						continue
					}
					sum += data.Interpolate(q) * inv[col][r]
				}
				out[[2]int{i, j}].Values[qi] = sum
			}
		}
	}
	return out, nil
}

// typeConcentrations mirrors sq's helper of the same purpose, kept
// package-local to avoid an import cycle (sq does not depend on
// scattering).
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
