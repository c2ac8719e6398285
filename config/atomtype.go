// Package config holds the simulation's mutable state: the species
// templates, the atom-type mix, and the configuration itself (the
// densely-packed atom/molecule arena plus its cell partition).
//
// Owners are tracked by integer index rather than pointer, following
// the arena-of-structs convention fem.Domain uses for Nodes/Elems
// (Vid2node/Cid2elem index slices) — kernels and moves hold small
// integer handles instead of copying atom data.
package config

// AtomType is a named pair-potential participant: its own short-range
// parameters, net charge, and (for neutron weighting) isotope data.
type AtomType struct {
	Name       string
	Z          int
	Charge     float64
	FormName   string    // registered short-range potential form, e.g. "lj", "coulomb"
	Parameters []float64 // form-specific parameters, in the form's declared order
	Isotope    string    // empty means natural-abundance average
}

// AtomTypeMix is the fixed-order, de-duplicated set of AtomTypes used
// by a Configuration. Its index order is the canonical index space for
// every type-pair matrix (PartialSet, ScatteringMatrix, PotentialMap).
type AtomTypeMix struct {
	types []AtomType
	index map[string]int
}

// NewAtomTypeMix returns an empty mix.
func NewAtomTypeMix() *AtomTypeMix {
	return &AtomTypeMix{index: make(map[string]int)}
}

// Add registers t if its name is not already present, returning its
// canonical index either way.
func (m *AtomTypeMix) Add(t AtomType) int {
	if idx, ok := m.index[t.Name]; ok {
		return idx
	}
	idx := len(m.types)
	m.types = append(m.types, t)
	m.index[t.Name] = idx
	return idx
}

// IndexOf returns the canonical index of the named type, or -1.
func (m *AtomTypeMix) IndexOf(name string) int {
	if idx, ok := m.index[name]; ok {
		return idx
	}
	return -1
}

// N returns the number of distinct types in the mix.
func (m *AtomTypeMix) N() int { return len(m.types) }

// At returns the type at canonical index i.
func (m *AtomTypeMix) At(i int) AtomType { return m.types[i] }

// PairIndex maps an unordered type-pair (i,j) onto the canonical
// upper-triangular slot index used by PartialSet/ScatteringMatrix: row
// i0 <= i1, slot = i0*(2N-i0-1)/2 + i1 (standard packed symmetric
// storage with i0 the smaller index).
func (m *AtomTypeMix) PairIndex(i, j int) int {
	n := m.N()
	i0, i1 := i, j
	if i0 > i1 {
		i0, i1 = i1, i0
	}
	return i0*(2*n-i0-1)/2 + i1
}

// NPairs returns N*(N+1)/2, the number of distinct unordered type pairs.
func (m *AtomTypeMix) NPairs() int {
	n := m.N()
	return n * (n + 1) / 2
}
