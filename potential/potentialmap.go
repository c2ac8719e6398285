package potential

import "github.com/disorderedmaterials/dissolve-sub013/dserr"

// pairEntry bundles a type-pair's short-range form with its own
// additional (EPSR-generated) perturbation channel.
type pairEntry struct {
	base       Form
	additional *Tabulated
	overwrite  bool // false = accumulate into additional; true = replace it each iteration
}

// PotentialMap maps the canonical (i,j) type-pair index space onto a
// pair-potential evaluator, plus a single cutoff shared by every pair
// (the cell-array / kernel layer is built around one global
// short-range cutoff).
type PotentialMap struct {
	cutoff  float64
	entries map[int]*pairEntry
}

// NewPotentialMap constructs an empty map with the given short-range cutoff.
func NewPotentialMap(cutoff float64) *PotentialMap {
	return &PotentialMap{cutoff: cutoff, entries: make(map[int]*pairEntry)}
}

// Cutoff returns the shared pair-potential range.
func (m *PotentialMap) Cutoff() float64 { return m.cutoff }

// SetBase registers the base short-range form for canonical pair index pairIdx.
func (m *PotentialMap) SetBase(pairIdx int, form Form) {
	e := m.entries[pairIdx]
	if e == nil {
		e = &pairEntry{}
		m.entries[pairIdx] = e
	}
	e.base = form
}

// SetOverwriteMode configures whether future perturbation updates for
// pairIdx replace the additional channel or accumulate into it.
func (m *PotentialMap) SetOverwriteMode(pairIdx int, overwrite bool) {
	e := m.entryOrNew(pairIdx)
	e.overwrite = overwrite
}

func (m *PotentialMap) entryOrNew(pairIdx int) *pairEntry {
	e := m.entries[pairIdx]
	if e == nil {
		e = &pairEntry{additional: &Tabulated{}}
		m.entries[pairIdx] = e
	}
	if e.additional == nil {
		e.additional = &Tabulated{}
	}
	return e
}

// ApplyPerturbation installs the refinement step's generated ΔΦ_ij(r)
// for pairIdx, either overwriting or accumulating into the additional
// channel as configured by SetOverwriteMode.
func (m *PotentialMap) ApplyPerturbation(pairIdx int, delta float64, values []float64) {
	e := m.entryOrNew(pairIdx)
	if e.overwrite {
		e.additional.SetData(delta, values)
	} else {
		e.additional.Accumulate(delta, values)
	}
}

// EnergyForce evaluates the total (base + additional) pair potential
// for the pair at canonical index pairIdx, at separation r. Returns
// SetupError if no base form has ever been registered for the pair.
func (m *PotentialMap) EnergyForce(pairIdx int, r float64) (energy, forceOverR float64, err error) {
	e, ok := m.entries[pairIdx]
	if !ok || e.base == nil {
		return 0, 0, dserr.New(dserr.Setup, "PotentialMap.EnergyForce", "no base form registered for pair index %d", pairIdx)
	}
	energy, forceOverR = e.base.EnergyForce(r)
	if e.additional != nil && len(e.additional.Values) > 0 {
		ae, af := e.additional.EnergyForce(r)
		energy += ae
		forceOverR += af
	}
	return energy, forceOverR, nil
}

// HasPair reports whether a base form has been registered for pairIdx.
func (m *PotentialMap) HasPair(pairIdx int) bool {
	e, ok := m.entries[pairIdx]
	return ok && e.base != nil
}

// BaseForm returns the registered short-range form for pairIdx, or nil
// if none has been set — used by export paths (DL_POLY FIELD) that
// need the form's own parameters rather than just its energy/force.
func (m *PotentialMap) BaseForm(pairIdx int) Form {
	e, ok := m.entries[pairIdx]
	if !ok {
		return nil
	}
	return e.base
}
