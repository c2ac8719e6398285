package dlpoly

import (
	"fmt"
	"os"

	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
	"github.com/disorderedmaterials/dissolve-sub013/ioformats/xyz"
	"github.com/disorderedmaterials/dissolve-sub013/md"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
)

// speciesPopulation counts how many molecules in cfg instantiate the
// named species.
func speciesPopulation(cfg *config.Configuration, name string) int {
	n := 0
	for _, m := range cfg.Molecules {
		if m.SpeciesName == name {
			n++
		}
	}
	return n
}

// bondKey renders a DL_POLY 4-character bond/angle functional-form key
// for a Dissolve form name, falling back to a truncated/padded form of
// the name itself for anything not in the harmonic/morse set.
func bondKey(form string) string {
	switch form {
	case "harmonic":
		return "harm"
	case "morse":
		return "mors"
	default:
		if len(form) >= 4 {
			return form[:4]
		}
		return (form + "    ")[:4]
	}
}

// ExportField writes cfg's species templates and AR-AR-style pair
// potentials as a DL_POLY FIELD file: a units line, a species-count
// line, one block per species (atoms/bonds/angles/finish), and a
// trailing global vdw block built from every registered LJ pair in
// potMap, per spec.md §6's exact key list.
func ExportField(path string, cfg *config.Configuration, potMap *potential.PotentialMap) error {
	f, err := os.Create(path)
	if err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	defer f.Close()

	speciesNames := make([]string, 0, len(cfg.Species))
	for name := range cfg.Species {
		speciesNames = append(speciesNames, name)
	}

	if _, err := fmt.Fprintln(f, "units KJ"); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	if _, err := fmt.Fprintf(f, "moleculer types %d\n", len(speciesNames)); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}

	for _, name := range speciesNames {
		sp := cfg.Species[name]
		if err := writeSpeciesBlock(f, cfg, sp, speciesPopulation(cfg, name)); err != nil {
			return err
		}
	}

	if err := writeVDWBlock(f, cfg, potMap); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(f, "close"); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	return nil
}

func writeSpeciesBlock(f *os.File, cfg *config.Configuration, sp *config.Species, nummols int) error {
	if _, err := fmt.Fprintf(f, "%s\n", sp.Name); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	if _, err := fmt.Fprintf(f, "nummols %d\n", nummols); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	if _, err := fmt.Fprintf(f, "atoms %d\n", len(sp.Atoms)); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	for _, a := range sp.Atoms {
		mass := md.AtomicMass(a.Z)
		if _, err := fmt.Fprintf(f, "%-8s %12.6f %8.4f %4d %4d\n", xyz.Symbol(a.Z), mass, a.Charge, 1, 0); err != nil {
			return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
		}
	}
	if len(sp.Bonds) > 0 {
		if _, err := fmt.Fprintf(f, "bonds %d\n", len(sp.Bonds)); err != nil {
			return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
		}
		for _, b := range sp.Bonds {
			if err := writeParamLine(f, bondKey(b.Form), b.I+1, b.J+1, b.Parameters); err != nil {
				return err
			}
		}
	}
	if len(sp.Angles) > 0 {
		if _, err := fmt.Fprintf(f, "angles %d\n", len(sp.Angles)); err != nil {
			return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
		}
		for _, a := range sp.Angles {
			if err := writeParamLine(f, bondKey(a.Form), a.I+1, a.J+1, a.K+1, a.Parameters); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintln(f, "finish"); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	return nil
}

// writeParamLine writes "key idx... param...", accepting either
// (key, i, j, params) for a bond or (key, i, j, k, params) for an
// angle by taking the trailing []float64 argument as the parameter
// list and everything before it as indices.
func writeParamLine(f *os.File, key string, rest ...any) error {
	line := key
	for _, r := range rest {
		switch v := r.(type) {
		case int:
			line += fmt.Sprintf(" %d", v)
		case []float64:
			for _, p := range v {
				line += fmt.Sprintf(" %10.5f", p)
			}
		}
	}
	_, err := fmt.Fprintln(f, line)
	if err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	return nil
}

func writeVDWBlock(f *os.File, cfg *config.Configuration, potMap *potential.PotentialMap) error {
	type row struct {
		nameA, nameB   string
		epsilon, sigma float64
	}
	var rows []row
	n := cfg.Types.N()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			pairIdx := cfg.Types.PairIndex(i, j)
			lj, ok := potMap.BaseForm(pairIdx).(*potential.LennardJones)
			if !ok {
				continue
			}
			rows = append(rows, row{cfg.Types.At(i).Name, cfg.Types.At(j).Name, lj.Epsilon, lj.Sigma})
		}
	}
	if _, err := fmt.Fprintf(f, "vdw %d\n", len(rows)); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(f, "%-8s %-8s LJ %10.5f %10.5f\n", r.nameA, r.nameB, r.epsilon, r.sigma); err != nil {
			return dserr.Wrap(dserr.Communication, "dlpoly.ExportField", err)
		}
	}
	return nil
}
