// Package dlpoly implements the DL_POLY CONFIG coordinate format plus
// the CONTROL/FIELD export formats, generalising inp.Data's key-value
// JSON tags to DL_POLY's own "io_file_*"-style directive lines.
package dlpoly

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// ConfigAtom is one per-atom record read from (or to be written to) a
// CONFIG file: name, 1-based global index, position and — depending
// on levcfg — velocity and force.
type ConfigAtom struct {
	Name   string
	Index  int
	Pos    [3]float64
	Vel    [3]float64
	Force  [3]float64
}

// ConfigFile is a parsed DL_POLY CONFIG: title, record level (levcfg:
// 0 positions only, 1 +velocities, 2 +forces), periodic boundary kind
// (imcon, per box.Kind.DLPolyImcon), cell vectors and every atom.
type ConfigFile struct {
	Title  string
	Levcfg int
	Imcon  int
	Cell   [3][3]float64
	Atoms  []ConfigAtom
}

// ExportConfig writes cfg's current state to path as a DL_POLY CONFIG
// file at levcfg 0 (positions only), with imcon chosen from the box
// kind per spec.md §6 (0 non-periodic, 1 cubic, 2 orthorhombic, 3
// triclinic).
func ExportConfig(path string, cfg *config.Configuration, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportConfig", err)
	}
	defer f.Close()

	imcon := cfg.Box.Kind().DLPolyImcon()
	if _, err := fmt.Fprintf(f, "%-80s\n", title); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportConfig", err)
	}
	if _, err := fmt.Fprintf(f, "%10d%10d%10d\n", 0, imcon, cfg.NAtoms()); err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportConfig", err)
	}
	if imcon > 0 {
		for a := 0; a < 3; a++ {
			v := cfg.Box.AxisVector(a)
			if _, err := fmt.Fprintf(f, "%20.10f%20.10f%20.10f\n", v[0], v[1], v[2]); err != nil {
				return dserr.Wrap(dserr.Communication, "dlpoly.ExportConfig", err)
			}
		}
	}
	for i := range cfg.Atoms {
		name := elementName(cfg.Atoms[i].Z)
		if _, err := fmt.Fprintf(f, "%-8s%10d\n", name, i+1); err != nil {
			return dserr.Wrap(dserr.Communication, "dlpoly.ExportConfig", err)
		}
		p := cfg.Atoms[i].Position
		if _, err := fmt.Fprintf(f, "%20.10f%20.10f%20.10f\n", p[0], p[1], p[2]); err != nil {
			return dserr.Wrap(dserr.Communication, "dlpoly.ExportConfig", err)
		}
	}
	return nil
}

// elementName labels every atom "Z<n>" from its proton number; DL_POLY's CONFIG
// atom-name field is conventionally the element symbol but CONFIG
// itself treats it as an opaque label, so the xyz package's stricter
// element table is not required here.
func elementName(z int) string {
	return fmt.Sprintf("Z%d", z)
}

// ImportConfig reads a DL_POLY CONFIG file from path.
func ImportConfig(path string) (*ConfigFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dserr.Wrap(dserr.Import, "dlpoly.ImportConfig", err)
	}
	defer f.Close()
	return ReadConfig(f)
}

// ReadConfig parses a DL_POLY CONFIG stream per spec.md §6: title,
// levcfg+imcon(+natms), cell vectors if imcon > 0, then one
// name/index line plus a position line (and velocity/force lines if
// levcfg warrants) per atom.
func ReadConfig(r io.Reader) (*ConfigFile, error) {
	sc := bufio.NewScanner(r)
	cf := &ConfigFile{}

	if !sc.Scan() {
		return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "empty input, expected a title line")
	}
	cf.Title = strings.TrimRight(sc.Text(), " \t")

	if !sc.Scan() {
		return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "missing levcfg/imcon line")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 2 {
		return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "malformed levcfg/imcon line %q", sc.Text())
	}
	levcfg, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "malformed levcfg %q: %v", fields[0], err)
	}
	imcon, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "malformed imcon %q: %v", fields[1], err)
	}
	cf.Levcfg, cf.Imcon = levcfg, imcon

	if cf.Imcon > 0 {
		for a := 0; a < 3; a++ {
			if !sc.Scan() {
				return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "expected 3 cell vector lines")
			}
			vfields := strings.Fields(sc.Text())
			if len(vfields) < 3 {
				return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "malformed cell vector line %q", sc.Text())
			}
			for d := 0; d < 3; d++ {
				v, err := strconv.ParseFloat(vfields[d], 64)
				if err != nil {
					return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "malformed cell component %q: %v", vfields[d], err)
				}
				cf.Cell[a][d] = v
			}
		}
	}

	for sc.Scan() {
		nameLine := strings.Fields(sc.Text())
		if len(nameLine) == 0 {
			continue
		}
		atom := ConfigAtom{Name: nameLine[0]}
		if len(nameLine) > 1 {
			idx, err := strconv.Atoi(nameLine[1])
			if err == nil {
				atom.Index = idx
			}
		}
		if !sc.Scan() {
			return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "missing position line for atom %q", atom.Name)
		}
		atom.Pos = parseVec3(sc.Text())
		if cf.Levcfg >= 1 {
			if !sc.Scan() {
				return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "missing velocity line for atom %q", atom.Name)
			}
			atom.Vel = parseVec3(sc.Text())
		}
		if cf.Levcfg >= 2 {
			if !sc.Scan() {
				return nil, dserr.New(dserr.Import, "dlpoly.ReadConfig", "missing force line for atom %q", atom.Name)
			}
			atom.Force = parseVec3(sc.Text())
		}
		cf.Atoms = append(cf.Atoms, atom)
	}
	return cf, nil
}

func parseVec3(line string) [3]float64 {
	fields := strings.Fields(line)
	var v [3]float64
	for d := 0; d < 3 && d < len(fields); d++ {
		f, err := strconv.ParseFloat(fields[d], 64)
		if err == nil {
			v[d] = f
		}
	}
	return v
}

// BoxKindForImcon inverts box.Kind.DLPolyImcon, for import paths that
// need to reconstruct a Box from a CONFIG file's imcon flag.
func BoxKindForImcon(imcon int) box.Kind {
	switch imcon {
	case 1:
		return box.Cubic
	case 2:
		return box.Orthorhombic
	case 3:
		return box.Triclinic
	default:
		return box.NonPeriodic
	}
}
