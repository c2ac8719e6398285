// Package xyz implements the plain XYZ coordinate format: an atom
// count, a free-form title/comment line, then one "symbol x y z" line
// per atom. Grounded on gosl/io.ReadFile/io.WriteFile's line-oriented
// usage in inp/sim.go, generalised here to a bufio.Scanner reader and
// an io.Writer-based writer rather than gofem's whole-file-at-once
// helpers, since a trajectory export streams one frame per MD step.
package xyz

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// elementSymbols maps proton number to its conventional one/two-letter
// symbol, for the common force-field elements; original_source ships
// no such table in this retrieval (the periodic table itself is public
// domain data, not a transcription of anything in the pack).
var elementSymbols = map[int]string{
	1: "H", 2: "He", 3: "Li", 4: "Be", 5: "B", 6: "C", 7: "N", 8: "O", 9: "F", 10: "Ne",
	11: "Na", 12: "Mg", 13: "Al", 14: "Si", 15: "P", 16: "S", 17: "Cl", 18: "Ar",
	19: "K", 20: "Ca", 26: "Fe", 29: "Cu", 30: "Zn", 35: "Br", 36: "Kr",
	47: "Ag", 53: "I", 54: "Xe", 56: "Ba", 79: "Au", 82: "Pb",
}

// Symbol returns the element symbol for proton number z, falling back
// to "Xz" (e.g. "X43") for any element absent from the table so a
// malformed/unknown Z never silently writes an empty field.
func Symbol(z int) string {
	if s, ok := elementSymbols[z]; ok {
		return s
	}
	return fmt.Sprintf("X%d", z)
}

// symbolToZ inverts Symbol for import, matching case-insensitively.
func symbolToZ(symbol string) int {
	for z, s := range elementSymbols {
		if strings.EqualFold(s, symbol) {
			return z
		}
	}
	return 0
}

// WriteFrame writes one XYZ frame (atom count, comment, one line per
// atom) for cfg's current atom positions.
func WriteFrame(w io.Writer, cfg *config.Configuration, comment string) error {
	if _, err := fmt.Fprintf(w, "%d\n", cfg.NAtoms()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n", comment); err != nil {
		return err
	}
	for i := range cfg.Atoms {
		p := cfg.Atoms[i].Position
		if _, err := fmt.Fprintf(w, "%-3s %12.6f %12.6f %12.6f\n", Symbol(cfg.Atoms[i].Z), p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}

// Export writes a single-frame XYZ file to path.
func Export(path string, cfg *config.Configuration, comment string) error {
	f, err := os.Create(path)
	if err != nil {
		return dserr.Wrap(dserr.Communication, "xyz.Export", err)
	}
	defer f.Close()
	if err := WriteFrame(f, cfg, comment); err != nil {
		return dserr.Wrap(dserr.Communication, "xyz.Export", err)
	}
	return nil
}

// Frame is one imported XYZ frame: the comment line and each atom's
// element and position, decoupled from any Configuration so a caller
// can place the atoms into a species template or a live configuration
// as it sees fit.
type Frame struct {
	Comment string
	Z       []int
	Symbol  []string
	Pos     [][3]float64
}

// ReadFrame reads a single XYZ frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, dserr.New(dserr.Import, "xyz.ReadFrame", "empty input, expected an atom count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, dserr.New(dserr.Import, "xyz.ReadFrame", "malformed atom count %q: %v", sc.Text(), err)
	}
	if !sc.Scan() {
		return nil, dserr.New(dserr.Import, "xyz.ReadFrame", "missing comment line")
	}
	frame := &Frame{Comment: sc.Text()}
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, dserr.New(dserr.Import, "xyz.ReadFrame", "expected %d atom lines, got %d", n, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, dserr.New(dserr.Import, "xyz.ReadFrame", "malformed atom line %q", sc.Text())
		}
		var pos [3]float64
		for d := 0; d < 3; d++ {
			v, err := strconv.ParseFloat(fields[1+d], 64)
			if err != nil {
				return nil, dserr.New(dserr.Import, "xyz.ReadFrame", "malformed coordinate %q: %v", fields[1+d], err)
			}
			pos[d] = v
		}
		frame.Symbol = append(frame.Symbol, fields[0])
		frame.Z = append(frame.Z, symbolToZ(fields[0]))
		frame.Pos = append(frame.Pos, pos)
	}
	return frame, nil
}

// Import reads a single-frame XYZ file from path.
func Import(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dserr.Wrap(dserr.Import, "xyz.Import", err)
	}
	defer f.Close()
	return ReadFrame(f)
}
