package dsio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// Export writes d to path in the on-disk form spec.md §6 names: a tag
// line, a name line, a header (`nX hasErrors`), the x-axis values, the
// y values, and (if present) the errors — each of the latter three as
// one whitespace-separated row, grounded on gosl/io.WriteFileVD's
// column-dump shape (header then value rows) rather than a transcribed
// format, since no column-writer body was retrieved in this pack.
//
// Only the Data1D form is implemented: nothing in this module produces
// a Data2D/Data3D value (Histogram2D/3D serve the binned-field role
// those would occupy), so their on-disk counterparts have no writer to
// ground against and are left unbuilt.
func Export(path string, d *Data1D) error {
	f, err := os.Create(path)
	if err != nil {
		return dserr.Wrap(dserr.Communication, "dsio.Export", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, d.Tag)
	fmt.Fprintln(w, d.Tag)
	hasErrors := len(d.Errors) == len(d.Values) && len(d.Errors) > 0
	fmt.Fprintf(w, "%d %v\n", len(d.X), hasErrors)
	writeRow(w, d.X)
	writeRow(w, d.Values)
	if hasErrors {
		writeRow(w, d.Errors)
	}
	if err := w.Flush(); err != nil {
		return dserr.Wrap(dserr.Communication, "dsio.Export", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, row []float64) {
	for i, v := range row {
		if i > 0 {
			w.WriteByte(' ')
		}
		fmt.Fprintf(w, "%.10g", v)
	}
	w.WriteByte('\n')
}

// Import reads a Data1D previously written by Export, or a plain
// two/three-column x,y(,error) reference-data file: a tag/name/header
// triple is optional, and when absent each remaining line is parsed as
// whitespace-separated "x value [error]" columns, matching how
// reference datasets are said to "enter as x,y(,error) files" in §6.
func Import(path string) (*Data1D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dserr.Wrap(dserr.Import, "dsio.Import", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, dserr.Wrap(dserr.Import, "dsio.Import", err)
	}
	if len(lines) == 0 {
		return nil, dserr.New(dserr.Import, "dsio.Import", "%s is empty", path)
	}

	if n, hasErrors, ok := parseHeader(lines); ok {
		need := 5
		if hasErrors {
			need = 6
		}
		if len(lines) < need {
			return nil, dserr.New(dserr.Import, "dsio.Import", "%s header declares %d points but has too few rows", path, n)
		}
		d := New(lines[0])
		d.Initialise(n, hasErrors)
		if err := parseRow(lines[3], d.X); err != nil {
			return nil, dserr.New(dserr.Import, "dsio.Import", "%s: malformed x row: %v", path, err)
		}
		if err := parseRow(lines[4], d.Values); err != nil {
			return nil, dserr.New(dserr.Import, "dsio.Import", "%s: malformed value row: %v", path, err)
		}
		if hasErrors {
			if err := parseRow(lines[5], d.Errors); err != nil {
				return nil, dserr.New(dserr.Import, "dsio.Import", "%s: malformed error row: %v", path, err)
			}
		}
		return d, nil
	}

	d := New(path)
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, dserr.New(dserr.Import, "dsio.Import", "%s: line %q has fewer than 2 columns", path, line)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, dserr.New(dserr.Import, "dsio.Import", "%s: malformed x value %q: %v", path, fields[0], err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, dserr.New(dserr.Import, "dsio.Import", "%s: malformed y value %q: %v", path, fields[1], err)
		}
		d.AddPoint(x, v)
		if len(fields) >= 3 {
			if len(d.Errors) == 0 {
				d.AddErrors()
			}
			e, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, dserr.New(dserr.Import, "dsio.Import", "%s: malformed error value %q: %v", path, fields[2], err)
			}
			d.Errors[len(d.Errors)-1] = e
		}
	}
	return d, nil
}

// parseHeader reports whether lines looks like the tag/name/header
// form Export writes (a third line of the shape "<int> <bool>").
func parseHeader(lines []string) (n int, hasErrors bool, ok bool) {
	if len(lines) < 3 {
		return 0, false, false
	}
	fields := strings.Fields(lines[2])
	if len(fields) != 2 {
		return 0, false, false
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false, false
	}
	errs, err := strconv.ParseBool(fields[1])
	if err != nil {
		return 0, false, false
	}
	return count, errs, true
}

func parseRow(line string, out []float64) error {
	fields := strings.Fields(line)
	if len(fields) != len(out) {
		return fmt.Errorf("expected %d values, got %d", len(out), len(fields))
	}
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}
