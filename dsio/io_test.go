package dsio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExportThenImportRoundTripsWithErrors(t *testing.T) {
	d := New("S(Q)")
	d.Initialise(4, true)
	for i := range d.X {
		d.X[i] = float64(i) * 0.5
		d.Values[i] = float64(i) * float64(i)
		d.Errors[i] = 0.1
	}
	path := filepath.Join(t.TempDir(), "sq.dat")
	if err := Export(path, d); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	got, err := Import(path)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if got.NValues() != d.NValues() {
		t.Fatalf("NValues() = %d, want %d", got.NValues(), d.NValues())
	}
	for i := range d.X {
		if got.X[i] != d.X[i] || got.Values[i] != d.Values[i] || got.Errors[i] != d.Errors[i] {
			t.Fatalf("round-trip mismatch at %d: got (%v,%v,%v), want (%v,%v,%v)",
				i, got.X[i], got.Values[i], got.Errors[i], d.X[i], d.Values[i], d.Errors[i])
		}
	}
}

func TestImportReadsAPlainTwoColumnReferenceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.dat")
	content := "0.5 1.0\n1.0 0.8\n1.5 0.4\n"
	if err := writeString(path, content); err != nil {
		t.Fatalf("writeString() error: %v", err)
	}
	d, err := Import(path)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if d.NValues() != 3 {
		t.Fatalf("NValues() = %d, want 3", d.NValues())
	}
	if d.X[1] != 1.0 || d.Values[1] != 0.8 {
		t.Fatalf("row 1 = (%v,%v), want (1.0,0.8)", d.X[1], d.Values[1])
	}
}

func TestImportReadsAThreeColumnReferenceFileWithErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref3.dat")
	content := "0.5 1.0 0.05\n1.0 0.8 0.02\n"
	if err := writeString(path, content); err != nil {
		t.Fatalf("writeString() error: %v", err)
	}
	d, err := Import(path)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(d.Errors) != 2 || d.Errors[0] != 0.05 {
		t.Fatalf("Errors = %v, want [0.05 0.02]", d.Errors)
	}
}

func TestImportRejectsAnEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dat")
	if err := writeString(path, ""); err != nil {
		t.Fatalf("writeString() error: %v", err)
	}
	if _, err := Import(path); err == nil {
		t.Fatal("Import() on an empty file: want error, got nil")
	}
}

func writeString(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
