package restart

import (
	"path/filepath"
	"testing"

	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/histogram"
)

func TestPutGetRoundTripsAScalar(t *testing.T) {
	a := New()
	if err := a.Put("RDF", "requestedRange", "float64", 15.0); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	var got float64
	if err := a.Get("RDF", "requestedRange", "float64", &got); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != 15.0 {
		t.Fatalf("got = %v, want 15.0", got)
	}
}

func TestGetRejectsAMismatchedClassTag(t *testing.T) {
	a := New()
	if err := a.Put("RDF", "range", "float64", 15.0); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	var got int
	if err := a.Get("RDF", "range", "int", &got); err == nil {
		t.Fatal("expected Get to reject a class-tag mismatch")
	}
}

func TestGetRejectsAMissingItem(t *testing.T) {
	a := New()
	var got float64
	if err := a.Get("RDF", "range", "float64", &got); err == nil {
		t.Fatal("expected Get to fail for an absent item")
	}
}

func TestPutGetRoundTripsAData1D(t *testing.T) {
	d := dsio.New("AR-AR//Full")
	d.Initialise(4, false)
	for i := range d.X {
		d.X[i] = float64(i) * 0.5
		d.Values[i] = float64(i)
	}

	a := New()
	if err := a.Put("RDF", "AR-AR", "Data1D", d); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	var got dsio.Data1D
	if err := a.Get("RDF", "AR-AR", "Data1D", &got); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Tag != d.Tag || len(got.Values) != len(d.Values) || got.Values[3] != 3 {
		t.Fatalf("got = %+v, want a faithful copy of %+v", got, d)
	}
}

func TestPutGetRoundTripsAHistogram1D(t *testing.T) {
	h := histogram.NewHistogram1D(0, 5, 0.5)
	h.Bin(1.2)
	h.Bin(1.3)
	h.Accumulate()

	a := New()
	if err := a.Put("RDF", "full", "Histogram1D", h); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got := histogram.NewHistogram1D(0, 5, 0.5)
	if err := a.Get("RDF", "full", "Histogram1D", got); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.NBinned() != h.NBinned() || got.NBins() != h.NBins() {
		t.Fatalf("got NBinned/NBins = %d/%d, want %d/%d", got.NBinned(), got.NBins(), h.NBinned(), h.NBins())
	}
}

func TestSaveLoadRoundTripsAnArchive(t *testing.T) {
	a := New()
	if err := a.Put("RDF", "range", "float64", 12.5); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := a.Put("Refine", "iteration", "int", 7); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "restart.gob")
	if err := a.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !loaded.Has("RDF", "range") || !loaded.Has("Refine", "iteration") {
		t.Fatal("expected both archived items to survive a save/load round trip")
	}
	var gotRange float64
	if err := loaded.Get("RDF", "range", "float64", &gotRange); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if gotRange != 12.5 {
		t.Fatalf("gotRange = %v, want 12.5", gotRange)
	}
}

func TestItemNamesListsEverythingArchivedForAModule(t *testing.T) {
	a := New()
	a.Put("RDF", "a", "float64", 1.0)
	a.Put("RDF", "b", "float64", 2.0)
	names := a.ItemNames("RDF")
	if len(names) != 2 {
		t.Fatalf("len(ItemNames) = %d, want 2", len(names))
	}
}
