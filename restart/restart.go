// Package restart implements the persisted-state archive: a tagged
// object store keyed by (module, name) that every long-running module
// uses to save and recover its working data across a stop/resume
// cycle, per spec.md §6 "Persisted state".
//
// Grounded on gofem's inp.Data.Encoder field (defaults to "gob") and
// the name-keyed factory idiom la.GetSolver uses — here a name-keyed
// registry of byte-encoded entries rather than constructors.
package restart

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// entry is one archived payload: its class tag (so a read can refuse a
// payload whose declared kind doesn't match what the caller expects)
// and its gob-encoded bytes.
type entry struct {
	Tag  string
	Data []byte
}

// Archive is the process-wide tagged object store: a map from module
// name to a map from item name to its archived entry, mirroring
// spec.md §6's "map, per processing module and per configuration, from
// name to typed payload".
type Archive struct {
	Modules map[string]map[string]entry
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{Modules: make(map[string]map[string]entry)}
}

// Put archives value under (module, name), tagged with kind — the
// "explicit class tag" spec.md §6 requires so the archive is
// schema-checked on read.
func (a *Archive) Put(module, name, kind string, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return dserr.Wrap(dserr.Internal, "Archive.Put("+module+"/"+name+")", err)
	}
	items, ok := a.Modules[module]
	if !ok {
		items = make(map[string]entry)
		a.Modules[module] = items
	}
	items[name] = entry{Tag: kind, Data: buf.Bytes()}
	return nil
}

// Get recovers the payload archived under (module, name) into out
// (a pointer to the expected type), failing with a SetupError if the
// entry is absent or its stored tag doesn't match wantKind.
func (a *Archive) Get(module, name, wantKind string, out any) error {
	items, ok := a.Modules[module]
	if !ok {
		return dserr.New(dserr.Setup, "Archive.Get", "no archived data for module %q", module)
	}
	e, ok := items[name]
	if !ok {
		return dserr.New(dserr.Setup, "Archive.Get", "module %q has no archived item %q", module, name)
	}
	if e.Tag != wantKind {
		return dserr.New(dserr.Setup, "Archive.Get", "item %q/%q has class tag %q, expected %q", module, name, e.Tag, wantKind)
	}
	if err := gob.NewDecoder(bytes.NewReader(e.Data)).Decode(out); err != nil {
		return dserr.Wrap(dserr.Import, "Archive.Get("+module+"/"+name+")", err)
	}
	return nil
}

// Has reports whether an entry is archived under (module, name).
func (a *Archive) Has(module, name string) bool {
	items, ok := a.Modules[module]
	if !ok {
		return false
	}
	_, ok = items[name]
	return ok
}

// ItemNames lists the names of the items archived under module, in no
// particular order, for iteration/inspection (e.g. a restart-file
// browser).
func (a *Archive) ItemNames(module string) []string {
	items, ok := a.Modules[module]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(items))
	for n := range items {
		names = append(names, n)
	}
	return names
}

// Save writes the archive to path with encoding/gob, matching
// inp.Data's own default "gob" encoder. Save always creates or
// truncates the file and writes one full snapshot; the `-a`/`--append`
// CLI flag governs whether a *new run* resumes from an existing file
// rather than whether each write appends to it.
func (a *Archive) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return dserr.Wrap(dserr.Communication, "Archive.Save", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(a); err != nil {
		return dserr.Wrap(dserr.Communication, "Archive.Save", err)
	}
	return nil
}

// Load reads an archive previously written by Save.
func Load(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dserr.Wrap(dserr.Import, "restart.Load", err)
	}
	defer f.Close()
	a := New()
	if err := gob.NewDecoder(f).Decode(a); err != nil {
		return nil, dserr.Wrap(dserr.Import, "restart.Load", err)
	}
	return a, nil
}
