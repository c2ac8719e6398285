// Package deck parses the TOML input deck describing a simulation —
// box, atom types, species, potentials, and modules — and builds the
// runtime objects (config.Configuration, potential.PotentialMap,
// move/md/refine drivers) from it.
//
// Mirrors gofem's inp.Data: a struct decoded straight off the wire
// format, SetDefault filling in sane defaults before decode, and
// PostProcess resolving anything that depends on more than one field
// once the whole deck has been read.
package deck

import (
	"github.com/BurntSushi/toml"
	"github.com/cpmech/gosl/fun"

	"github.com/disorderedmaterials/dissolve-sub013/box"
	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
	"github.com/disorderedmaterials/dissolve-sub013/md"
	"github.com/disorderedmaterials/dissolve-sub013/move"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
	"github.com/disorderedmaterials/dissolve-sub013/refine"
)

// RunDeck is the §6 CLI-surface run parameters: deck-supplied defaults
// the command-line flags (-n, -t, -w, -x, -a, -f, -q, -v) may override.
type RunDeck struct {
	Iterations      int     `toml:"iterations"`
	WallLimit       float64 `toml:"wall_limit_seconds"`
	RestartPath     string  `toml:"restart_path"`
	NoRestart       bool    `toml:"no_restart"`
	Append          bool    `toml:"append"`
	RestartInterval int     `toml:"restart_interval"`
	Quiet           bool    `toml:"quiet"`
	Verbose         bool    `toml:"verbose"`
}

func (r *RunDeck) setDefault() {
	r.Iterations = 1
	r.RestartInterval = 1
}

// BoxDeck describes the periodic cell.
type BoxDeck struct {
	Kind   string     `toml:"kind"` // "cubic", "orthorhombic", "triclinic"
	Side   float64    `toml:"side"` // cubic shorthand
	Sides  [3]float64 `toml:"sides"`
	Angles [3]float64 `toml:"angles"` // alpha/beta/gamma, degrees; not applied by build
}

func (b *BoxDeck) setDefault() {
	b.Kind = "cubic"
}

func (b *BoxDeck) build() (*box.Box, error) {
	switch b.Kind {
	case "", "cubic":
		side := b.Side
		if side == 0 {
			side = b.Sides[0]
		}
		if side <= 0 {
			return nil, dserr.New(dserr.Setup, "BoxDeck.build", "cubic box requires a positive side length")
		}
		return box.NewCubic(side), nil
	case "orthorhombic":
		if b.Sides[0] <= 0 || b.Sides[1] <= 0 || b.Sides[2] <= 0 {
			return nil, dserr.New(dserr.Setup, "BoxDeck.build", "orthorhombic box requires three positive side lengths")
		}
		return box.NewOrthorhombic(b.Sides[0], b.Sides[1], b.Sides[2]), nil
	case "triclinic":
		// Angles is not applied: the lattice vectors are axis-aligned with
		// lengths Sides, so the resulting box has orthogonal axes.
		axes := [][]float64{
			{b.Sides[0], 0, 0},
			{0, b.Sides[1], 0},
			{0, 0, b.Sides[2]},
		}
		return box.NewTriclinic(axes[0], axes[1], axes[2])
	default:
		return nil, dserr.New(dserr.Setup, "BoxDeck.build", "unrecognised box kind %q", b.Kind)
	}
}

// AtomTypeDeck is one entry of config.AtomType, TOML-shaped.
type AtomTypeDeck struct {
	Name       string    `toml:"name"`
	Z          int       `toml:"z"`
	Charge     float64   `toml:"charge"`
	Form       string    `toml:"form"`
	Parameters []float64 `toml:"parameters"`
	Isotope    string    `toml:"isotope"`
}

// SpeciesAtomDeck is one SpeciesAtom entry.
type SpeciesAtomDeck struct {
	Z         int        `toml:"z"`
	Type      string     `toml:"type"`
	Reference [3]float64 `toml:"reference"`
	Charge    float64    `toml:"charge"`
}

// SpeciesBondDeck/AngleDeck/etc. mirror config's geometry-term records.
type SpeciesBondDeck struct {
	I          int       `toml:"i"`
	J          int       `toml:"j"`
	Form       string    `toml:"form"`
	Parameters []float64 `toml:"parameters"`
}

type SpeciesAngleDeck struct {
	I          int       `toml:"i"`
	J          int       `toml:"j"`
	K          int       `toml:"k"`
	Form       string    `toml:"form"`
	Parameters []float64 `toml:"parameters"`
}

type SpeciesTorsionDeck struct {
	I          int       `toml:"i"`
	J          int       `toml:"j"`
	K          int       `toml:"k"`
	L          int       `toml:"l"`
	Form       string    `toml:"form"`
	Parameters []float64 `toml:"parameters"`
}

// SpeciesDeck is a molecular template.
type SpeciesDeck struct {
	Name     string               `toml:"name"`
	Atoms    []SpeciesAtomDeck    `toml:"atoms"`
	Bonds    []SpeciesBondDeck    `toml:"bonds"`
	Angles   []SpeciesAngleDeck   `toml:"angles"`
	Torsions []SpeciesTorsionDeck `toml:"torsions"`
}

func (s SpeciesDeck) build() *config.Species {
	sp := config.NewSpecies(s.Name)
	for _, a := range s.Atoms {
		sp.Atoms = append(sp.Atoms, config.SpeciesAtom{
			Z: a.Z, TypeName: a.Type, Reference: a.Reference, Charge: a.Charge,
		})
	}
	for _, b := range s.Bonds {
		sp.AddBond(config.SpeciesBond{I: b.I, J: b.J, Form: b.Form, Parameters: b.Parameters})
	}
	for _, a := range s.Angles {
		sp.Angles = append(sp.Angles, config.SpeciesAngle{I: a.I, J: a.J, K: a.K, Form: a.Form, Parameters: a.Parameters})
	}
	for _, tr := range s.Torsions {
		sp.Torsions = append(sp.Torsions, config.SpeciesTorsion{I: tr.I, J: tr.J, K: tr.K, L: tr.L, Form: tr.Form, Parameters: tr.Parameters})
	}
	return sp
}

// MoleculeDeck places one molecule instance of a species.
type MoleculeDeck struct {
	Species   string     `toml:"species"`
	Translate [3]float64 `toml:"translate"`
}

// ConfigurationDeck describes the simulation cell's contents.
type ConfigurationDeck struct {
	CellSize           float64        `toml:"cell_size"`
	PairPotentialRange float64        `toml:"pair_potential_range"`
	Temperature        float64        `toml:"temperature"`
	RDFBinWidth        float64        `toml:"rdf_bin_width"`
	Molecules          []MoleculeDeck `toml:"molecules"`
}

func (c *ConfigurationDeck) setDefault() {
	c.CellSize = 5.0
	c.PairPotentialRange = 15.0
	c.Temperature = 300.0
	c.RDFBinWidth = 0.05
}

// PotentialDeck assigns a short-range form to one type pair. Parameters
// is a named table (e.g. {epsilon = 0.998, sigma = 3.4} for "lj",
// {qiqj = -1.0} for "coulomb") since each Form's Init switches on
// parameter name, not position.
type PotentialDeck struct {
	TypeA      string             `toml:"type_a"`
	TypeB      string             `toml:"type_b"`
	Form       string             `toml:"form"`
	Parameters map[string]float64 `toml:"parameters"`
	Overwrite  bool               `toml:"overwrite_additional"`
}

// AtomShakeDeck/MolShakeDeck/MDDeck configure the three move kinds.
type AtomShakeDeck struct {
	Enabled              bool    `toml:"enabled"`
	NShakesPerAtom        int     `toml:"n_shakes_per_atom"`
	StepSize             float64 `toml:"step_size"`
	TargetAcceptanceRate float64 `toml:"target_acceptance_rate"`
}

type MolShakeDeck struct {
	Enabled              bool    `toml:"enabled"`
	NShakesPerMolecule   int     `toml:"n_shakes_per_molecule"`
	TranslationStepSize  float64 `toml:"translation_step_size"`
	RotationStepSize     float64 `toml:"rotation_step_size"`
	TargetAcceptanceRate float64 `toml:"target_acceptance_rate"`
	RestrictToSpecies    []string `toml:"restrict_to_species"`
}

type MDDeck struct {
	Enabled             bool    `toml:"enabled"`
	NSteps              int     `toml:"n_steps"`
	FixedTimestepFS     float64 `toml:"fixed_timestep_fs"`
	CapForces           bool    `toml:"cap_forces"`
	MaxForceCap         float64 `toml:"max_force_cap"`
	TrajectoryFrequency int     `toml:"trajectory_frequency"`
}

// RefineDeck configures the EPSR loop's tunables (refine.Config).
type RefineDeck struct {
	Enabled             bool    `toml:"enabled"`
	Feedback            float64 `toml:"feedback"`
	QMin                float64 `toml:"q_min"`
	QMax                float64 `toml:"q_max"`
	Weighting           float64 `toml:"weighting"`
	ERequired           float64 `toml:"e_required"`
	Expansion           string  `toml:"expansion"` // "gaussian" or "poisson"
	NCoeffP             int     `toml:"n_coeff_p"`
	GSigma1             float64 `toml:"g_sigma_1"`
	PSigma1             float64 `toml:"p_sigma_1"`
	RMinPT              float64 `toml:"r_min_pt"`
	RMaxPT              float64 `toml:"r_max_pt"`
	OverwritePotentials bool    `toml:"overwrite_potentials"`
}

func (r *RefineDeck) setDefault() {
	r.Feedback = 0.9
	r.QMin = 0.5
	r.QMax = 30.0
	r.Weighting = 1.0
	r.ERequired = 3.0
	r.Expansion = "poisson"
	r.GSigma1 = 0.1
	r.PSigma1 = 0.01
}

func (r RefineDeck) build() refine.Config {
	basis := refine.GaussianExpansion
	if r.Expansion == "poisson" {
		basis = refine.PoissonExpansion
	}
	return refine.Config{
		Feedback: r.Feedback, QMin: r.QMin, QMax: r.QMax,
		Weighting: r.Weighting, ERequired: r.ERequired,
		Expansion: basis, NCoeffP: r.NCoeffP,
		GSigma1: r.GSigma1, PSigma1: r.PSigma1,
		RMinPT: r.RMinPT, RMaxPT: r.RMaxPT,
		OverwritePotentials: r.OverwritePotentials,
	}
}

// TargetDeck names one reference-data file feeding the refine loop.
type TargetDeck struct {
	Name          string   `toml:"name"`
	Kind          string   `toml:"kind"` // "neutron" or "xray"
	Path          string   `toml:"path"`
	UsedTypes     []string `toml:"used_types"`
	Normalisation string   `toml:"normalisation"` // "none", "average_squared", "squared_average"
}

// ModulesDeck groups the move/MD/refine/target configuration.
type ModulesDeck struct {
	AtomShake AtomShakeDeck  `toml:"atom_shake"`
	MolShake  MolShakeDeck   `toml:"mol_shake"`
	MD        MDDeck         `toml:"md"`
	Refine    RefineDeck     `toml:"refine"`
	Targets   []TargetDeck   `toml:"targets"`
}

// Deck is the top-level input-deck document.
type Deck struct {
	Run           RunDeck           `toml:"run"`
	Box           BoxDeck           `toml:"box"`
	AtomTypes     []AtomTypeDeck    `toml:"atom_types"`
	Species       []SpeciesDeck     `toml:"species"`
	Configuration ConfigurationDeck `toml:"configuration"`
	Potentials    []PotentialDeck   `toml:"potentials"`
	Modules       ModulesDeck       `toml:"modules"`
}

// SetDefault installs the same kind of baseline values inp.Data.SetDefault
// fills in before the TOML decode overwrites whatever the deck specifies.
func (d *Deck) SetDefault() {
	d.Run.setDefault()
	d.Box.setDefault()
	d.Configuration.setDefault()
	d.Modules.Refine.setDefault()
}

// PostProcess resolves cross-field defaults once the whole deck is read
// (mirrors inp.Data.PostProcess's post-decode pass).
func (d *Deck) PostProcess() {
	if d.Modules.AtomShake.NShakesPerAtom == 0 {
		d.Modules.AtomShake.NShakesPerAtom = 1
	}
	if d.Modules.MolShake.NShakesPerMolecule == 0 {
		d.Modules.MolShake.NShakesPerMolecule = 1
	}
	if d.Modules.MD.NSteps == 0 {
		d.Modules.MD.NSteps = 100
	}
}

// Load decodes the TOML file at path into a fully-defaulted and
// post-processed Deck.
func Load(path string) (*Deck, error) {
	d := &Deck{}
	d.SetDefault()
	if _, err := toml.DecodeFile(path, d); err != nil {
		return nil, dserr.Wrap(dserr.Setup, "deck.Load("+path+")", err)
	}
	d.PostProcess()
	return d, nil
}

// Built bundles the runtime objects assembled from a Deck.
type Built struct {
	Configuration *config.Configuration
	Potentials    *potential.PotentialMap
	AtomShake     *move.AtomShake
	MolShake      *move.MolShake
	MD            *md.MD
	RefineConfig  refine.Config
}

// Build constructs the runtime simulation objects described by the deck.
func (d *Deck) Build() (*Built, error) {
	b, err := d.Box.build()
	if err != nil {
		return nil, err
	}
	cfg := config.New(b)
	cfg.Temperature = d.Configuration.Temperature

	for _, at := range d.AtomTypes {
		cfg.Types.Add(config.AtomType{
			Name: at.Name, Z: at.Z, Charge: at.Charge,
			FormName: at.Form, Parameters: at.Parameters, Isotope: at.Isotope,
		})
	}

	for _, sd := range d.Species {
		cfg.AddSpecies(sd.build())
	}

	if err := cfg.GenerateCells(d.Configuration.CellSize, d.Configuration.PairPotentialRange); err != nil {
		return nil, err
	}

	for _, m := range d.Configuration.Molecules {
		if _, err := cfg.AddMolecule(m.Species, m.Translate); err != nil {
			return nil, err
		}
	}

	pot := potential.NewPotentialMap(d.Configuration.PairPotentialRange)
	for _, p := range d.Potentials {
		i := cfg.Types.IndexOf(p.TypeA)
		j := cfg.Types.IndexOf(p.TypeB)
		if i < 0 || j < 0 {
			return nil, dserr.New(dserr.Setup, "Deck.Build", "potential references unknown atom type pair (%q, %q)", p.TypeA, p.TypeB)
		}
		pairIdx := cfg.Types.PairIndex(i, j)
		pot.SetBase(pairIdx, potential.GetForm(p.Form, parametersToPrms(p.Parameters)))
		pot.SetOverwriteMode(pairIdx, p.Overwrite)
	}

	built := &Built{Configuration: cfg, Potentials: pot, RefineConfig: d.Modules.Refine.build()}

	if d.Modules.AtomShake.Enabled {
		as := move.NewAtomShake()
		as.NShakesPerAtom = d.Modules.AtomShake.NShakesPerAtom
		if d.Modules.AtomShake.StepSize > 0 {
			as.StepSize = d.Modules.AtomShake.StepSize
		}
		if d.Modules.AtomShake.TargetAcceptanceRate > 0 {
			as.TargetAcceptanceRate = d.Modules.AtomShake.TargetAcceptanceRate
		}
		built.AtomShake = as
	}

	if d.Modules.MolShake.Enabled {
		ms := move.NewMolShake()
		ms.NShakesPerMolecule = d.Modules.MolShake.NShakesPerMolecule
		if d.Modules.MolShake.TranslationStepSize > 0 {
			ms.TranslationStepSize = d.Modules.MolShake.TranslationStepSize
		}
		if d.Modules.MolShake.RotationStepSize > 0 {
			ms.RotationStepSize = d.Modules.MolShake.RotationStepSize
		}
		if d.Modules.MolShake.TargetAcceptanceRate > 0 {
			ms.TargetAcceptanceRate = d.Modules.MolShake.TargetAcceptanceRate
		}
		ms.RestrictToSpecies = d.Modules.MolShake.RestrictToSpecies
		built.MolShake = ms
	}

	if d.Modules.MD.Enabled {
		m := md.NewMD()
		m.NSteps = d.Modules.MD.NSteps
		if d.Modules.MD.FixedTimestepFS > 0 {
			m.FixedDT = d.Modules.MD.FixedTimestepFS * 1e-3
		}
		m.CapForces = d.Modules.MD.CapForces
		m.MaxForceCap = d.Modules.MD.MaxForceCap
		m.TrajectoryFrequency = d.Modules.MD.TrajectoryFrequency
		built.MD = m
	}

	return built, nil
}

func parametersToPrms(values map[string]float64) fun.Prms {
	prms := make(fun.Prms, 0, len(values))
	for name, v := range values {
		prms = append(prms, &fun.Prm{N: name, V: v})
	}
	return prms
}
