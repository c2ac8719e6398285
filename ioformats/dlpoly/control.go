package dlpoly

import (
	"fmt"
	"os"

	"github.com/disorderedmaterials/dissolve-sub013/dserr"
)

// ControlParams is the subset of DL_POLY CONTROL directives spec.md
// §6 names; everything else a real CONTROL file carries is out of
// scope (this repo runs its own MD/MC engine and only exports a
// CONTROL file as an interchange artefact for external tooling).
type ControlParams struct {
	Temperature                 float64
	Cutoff                      float64
	Ensemble                    string // e.g. "nvt"
	EnsembleMethod               string // e.g. "berendsen"
	EnsembleThermostatCoupling   float64
	Timestep                     float64
	TimestepVariable             bool
	TimeRun                      float64
	TrajKey                      string
	TrajFrequency                int
	CoulMethod                   string
	CoulPrecision                float64
	EquilibrationForceCap        float64
	PrintFrequency               int
	StatsFrequency               int
}

// ExportControl writes p as a DL_POLY CONTROL file: one key-value
// directive per line, in the order spec.md §6 lists them.
func ExportControl(path string, p ControlParams) error {
	f, err := os.Create(path)
	if err != nil {
		return dserr.Wrap(dserr.Communication, "dlpoly.ExportControl", err)
	}
	defer f.Close()

	lines := []string{
		"io_file_config CONFIG",
		"io_file_field FIELD",
		"io_file_statis STATIS",
		"io_file_history HISTORY",
		fmt.Sprintf("temperature %g", p.Temperature),
		fmt.Sprintf("cutoff %g", p.Cutoff),
		fmt.Sprintf("ensemble %s", p.Ensemble),
		fmt.Sprintf("ensemble_method %s", p.EnsembleMethod),
		fmt.Sprintf("ensemble_thermostat_coupling %g", p.EnsembleThermostatCoupling),
		fmt.Sprintf("timestep %g", p.Timestep),
		fmt.Sprintf("timestep_variable %s", boolWord(p.TimestepVariable)),
		fmt.Sprintf("time_run %g", p.TimeRun),
		fmt.Sprintf("traj_key %s", p.TrajKey),
		fmt.Sprintf("traj_frequency %d", p.TrajFrequency),
		fmt.Sprintf("coul_method %s", p.CoulMethod),
		fmt.Sprintf("coul_precision %g", p.CoulPrecision),
		"vdw_mix_method Lorentz-Berthelot",
		fmt.Sprintf("equilibration_force_cap %g", p.EquilibrationForceCap),
		fmt.Sprintf("print_frequency %d", p.PrintFrequency),
		fmt.Sprintf("stats_frequency %d", p.StatsFrequency),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return dserr.Wrap(dserr.Communication, "dlpoly.ExportControl", err)
		}
	}
	return nil
}

func boolWord(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
