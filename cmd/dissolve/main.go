// Command dissolve runs the EPSR configuration engine described by an
// input deck: equilibrating moves, optional molecular dynamics, and
// an optional refine loop against reference scattering data.
//
// Grounded on gofem's own main.go (mpi.Start/Stop bracketing the run,
// io.ArgsTable-style startup banner, panic recovery mapped to a
// non-zero exit code), generalised from gofem's five positional
// arguments to the flag-based CLI surface spec.md §6 names.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/deck"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
	"github.com/disorderedmaterials/dissolve-sub013/dslog"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/histogram"
	"github.com/disorderedmaterials/dissolve-sub013/kernel"
	"github.com/disorderedmaterials/dissolve-sub013/pool"
	"github.com/disorderedmaterials/dissolve-sub013/refine"
	"github.com/disorderedmaterials/dissolve-sub013/restart"
	"github.com/disorderedmaterials/dissolve-sub013/sq"
)

// moduleFailureThreshold is how many times a single module may fail
// before the run aborts, per spec.md §7 ("crossing a per-module
// failure threshold aborts the run"); no concrete number is given
// there, so 3 was chosen as a small, loggable tolerance for transient
// soft failures (e.g. an occasional unstable MD timestep) without
// masking a module that is persistently broken.
const moduleFailureThreshold = 3

// Exit codes, per spec.md §6.
const (
	exitSuccess     = 0
	exitSetupError  = 1
	exitRuntimeErr  = 2
	exitUserStopped = 3
)

func main() {
	os.Exit(run())
}

// run implements the whole CLI surface as a function returning an exit
// code, so panics recovered at the top can still report one cleanly —
// the same shape as gofem's main() deferred recover, just without the
// process-teardown side effect baked into the recover block itself.
func run() (code int) {
	var (
		iterations  int
		wallSeconds float64
		restartPath string
		noRestartX  bool
		noRestartL  bool
		appendA     bool
		appendL     bool
		interval    int
		quiet       bool
		verbose     bool
	)
	flag.IntVar(&iterations, "n", 0, "number of iterations to run (0 = unbounded)")
	flag.Float64Var(&wallSeconds, "t", 0, "wall-clock time limit in seconds (0 = unbounded)")
	flag.StringVar(&restartPath, "w", "dissolve.restart", "restart file path")
	flag.BoolVar(&noRestartX, "x", false, "disable restart file reading/writing")
	flag.BoolVar(&noRestartL, "no-restart", false, "disable restart file reading/writing")
	flag.BoolVar(&appendA, "a", false, "resume from an existing restart file rather than starting fresh")
	flag.BoolVar(&appendL, "append", false, "resume from an existing restart file rather than starting fresh")
	flag.IntVar(&interval, "f", 1, "write the restart file every N iterations")
	flag.BoolVar(&quiet, "q", false, "suppress all but error output")
	flag.BoolVar(&verbose, "v", false, "verbose per-iteration logging")
	flag.Parse()

	noRestart := noRestartX || noRestartL
	resumeFromRestart := appendA || appendL

	defer func() {
		if r := recover(); r != nil {
			if pool.IsWorldMaster() {
				chk.Verbose = true
				io.PfRed("ERROR: %v\n", r)
			}
			code = exitRuntimeErr
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	deckPath := flag.Arg(0)
	if deckPath == "" {
		io.PfRed("usage: dissolve [flags] <deck.toml>\n")
		return exitSetupError
	}

	logger := dslog.New(verbose, quiet)

	if pool.IsWorldMaster() && !quiet {
		io.PfWhite("\nDissolve -- configuration engine for disordered systems\n\n")
		io.Pf("%v\n", io.ArgsTable(
			"input deck", "deck", deckPath,
			"iterations", "n", iterations,
			"wall limit (s)", "t", wallSeconds,
			"restart file", "w", restartPath,
			"restart disabled", "no-restart", noRestart,
			"resume from restart", "append", resumeFromRestart,
			"restart write stride", "f", interval,
		))
	}

	worldRanks := make([]int, pool.NWorldProcesses())
	for i := range worldRanks {
		worldRanks[i] = i
	}
	procPool := pool.New()
	if err := procPool.SetUp("main", worldRanks); err != nil {
		reportError(logger, err)
		return exitSetupError
	}

	d, err := deck.Load(deckPath)
	if err != nil {
		reportError(logger, err)
		return exitSetupError
	}
	applyOverrides(d, iterations, wallSeconds, restartPath, interval)
	noRestart = noRestart || d.Run.NoRestart
	resumeFromRestart = resumeFromRestart || d.Run.Append
	logger = dslog.New(verbose || d.Run.Verbose, quiet || d.Run.Quiet)

	built, err := d.Build()
	if err != nil {
		reportError(logger, err)
		return exitSetupError
	}
	cfg := built.Configuration

	archive := restart.New()
	if !noRestart && resumeFromRestart {
		if loaded, loadErr := restart.Load(d.Run.RestartPath); loadErr == nil {
			archive = loaded
		} else {
			logger.Detail("no usable restart file at %q (%v); starting fresh\n", d.Run.RestartPath, loadErr)
		}
	}

	targets, err := loadTargets(d, cfg.Types)
	if err != nil {
		reportError(logger, err)
		return exitSetupError
	}
	var refineLoop *refine.Loop
	if d.Modules.Refine.Enabled {
		refineLoop = refine.NewLoop(built.RefineConfig, cfg.Types)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	maxIterations := d.Run.Iterations
	stopped := false

	for iter := 1; maxIterations <= 0 || iter <= maxIterations; iter++ {
		select {
		case <-ctx.Done():
			stopped = true
		default:
		}
		if stopped {
			break
		}
		if d.Run.WallLimit > 0 && time.Since(start).Seconds() >= d.Run.WallLimit {
			break
		}

		if err := runIteration(d, built, cfg, procPool, refineLoop, targets, archive, iter, logger); err != nil {
			reportError(logger, err)
			return exitRuntimeErr
		}

		if !noRestart && d.Run.RestartInterval > 0 && iter%d.Run.RestartInterval == 0 {
			if err := archive.Save(d.Run.RestartPath); err != nil {
				logger.Warn("restart save failed: %v\n", err)
			}
		}
	}

	if !noRestart {
		if err := archive.Save(d.Run.RestartPath); err != nil {
			logger.Warn("final restart save failed: %v\n", err)
		}
	}

	if stopped {
		logger.Info("stopped on user request\n")
		return exitUserStopped
	}
	logger.Success("done\n")
	return exitSuccess
}

// applyOverrides lets explicitly-passed CLI flags win over whatever
// the deck's [run] table already specified, mirroring the original
// module's "flags override deck defaults" convention.
func applyOverrides(d *deck.Deck, iterations int, wallSeconds float64, restartPath string, interval int) {
	if iterations > 0 {
		d.Run.Iterations = iterations
	}
	if wallSeconds > 0 {
		d.Run.WallLimit = wallSeconds
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "w" {
			d.Run.RestartPath = restartPath
		}
		if f.Name == "f" {
			d.Run.RestartInterval = interval
		}
	})
	if d.Run.RestartPath == "" {
		d.Run.RestartPath = restartPath
	}
}

// loadTargets reads every reference dataset named in the deck's
// [[modules.targets]] tables into a refine.Target, resolving each
// target's used-type names against types.
func loadTargets(d *deck.Deck, types interface {
	IndexOf(string) int
}) ([]refine.Target, error) {
	var out []refine.Target
	for _, td := range d.Modules.Targets {
		ref, err := dsio.Import(td.Path)
		if err != nil {
			return nil, err
		}
		usedTypes := make([]int, 0, len(td.UsedTypes))
		for _, name := range td.UsedTypes {
			idx := types.IndexOf(name)
			if idx < 0 {
				return nil, dserr.New(dserr.Setup, "loadTargets", "target %q references unknown atom type %q", td.Name, name)
			}
			usedTypes = append(usedTypes, idx)
		}
		out = append(out, refine.Target{
			Name:          td.Name,
			ReferenceFQ:   ref,
			UsedTypes:     usedTypes,
			IsXRay:        td.Kind == "xray",
			Normalisation: normalisationFor(td.Normalisation),
		})
	}
	return out, nil
}

func normalisationFor(name string) sq.XRayNormalisation {
	switch name {
	case "average_squared":
		return sq.XRayAverageSquared
	case "squared_average":
		return sq.XRaySquaredAverage
	default:
		return sq.XRayNoNormalisation
	}
}

// boundOnlySQSet copies set with each pair's Full replaced by its
// Bound component, so the existing weighting functions (which only
// ever read sq.Full) can be reused to compute a target's intramolecular
// contribution without a second, parallel weighting implementation.
func boundOnlySQSet(set *sq.SQSet) *sq.SQSet {
	out := &sq.SQSet{Pairs: make(map[[2]int]sq.PairSQ, len(set.Pairs))}
	for k, v := range set.Pairs {
		out.Pairs[k] = sq.PairSQ{Full: v.Bound, Bound: v.Bound, Unbound: v.Unbound}
	}
	return out
}

// runIteration performs one full equilibration/analysis/refine cycle:
// configured MC moves, optional MD, g(r)/S(Q) recomputation, and (if
// enabled) one EPSR refine step, archiving every module's output under
// its own restart-archive entry.
//
// Per spec.md §7, a module failure is soft: it is logged against that
// module's failure counter and the remainder of the iteration's
// pipeline is skipped, but the run itself continues. Only a module
// that crosses moduleFailureThreshold turns its failure into the hard
// error that aborts the run.
func runIteration(d *deck.Deck, built *deck.Built, cfg *config.Configuration, procPool *pool.ProcessPool, refineLoop *refine.Loop, targets []refine.Target, archive *restart.Archive, iter int, logger *dslog.Logger) error {
	fail := func(module string, err error) error {
		logger.Error(module, "iter %d: %v\n", iter, err)
		if logger.ThresholdExceeded(module, moduleFailureThreshold) {
			return dserr.Wrap(dserr.Computation, module, err)
		}
		return nil
	}

	if built.AtomShake != nil {
		res, err := built.AtomShake.Run(cfg, built.Potentials, procPool)
		if err != nil {
			if abort := fail("atomShake", err); abort != nil {
				return abort
			}
			return nil
		}
		logger.Detail("iter %d: atomShake acceptance %.1f%%\n", iter, 100*res.AcceptanceRate())
	}
	if built.MolShake != nil {
		res, err := built.MolShake.Run(cfg, built.Potentials, procPool)
		if err != nil {
			if abort := fail("molShake", err); abort != nil {
				return abort
			}
			return nil
		}
		logger.Detail("iter %d: molShake translate %.1f%% rotate %.1f%%\n", iter, 100*res.TranslationRate(), 100*res.RotationRate())
	}
	if built.MD != nil {
		if _, err := built.MD.Run(cfg, built.Potentials, procPool); err != nil {
			if abort := fail("md", err); abort != nil {
				return abort
			}
			return nil
		}
	}

	energy, err := kernel.NewEnergyKernel(cfg, built.Potentials, procPool).TotalEnergy()
	if err != nil {
		if abort := fail("energy", err); abort != nil {
			return abort
		}
		return nil
	}
	cfg.Stability.Update(energy.Total())

	rdfRange := d.Configuration.PairPotentialRange
	ps, err := histogram.ComputeGR(cfg, procPool, rdfRange, d.Configuration.RDFBinWidth)
	if err != nil {
		return fail("histogram", err)
	}
	if err := archive.Put("histogram", "partialSet", "PartialSet", ps); err != nil {
		return fail("histogram", err)
	}

	numberDensity := float64(cfg.NAtoms()) / cfg.Box.Volume()
	qStep := 0.05
	sqset := sq.ComputeSQSet(ps, numberDensity, 0.0, qStep, d.Modules.Refine.QMax, sq.WindowFunction{Form: sq.Lorch0}, sq.BroadeningFunction{})

	if refineLoop != nil && len(targets) > 0 {
		bound := boundOnlySQSet(sqset)
		for i := range targets {
			if targets[i].IsXRay {
				simulated, err := sq.XRayWeightedSQ(sqset, cfg, cfg.Types, targets[i].Normalisation)
				if err != nil {
					return fail("xray", err)
				}
				boundTotal, err := sq.XRayWeightedSQ(bound, cfg, cfg.Types, targets[i].Normalisation)
				if err != nil {
					return fail("xray", err)
				}
				targets[i].SimulatedFQ = simulated
				targets[i].BoundTotal = boundTotal
			} else {
				targets[i].SimulatedFQ = sq.NeutronWeightedSQ(sqset, cfg, cfg.Types)
				targets[i].BoundTotal = sq.NeutronWeightedSQ(bound, cfg, cfg.Types)
			}
		}
		result, outcome, err := refineLoop.Iterate(cfg, targets, sqset, numberDensity, built.Potentials, cfg.Stability.Stable())
		if err != nil {
			return fail("refine", err)
		}
		switch outcome {
		case dserr.NotExecuted:
			logger.Detail("iter %d: refine skipped, energy not yet stable\n", iter)
		default:
			logger.Detail("iter %d: total R-factor %.4f\n", iter, result.TotalRFactor)
		}
	}

	return nil
}

func reportError(logger *dslog.Logger, err error) {
	if pool.IsWorldMaster() {
		logger.Error("setup", "%v\n", err)
	}
}
