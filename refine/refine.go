// Package refine implements the EPSR (Empirical Potential Structure
// Refinement) loop: turning the discrepancy between simulated and
// reference scattering data into small perturbations to the
// short-range pair potentials.
package refine

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/config"
	"github.com/disorderedmaterials/dissolve-sub013/dserr"
	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/potential"
	"github.com/disorderedmaterials/dissolve-sub013/scattering"
	"github.com/disorderedmaterials/dissolve-sub013/sq"
)

// ExpansionBasis selects the functional family used to fit the
// reciprocal-space difference function before it is transformed back
// to a real-space potential perturbation.
type ExpansionBasis int

const (
	// GaussianExpansion fits with a sum of Gaussians in Q.
	GaussianExpansion ExpansionBasis = iota
	// PoissonExpansion fits with a sum of Poisson (power-exponential) functions in Q.
	PoissonExpansion
)

// Config holds the tunables refine.h declares as module keywords.
type Config struct {
	Feedback            float64 // confidence factor blending reference vs simulated data, 0-1
	QMin, QMax          float64 // Q range over which potentials are generated from total scattering data
	Weighting           float64 // scale applied to the generated perturbation before it is added in
	ERequired           float64 // magnitude cap for any one pair's additional potential
	Expansion           ExpansionBasis
	NCoeffP             int     // number of expansion-function coefficients; 0 selects a default from rMaxPT
	GSigma1, GSigma2    float64 // Gaussian widths in Q and r
	PSigma1, PSigma2    float64 // Poisson widths in Q and r
	RMinPT, RMaxPT      float64 // truncation window; RMaxPT<=0 uses the potential's own cutoff
	OverwritePotentials bool    // replace the additional channel each iteration rather than accumulate
}

// defaultedRange fills in RMinPT/RMaxPT/NCoeffP the way process.cpp
// derives rmaxpt/rminpt/ncoeffp when the user leaves them unset.
func (c Config) defaultedRange(ppRange float64) (rMinPT, rMaxPT float64, nCoeffP int) {
	rMaxPT = c.RMaxPT
	if rMaxPT <= 0 {
		rMaxPT = ppRange
	}
	rMinPT = c.RMinPT
	if rMinPT <= 0 {
		rMinPT = rMaxPT - 2.0
	}
	nCoeffP = c.NCoeffP
	if nCoeffP <= 0 {
		nCoeffP = int(10.0*rMaxPT + 0.0001)
		if nCoeffP > 200 {
			nCoeffP = 200
		}
	}
	return
}

// Target is one experimental dataset participating in a refinement
// iteration: its reference F(Q), the simulated weighted total it is
// compared against, and the atom types/weighting used to enter it
// into the scattering matrix.
type Target struct {
	Name          string
	ReferenceFQ   *dsio.Data1D
	SimulatedFQ   *dsio.Data1D // weighted total from the current configuration
	BoundTotal    *dsio.Data1D // intramolecular contribution to subtract before matrix entry
	UsedTypes     []int
	IsXRay        bool
	Normalisation sq.XRayNormalisation
}

// IterationResult reports the per-target and total R-factors for one
// refine step, for logging/restart-file purposes.
type IterationResult struct {
	RFactor      map[string]float64
	TotalRFactor float64
}

// rFactor is the percent area error over the fit range,
// 100·Σ|ref-calc| / Σ|ref|, matching the "percent area error over the fit range" the
// spec's R-factor step calls for; the original Error::rFactor body was
// not retrieved, so this is a standard area-based definition rather
// than a transcription.
func rFactor(ref, calc *dsio.Data1D, qMin, qMax float64) float64 {
	num, den := 0.0, 0.0
	for i, q := range ref.X {
		if q < qMin || q > qMax {
			continue
		}
		c := calc.Interpolate(q)
		num += math.Abs(ref.Values[i] - c)
		den += math.Abs(ref.Values[i])
	}
	if den == 0 {
		return 0
	}
	return 100.0 * num / den
}

// Loop drives repeated refinement iterations against a fixed atom-type
// index space and scattering-matrix column layout.
type Loop struct {
	cfg   Config
	types *config.AtomTypeMix
}

// NewLoop constructs a refinement loop over types, using cfg's tunables.
func NewLoop(cfg Config, types *config.AtomTypeMix) *Loop {
	return &Loop{cfg: cfg, types: types}
}

// Iterate runs one pass of the 8-step EPSR loop (spec.md §4.12):
//
//  1. sum unweighted S(Q) contributions from every target (handled by
//     the caller via simulatedUnweighted, already averaged across targets),
//  2. enter each target's reference F(Q), less its bound (intramolecular)
//     total, into the scattering matrix; the difference from the
//     simulation is taken per pair after step 5, not per target,
//  3. scale reference data to remove calculated normalisation (X-ray targets),
//  4. augment with the current simulated partials at weight 1-feedback,
//  5. generatePartials to recover estimated per-pair S(Q); no estimated
//     g(r) is formed,
//  6. fit ΔS(Q) with the configured expansion basis,
//  7. synthesise a smoothly-truncated per-pair Δϕ_ij(r),
//  8. scale by Weighting and add into pot's additional channel.
//
// numberDensity is the target configuration's atomic density (rho),
// required for the sine-transform prefactor at every FT step.
//
// Stability guard (spec.md §4.12): when energyStable is false — the
// configuration's energy trend has not yet levelled off, per
// config.EnergyStabilityTracker — no potential perturbation is
// computed or applied this iteration, and the call reports
// dserr.NotExecuted rather than an error, matching the propagation
// policy's "not yet stable" precondition (spec.md §7).
func (l *Loop) Iterate(cfg *config.Configuration, targets []Target, simulatedUnweighted *sq.SQSet, numberDensity float64, pot *potential.PotentialMap, energyStable bool) (*IterationResult, dserr.Outcome, error) {
	if !energyStable {
		return nil, dserr.NotExecuted, nil
	}
	if len(targets) == 0 {
		return nil, dserr.Failed, dserr.New(dserr.Setup, "Loop.Iterate", "at least one reference target is required")
	}

	matrix := scattering.New(l.types)
	result := &IterationResult{RFactor: make(map[string]float64)}

	for _, tgt := range targets {
		rf := rFactor(tgt.ReferenceFQ, tgt.SimulatedFQ, l.cfg.QMin, l.cfg.QMax)
		result.RFactor[tgt.Name] = rf
		result.TotalRFactor += rf

		// Step 2/3: subtract the intramolecular (bound) total and enter
		// the corrected reference data into the scattering matrix.
		refMinusIntra := dsio.New(tgt.Name + "//RefMinusIntra")
		refMinusIntra.InitialiseLike(tgt.ReferenceFQ)
		copy(refMinusIntra.Values, tgt.ReferenceFQ.Values)
		if tgt.BoundTotal != nil {
			dsio.AddInterpolated(refMinusIntra, tgt.BoundTotal, -1.0)
		}

		var err error
		if tgt.IsXRay {
			err = matrix.AddXRayReferenceData(refMinusIntra, cfg, tgt.UsedTypes, l.cfg.Feedback, tgt.Normalisation)
		} else {
			err = matrix.AddNeutronReferenceData(refMinusIntra, cfg, tgt.UsedTypes, l.cfg.Feedback)
		}
		if err != nil {
			return nil, dserr.Failed, err
		}
	}
	result.TotalRFactor /= float64(len(targets))

	// Step 4: augment with the currently-simulated partials at weight (1-feedback).
	matrix.AugmentWithSimulated(simulatedUnweighted, l.cfg.Feedback)

	// Step 5: recover estimated partial S(Q) for every pair.
	qGrid := targets[0].ReferenceFQ.X
	estimated, err := matrix.GeneratePartials(cfg, qGrid)
	if err != nil {
		return nil, dserr.Failed, err
	}

	ppRange := pot.Cutoff()
	rMinPT, rMaxPT, nCoeffP := l.cfg.defaultedRange(ppRange)

	for pairKey, estSQ := range estimated {
		i, j := pairKey[0], pairKey[1]
		simSQ, ok := simulatedUnweighted.Pairs[pairKey]
		if !ok {
			continue
		}

		// ΔS(Q) = estimated - simulated, the step-5/6 input.
		deltaSQ := dsio.New("DeltaSQ")
		deltaSQ.InitialiseLike(estSQ)
		for n := range deltaSQ.Values {
			deltaSQ.Values[n] = estSQ.Values[n] - simSQ.Full.Interpolate(estSQ.X[n])
		}

		// Step 6: fit the difference with the configured basis, then
		// re-evaluate the fit (rather than the raw noisy difference)
		// before transforming back to r-space — the point of fitting
		// at all is to denoise ΔS(Q) before it drives a potential change.
		sigmaQ := expansionSigma(l.cfg.Expansion, l.cfg.GSigma1, l.cfg.PSigma1)
		coeffs := fitExpansion(deltaSQ, l.cfg.Expansion, nCoeffP, sigmaQ)
		smoothed := evaluateExpansion(deltaSQ.X, coeffs, l.cfg.Expansion, sigmaQ)

		// Step 7: inverse-transform to real space and synthesise the
		// truncated, tapered perturbation.
		deltaGR := sq.SineFT(smoothed, numberDensity, 0.0, 0.05, rMaxPT, sq.WindowFunction{Form: sq.Lorch0}, sq.BroadeningFunction{})
		deltaPhiR := truncateAndTaper(deltaGR, rMinPT, rMaxPT)

		// Step 8: scale and apply.
		values := make([]float64, len(deltaPhiR.Values))
		for n, v := range deltaPhiR.Values {
			values[n] = v * l.cfg.Weighting
			if values[n] > l.cfg.ERequired {
				values[n] = l.cfg.ERequired
			} else if values[n] < -l.cfg.ERequired {
				values[n] = -l.cfg.ERequired
			}
		}
		pairIdx := l.types.PairIndex(i, j)
		pot.SetOverwriteMode(pairIdx, l.cfg.OverwritePotentials)
		delta := 0.0
		if len(deltaPhiR.X) > 1 {
			delta = deltaPhiR.X[1] - deltaPhiR.X[0]
		}
		pot.ApplyPerturbation(pairIdx, delta, values)
	}

	return result, dserr.Success, nil
}

// truncateAndTaper zeroes deltaGR below (rMin - truncationWidth),
// cosine-ramps it up to rMin, then linearly tapers the whole function
// to zero by the last point — the "smoothly zeroing below a minimum
// radius... and tapering to zero at the cutoff" spec.md §4.12 step 7
// describes, transcribed from process/method.cpp's truncation loop
// (truncationStart = minimumRadius - truncationWidth, cosine ramp,
// then linear taper by 1 - n/(nPoints-1)).
func truncateAndTaper(deltaGR *dsio.Data1D, rMin, rMax float64) *dsio.Data1D {
	const truncationWidth = 2.0
	truncationStart := rMin - truncationWidth

	out := dsio.New("DeltaPhiR")
	out.InitialiseLike(deltaGR)
	n := len(out.X)
	for idx := 0; idx < n; idx++ {
		r := out.X[idx]
		v := deltaGR.Values[idx]
		switch {
		case r < truncationStart:
			v = 0
		case r > rMax:
			v = 0
		case r < rMin:
			v *= 0.5 - 0.5*math.Cos(math.Pi*0.5*(r-truncationStart)/(truncationWidth*0.5))
		}
		if n > 1 {
			v *= 1.0 - float64(idx)/float64(n-1)
		}
		out.Values[idx] = v
	}
	return out
}
