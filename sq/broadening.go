package sq

import "math"

// BroadeningFunction represents a Q-space Gaussian convolution applied
// to a pair's structure factor (intramolecular correlations are
// broadened to account for vibrational motion, per the original's
// BroadeningFunction/QBroadening keyword). Since the Fourier transform
// of a Gaussian is itself a Gaussian, convolving S(Q) with a Gaussian
// of width sigmaQ is equivalent to multiplying the real-space
// integrand by exp(-0.5*sigmaQ^2*r^2) before transforming — applied
// here as an r-space apodisation rather than a separate Q-space
// convolution pass, avoiding a second O(N_Q * N_Q) convolution loop.
type BroadeningFunction struct {
	SigmaQ   float64 // Q-space Gaussian width, inverse Angstroms; 0 disables broadening
	Inverted bool    // true to remove (rather than apply) broadening, for back-transforms
}

// Factor returns the r-space multiplier equivalent to this function's
// Q-space Gaussian convolution at separation r.
func (b BroadeningFunction) Factor(r float64) float64 {
	if b.SigmaQ <= 0 {
		return 1.0
	}
	exponent := -0.5 * b.SigmaQ * b.SigmaQ * r * r
	if b.Inverted {
		exponent = -exponent
	}
	return math.Exp(exponent)
}
