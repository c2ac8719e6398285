package refine

import (
	"math"

	"github.com/disorderedmaterials/dissolve-sub013/dsio"
)

// No retrievable source in the original implementation gives the body
// of a Gaussian/Poisson basis-expansion fit (refine.h declares
// expansionFunction_/nCoeffP_/gSigma1_/pSigma1_ as configuration knobs,
// but no PoissonFit/GaussianFit class exists anywhere in the retrieved
// sources). What follows is a standard evenly-spaced-centre,
// fixed-width least-squares basis fit, whose normal equations are
// solved by Gaussian elimination with partial pivoting
// (solveLinearSystem) — an original interpretation of the declared knobs rather
// than a transcription.

// gaussianBasis evaluates a unit-height Gaussian of width sigma centred at c.
func gaussianBasis(q, c, sigma float64) float64 {
	d := (q - c) / sigma
	return math.Exp(-0.5 * d * d)
}

// poissonBasis evaluates the Poisson/power-exponential basis function
// EPSR uses in place of a Gaussian: a causal, asymmetric pulse that
// vanishes for q<c and peaks just after c.
func poissonBasis(q, c, sigma float64) float64 {
	if q < c {
		return 0
	}
	x := (q - c) / sigma
	return x * math.Exp(1.0-x)
}

// expansionSigma picks the Q-space width appropriate to basis, mirroring
// refine.h's separate gSigma1_ (Gaussian) and pSigma1_ (Poisson) knobs.
func expansionSigma(basis ExpansionBasis, gSigma1, pSigma1 float64) float64 {
	if basis == PoissonExpansion {
		return pSigma1
	}
	return gSigma1
}

func basisValue(basis ExpansionBasis, q, c, sigma float64) float64 {
	if basis == PoissonExpansion {
		return poissonBasis(q, c, sigma)
	}
	return gaussianBasis(q, c, sigma)
}

// fitExpansion projects data onto nCoeff evenly-spaced basis functions
// spanning data's own Q range via ordinary least squares, solved from
// the normal equations (design^T design) x = design^T data by Gaussian
// elimination with partial pivoting.
func fitExpansion(data *dsio.Data1D, basis ExpansionBasis, nCoeff int, sigmaQ float64) []float64 {
	if nCoeff <= 0 || len(data.X) == 0 {
		return nil
	}
	qMin, qMax := data.X[0], data.X[len(data.X)-1]
	centres := basisCentres(qMin, qMax, nCoeff)

	design := make([][]float64, len(data.X))
	for r, q := range data.X {
		design[r] = make([]float64, nCoeff)
		for c := 0; c < nCoeff; c++ {
			design[r][c] = basisValue(basis, q, centres[c], sigmaQ)
		}
	}

	ata := make([][]float64, nCoeff)
	atb := make([]float64, nCoeff)
	for row := 0; row < nCoeff; row++ {
		ata[row] = make([]float64, nCoeff)
		for col := 0; col < nCoeff; col++ {
			sum := 0.0
			for r := range design {
				sum += design[r][row] * design[r][col]
			}
			ata[row][col] = sum
		}
		sum := 0.0
		for r := range design {
			sum += design[r][row] * data.Values[r]
		}
		atb[row] = sum
		ata[row][row] += 1e-10 // Tikhonov damping: keeps evenly-spaced, overlapping bases well-conditioned.
	}

	coeffs, ok := solveLinearSystem(ata, atb)
	if !ok {
		return nil
	}
	return coeffs
}

// solveLinearSystem solves a x = b for a small dense square system via
// Gaussian elimination with partial pivoting.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, bool) {
	n := len(a)
	m := make([][]float64, n)
	for i := range m {
		m[i] = append([]float64(nil), a[i]...)
	}
	x := append([]float64(nil), b...)

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-300 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		x[col], x[pivot] = x[pivot], x[col]

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c < n; c++ {
				m[r][c] -= factor * m[col][c]
			}
			x[r] -= factor * x[col]
		}
	}

	out := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * out[j]
		}
		out[i] = sum / m[i][i]
	}
	return out, true
}

// evaluateExpansion reconstructs the fitted curve over xGrid from the
// coefficients returned by fitExpansion, using the same evenly-spaced
// centres (recomputed from xGrid's own range, matching fitExpansion's data).
func evaluateExpansion(xGrid []float64, coeffs []float64, basis ExpansionBasis, sigmaQ float64) *dsio.Data1D {
	out := dsio.New("ExpansionFit")
	out.Initialise(len(xGrid), false)
	copy(out.X, xGrid)
	if len(coeffs) == 0 || len(xGrid) == 0 {
		return out
	}
	qMin, qMax := xGrid[0], xGrid[len(xGrid)-1]
	centres := basisCentres(qMin, qMax, len(coeffs))
	for i, q := range xGrid {
		sum := 0.0
		for c, coeff := range coeffs {
			sum += coeff * basisValue(basis, q, centres[c], sigmaQ)
		}
		out.Values[i] = sum
	}
	return out
}

func basisCentres(qMin, qMax float64, n int) []float64 {
	centres := make([]float64, n)
	if n == 1 {
		centres[0] = 0.5 * (qMin + qMax)
		return centres
	}
	step := (qMax - qMin) / float64(n-1)
	for i := range centres {
		centres[i] = qMin + float64(i)*step
	}
	return centres
}
