package scattering

import "math"

// pseudoinverse returns the Moore-Penrose pseudoinverse of a (m x n),
// via a one-sided Jacobi SVD. gosl/la's surface observed in this pack
// (MatInvG, MatInv, MatAlloc, MatVecMul, MatMul, Triplet, GetSolver) is
// a determinant/LU-based dense+sparse solver API with no SVD entry
// point exercised anywhere in the retrieved corpus, so SVD::pseudoinverse
// (math/svd.h, called from scatteringmatrix.cpp) is reimplemented here
// directly rather than guessed at against an unconfirmed library call.
// ok is false if the matrix could not be reduced to a stable rank.
func pseudoinverse(a [][]float64) (pinv [][]float64, ok bool) {
	m := len(a)
	if m == 0 {
		return nil, false
	}
	n := len(a[0])
	if n == 0 {
		return nil, false
	}

	if m < n {
		at := transpose(a)
		pinvAt, okAt := pseudoinverseTall(at)
		if !okAt {
			return nil, false
		}
		return transpose(pinvAt), true
	}
	return pseudoinverseTall(a)
}

// pseudoinverseTall computes the pseudoinverse of a with rows >= columns.
func pseudoinverseTall(a [][]float64) ([][]float64, bool) {
	m, n := len(a), len(a[0])

	u := make([][]float64, m)
	for i := range u {
		u[i] = append([]float64(nil), a[i]...)
	}
	v := identity(n)

	const maxSweeps = 60
	const tol = 1e-12
	for sweep := 0; sweep < maxSweeps; sweep++ {
		offDiag := 0.0
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				alpha, beta, gamma := 0.0, 0.0, 0.0
				for i := 0; i < m; i++ {
					alpha += u[i][p] * u[i][p]
					beta += u[i][q] * u[i][q]
					gamma += u[i][p] * u[i][q]
				}
				offDiag += gamma * gamma
				if math.Abs(gamma) < tol*math.Sqrt(alpha*beta)+1e-300 {
					continue
				}
				zeta := (beta - alpha) / (2.0 * gamma)
				t := 1.0 / (math.Abs(zeta) + math.Sqrt(1.0+zeta*zeta))
				if zeta < 0 {
					t = -t
				}
				c := 1.0 / math.Sqrt(1.0+t*t)
				s := c * t

				for i := 0; i < m; i++ {
					up, uq := u[i][p], u[i][q]
					u[i][p] = c*up - s*uq
					u[i][q] = s*up + c*uq
				}
				for i := 0; i < n; i++ {
					vp, vq := v[i][p], v[i][q]
					v[i][p] = c*vp - s*vq
					v[i][q] = s*vp + c*vq
				}
			}
		}
		if offDiag < 1e-24 {
			break
		}
	}

	sigma := make([]float64, n)
	for j := 0; j < n; j++ {
		sum := 0.0
		for i := 0; i < m; i++ {
			sum += u[i][j] * u[i][j]
		}
		sigma[j] = math.Sqrt(sum)
		if sigma[j] > 1e-300 {
			for i := 0; i < m; i++ {
				u[i][j] /= sigma[j]
			}
		}
	}

	maxSigma := 0.0
	for _, s := range sigma {
		if s > maxSigma {
			maxSigma = s
		}
	}
	if maxSigma == 0 {
		return nil, false
	}
	rankTol := maxSigma * float64(m) * 1e-12

	// pinv = V * Sigma+ * U^T, an n x m result.
	pinv := make([][]float64, n)
	for i := range pinv {
		pinv[i] = make([]float64, m)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				if sigma[k] <= rankTol {
					continue
				}
				sum += v[i][k] * u[j][k] / sigma[k]
			}
			pinv[i][j] = sum
		}
	}
	return pinv, true
}

func identity(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1.0
	}
	return m
}

func transpose(a [][]float64) [][]float64 {
	m, n := len(a), len(a[0])
	t := make([][]float64, n)
	for j := 0; j < n; j++ {
		t[j] = make([]float64, m)
		for i := 0; i < m; i++ {
			t[j][i] = a[i][j]
		}
	}
	return t
}
