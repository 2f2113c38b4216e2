package estimator

import (
	"errors"
	"math"
)

var errSingular = errors.New("matrix is singular")

func columnMeans(X [][]float64, d int) []float64 {
	means := make([]float64, d)
	if len(X) == 0 {
		return means
	}
	for _, row := range X {
		for j := 0; j < d; j++ {
			means[j] += row[j]
		}
	}
	for j := range means {
		means[j] /= float64(len(X))
	}
	return means
}

func center(X [][]float64, means []float64) [][]float64 {
	Z := make([][]float64, len(X))
	for i, row := range X {
		z := make([]float64, len(means))
		for j := range means {
			z[j] = row[j] - means[j]
		}
		Z[i] = z
	}
	return Z
}

// gram returns ZᵀZ.
func gram(Z [][]float64, d int) [][]float64 {
	G := make([][]float64, d)
	for i := range G {
		G[i] = make([]float64, d)
	}
	for _, row := range Z {
		for a := 0; a < d; a++ {
			if row[a] == 0 {
				continue
			}
			for b := a; b < d; b++ {
				G[a][b] += row[a] * row[b]
			}
		}
	}
	for a := 0; a < d; a++ {
		for b := 0; b < a; b++ {
			G[a][b] = G[b][a]
		}
	}
	return G
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func normalize(v []float64) []float64 {
	n := math.Sqrt(dot(v, v))
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] /= n
	}
	return v
}

func matVec(A [][]float64, v []float64) []float64 {
	out := make([]float64, len(A))
	for i, row := range A {
		out[i] = dot(row, v)
	}
	return out
}

// solve solves A x = b by Gaussian elimination with partial pivoting.
// A and b are not modified.
func solve(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)
	M := make([][]float64, n)
	for i := range A {
		M[i] = make([]float64, n+1)
		copy(M[i], A[i])
		M[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(M[r][col]) > math.Abs(M[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(M[pivot][col]) < 1e-12 {
			return nil, errSingular
		}
		M[col], M[pivot] = M[pivot], M[col]

		for r := col + 1; r < n; r++ {
			f := M[r][col] / M[col][col]
			for c := col; c <= n; c++ {
				M[r][c] -= f * M[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := M[i][n]
		for j := i + 1; j < n; j++ {
			s -= M[i][j] * x[j]
		}
		x[i] = s / M[i][i]
	}
	return x, nil
}
