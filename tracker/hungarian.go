package tracker

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// hungarian solves the linear assignment problem for a square cost matrix
// using the Hungarian (Kuhn-Munkres) algorithm with row and column
// potentials.  It returns rowsol where rowsol[i] is the column assigned to
// row i
func hungarian(cost *mat.Dense) []int {

	n, _ := cost.Dims()

	if n == 0 {
		return nil
	}

	inf := math.Inf(1)

	// potentials and matching use 1 based indices, index 0 is a sentinel
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {

		p[0] = i
		j0 := 0

		for j := range minv {
			minv[j] = inf
			used[j] = false
		}

		// grow an alternating path until a free column is reached
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := 0

			for j := 1; j <= n; j++ {

				if used[j] {
					continue
				}

				cur := cost.At(i0-1, j-1) - u[i0] - v[j]

				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}

				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1

			if p[j0] == 0 {
				break
			}
		}

		// flip the augmenting path
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowsol := make([]int, n)

	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			rowsol[p[j]-1] = j - 1
		}
	}

	return rowsol
}
