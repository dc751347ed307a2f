// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Objective evaluates -½𝐱ᵀ𝐐𝐱 + 𝐛ᵀ𝐱 for a row-major n×n matrix 𝐐.
func Objective(Q, b, x []float64) float64 {
	n := len(b)
	if n*n != len(Q) || n != len(x) {
		panic("bound check error")
	}
	f := floats.Dot(b, x)
	for i := 0; i < n; i++ {
		f -= half * x[i] * floats.Dot(Q[i*n:(i+1)*n], x)
	}
	return f
}

// Gradient evaluates the gradient -𝐐𝐱 + 𝐛 of the objective into g.
func Gradient(Q, b, x, g []float64) {
	n := len(b)
	if n*n != len(Q) || n != len(x) || n != len(g) {
		panic("bound check error")
	}
	for i := 0; i < n; i++ {
		g[i] = b[i] - floats.Dot(Q[i*n:(i+1)*n], x)
	}
}

// identity returns the index set {0 ··· n-1}.
func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// gather extracts the principal sub-matrix of 𝐐 and the sub-vector of 𝐛 spanned by idx.
func gather(Q, b []float64, idx []int) (Qs, bs []float64) {
	n, m := len(b), len(idx)
	Qs = make([]float64, m*m)
	bs = make([]float64, m)
	for r, i := range idx {
		bs[r] = b[i]
		row := Q[i*n : (i+1)*n]
		for c, j := range idx {
			Qs[r*m+c] = row[j]
		}
	}
	return
}

// scatter expands a solution over idx back to an n-vector, leaving zeros at the eliminated positions.
func scatter(n int, xs []float64, idx []int) []float64 {
	x := make([]float64, n)
	for r, i := range idx {
		x[i] = xs[r]
	}
	return x
}

// eliminate removes the k-th entry of the active index set.
func eliminate(idx []int, k int) []int {
	return slices.Delete(idx, k, k+1)
}

func clamp(v, c float64) float64 {
	if v < zero {
		v = zero
	}
	if v > c {
		v = c
	}
	return v
}
