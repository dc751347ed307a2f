// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"gonum.org/v1/gonum/floats"
)

// BackSubst solves 𝐋𝐃𝐋ᵀ𝐱 = 𝐛 given the unit lower triangular factor 𝐋 and the product 𝐋𝐃.
//   - 𝐋 is a row-major n×n matrix with ones on its diagonal
//   - 𝐋𝐃 is 𝐋 with each column j scaled by 𝐃ⱼ
//
// The forward pass solves 𝐋𝐃𝐲 = 𝐛 row by row:
//
//	𝐲ᵢ = (𝐛ᵢ - ∑ⱼ₍ⱼ<ᵢ₎ (𝐋𝐃)ᵢⱼ𝐲ⱼ) / (𝐋𝐃)ᵢᵢ
//
// and the backward pass solves 𝐋ᵀ𝐱 = 𝐲 reading 𝐋 through its transpose:
//
//	𝐱ᵢ = 𝐲ᵢ - ∑ⱼ₍ⱼ>ᵢ₎ 𝐋ⱼᵢ𝐱ⱼ
//
// The caller guarantees a valid factorization.
func BackSubst(L, LD, b []float64) []float64 {

	n := len(b)
	if n*n > len(L) || n*n > len(LD) {
		panic("bound check error")
	}
	if n == 0 {
		return []float64{}
	}

	y := make([]float64, n)
	y[0] = b[0] / LD[0]
	for i := 1; i < n; i++ {
		r := i * n
		y[i] = (b[i] - floats.Dot(LD[r:r+i], y[:i])) / LD[r+i]
	}

	x := make([]float64, n)
	x[n-1] = y[n-1]
	for i := n - 2; i >= 0; i-- {
		sum := zero
		for j := i + 1; j < n; j++ {
			sum += L[j*n+i] * x[j]
		}
		x[i] = y[i] - sum
	}
	return x
}

// factorLDL computes 𝐐 = 𝐋𝐃𝐋ᵀ column by column.
// It stops at the first pivot 𝐃ᵢ that is exactly zero and reports its index (or -1 if none).
func factorLDL(Q []float64, n int) (L, D []float64, singular int) {

	L = make([]float64, n*n)
	D = make([]float64, n)

	for i := 0; i < n; i++ {
		r := i * n
		for j := 0; j < i; j++ {
			c := j * n
			s := Q[r+j]
			for k := 0; k < j; k++ {
				s -= L[r+k] * L[c+k] * D[k]
			}
			L[r+j] = s / D[j]
		}
		L[r+i] = one

		d := Q[r+i]
		for k := 0; k < i; k++ {
			d -= L[r+k] * L[r+k] * D[k]
		}
		D[i] = d

		if d == zero {
			return nil, nil, i
		}
	}
	return L, D, -1
}

// SolveCholesky solves 𝐐𝐱 = 𝐛 and 𝐐𝐲 = 𝟙 for a symmetric positive semi-definite 𝐐.
// 𝐲 is the direction along which the simplex constraint ∑𝐱 ≤ C is violated.
//
// # Singular Pivots
//
// When a pivot 𝐃ᵢ evaluates to exactly zero, the i-th row and column of 𝐐
// and the i-th entry of 𝐛 are removed, the reduced system is solved again,
// and 𝐱ᵢ = 𝐲ᵢ = 0 are reinserted at the removed position.
// Every singular pivot removes one more dimension, so at most n reductions happen.
// If all dimensions are removed both 𝐱 and 𝐲 are zero.
func SolveCholesky(Q, b []float64) (x, y []float64) {

	n := len(b)
	if n*n != len(Q) {
		panic("bound check error")
	}

	active := identity(n)
	for len(active) > 0 {
		m := len(active)
		Qa, ba := Q, b
		if m < n {
			Qa, ba = gather(Q, b, active)
		}

		L, D, k := factorLDL(Qa, m)
		if k >= 0 {
			active = eliminate(active, k)
			continue
		}

		LD := make([]float64, m*m)
		for i := 0; i < m; i++ {
			r := i * m
			for j := 0; j <= i; j++ {
				LD[r+j] = L[r+j] * D[j]
			}
		}

		ones := make([]float64, m)
		for i := range ones {
			ones[i] = one
		}

		x = scatter(n, BackSubst(L, LD, ba), active)
		y = scatter(n, BackSubst(L, LD, ones), active)
		return
	}

	return make([]float64, n), make([]float64, n)
}
