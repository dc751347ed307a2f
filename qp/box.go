// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"

	"github.com/pkg/errors"
)

// BoxOpt maximizes -½𝐱ᵀ𝐐𝐱 + 𝐛ᵀ𝐱 subject to 0 ≤ 𝐱ᵢ ≤ C (i = 1 ··· n).
//
// Starting from the corner 𝐱 = 0, every iteration computes the gradient 𝐠 = -𝐐𝐱 + 𝐛
// and picks the maximal violating pair (see pickVars):
//   - no candidate: the KKT conditions hold and the iteration stops (Optimal)
//   - one candidate i: a Newton step on 𝐱ᵢ alone, 𝐱ᵢ = (𝐠ᵢ + 𝐐ᵢᵢ𝐱ᵢ) / 𝐐ᵢᵢ
//   - two candidates i, j: the 2×2 system in (𝐱ᵢ, 𝐱ⱼ) is solved exactly
//
// Updated coordinates are clipped to [0, C]. The iteration stops early (SmallStep)
// when every updated coordinate moved less than eps, and in any case after nSteps
// iterations (ExceedMaxIter). nSteps is a hard cap, not a convergence guarantee.
//
// 𝐐 must be a symmetric row-major n×n matrix with non-zero diagonal;
// a violation is reported as ErrDimension, ErrZeroDiagonal or ErrAsymmetric.
func BoxOpt(Q, b []float64, C, eps float64, nSteps int) (*Result, error) {

	n := len(b)
	if n*n != len(Q) {
		return nil, errors.Wrapf(ErrDimension, "box: %d entries in Q for %d-vector b", len(Q), n)
	}
	for i := 0; i < n; i++ {
		if Q[i*n+i] == zero {
			return nil, errors.Wrapf(ErrZeroDiagonal, "box: Q[%d,%d]", i, i)
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if Q[i*n+j] != Q[j*n+i] {
				return nil, errors.Wrapf(ErrAsymmetric, "box: Q[%d,%d] = %g, Q[%d,%d] = %g", i, j, Q[i*n+j], j, i, Q[j*n+i])
			}
		}
	}

	x := make([]float64, n)
	g := make([]float64, n)
	res := &Result{X: x, G: g, Summary: Summary{Status: ExceedMaxIter}}

iterate:
	for ; res.NumIter < nSteps; res.NumIter++ {

		Gradient(Q, b, x, g)
		lo, hi := pickVars(g, x, C)

		switch {
		case lo < 0 && hi < 0:
			res.Status = Optimal
			break iterate

		case lo < 0 || hi < 0:
			i := max(lo, hi)
			if newtonStep(Q, g, x, n, i, C) < eps {
				res.Status = SmallStep
				break iterate
			}

		default:
			i, j := lo, hi
			qii, qij, qjj := Q[i*n+i], Q[i*n+j], Q[j*n+j]

			// right-hand side of the 2×2 system with all other coordinates fixed
			ri := g[i] + qii*x[i] + qij*x[j]
			rj := g[j] + qij*x[i] + qjj*x[j]

			det := qij*qij - qii*qjj
			if qij != zero && det == zero {
				if newtonStep(Q, g, x, n, i, C) < eps {
					res.Status = SmallStep
					break iterate
				}
				continue
			}

			xi, xj := x[i], x[j]
			if qij == zero {
				x[i] = ri / qii
				x[j] = rj / qjj
			} else {
				x[j] = (qij*ri - qii*rj) / det
				x[i] = (ri - qij*x[j]) / qii
			}
			x[i] = clamp(x[i], C)
			x[j] = clamp(x[j], C)

			if math.Abs(x[i]-xi) < eps && math.Abs(x[j]-xj) < eps {
				res.Status = SmallStep
				break iterate
			}
		}
	}

	Gradient(Q, b, x, g)
	res.F = Objective(Q, b, x)
	res.OK = res.Status != ExceedMaxIter
	return res, nil
}

// newtonStep maximizes the objective along coordinate i alone and returns the size of the move.
func newtonStep(Q, g, x []float64, n, i int, C float64) float64 {
	qii := Q[i*n+i]
	old := x[i]
	x[i] = clamp((g[i]+qii*x[i])/qii, C)
	return math.Abs(x[i] - old)
}

// pickVars selects the maximal violating pair for the next SMO iteration.
//
// A coordinate is a candidate when moving it along its gradient stays feasible:
// 𝐠ᵢ > 0 with 𝐱ᵢ < C, or 𝐠ᵢ < 0 with 𝐱ᵢ > 0.
// hi is the candidate with the largest gradient and lo the one with the smallest
// (the last one on ties). Either index is -1 when missing; hi is dropped when both
// picks name the same coordinate.
func pickVars(g, x []float64, C float64) (lo, hi int) {

	lo, hi = -1, -1
	gmax, gmin := math.Inf(-1), math.Inf(1)

	for i, gi := range g {
		if !((gi > zero && x[i] < C) || (gi < zero && x[i] > zero)) {
			continue
		}
		if gi > gmax {
			hi, gmax = i, gi
		}
		if gi <= gmin {
			lo, gmin = i, gi
		}
	}

	if lo == hi {
		hi = -1
	}
	return
}
