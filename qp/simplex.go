// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// WeakOpt maximizes -½𝐱ᵀ𝐐𝐱 + 𝐛ᵀ𝐱 subject to ∑𝐱 ≤ Cn.
//
// The unconstrained optimum 𝐱 of 𝐐𝐱 = 𝐛 is returned unchanged when it has no
// negative entries and lies inside the simplex. Otherwise the best point on the
// boundary ∑𝐱 = Cn is obtained by descending along 𝐲 = 𝐐⁻¹𝟙:
//
//	𝐱 ← 𝐱 - λ𝐲,  λ = 𝚖𝚊𝚡(0, ∑𝐱 - Cn) / ∑𝐲
//
// A one-variable system is solved directly as 𝚌𝚕𝚊𝚖𝚙(b/Q, 0, Cn); with Q = 0 the
// solution is 0 when b = 0 and ErrUnsolvable otherwise.
func WeakOpt(Q, b []float64, cn float64) ([]float64, error) {

	n := len(b)
	if n == 0 || n*n != len(Q) {
		return nil, errors.Wrapf(ErrDimension, "weak: %d entries in Q for %d-vector b", len(Q), n)
	}

	if n == 1 {
		if Q[0] == zero {
			if b[0] == zero {
				return []float64{zero}, nil
			}
			return nil, errors.Wrapf(ErrUnsolvable, "weak: Q = 0, b = %g", b[0])
		}
		v := b[0] / Q[0]
		if v > cn {
			v = cn
		}
		if v < zero {
			v = zero
		}
		return []float64{v}, nil
	}

	x, y := SolveCholesky(Q, b)

	hasNeg := floats.Min(x) < zero
	xsum := floats.Sum(x)
	if !hasNeg && xsum <= cn {
		return x, nil
	}

	lambda := xsum - cn
	if lambda <= zero {
		return x, nil
	}
	ysum := floats.Sum(y)
	if ysum == zero {
		return x, nil
	}
	floats.AddScaled(x, -lambda/ysum, y)
	return x, nil
}

// StrongOpt maximizes -½𝐱ᵀ𝐐𝐱 + 𝐛ᵀ𝐱 subject to ∑𝐱 ≤ Cn and 𝐱 ≥ 0.
//
// It starts from the WeakOpt solution. While its most negative coordinate is below zero,
// that coordinate is fixed at 0 (its row and column of 𝐐 and entry of 𝐛 are dropped)
// and the reduced problem is solved again. At most n-1 coordinates are eliminated
// since a one-variable WeakOpt solution is never negative.
func StrongOpt(Q, b []float64, cn float64) ([]float64, error) {

	n := len(b)
	if n == 0 || n*n != len(Q) {
		return nil, errors.Wrapf(ErrDimension, "strong: %d entries in Q for %d-vector b", len(Q), n)
	}

	active := identity(n)
	for {
		Qa, ba := Q, b
		if len(active) < n {
			Qa, ba = gather(Q, b, active)
		}

		x, err := WeakOpt(Qa, ba, cn)
		if err != nil {
			return nil, err
		}

		k := floats.MinIdx(x)
		if x[k] >= zero || len(active) == 1 {
			return scatter(n, x, active), nil
		}
		active = eliminate(active, k)
	}
}
