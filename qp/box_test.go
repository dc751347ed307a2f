// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxOptSingleVariableClamped(t *testing.T) {
	// the unconstrained optimum 4 exceeds C
	r, err := BoxOpt([]float64{5}, []float64{20}, 1, 1e-8, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, r.X)
	assert.Equal(t, Optimal, r.Status)
	assert.True(t, r.OK)
	assert.Equal(t, 1, r.NumIter)
	assert.InDelta(t, 17.5, r.F, 1e-12)
}

func TestBoxOptCoupledPair(t *testing.T) {
	Q := []float64{
		2, 1,
		1, 2,
	}
	b := []float64{3, 3}

	r, err := BoxOpt(Q, b, 10, 1e-10, 100)
	require.NoError(t, err)
	assert.True(t, almostEqual([]float64{1, 1}, r.X, 1e-12), "got %v", r.X)
	assert.Equal(t, Optimal, r.Status)

	r, err = BoxOpt(Q, b, 0.5, 1e-10, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, r.X)
	assert.Equal(t, Optimal, r.Status)
}

func TestBoxOptPreconditions(t *testing.T) {
	_, err := BoxOpt([]float64{1, 2, 3}, []float64{1, 1}, 1, 1e-6, 10)
	assert.Equal(t, ErrDimension, errors.Cause(err))

	_, err = BoxOpt([]float64{1, 0, 0, 0}, []float64{1, 1}, 1, 1e-6, 10)
	assert.Equal(t, ErrZeroDiagonal, errors.Cause(err))

	_, err = BoxOpt([]float64{1, 0.5, 0.25, 1}, []float64{1, 1}, 1, 1e-6, 10)
	assert.Equal(t, ErrAsymmetric, errors.Cause(err))
}

func TestBoxOptKKT(t *testing.T) {

	const (
		C   = 0.75
		eps = 1e-12
	)

	rnd := rand.New(rand.NewSource(17))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rnd.Intn(8)
		Q := make([]float64, n*n)
		for i := 0; i < n; i++ {
			Q[i*n+i] = 0.5 + 3*rnd.Float64()
		}
		b := randVec(rnd, n, 2)

		r, err := BoxOpt(Q, b, C, eps, 1000)
		require.NoError(t, err)
		require.True(t, r.OK, "trial %d: %v", trial, r.Status)

		for i, v := range r.X {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, C)
			g := r.G[i]
			if g > 1e-9 {
				assert.InDelta(t, C, v, 1e-12, "trial %d: x[%d] can still increase", trial, i)
			}
			if g < -1e-9 {
				assert.InDelta(t, 0, v, 1e-12, "trial %d: x[%d] can still decrease", trial, i)
			}
		}
	}
}

func TestBoxOptKKTCoupled(t *testing.T) {

	const (
		C   = 0.75
		eps = 1e-12
		tol = 1e-6
	)

	rnd := rand.New(rand.NewSource(19))
	for trial := 0; trial < 100; trial++ {
		n := 2 + rnd.Intn(7)
		Q := randPD(rnd, n)
		b := randVec(rnd, n, 2*float64(n))

		r, err := BoxOpt(Q, b, C, eps, 100000)
		require.NoError(t, err)
		require.True(t, r.OK, "trial %d: %v", trial, r.Status)

		for i, v := range r.X {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, C)
			g := r.G[i]
			if g > tol {
				assert.InDelta(t, C, v, 1e-9, "trial %d: x[%d] can still increase", trial, i)
			}
			if g < -tol {
				assert.InDelta(t, 0, v, 1e-9, "trial %d: x[%d] can still decrease", trial, i)
			}
		}
		assert.True(t, almostEqual(Objective(Q, b, r.X), r.F, 1e-12))
	}
}

func TestBoxOptStepCap(t *testing.T) {
	Q := []float64{
		4, 1, 0,
		1, 3, 1,
		0, 1, 5,
	}
	b := []float64{1, 2, 3}

	r, err := BoxOpt(Q, b, 1, 1e-12, 1)
	require.NoError(t, err)
	assert.Equal(t, ExceedMaxIter, r.Status)
	assert.False(t, r.OK)
	assert.Equal(t, 1, r.NumIter)
	for _, v := range r.X {
		assert.True(t, v >= 0 && v <= 1)
	}
}

func TestPickVars(t *testing.T) {
	x := []float64{0, 1, 0.5, 0}
	g := []float64{2, 3, -1, -4}

	// x[1] is at its upper bound and x[3] at its lower bound
	lo, hi := pickVars(g, x, 1)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 0, hi)

	lo, hi = pickVars([]float64{1}, []float64{0}, 1)
	assert.Equal(t, 0, lo)
	assert.Equal(t, -1, hi)

	lo, hi = pickVars([]float64{0, 0}, []float64{0.3, 0.4}, 1)
	assert.Equal(t, -1, lo)
	assert.Equal(t, -1, hi)
}
