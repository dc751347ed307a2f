// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"math/rand"
	"reflect"

	"gonum.org/v1/gonum/mat"
)

func almostEqual[T float64 | []float64](a, b T, tol float64) bool {
	equalWithinAbs := func(a, b float64) bool {
		return a == b || math.Abs(a-b) <= tol
	}
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Float64:
		return equalWithinAbs(any(a).(float64), any(b).(float64))
	case reflect.Slice:
		a, b := any(a).([]float64), any(b).([]float64)
		if len(a) != len(b) {
			return false
		}
		for i, a := range a {
			if !equalWithinAbs(a, b[i]) {
				return false
			}
		}
		return true
	default:
		panic("unknown type")
	}
}

// randPD returns a row-major symmetric positive definite 𝐐 = 𝐀ᵀ𝐀 + n𝐈.
func randPD(rnd *rand.Rand, n int) []float64 {
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, rnd.NormFloat64())
		}
	}
	var q mat.Dense
	q.Mul(a.T(), a)
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i*n+j] = q.At(i, j)
			if i == j {
				out[i*n+j] += float64(n)
			}
		}
	}
	// enforce exact symmetry against rounding in the product
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out[j*n+i] = out[i*n+j]
		}
	}
	return out
}

func randVec(rnd *rand.Rand, n int, scale float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = scale * rnd.NormFloat64()
	}
	return v
}

// mulVec computes 𝐐𝐱 with gonum.
func mulVec(Q, x []float64) []float64 {
	n := len(x)
	var r mat.VecDense
	r.MulVec(mat.NewDense(n, n, Q), mat.NewVecDense(n, x))
	return r.RawVector().Data
}
