// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernel provides kernels over dense feature vectors, joint kernels that
// combine input and output kernel values, and kernel-induced losses.
package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Func evaluates a similarity (or dissimilarity) between two feature vectors.
type Func func(a, b []float64) float64

// Joint combines an input-space kernel value kx and an output-space kernel value ky.
type Joint func(kx, ky float64) float64

// Linear is the dot product 𝐚ᵀ𝐛.
func Linear(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Normalized rescales k to k(𝐚,𝐛) / √(k(𝐚,𝐚)k(𝐛,𝐛)).
// The raw value is returned when the denominator vanishes.
func Normalized(k Func) Func {
	return func(a, b []float64) float64 {
		n := k(a, b)
		d := k(a, a) * k(b, b)
		if d == 0 {
			return n
		}
		return n / math.Sqrt(d)
	}
}

// Gaussian builds exp(-γ‖𝐚 - 𝐛‖²) on top of k, where the squared distance is
// measured in the feature space of k: k(𝐚,𝐚) - 2k(𝐚,𝐛) + k(𝐛,𝐛).
func Gaussian(k Func, gamma float64) Func {
	return func(a, b []float64) float64 {
		d := k(a, a) - 2*k(a, b) + k(b, b)
		return math.Exp(-gamma * d)
	}
}

// Product is the joint kernel kx·ky.
func Product(kx, ky float64) float64 {
	return kx * ky
}

// Poly is the joint kernel (kx + ky + 1)ᵈ.
func Poly(d int) Joint {
	return func(kx, ky float64) float64 {
		return math.Pow(kx+ky+1, float64(d))
	}
}

// PolyHom is the homogeneous joint kernel (kx + ky)ᵈ.
func PolyHom(d int) Joint {
	return func(kx, ky float64) float64 {
		return math.Pow(kx+ky, float64(d))
	}
}

// Loss builds the kernel-induced loss 1 - 2k(𝐚,𝐛) / (k(𝐚,𝐚) + k(𝐛,𝐛)).
// It is symmetric, zero on equal inputs and 1 when both self-similarities vanish.
func Loss(k Func) Func {
	return func(a, b []float64) float64 {
		kn, k1, k2 := k(a, b), k(a, a), k(b, b)
		if k1+k2 == 0 {
			return 1
		}
		return 1 - 2*kn/(k1+k2)
	}
}

// IdentityLoss is 0 for identical vectors and 1 otherwise.
func IdentityLoss(a, b []float64) float64 {
	if floats.Equal(a, b) {
		return 0
	}
	return 1
}
