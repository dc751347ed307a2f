// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import "github.com/pkg/errors"

const (
	zero = 0.0
	one  = 1.0
	half = 0.5
)

type boxMode int

const (
	// Optimal no coordinate violates the box KKT conditions.
	Optimal boxMode = iota
	// SmallStep the last coordinate update moved less than the tolerance.
	SmallStep
	// ExceedMaxIter the step cap was hit before any stopping criterion.
	ExceedMaxIter
)

func (m boxMode) String() string {
	switch m {
	case Optimal:
		return "optimal"
	case SmallStep:
		return "small step"
	case ExceedMaxIter:
		return "exceed max iterations"
	}
	return "unknown"
}

var (
	// ErrDimension Q is not an n×n matrix for an n-vector b.
	ErrDimension = errors.New("qp: Q and b dimensionality mismatching")
	// ErrZeroDiagonal a diagonal entry of Q is exactly 0.
	ErrZeroDiagonal = errors.New("qp: Q diagonal entries must not be 0")
	// ErrAsymmetric Q is not symmetric.
	ErrAsymmetric = errors.New("qp: Q must be symmetric")
	// ErrUnsolvable a one-variable system with 𝐐 = 0 and 𝐛 ≠ 0 has no bounded maximum.
	ErrUnsolvable = errors.New("qp: system cannot be solved")
)

// Result contains the final result of the box-constrained maximization.
type Result struct {
	OK      bool      // Whether the iteration stopped before the step cap.
	F       float64   // Final objective value -½𝐱ᵀ𝐐𝐱 + 𝐛ᵀ𝐱.
	X, G    []float64 // Final solution and gradient -𝐐𝐱 + 𝐛.
	Summary           // Optimization summary.
}

// Summary contains a summary of the maximization process.
type Summary struct {
	Status  boxMode // Final status after maximization.
	NumIter int     // Number of iterations performed.
}
