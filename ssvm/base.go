// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import "github.com/pkg/errors"

const (
	zero = 0.0
	half = 0.5
)

// Rescaling selects how the loss enters the margin constraints.
type Rescaling int

const (
	// MarginRescaling f(xᵢ,yᵢ) - f(xᵢ,ȳ) ≥ Δ(yᵢ,ȳ) - ξᵢ.
	MarginRescaling Rescaling = iota
	// SlackRescaling f(xᵢ,yᵢ) - f(xᵢ,ȳ) ≥ 1 - ξᵢ/Δ(yᵢ,ȳ). Not supported.
	SlackRescaling
)

func (r Rescaling) String() string {
	switch r {
	case MarginRescaling:
		return "margin"
	case SlackRescaling:
		return "slack"
	}
	return "unknown"
}

// Solver selects the maximizer used for the per-sample subproblem.
type Solver int

const (
	// BoxSolver bounds every coefficient by 0 ≤ α ≤ Cn.
	BoxSolver Solver = iota
	// SimplexSolver bounds the coefficients by α ≥ 0, Σα ≤ Cn.
	SimplexSolver
)

func (s Solver) String() string {
	switch s {
	case BoxSolver:
		return "box"
	case SimplexSolver:
		return "simplex"
	}
	return "unknown"
}

type trainMode int

const (
	// Converged a full pass found no violated constraint.
	Converged trainMode = iota
	// ExceedMaxQPSteps the QP solve budget was exhausted before convergence.
	ExceedMaxQPSteps
)

func (m trainMode) String() string {
	switch m {
	case Converged:
		return "converged"
	case ExceedMaxQPSteps:
		return "exceed max qp steps"
	}
	return "unknown"
}

var (
	// ErrNotSupported the requested rescaling has no implementation.
	ErrNotSupported = errors.New("ssvm: not supported")
	// ErrCorruptCheckpoint a checkpoint exists but cannot be restored.
	ErrCorruptCheckpoint = errors.New("ssvm: corrupt checkpoint")
	// ErrDuplicateConstraint an oracle returned a label already in the working set.
	ErrDuplicateConstraint = errors.New("ssvm: constraint already in working set")
)

// Result contains the outcome of a Train call.
type Result struct {
	OK      bool // Whether training converged.
	Summary      // Training summary.
}

// Summary contains a summary of the training process.
type Summary struct {
	Status    trainMode // Final status after training.
	NumPass   int       // Number of passes started in this call.
	NumQP     int       // Number of per-sample QP solves in this call.
	NumIter   int       // Completed passes including restored ones.
	NumActive int       // Number of constraints in the working set.
}
