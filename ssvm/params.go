// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Params configures the n-slack trainer.
type Params struct {
	Cn         float64   // Upper bound on the coefficients of each sample.
	Eps        float64   // Violation tolerance of the oracle and step tolerance of the box solver.
	MaxQPSteps int       // Maximum number of per-sample QP solves per Train call.
	Prefix     string    // Checkpoint path prefix; empty disables checkpointing.
	Rescaling  Rescaling // Loss rescaling of the margin constraints.
	Solver     Solver    // Per-sample maximizer.
	BoxSteps   int       // SMO iteration cap of the box solver; 0 ⇒ MaxQPSteps.
	Workers    int       // Parallelism of batch scoring; 0 ⇒ GOMAXPROCS.
	Fs         afero.Fs  // Checkpoint file system; nil ⇒ OS.
}

// DefaultParams is a convenience for tests and examples: Cn = 1, Eps = 0.01,
// MaxQPSteps = 1000. Params.New applies no defaults to these fields; callers
// choose them explicitly.
func DefaultParams() Params {
	return Params{Cn: 1, Eps: 0.01, MaxQPSteps: 1000}
}

// New validates the parameters and creates a Machine over data.
func (p Params) New(data Data, log *zap.Logger) (m *Machine, err error) {

	if log == nil {
		log = zap.NewNop()
	}
	if p.BoxSteps == 0 {
		p.BoxSteps = p.MaxQPSteps
	}
	if p.Workers == 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	if p.Fs == nil {
		p.Fs = afero.NewOsFs()
	}

	switch {
	case data == nil:
		err = errors.New("training data is required")
	case data.NumInputs() <= 0:
		err = errors.New("training data must contain at least one sample")
	case data.NumOutputs() <= 0:
		err = errors.New("output space must contain at least one label")
	case math.IsNaN(p.Cn) || p.Cn <= zero:
		err = errors.New("Cn must greater than 0")
	case math.IsNaN(p.Eps) || p.Eps <= zero:
		err = errors.New("eps must greater than 0")
	case p.MaxQPSteps <= 0:
		err = errors.New("max qp steps must greater than 0")
	case p.BoxSteps < 0:
		err = errors.New("box steps must not less than 0")
	case p.Workers < 0:
		err = errors.New("workers must not less than 0")
	case p.Rescaling != MarginRescaling && p.Rescaling != SlackRescaling:
		err = errors.Errorf("unknown rescaling %d", p.Rescaling)
	case p.Solver != BoxSolver && p.Solver != SimplexSolver:
		err = errors.Errorf("unknown solver %d", p.Solver)
	}

	if err == nil {
		for i, n := 0, data.NumInputs(); i < n; i++ {
			if y := data.Label(i); y < 0 || y >= data.NumOutputs() {
				err = errors.Errorf("label %d of sample %d out of range", y, i)
				break
			}
		}
	}

	if err != nil {
		return nil, err
	}

	m = &Machine{params: p, data: data, log: log}
	m.ws.reset(data.NumInputs())
	m.oracle = NewOracle(m, p.Rescaling)
	return m, nil
}
