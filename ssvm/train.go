// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"github.com/curioloop/ssvm/qp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Train runs cutting-plane passes over the training set until a pass adds no
// constraint or MaxQPSteps per-sample QPs have been solved.
//
// Each pass asks the oracle for the most violated label of every sample. On a
// hit the label joins the working set of the sample and the subproblem
//
//	max -½αᵀQα + bᵀα
//	Q = J block of sample i
//	b_p = Δ(yᵢ,y_p) - (f(xᵢ,yᵢ) - f(xᵢ,y_p)) + (Qα)_p
//
// is re-solved over the coefficients of that sample only.
// With a non-empty Prefix a checkpoint is written after every pass and on a forced stop.
func (m *Machine) Train() (*Result, error) {
	if m.params.Rescaling == SlackRescaling {
		return nil, errors.Wrap(ErrNotSupported, "slack rescaling qp")
	}

	res := new(Result)
	n := m.ws.size()
	log := m.log.With(zap.Int("samples", n), zap.Stringer("solver", m.params.Solver))

	for {
		added := 0
		res.NumPass++
		for i := 0; i < n; i++ {
			y, found, err := m.oracle.MostViolated(i)
			if err != nil {
				return nil, errors.Wrapf(err, "oracle failed on sample %d", i)
			}
			if !found {
				continue
			}
			if y < 0 || y >= m.data.NumOutputs() {
				return nil, errors.Errorf("oracle returned label %d out of range for sample %d", y, i)
			}
			if m.ws.contains(i, y) {
				return nil, errors.Wrapf(ErrDuplicateConstraint, "label %d of sample %d", y, i)
			}

			m.ws.add(i, y, func(u, v int) float64 { return m.J(i, u, i, v) })
			if err = m.optimize(i); err != nil {
				return nil, errors.Wrapf(err, "qp failed on sample %d", i)
			}
			added++
			res.NumQP++
			log.Debug("constraint added",
				zap.Int("sample", i), zap.Int("label", y), zap.Float64("asum", m.ws.asum[i]))

			if res.NumQP >= m.params.MaxQPSteps {
				res.Status = ExceedMaxQPSteps
				res.NumIter, res.NumActive = m.iter, m.ws.active()
				log.Warn("qp step budget exhausted",
					zap.Int("pass", m.iter+1), zap.Int("sample", i), zap.Int("qp", res.NumQP))
				return res, m.checkpoint()
			}
		}

		m.iter++
		log.Info("pass finished",
			zap.Int("pass", m.iter), zap.Int("added", added), zap.Int("active", m.ws.active()))
		if ce := log.Check(zap.DebugLevel, "objective"); ce != nil {
			primal, dual, err := m.Objective()
			if err != nil {
				return nil, err
			}
			ce.Write(zap.Float64("primal", primal), zap.Float64("dual", dual))
		}
		if err := m.checkpoint(); err != nil {
			return nil, err
		}

		if added == 0 {
			res.OK = true
			res.Status = Converged
			res.NumIter, res.NumActive = m.iter, m.ws.active()
			return res, nil
		}
	}
}

func (m *Machine) checkpoint() error {
	if m.params.Prefix == "" {
		return nil
	}
	return m.Save(m.params.Prefix)
}

// optimize re-solves the subproblem of sample i and stores its coefficients.
func (m *Machine) optimize(i int) error {
	ys := m.ws.yLast[i]
	n := len(ys)
	Q := m.ws.jcache[i]
	a := m.ws.coef(i)

	yi := m.data.Label(i)
	f := m.scores(sample{m.data, i}, m.params.Workers)
	b := make([]float64, n)
	for p, y := range ys {
		b[p] = m.data.Loss(yi, y) - (f[yi] - f[y]) + floats.Dot(Q[p*n:(p+1)*n], a)
	}

	var x []float64
	switch m.params.Solver {
	case SimplexSolver:
		var err error
		if x, err = qp.StrongOpt(Q, b, m.params.Cn); err != nil {
			return err
		}
	default:
		r, err := qp.BoxOpt(Q, b, m.params.Cn, m.params.Eps, m.params.BoxSteps)
		if err != nil {
			return err
		}
		if !r.OK {
			m.log.Debug("box solver hit its step cap",
				zap.Int("sample", i), zap.Int("iter", r.NumIter))
		}
		x = r.X
	}

	m.ws.assign(i, x)
	return nil
}
