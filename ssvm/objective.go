// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import "github.com/pkg/errors"

// Objective returns the primal ½‖w‖² + Cn·Σᵢ ξᵢ with slacks taken over all
// labels and the dual Σ α·Δ - ½αᵀJα of the current working set.
func (m *Machine) Objective() (primal, dual float64, err error) {
	if m.params.Rescaling == SlackRescaling {
		return 0, 0, errors.Wrap(ErrNotSupported, "slack rescaling objective")
	}

	n := m.ws.size()
	loss := make([]float64, n) // Σ_p α_p Δ(yᵢ,y_p)
	quad := make([]float64, n) // Σ_p α_p (f(xᵢ,yᵢ) - f(xᵢ,y_p)), summing to αᵀJα
	xi := make([]float64, n)
	parallel(n, m.params.Workers, func(r Range) {
		for i := r.Lo; i < r.Hi; i++ {
			f := m.scores(sample{m.data, i}, 1)
			yi := m.data.Label(i)
			for _, y := range m.ws.yLast[i] {
				if a, ok := m.ws.alpha[i][y]; ok {
					loss[i] += a * m.data.Loss(yi, y)
					quad[i] += a * (f[yi] - f[y])
				}
			}
			for y := range f {
				xi[i] = max(xi[i], m.data.Loss(yi, y)-(f[yi]-f[y]))
			}
		}
	})

	var w2, slacks float64
	for i := 0; i < n; i++ {
		dual += loss[i]
		w2 += quad[i]
		slacks += xi[i]
	}
	dual -= half * w2
	primal = half*w2 + m.params.Cn*slacks
	return
}

// SlackAll returns max(0, max over all labels of Δ(yᵢ,ȳ) - (f(xᵢ,yᵢ) - f(xᵢ,ȳ))).
func (m *Machine) SlackAll(i int) (float64, error) {
	if m.params.Rescaling == SlackRescaling {
		return 0, errors.Wrap(ErrNotSupported, "slack rescaling slack")
	}
	return m.slack(i, m.params.Workers), nil
}
