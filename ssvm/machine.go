// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"maps"
	"slices"

	"go.uber.org/zap"
)

// Machine is an n-slack structured SVM over a fixed training set.
//
// The compatibility function is the kernel expansion
//
//	f(x,y) = Σᵢ Σ_ȳ αᵢ(ȳ)·(Kj(Kx(i,x), Ky(yᵢ,y)) - Kj(Kx(i,x), Ky(ȳ,y)))
//
// over the constraints collected in the working set.
// A Machine must not be trained concurrently; scoring may run in parallel with
// other scoring but not with Train.
type Machine struct {
	params Params
	data   Data
	log    *zap.Logger
	oracle Oracle
	ws     workingSet
	iter   int
}

// Data returns the training set.
func (m *Machine) Data() Data { return m.data }

// Params returns the effective parameters.
func (m *Machine) Params() Params { return m.params }

// Iter returns the number of completed training passes.
func (m *Machine) Iter() int { return m.iter }

// SetOracle replaces the separation oracle.
func (m *Machine) SetOracle(o Oracle) { m.oracle = o }

// Clear discards every learned coefficient and constraint.
func (m *Machine) Clear() {
	m.ws.reset(m.data.NumInputs())
	m.iter = 0
}

// Alpha returns a copy of the coefficients of sample i keyed by label.
func (m *Machine) Alpha(i int) map[int]float64 {
	return maps.Clone(m.ws.alpha[i])
}

// History returns a copy of the labels added for sample i in insertion order.
func (m *Machine) History(i int) []int {
	return slices.Clone(m.ws.yLast[i])
}

// J evaluates the inner product of the joint feature differences
// δψᵢ(y) = ψ(xᵢ,yᵢ) - ψ(xᵢ,y) and δψⱼ(ȳ).
func (m *Machine) J(i, y, j, ybar int) float64 {
	d := m.data
	kx := d.InputKernel(i, j)
	yi, yj := d.Label(i), d.Label(j)
	return d.Joint(kx, d.OutputKernel(yi, yj)) -
		d.Joint(kx, d.OutputKernel(yi, ybar)) -
		d.Joint(kx, d.OutputKernel(y, yj)) +
		d.Joint(kx, d.OutputKernel(y, ybar))
}

// F evaluates f(xᵢ,y) for training sample i.
func (m *Machine) F(i, y int) float64 {
	return m.FQuery(sample{m.data, i}, y)
}

// FQuery evaluates f(x,y) for an arbitrary input.
func (m *Machine) FQuery(q Query, y int) float64 {
	return m.compat(m.kernelRow(q, 1), y)
}

// kernelRow evaluates Kx(i,x) for every sample with a non-empty expansion.
// Entries of samples without coefficients are left at zero.
func (m *Machine) kernelRow(q Query, workers int) []float64 {
	kx := make([]float64, m.ws.size())
	parallel(len(kx), workers, func(r Range) {
		for i := r.Lo; i < r.Hi; i++ {
			if len(m.ws.alpha[i]) > 0 {
				kx[i] = q.KernelTo(i)
			}
		}
	})
	return kx
}

// compat evaluates f(x,y) given the kernel row of x.
// Terms are accumulated in history order so results are reproducible.
func (m *Machine) compat(kx []float64, y int) (f float64) {
	d := m.data
	for i, a := range m.ws.alpha {
		if len(a) == 0 {
			continue
		}
		k := kx[i]
		yi := m.data.Label(i)
		pos := d.Joint(k, d.OutputKernel(yi, y))
		for _, ybar := range m.ws.yLast[i] {
			if v, ok := a[ybar]; ok {
				f += v * (pos - d.Joint(k, d.OutputKernel(ybar, y)))
			}
		}
	}
	return
}
