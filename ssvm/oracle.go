// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"math"

	"github.com/pkg/errors"
)

// Oracle finds the most violated constraint of a training sample.
type Oracle interface {
	// MostViolated returns the label whose constraint for sample i is violated the
	// most beyond the current slack, or found=false when none exceeds the tolerance.
	MostViolated(i int) (label int, found bool, err error)
}

// Violation describes the most violated constraint of a sample.
type Violation struct {
	Label int     // Most violated label, -1 when the output space is empty.
	Score float64 // H(ȳ) - ξᵢ of Label.
	Found bool    // Whether Score exceeds the tolerance.
}

// NewOracle returns the built-in oracle of m for the given rescaling.
func NewOracle(m *Machine, r Rescaling) Oracle {
	if r == SlackRescaling {
		return slackOracle{}
	}
	return marginOracle{m}
}

type marginOracle struct {
	m *Machine
}

func (o marginOracle) MostViolated(i int) (int, bool, error) {
	v := o.m.violation(i, o.m.params.Workers)
	return v.Label, v.Found, nil
}

type slackOracle struct{}

func (slackOracle) MostViolated(i int) (int, bool, error) {
	return -1, false, errors.Wrapf(ErrNotSupported, "slack rescaling oracle on sample %d", i)
}

// violation scans every label in ascending order for the largest
//
//	H(ȳ) - ξᵢ,  H(ȳ) = Δ(yᵢ,ȳ) - (f(xᵢ,yᵢ) - f(xᵢ,ȳ)),  ξᵢ = max(0, max_{y ∈ yLast[i]} H(y)).
//
// The first label wins ties. Labels of the working set never score above zero.
func (m *Machine) violation(i, workers int) Violation {
	f := m.scores(sample{m.data, i}, workers)
	yi := m.data.Label(i)
	h := func(y int) float64 {
		return m.data.Loss(yi, y) - (f[yi] - f[y])
	}

	xi := zero
	for _, y := range m.ws.yLast[i] {
		xi = max(xi, h(y))
	}

	v := Violation{Label: -1, Score: math.Inf(-1)}
	for y := range f {
		if s := h(y) - xi; s > v.Score {
			v.Label, v.Score = y, s
		}
	}
	v.Found = v.Label >= 0 && v.Score > m.params.Eps
	return v
}

// slack returns max(0, max over labels of H(ȳ)) for sample i.
func (m *Machine) slack(i, workers int) float64 {
	f := m.scores(sample{m.data, i}, workers)
	yi := m.data.Label(i)
	xi := zero
	for y := range f {
		xi = max(xi, m.data.Loss(yi, y)-(f[yi]-f[y]))
	}
	return xi
}
