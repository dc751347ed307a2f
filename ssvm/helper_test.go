// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"testing"

	"github.com/curioloop/ssvm/iodata"
	"github.com/curioloop/ssvm/kernel"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func oneHot(c, n int) []float64 {
	v := make([]float64, n)
	v[c] = 1
	return v
}

// orthogonalSet has one sample per class with mutually orthogonal inputs,
// so every sample trains independently.
func orthogonalSet(t *testing.T) *iodata.Set {
	inputs := [][]float64{oneHot(0, 3), oneHot(1, 3), oneHot(2, 3)}
	outputs := [][]float64{oneHot(0, 3), oneHot(1, 3), oneHot(2, 3)}
	s, err := iodata.New(inputs, outputs, iodata.Config{
		InputKernel:  kernel.Linear,
		OutputKernel: kernel.Linear,
	})
	require.NoError(t, err)
	return s
}

var centers = [][]float64{{3, 0}, {-3, 0}, {0, 3}}

// clusterSet has four points around each of three well separated centers.
func clusterSet(t *testing.T) *iodata.Set {
	offsets := [][]float64{{0, 0}, {0.2, 0}, {0, 0.2}, {-0.2, -0.1}}
	var inputs, outputs [][]float64
	for c, ctr := range centers {
		for _, o := range offsets {
			inputs = append(inputs, []float64{ctr[0] + o[0], ctr[1] + o[1]})
			outputs = append(outputs, oneHot(c, len(centers)))
		}
	}
	s, err := iodata.New(inputs, outputs, iodata.Config{
		InputKernel:  kernel.Gaussian(kernel.Linear, 1),
		OutputKernel: kernel.Linear,
	})
	require.NoError(t, err)
	return s
}

func newMachine(t *testing.T, data Data, p Params) *Machine {
	if p.Fs == nil {
		p.Fs = afero.NewMemMapFs()
	}
	m, err := p.New(data, zaptest.NewLogger(t))
	require.NoError(t, err)
	return m
}
