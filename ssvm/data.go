// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

// Data exposes a training set through index handles.
// Labels are integers in [0, NumOutputs()); Label(i) is the true label of sample i.
// Loss must be symmetric, non-negative and zero on equal labels.
type Data interface {
	NumInputs() int
	NumOutputs() int
	Label(i int) int
	InputKernel(i, j int) float64
	OutputKernel(y, u int) float64
	Loss(y, u int) float64
	Joint(kx, ky float64) float64
}

// Query is an input that may lie outside the training set.
type Query interface {
	// KernelTo returns Kx between training sample i and the query input.
	KernelTo(i int) float64
}

// sample is training sample i viewed as a Query.
type sample struct {
	data Data
	i    int
}

func (s sample) KernelTo(i int) float64 {
	return s.data.InputKernel(i, s.i)
}
