// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iodata stores a structured-output dataset as two arenas: the input
// vectors and the distinct output vectors. Samples refer to outputs by index.
package iodata

import (
	"math/rand"

	"github.com/curioloop/ssvm/kernel"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const defaultCacheSize = 1 << 16

// Config selects the kernels and the loss used over a Set.
type Config struct {
	InputKernel  kernel.Func  // Kx over input vectors
	OutputKernel kernel.Func  // Ky over output vectors
	Loss         kernel.Func  // Δ over output vectors; nil ⇒ kernel.Loss(OutputKernel)
	Joint        kernel.Joint // Kj(kx, ky); nil ⇒ kernel.Product
	CacheSize    int          // memoized values per kernel; 0 ⇒ 65536
}

// Set is an arena-backed dataset. Inputs are owned by the Set, outputs are
// stored once and shared by every sample that carries them.
type Set struct {
	cfg     Config
	inputs  [][]float64
	outputs [][]float64
	iomap   []int

	kx   *kernel.Gram
	ky   *kernel.Gram
	loss *kernel.Gram
}

// New builds a Set from paired input and output vectors.
// Equal output vectors collapse into a single label.
func New(inputs, outputs [][]float64, cfg Config) (*Set, error) {
	var err error
	switch {
	case len(inputs) != len(outputs):
		err = errors.Errorf("inputs (%d) and outputs (%d) differ in length", len(inputs), len(outputs))
	case cfg.InputKernel == nil:
		err = errors.New("input kernel is required")
	case cfg.OutputKernel == nil:
		err = errors.New("output kernel is required")
	case cfg.CacheSize < 0:
		err = errors.New("cache size must be non-negative")
	}
	if err != nil {
		return nil, err
	}

	if cfg.Loss == nil {
		cfg.Loss = kernel.Loss(cfg.OutputKernel)
	}
	if cfg.Joint == nil {
		cfg.Joint = kernel.Product
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = defaultCacheSize
	}

	s := &Set{cfg: cfg, inputs: append([][]float64(nil), inputs...), iomap: make([]int, len(outputs))}
	for i, o := range outputs {
		s.iomap[i] = s.addOutput(o)
	}
	return s, s.buildCaches()
}

// addOutput returns the label of o, registering it when unseen.
func (s *Set) addOutput(o []float64) int {
	for y, u := range s.outputs {
		if floats.Equal(u, o) {
			return y
		}
	}
	s.outputs = append(s.outputs, o)
	return len(s.outputs) - 1
}

func (s *Set) buildCaches() (err error) {
	if s.kx, err = kernel.NewGram(s.cfg.InputKernel, s.inputs, s.cfg.CacheSize); err != nil {
		return errors.Wrap(err, "input kernel")
	}
	if s.ky, err = kernel.NewGram(s.cfg.OutputKernel, s.outputs, s.cfg.CacheSize); err != nil {
		return errors.Wrap(err, "output kernel")
	}
	if s.loss, err = kernel.NewGram(s.cfg.Loss, s.outputs, s.cfg.CacheSize); err != nil {
		return errors.Wrap(err, "loss")
	}
	return nil
}

// NumInputs returns the number of samples.
func (s *Set) NumInputs() int { return len(s.inputs) }

// NumOutputs returns the number of distinct labels.
func (s *Set) NumOutputs() int { return len(s.outputs) }

// Label returns the label index of sample i.
func (s *Set) Label(i int) int { return s.iomap[i] }

// Input returns the input vector of sample i. The slice is borrowed.
func (s *Set) Input(i int) []float64 { return s.inputs[i] }

// Output returns the output vector of label y. The slice is borrowed.
func (s *Set) Output(y int) []float64 { return s.outputs[y] }

// InputKernel returns the memoized Kx between samples i and j.
func (s *Set) InputKernel(i, j int) float64 { return s.kx.At(i, j) }

// OutputKernel returns the memoized Ky between labels y and u.
func (s *Set) OutputKernel(y, u int) float64 { return s.ky.At(y, u) }

// Loss returns the memoized Δ between labels y and u.
func (s *Set) Loss(y, u int) float64 { return s.loss.At(y, u) }

// Joint combines an input and an output kernel value.
func (s *Set) Joint(kx, ky float64) float64 { return s.cfg.Joint(kx, ky) }

// LabelOf returns the label of an output vector and whether it is known.
func (s *Set) LabelOf(o []float64) (int, bool) {
	for y, u := range s.outputs {
		if floats.Equal(u, o) {
			return y, true
		}
	}
	return -1, false
}

// Query wraps a foreign input vector so it can be scored against the Set.
func (s *Set) Query(x []float64) Query {
	return Query{set: s, x: x}
}

// Shuffle permutes the samples with rnd. Labels are unchanged.
func (s *Set) Shuffle(rnd *rand.Rand) error {
	rnd.Shuffle(len(s.inputs), func(i, j int) {
		s.inputs[i], s.inputs[j] = s.inputs[j], s.inputs[i]
		s.iomap[i], s.iomap[j] = s.iomap[j], s.iomap[i]
	})
	var err error
	s.kx, err = kernel.NewGram(s.cfg.InputKernel, s.inputs, s.cfg.CacheSize)
	return errors.Wrap(err, "input kernel")
}

// Split partitions the samples into a training Set holding the first n samples
// and a test Set holding the rest. Both share the label arena of s.
func (s *Set) Split(n int) (train, test *Set, err error) {
	if n < 0 || n > len(s.inputs) {
		return nil, nil, errors.Errorf("split point %d out of range [0,%d]", n, len(s.inputs))
	}
	if train, err = s.subset(0, n); err != nil {
		return nil, nil, err
	}
	if test, err = s.subset(n, len(s.inputs)); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func (s *Set) subset(lo, hi int) (*Set, error) {
	sub := &Set{
		cfg:     s.cfg,
		inputs:  append([][]float64(nil), s.inputs[lo:hi]...),
		outputs: s.outputs,
		iomap:   append([]int(nil), s.iomap[lo:hi]...),
	}
	return sub, sub.buildCaches()
}

// Query is an input vector outside the training arena.
type Query struct {
	set *Set
	x   []float64
}

// KernelTo returns Kx between training sample i and the query input.
func (q Query) KernelTo(i int) float64 {
	return q.set.kx.To(i, q.x)
}
