// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"sync"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Range is the half-open index interval [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Partition splits [0, n) into at most workers contiguous ranges whose sizes
// differ by at most one. Every index is covered exactly once.
func Partition(n, workers int) []Range {
	if n <= 0 {
		return nil
	}
	workers = min(max(workers, 1), n)
	size, rem := n/workers, n%workers
	rs := make([]Range, workers)
	lo := 0
	for w := range rs {
		hi := lo + size
		if w < rem {
			hi++
		}
		rs[w] = Range{lo, hi}
		lo = hi
	}
	return rs
}

// parallel runs fn over the partition of [0, n). Each call owns its range.
func parallel(n, workers int, fn func(Range)) {
	rs := Partition(n, workers)
	if len(rs) <= 1 {
		for _, r := range rs {
			fn(r)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(rs))
	for _, r := range rs {
		go func(r Range) {
			defer wg.Done()
			fn(r)
		}(r)
	}
	wg.Wait()
}

func (m *Machine) scores(q Query, workers int) []float64 {
	kx := m.kernelRow(q, workers)
	f := make([]float64, m.data.NumOutputs())
	parallel(len(f), workers, func(r Range) {
		for y := r.Lo; y < r.Hi; y++ {
			f[y] = m.compat(kx, y)
		}
	})
	return f
}

// Scores evaluates f(x,y) for every label.
func (m *Machine) Scores(q Query) []float64 {
	return m.scores(q, m.params.Workers)
}

// Infer returns the label maximizing f(x,·); the first label wins ties.
func (m *Machine) Infer(q Query) int {
	return argmax(m.Scores(q))
}

func argmax(f []float64) int {
	best := -1
	for y, v := range f {
		if best < 0 || v > f[best] {
			best = y
		}
	}
	return best
}

// TestSummary summarizes the losses of a test run.
type TestSummary struct {
	Predicted []int     // Inferred label per query.
	Losses    []float64 // Δ(truth, predicted) per query.
	Mean      float64
	Median    float64
	Max       float64
	Errors    int // Number of queries with a non-zero loss.
}

// Test infers a label for every query and measures its loss against truth.
func (m *Machine) Test(queries []Query, truth []int) (*TestSummary, error) {
	if len(queries) != len(truth) {
		return nil, errors.Errorf("queries (%d) and truth (%d) differ in length", len(queries), len(truth))
	}
	if len(queries) == 0 {
		return nil, errors.New("no queries to test")
	}
	for k, y := range truth {
		if y < 0 || y >= m.data.NumOutputs() {
			return nil, errors.Errorf("true label %d of query %d out of range", y, k)
		}
	}

	s := &TestSummary{Predicted: make([]int, len(queries)), Losses: make([]float64, len(queries))}
	parallel(len(queries), m.params.Workers, func(r Range) {
		for k := r.Lo; k < r.Hi; k++ {
			y := argmax(m.scores(queries[k], 1))
			s.Predicted[k] = y
			s.Losses[k] = m.data.Loss(truth[k], y)
		}
	})

	for _, l := range s.Losses {
		if l != zero {
			s.Errors++
		}
	}
	var err error
	if s.Mean, err = stats.Mean(s.Losses); err != nil {
		return nil, errors.Wrap(err, "mean loss")
	}
	if s.Median, err = stats.Median(s.Losses); err != nil {
		return nil, errors.Wrap(err, "median loss")
	}
	if s.Max, err = stats.Max(s.Losses); err != nil {
		return nil, errors.Wrap(err, "max loss")
	}
	return s, nil
}

// ViolationsAll finds the most violated constraint of every training sample
// with the margin oracle, in parallel. The working set is not modified.
func (m *Machine) ViolationsAll() ([]Violation, error) {
	if m.params.Rescaling == SlackRescaling {
		return nil, errors.Wrap(ErrNotSupported, "slack rescaling violations")
	}
	vs := make([]Violation, m.ws.size())
	parallel(len(vs), m.params.Workers, func(r Range) {
		for i := r.Lo; i < r.Hi; i++ {
			vs[i] = m.violation(i, 1)
		}
	})
	return vs, nil
}
