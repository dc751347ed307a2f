// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

type pair struct {
	i, j int
}

// Gram memoizes the values of a symmetric function over a fixed set of vectors.
// The most recently used entries are kept; Gram is safe for concurrent use.
type Gram struct {
	f     Func
	vecs  [][]float64
	cache *lru.Cache
}

// NewGram creates a Gram over vecs that keeps at most size values.
func NewGram(f Func, vecs [][]float64, size int) (*Gram, error) {
	if f == nil {
		return nil, errors.New("kernel function is required")
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create gram cache of size %d", size)
	}
	return &Gram{f: f, vecs: vecs, cache: cache}, nil
}

// Len returns the number of vectors.
func (g *Gram) Len() int {
	return len(g.vecs)
}

// At returns f(vecs[i], vecs[j]).
func (g *Gram) At(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	key := pair{i, j}
	if v, ok := g.cache.Get(key); ok {
		return v.(float64)
	}
	v := g.f(g.vecs[i], g.vecs[j])
	g.cache.Add(key, v)
	return v
}

// To returns f(vecs[i], x) for a vector outside the set. It is not memoized.
func (g *Gram) To(i int, x []float64) float64 {
	return g.f(g.vecs[i], x)
}
