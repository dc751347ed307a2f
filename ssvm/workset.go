// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// workingSet holds the learned state of every sample.
//
// Position p of yLast[i] is row and column p of the row-major block jcache[i],
// whose entries are J(i,yLast[i][p],i,yLast[i][q]).
// alpha[i] never stores an explicit zero.
type workingSet struct {
	alpha  []map[int]float64
	asum   []float64
	yLast  [][]int
	jcache [][]float64
}

func (ws *workingSet) reset(n int) {
	ws.alpha = make([]map[int]float64, n)
	ws.asum = make([]float64, n)
	ws.yLast = make([][]int, n)
	ws.jcache = make([][]float64, n)
	for i := range ws.alpha {
		ws.alpha[i] = map[int]float64{}
	}
}

func (ws *workingSet) size() int {
	return len(ws.yLast)
}

func (ws *workingSet) active() (n int) {
	for _, ys := range ws.yLast {
		n += len(ys)
	}
	return
}

func (ws *workingSet) contains(i, y int) bool {
	return slices.Contains(ws.yLast[i], y)
}

// add appends y to the history of sample i and grows its block by one row and
// column; jf(u, v) evaluates J(i,u,i,v).
func (ws *workingSet) add(i, y int, jf func(u, v int) float64) {
	ys := ws.yLast[i]
	m := len(ys)
	old := ws.jcache[i]
	next := make([]float64, (m+1)*(m+1))
	for p := 0; p < m; p++ {
		copy(next[p*(m+1):p*(m+1)+m], old[p*m:(p+1)*m])
	}
	for p, u := range ys {
		v := jf(u, y)
		next[p*(m+1)+m] = v
		next[m*(m+1)+p] = v
	}
	next[m*(m+1)+m] = jf(y, y)
	ws.yLast[i] = append(ys, y)
	ws.jcache[i] = next
}

// coef returns the coefficients of sample i aligned with its history.
func (ws *workingSet) coef(i int) []float64 {
	x := make([]float64, len(ws.yLast[i]))
	for p, y := range ws.yLast[i] {
		x[p] = ws.alpha[i][y]
	}
	return x
}

// assign replaces the coefficients of sample i with x aligned with its history.
func (ws *workingSet) assign(i int, x []float64) {
	a := ws.alpha[i]
	for p, y := range ws.yLast[i] {
		if x[p] > zero {
			a[y] = x[p]
		} else {
			delete(a, y)
		}
	}
	ws.asum[i] = floats.Sum(ws.coef(i))
}
