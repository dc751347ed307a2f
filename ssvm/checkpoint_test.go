// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := DefaultParams()
	p.Fs = fs
	data := clusterSet(t)

	m := newMachine(t, data, p)
	_, err := m.Train()
	require.NoError(t, err)
	require.NoError(t, m.Save("/ckpt/run"))

	exists, err := afero.Exists(fs, "/ckpt/run.nssvm")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.Exists(fs, "/ckpt/run.nssvm.tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	r := newMachine(t, data, p)
	iter, ok, err := r.Preload("/ckpt/run")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, m.Iter(), iter)
	assert.Equal(t, m.Iter(), r.Iter())

	for i := 0; i < data.NumInputs(); i++ {
		assert.Equal(t, m.History(i), r.History(i))
		assert.Equal(t, m.Alpha(i), r.Alpha(i))
		assert.Equal(t, m.ws.jcache[i], r.ws.jcache[i])
		assert.Equal(t, m.ws.asum[i], r.ws.asum[i])
	}
	q := sample{data, 5}
	assert.Equal(t, m.Scores(q), r.Scores(q))
}

func TestCheckpointResume(t *testing.T) {
	p := DefaultParams()
	p.Fs = afero.NewMemMapFs()
	p.Prefix = "/ckpt/orthogonal"
	data := orthogonalSet(t)

	full := newMachine(t, data, DefaultParams())
	_, err := full.Train()
	require.NoError(t, err)

	p.MaxQPSteps = 4
	stopped := newMachine(t, data, p)
	res, err := stopped.Train()
	require.NoError(t, err)
	require.Equal(t, ExceedMaxQPSteps, res.Status)

	p.MaxQPSteps = 1000
	resumed := newMachine(t, data, p)
	iter, ok, err := resumed.Preload(p.Prefix)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, iter)
	assert.Equal(t, []int{1, 2}, resumed.History(0))

	res, err = resumed.Train()
	require.NoError(t, err)
	assert.Equal(t, Converged, res.Status)
	assert.Equal(t, 2, res.NumQP, "restored constraints are not solved again")
	assert.Equal(t, 3, res.NumIter)

	for i := 0; i < data.NumInputs(); i++ {
		assert.Equal(t, full.History(i), resumed.History(i))
		for y, a := range full.Alpha(i) {
			assert.InDelta(t, a, resumed.Alpha(i)[y], 1e-12)
		}
	}

	// the last pass was checkpointed as well
	again := newMachine(t, data, p)
	iter, ok, err = again.Preload(p.Prefix)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, iter)
}

func TestPreloadMissing(t *testing.T) {
	m := newMachine(t, orthogonalSet(t), DefaultParams())
	iter, ok, err := m.Preload("/nowhere/run")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, iter)
}

func TestPreloadCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := DefaultParams()
	p.Fs = fs

	require.NoError(t, afero.WriteFile(fs, "/bad.nssvm", []byte("not a checkpoint"), 0644))
	m := newMachine(t, orthogonalSet(t), p)
	_, ok, err := m.Preload("/bad")
	assert.False(t, ok)
	assert.Equal(t, ErrCorruptCheckpoint, errors.Cause(err))

	// a checkpoint of another training set does not fit
	other := newMachine(t, clusterSet(t), p)
	_, err = other.Train()
	require.NoError(t, err)
	require.NoError(t, other.Save("/other"))

	_, ok, err = m.Preload("/other")
	assert.False(t, ok)
	assert.Equal(t, ErrCorruptCheckpoint, errors.Cause(err))
	assert.Equal(t, 0, m.ws.active(), "state is untouched on failure")

	// well-formed files whose values cannot come from training
	for name, bad := range map[string]*snapshot{
		"/nan-alpha": {iter: 1, yLast: [][]int{{1}, {}, {}}, alpha: [][]float64{{math.NaN()}, {}, {}}, jcache: [][]float64{{2}, {}, {}}},
		"/nan-block": {iter: 1, yLast: [][]int{{1}, {}, {}}, alpha: [][]float64{{0.5}, {}, {}}, jcache: [][]float64{{math.NaN()}, {}, {}}},
		"/inf-block": {iter: 1, yLast: [][]int{{1}, {}, {}}, alpha: [][]float64{{0.5}, {}, {}}, jcache: [][]float64{{math.Inf(1)}, {}, {}}},
		"/above-cn":  {iter: 1, yLast: [][]int{{1}, {}, {}}, alpha: [][]float64{{50}, {}, {}}, jcache: [][]float64{{2}, {}, {}}},
	} {
		require.NoError(t, writeSnapshot(fs, name+".nssvm", bad))
		_, ok, err = m.Preload(name)
		assert.False(t, ok, name)
		assert.Equal(t, ErrCorruptCheckpoint, errors.Cause(err), name)
		assert.Equal(t, 0, m.ws.active(), name)
	}
}

func TestSnapshotValidate(t *testing.T) {
	valid := func() *snapshot {
		return &snapshot{
			iter:   2,
			yLast:  [][]int{{1, 2}, {}},
			alpha:  [][]float64{{0.5, 0}, {}},
			jcache: [][]float64{{2, 1, 1, 2}, {}},
		}
	}
	require.NoError(t, valid().validate(2, 3, 1))

	s := valid()
	assert.Error(t, s.validate(3, 3, 1))
	assert.Error(t, s.validate(2, 2, 1))

	s = valid()
	s.yLast[0][1] = 1
	assert.Error(t, s.validate(2, 3, 1))

	s = valid()
	s.alpha[0] = s.alpha[0][:1]
	assert.Error(t, s.validate(2, 3, 1))

	s = valid()
	s.jcache[0] = s.jcache[0][:3]
	assert.Error(t, s.validate(2, 3, 1))

	s = valid()
	s.alpha[0][0] = -1
	assert.Error(t, s.validate(2, 3, 1))

	s = valid()
	s.iter = -1
	assert.Error(t, s.validate(2, 3, 1))

	for _, a := range []float64{math.NaN(), math.Inf(1), 1.5} {
		s = valid()
		s.alpha[0][1] = a
		assert.Error(t, s.validate(2, 3, 1), "coefficient %g", a)
	}
	s = valid()
	s.alpha[0][0] = 1
	assert.NoError(t, s.validate(2, 3, 1), "coefficient at the bound")
	assert.Error(t, s.validate(2, 3, 0.75), "coefficient above a smaller bound")

	for _, v := range []float64{math.NaN(), math.Inf(-1)} {
		s = valid()
		s.jcache[0][2] = v
		assert.Error(t, s.validate(2, 3, 1), "block entry %g", v)
	}
}
