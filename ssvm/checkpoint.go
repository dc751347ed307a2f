// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssvm

import (
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tinylib/msgp/msgp"
	"go.uber.org/zap"
)

const (
	checkpointExt     = ".nssvm"
	checkpointMagic   = "nssvm"
	checkpointVersion = 1

	// relative slack on the coefficient bound for rounding in the simplex solver
	boundTol = 1e-9
)

// snapshot is the persisted form of the working set.
// alpha[i] and the rows of jcache[i] are aligned with yLast[i].
type snapshot struct {
	iter   int
	yLast  [][]int
	alpha  [][]float64
	jcache [][]float64
}

// EncodeMsg implements msgp.Encodable
func (s *snapshot) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteString(checkpointMagic); err != nil {
		return err
	}
	if err := en.WriteInt(checkpointVersion); err != nil {
		return err
	}
	if err := en.WriteInt(s.iter); err != nil {
		return err
	}
	if err := en.WriteArrayHeader(uint32(len(s.yLast))); err != nil {
		return err
	}
	for i, ys := range s.yLast {
		if err := en.WriteArrayHeader(uint32(len(ys))); err != nil {
			return err
		}
		for _, y := range ys {
			if err := en.WriteInt(y); err != nil {
				return err
			}
		}
		if err := writeFloats(en, s.alpha[i]); err != nil {
			return err
		}
		if err := writeFloats(en, s.jcache[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeFloats(en *msgp.Writer, xs []float64) error {
	if err := en.WriteArrayHeader(uint32(len(xs))); err != nil {
		return err
	}
	for _, x := range xs {
		if err := en.WriteFloat64(x); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsg implements msgp.Decodable
func (s *snapshot) DecodeMsg(dc *msgp.Reader) error {
	magic, err := dc.ReadString()
	if err != nil {
		return err
	}
	if magic != checkpointMagic {
		return errors.Errorf("bad magic %q", magic)
	}
	version, err := dc.ReadInt()
	if err != nil {
		return err
	}
	if version != checkpointVersion {
		return errors.Errorf("unsupported version %d", version)
	}
	if s.iter, err = dc.ReadInt(); err != nil {
		return err
	}

	n, err := dc.ReadArrayHeader()
	if err != nil {
		return err
	}
	s.yLast = make([][]int, n)
	s.alpha = make([][]float64, n)
	s.jcache = make([][]float64, n)
	for i := range s.yLast {
		sz, err := dc.ReadArrayHeader()
		if err != nil {
			return err
		}
		ys := make([]int, sz)
		for p := range ys {
			if ys[p], err = dc.ReadInt(); err != nil {
				return err
			}
		}
		s.yLast[i] = ys
		if s.alpha[i], err = readFloats(dc); err != nil {
			return err
		}
		if s.jcache[i], err = readFloats(dc); err != nil {
			return err
		}
	}
	return nil
}

func readFloats(dc *msgp.Reader) ([]float64, error) {
	sz, err := dc.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	xs := make([]float64, sz)
	for p := range xs {
		if xs[p], err = dc.ReadFloat64(); err != nil {
			return nil, err
		}
	}
	return xs, nil
}

// Msgsize returns an upper bound estimate of the encoded size.
func (s *snapshot) Msgsize() int {
	sz := msgp.StringPrefixSize + len(checkpointMagic) + 2*msgp.IntSize + msgp.ArrayHeaderSize
	for i, ys := range s.yLast {
		sz += 3*msgp.ArrayHeaderSize + len(ys)*msgp.IntSize
		sz += (len(s.alpha[i]) + len(s.jcache[i])) * msgp.Float64Size
	}
	return sz
}

// validate checks the snapshot against a training set of n samples, k labels
// and the coefficient bound cn. Coefficients must be finite and within [0, cn],
// block entries must be finite.
func (s *snapshot) validate(n, k int, cn float64) error {
	if s.iter < 0 {
		return errors.Errorf("negative iteration %d", s.iter)
	}
	if len(s.yLast) != n {
		return errors.Errorf("checkpoint has %d samples, training set has %d", len(s.yLast), n)
	}
	for i, ys := range s.yLast {
		m := len(ys)
		if len(s.alpha[i]) != m || len(s.jcache[i]) != m*m {
			return errors.Errorf("sample %d: %d labels, %d coefficients, %d block entries",
				i, m, len(s.alpha[i]), len(s.jcache[i]))
		}
		for p, y := range ys {
			if y < 0 || y >= k {
				return errors.Errorf("sample %d: label %d out of range", i, y)
			}
			if slices.Contains(ys[:p], y) {
				return errors.Errorf("sample %d: label %d repeated", i, y)
			}
			if a := s.alpha[i][p]; !finite(a) || a < zero || a > cn*(1+boundTol) {
				return errors.Errorf("sample %d: coefficient %g for label %d outside [0,%g]", i, a, y, cn)
			}
		}
		for e, v := range s.jcache[i] {
			if !finite(v) {
				return errors.Errorf("sample %d: block entry %d is %g", i, e, v)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (m *Machine) snapshot() *snapshot {
	n := m.ws.size()
	s := &snapshot{
		iter:   m.iter,
		yLast:  make([][]int, n),
		alpha:  make([][]float64, n),
		jcache: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		s.yLast[i] = m.ws.yLast[i]
		s.alpha[i] = m.ws.coef(i)
		s.jcache[i] = m.ws.jcache[i]
	}
	return s
}

func (m *Machine) restore(s *snapshot) {
	m.ws.reset(len(s.yLast))
	for i, ys := range s.yLast {
		m.ws.yLast[i] = ys
		m.ws.jcache[i] = s.jcache[i]
		m.ws.assign(i, s.alpha[i])
	}
	m.iter = s.iter
}

// Save writes the working set and the pass counter to prefix + ".nssvm".
// The file is replaced atomically.
func (m *Machine) Save(prefix string) error {
	fs := m.params.Fs
	path := prefix + checkpointExt
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "could not create checkpoint directory %s", dir)
		}
	}

	tmp := path + ".tmp"
	if err := writeSnapshot(fs, tmp, m.snapshot()); err != nil {
		_ = fs.Remove(tmp)
		return errors.Wrapf(err, "could not write checkpoint %s", tmp)
	}
	return errors.Wrapf(fs.Rename(tmp, path), "could not move checkpoint to %s", path)
}

func writeSnapshot(fs afero.Fs, path string, s *snapshot) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := snappy.NewBufferedWriter(f)
	if err = msgp.Encode(w, s); err != nil {
		return err
	}
	return w.Close()
}

// Preload restores the state saved under prefix. A missing checkpoint is
// reported with ok=false; a checkpoint that cannot be decoded or does not fit
// the training set fails with ErrCorruptCheckpoint and leaves the Machine unchanged.
func (m *Machine) Preload(prefix string) (iter int, ok bool, err error) {
	path := prefix + checkpointExt
	f, err := m.params.Fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, errors.Wrapf(err, "could not open checkpoint %s", path)
	}
	defer f.Close()

	s := new(snapshot)
	if err = msgp.Decode(snappy.NewReader(f), s); err != nil {
		return 0, false, errors.Wrapf(ErrCorruptCheckpoint, "%s: %v", path, err)
	}
	if err = s.validate(m.data.NumInputs(), m.data.NumOutputs(), m.params.Cn); err != nil {
		return 0, false, errors.Wrapf(ErrCorruptCheckpoint, "%s: %v", path, err)
	}

	m.restore(s)
	m.log.Info("checkpoint restored",
		zap.String("path", path), zap.Int("iter", s.iter), zap.Int("active", m.ws.active()))
	return s.iter, true, nil
}
