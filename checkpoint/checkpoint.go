// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package checkpoint implements the wavefield checkpointer: an external
// store keyed by (timestep, slot) that bounds the gradient engine's memory
// to O(grid) instead of O(nt*grid).
package checkpoint

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// K is the checkpoint interval: every K timesteps the forward pass persists
// a wavefield pair.
const K = 50

// Last is the sentinel "timestep" key used for the final wavefield pair,
// always persisted at it = nt-1.
const Last = -1

// ShouldSaveForward reports whether the forward pass should persist a
// checkpoint at timestep it of an nt-step run, using the default interval K.
func ShouldSaveForward(it, nt int) bool {
	return ShouldSaveForwardK(it, nt, K)
}

// ShouldSaveForwardK is ShouldSaveForward with an explicit interval,
// letting callers trade memory for reload accuracy (see the gradient
// engine's CheckpointK field).
func ShouldSaveForwardK(it, nt, k int) bool {
	return it > 0 && it != nt-1 && it%k == 0
}

// ShouldLoadReverse reports whether the reverse pass should reload a
// checkpoint at timestep it (the it == nt-1 case is handled separately via
// LoadLast), using the default interval K.
func ShouldLoadReverse(it int) bool {
	return ShouldLoadReverseK(it, K)
}

// ShouldLoadReverseK is ShouldLoadReverse with an explicit interval.
func ShouldLoadReverseK(it, k int) bool {
	return it != 0 && it%k == 0
}

// Store is the external checkpoint byte-store contract. Implementations
// serialize padded-grid-sized float64 arrays keyed by (it, slot) or the
// Last sentinel.
type Store interface {
	Save(it, slot int, p []float64) error
	Load(it, slot int) ([]float64, error)
}

// FileStore persists checkpoints as raw little-endian float32 files under a
// directory, named as spec §6 requires: check_time_<it>_<slot> and
// check_time_last_<slot>.
type FileStore struct {
	Dir string
	N   int // padded-grid field size; Load sizes its result from the file length, not from N
}

// NewFileStore returns a FileStore rooted at dir, creating it if necessary.
func NewFileStore(dir string, n int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, chk.Err("checkpoint: cannot create directory %q: %v", dir, err)
	}
	return &FileStore{Dir: dir, N: n}, nil
}

func (s *FileStore) fileName(it, slot int) string {
	if it == Last {
		return filepath.Join(s.Dir, io.Sf("check_time_last_%d", slot))
	}
	return filepath.Join(s.Dir, io.Sf("check_time_%d_%d", it, slot))
}

// Save writes p to the file for (it, slot) as raw little-endian float32.
func (s *FileStore) Save(it, slot int, p []float64) error {
	f, err := os.Create(s.fileName(it, slot))
	if err != nil {
		return chk.Err("checkpoint: cannot create checkpoint file: %v", err)
	}
	defer f.Close()
	buf := make([]byte, 4*len(p))
	for i, v := range p {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	if _, err := f.Write(buf); err != nil {
		return chk.Err("checkpoint: write failed for it=%d slot=%d: %v", it, slot, err)
	}
	return nil
}

// Load reads the checkpoint for (it, slot).
func (s *FileStore) Load(it, slot int) ([]float64, error) {
	buf, err := os.ReadFile(s.fileName(it, slot))
	if err != nil {
		return nil, chk.Err("checkpoint: cannot read checkpoint file (it=%d slot=%d): %v", it, slot, err)
	}
	n := len(buf) / 4
	p := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(buf[4*i:])
		p[i] = float64(math.Float32frombits(bits))
	}
	return p, nil
}

// InMemoryStore is an in-process Store used by tests and by single-process
// runs that do not need to survive a crash.
type InMemoryStore struct {
	data map[[2]int][]float64
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[[2]int][]float64)}
}

func (s *InMemoryStore) Save(it, slot int, p []float64) error {
	cp := make([]float64, len(p))
	copy(cp, p)
	s.data[[2]int{it, slot}] = cp
	return nil
}

func (s *InMemoryStore) Load(it, slot int) ([]float64, error) {
	p, ok := s.data[[2]int{it, slot}]
	if !ok {
		return nil, chk.Err("checkpoint: no checkpoint stored for it=%d slot=%d", it, slot)
	}
	return p, nil
}
