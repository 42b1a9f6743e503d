// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package seisio implements the on-disk wire format for velocity models and
// observed shot gathers: a raw little-endian float32 payload alongside a
// JSON header side-channel describing its shape, spacing and units.
package seisio

import (
	"encoding/binary"
	"encoding/json"
	stdio "io"
	"math"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Header describes the shape and physical units of a payload file. It is
// stored alongside the payload as <path>.json.
type Header struct {
	Shape   []int   `json:"shape"`   // e.g. [nz, nx] for a velocity model, [ns, nt, ng] for a gather
	Spacing float64 `json:"spacing"` // cell spacing, meters
	Units   string  `json:"units"`   // e.g. "m/s", "pressure"
}

func headerPath(path string) string { return path + ".json" }

// WriteHeader serializes h as JSON to <path>.json.
func WriteHeader(path string, h Header) error {
	b, err := json.Marshal(h)
	if err != nil {
		return chk.Err("seisio: cannot marshal header for %q: %v", path, err)
	}
	if err := os.WriteFile(headerPath(path), b, 0644); err != nil {
		return chk.Err("seisio: cannot write header for %q: %v", path, err)
	}
	return nil
}

// ReadHeader reads and parses <path>.json.
func ReadHeader(path string) (Header, error) {
	var h Header
	b, err := io.ReadFile(headerPath(path))
	if err != nil {
		return h, chk.Err("seisio: cannot read header for %q: %v", path, err)
	}
	if err := json.Unmarshal(b, &h); err != nil {
		return h, chk.Err("seisio: cannot unmarshal header for %q: %v", path, err)
	}
	return h, nil
}

// WriteFloats writes data to path as raw little-endian float32, truncating
// any existing content.
func WriteFloats(path string, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return chk.Err("seisio: cannot create %q: %v", path, err)
	}
	defer f.Close()
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	if _, err := f.Write(buf); err != nil {
		return chk.Err("seisio: write failed for %q: %v", path, err)
	}
	return nil
}

// AppendFloats appends data to path as raw little-endian float32, creating
// the file if it does not exist. cmd/swfwi uses this from the outer
// driver's per-iteration callback to accumulate one velocity snapshot per
// iteration into a single vupdates file.
func AppendFloats(path string, data []float64) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return chk.Err("seisio: cannot open %q for append: %v", path, err)
	}
	defer f.Close()
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	if _, err := f.Write(buf); err != nil {
		return chk.Err("seisio: append failed for %q: %v", path, err)
	}
	return nil
}

// ReadFloats reads the entirety of path as raw little-endian float32.
func ReadFloats(path string) ([]float64, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, chk.Err("seisio: cannot read %q: %v", path, err)
	}
	if len(buf)%4 != 0 {
		return nil, chk.Err("seisio: %q has %d bytes, not a multiple of 4", path, len(buf))
	}
	n := len(buf) / 4
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(buf[4*i:])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out, nil
}

// ReadFloatsAt reads count float32 values starting at the given sample
// offset (not byte offset), used to pull one shot's worth of observed data
// out of a shots file without loading the whole survey.
func ReadFloatsAt(path string, offset, count int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, chk.Err("seisio: cannot open %q: %v", path, err)
	}
	defer f.Close()
	if _, err := f.Seek(int64(offset)*4, 0); err != nil {
		return nil, chk.Err("seisio: cannot seek in %q: %v", path, err)
	}
	buf := make([]byte, 4*count)
	if _, err := stdio.ReadFull(f, buf); err != nil {
		return nil, chk.Err("seisio: short read from %q at offset %d: %v", path, offset, err)
	}
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint32(buf[4*i:])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out, nil
}
