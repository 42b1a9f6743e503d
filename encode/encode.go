// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package encode implements the plus/minus-one random source encoding that
// combines multiple shots into one super-shot per outer iteration.
package encode

import (
	"github.com/cpmech/gosl/rnd"
)

// NewSignVector draws a fresh +-1 encoding vector of length ns from the
// process PRNG. Callers seed the PRNG once (rnd.Init) per run, per spec §6
// (fixed seed 10 for reproducibility).
func NewSignVector(ns int) []int {
	e := make([]int, ns)
	for i := range e {
		e[i] = 2*rnd.Int(0, 1) - 1
	}
	return e
}

// Source builds the encoded super-shot source encsrc[it][is] = e[is] *
// wavelet[it] from a shared wavelet sampled once per source.
func Source(e []int, wavelet []float64) [][]float64 {
	nt, ns := len(wavelet), len(e)
	encsrc := make([][]float64, nt)
	for it := 0; it < nt; it++ {
		row := make([]float64, ns)
		for is := 0; is < ns; is++ {
			row[is] = float64(e[is]) * wavelet[it]
		}
		encsrc[it] = row
	}
	return encsrc
}

// Observed builds the encoded super-shot data encobs[it][ig] = sum_is
// e[is] * dobs[is][it][ig] from the dense observed gather dobs[ns][nt][ng].
func Observed(e []int, dobs [][][]float64) [][]float64 {
	ns := len(dobs)
	nt := len(dobs[0])
	ng := len(dobs[0][0])
	encobs := make([][]float64, nt)
	for it := 0; it < nt; it++ {
		encobs[it] = make([]float64, ng)
	}
	for is := 0; is < ns; is++ {
		sign := float64(e[is])
		for it := 0; it < nt; it++ {
			row := dobs[is][it]
			out := encobs[it]
			for ig := 0; ig < ng; ig++ {
				out[ig] += sign * row[ig]
			}
		}
	}
	return encobs
}
