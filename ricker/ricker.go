// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ricker implements the Ricker wavelet used as the source time
// function. Its two parameters (dominant frequency and amplitude) are
// carried as a dbf.Params named-parameter record rather than bare float64
// arguments.
package ricker

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

// NewParams builds the dbf.Params record for a Ricker wavelet with dominant
// frequency fm (Hz) and peak amplitude amp.
func NewParams(fm, amp float64) dbf.Params {
	return dbf.Params{
		&dbf.P{N: "fm", V: fm},
		&dbf.P{N: "amp", V: amp},
	}
}

// Generate returns nt samples of the Ricker wavelet at step dt, reading fm
// and amp out of prms. It panics via chk.Panic if either parameter is
// missing, the same failure mode a dbf.Params-driven model hits for an
// unconnected parameter.
func Generate(prms dbf.Params, nt int, dt float64) []float64 {
	values, found := prms.GetValues([]string{"fm", "amp"})
	if len(found) != 2 || !found[0] || !found[1] {
		chk.Panic("ricker: prms must define both %q and %q", "fm", "amp")
	}
	fm, amp := values[0], values[1]
	if fm <= 0 {
		chk.Panic("ricker: fm must be positive (fm=%v)", fm)
	}
	return Wavelet(nt, fm, dt, amp)
}

// Wavelet evaluates nt samples of amp*(1-2*(pi*fm*t)^2)*exp(-(pi*fm*t)^2) at
// t = it*dt - 1/fm, the standard delay that centers the wavelet's peak at
// sample 1/(fm*dt) while keeping it causal (zero for t << 0).
func Wavelet(nt int, fm, dt, amp float64) []float64 {
	out := make([]float64, nt)
	for it := 0; it < nt; it++ {
		t := float64(it)*dt - 1.0/fm
		x := math.Pi * fm * t
		x2 := x * x
		out[it] = amp * (1 - 2*x2) * math.Exp(-x2)
	}
	return out
}
