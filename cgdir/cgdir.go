// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package cgdir builds the Polak-Ribiere-with-reset nonlinear
// conjugate-gradient search direction from successive FWI gradients.
package cgdir

import (
	"github.com/cpmech/gosl/la"
)

// State carries the CG state that persists across outer iterations: the
// previous gradient and the previous direction. Owned by the outer driver,
// not a package global, per the design note re-architecting the reference's
// process-wide state.
type State struct {
	GPrev []float64 // previous-iteration gradient
	DPrev []float64 // previous-iteration direction
	init  bool
}

// NewState returns a fresh, un-initialized CG state.
func NewState() *State { return &State{} }

// Direction computes the next search direction from the current gradient g,
// updating the state in place. On the first call (or after Reset), it
// simply returns g. On subsequent calls it applies the Polak-Ribiere update
// with non-negative beta (reset rule): beta = max(0, (<g,g> - <g,gPrev>) /
// <gPrev,gPrev>).
func (s *State) Direction(g []float64) []float64 {
	d := make([]float64, len(g))
	if !s.init {
		copy(d, g)
		s.GPrev = append([]float64(nil), g...)
		s.DPrev = d
		s.init = true
		return d
	}

	a := la.VecDot(g, g)
	b := la.VecDot(g, s.GPrev)
	c := la.VecDot(s.GPrev, s.GPrev)
	beta := 0.0
	if c > 0 {
		beta = (a - b) / c
	}
	if beta < 0 {
		beta = 0
	}

	for i := range d {
		d[i] = g[i] + beta*s.DPrev[i]
	}
	s.GPrev = append([]float64(nil), g...)
	s.DPrev = d
	return d
}

// Reset clears the persisted state, causing the next Direction call to
// behave as if it were the first outer iteration.
func (s *State) Reset() {
	s.init = false
	s.GPrev = nil
	s.DPrev = nil
}
