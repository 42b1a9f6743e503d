// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package wave implements the Damp4t10d propagator: a 10th-order-in-space
// finite-difference stencil, leapfrog in time with a 4th-order time
// correction, and a quadratic damping absorbing boundary.
package wave

import (
	"math"
	"sync"

	"github.com/saucebing/swfwi/grid"
)

// lapCoef holds the 10th-order isotropic Laplacian coefficients a[0..5]
// applied to the cross stencil (four axis-aligned arms of radius 1..5).
var lapCoef = [6]float64{
	1.53400796, 1.78858721, -0.31660756, 0.07612173, -0.01626042, 0.00216736,
}

const (
	// dampMax is delta_max in the quadratic damping profile delta = dampMax*f^2.
	dampMax = 0.05

	// halo is the stencil half-width (radius-5 Laplacian plus one ring for
	// the 4th-order correction): cells within halo of the padded-grid edge
	// are never written by a propagator step.
	halo = 6

	// MinBorder is the smallest damping border thickness (grid.Grid.Nb) that
	// lets the damping profile reach zero before the stencil's write region
	// begins. A border thinner than this leaves a strip of interior cells
	// the propagator never updates; callers building a Config should reject
	// or warn on nb < MinBorder.
	MinBorder = halo
)

// Wavefield is the triple-buffered pressure field maintained by the
// propagator. Only two buffers are logically meaningful at any instant; the
// third is a scratch buffer reused across steps via Rotate.
type Wavefield struct {
	Prev, Curr, Next []float64
}

// NewWavefield allocates a Wavefield of size n (a padded-grid field size).
func NewWavefield(n int) *Wavefield {
	return &Wavefield{Prev: make([]float64, n), Curr: make([]float64, n), Next: make([]float64, n)}
}

// Rotate advances the triple buffer by one time step: Next becomes Curr,
// Curr becomes Prev, and the old Prev buffer is recycled as the new Next
// scratch buffer. No data is copied.
func (w *Wavefield) Rotate() {
	w.Prev, w.Curr, w.Next = w.Curr, w.Next, w.Prev
}

// RotateBackward advances the triple buffer by one time step in the
// reverse direction: Curr becomes Next, Prev becomes Curr, and the old Next
// buffer is recycled as the new Prev scratch buffer. Paired with
// StepBackward the same way Rotate is paired with StepForward.
func (w *Wavefield) RotateBackward() {
	w.Next, w.Curr, w.Prev = w.Curr, w.Prev, w.Next
}

// nWorkers bounds the fork-join fan-out used by the data-parallel kernels.
var nWorkers = 4

// forEachColumn splits the column range [lo, hi) across nWorkers goroutines
// and blocks until every worker has completed its share. This realizes the
// data-parallel spatial loops of the stencil kernels without suspending the
// caller: the call returns only once the kernel has fully completed.
func forEachColumn(lo, hi int, fn func(ix int)) {
	n := hi - lo
	if n <= 0 {
		return
	}
	workers := nWorkers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := lo + w*chunk
		end := start + chunk
		if end > hi {
			end = hi
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for ix := start; ix < end; ix++ {
				fn(ix)
			}
		}(start, end)
	}
	wg.Wait()
}

// damping returns the damping coefficient delta at padded-grid coordinate
// (iz, ix). The top margin (-z, free surface) is never damped; the bottom
// (+z) and both side (+-x) margins are.
func damping(g *grid.Grid, iz, ix int) float64 {
	_, zhi := grid.InteriorBounds(g.Nb, g.Nz)
	xlo, xhi := grid.InteriorBounds(g.Nb, g.Nx)

	fz := 0.0
	if iz >= zhi {
		fz = float64(iz-(zhi-1)) / float64(g.Nb)
	}
	fx := 0.0
	if ix < xlo {
		fx = float64(xlo-ix) / float64(g.Nb)
	} else if ix >= xhi {
		fx = float64(ix-(xhi-1)) / float64(g.Nb)
	}
	f := fz
	if fx > f {
		f = fx
	}
	return dampMax * f * f
}

// laplacian fills u2 with the 10th-order isotropic Laplacian operator of p,
// valid wherever the radius-5 cross stencil lies fully inside the padded
// grid.
func laplacian(g *grid.Grid, p, u2 []float64) {
	nz := g.NzPad
	lo, hi := 5, g.NxPad-5
	zlo, zhi := 5, g.NzPad-5
	forEachColumn(lo, hi, func(ix int) {
		base := ix * nz
		for iz := zlo; iz < zhi; iz++ {
			i := base + iz
			acc := -4.0 * lapCoef[0] * p[i]
			for k := 1; k <= 5; k++ {
				acc += lapCoef[k] * (p[i-k] + p[i+k] + p[i-k*nz] + p[i+k*nz])
			}
			u2[i] = acc
		}
	})
}

// timeUpdate advances pNext from pPrev, pCurr and the precomputed Laplacian
// u2, applying the damping boundary and the 4th-order time correction. The
// write region excludes the outer `halo` rows/columns of the padded grid.
func timeUpdate(g *grid.Grid, pPrev, pCurr, pNext, u2, s []float64) {
	nz := g.NzPad
	lo, hi := halo, g.NxPad-halo
	zlo, zhi := halo, g.NzPad-halo
	forEachColumn(lo, hi, func(ix int) {
		base := ix * nz
		for iz := zlo; iz < zhi; iz++ {
			i := base + iz
			delta := damping(g, iz, ix)
			corr := (u2[i-1] + u2[i+1] + u2[i-nz] + u2[i+nz] - 4*u2[i]) / (12 * s[i] * s[i])
			pNext[i] = (2-2*delta+delta*delta)*pCurr[i] - (1-2*delta)*pPrev[i] + u2[i]/s[i] + corr
		}
	})
}

// step is the shared leapfrog kernel: it writes `next` from `prev` and
// `curr`. StepForward and StepBackward differ only in which buffer plays
// which role, exploiting the scheme's time symmetry (see StepBackward and
// spec Design Note on step_backward).
func step(g *grid.Grid, prev, curr, next, s []float64) {
	u2 := make([]float64, g.Size())
	laplacian(g, curr, u2)
	timeUpdate(g, prev, curr, next, u2, s)
}

// StepForward advances the wavefield by one time step: Next is computed
// from Prev and Curr.
func StepForward(g *grid.Grid, w *Wavefield, s []float64) {
	step(g, w.Prev, w.Curr, w.Next, s)
}

// StepBackward is the time-reversed counterpart of StepForward, used to
// reconstruct the source wavefield walking backward in time. Reversibility
// is achieved by swapping the roles of Prev and Next at the call site: the
// same leapfrog recurrence that predicts forward in time predicts backward
// when solved for the opposite unknown.
func StepBackward(g *grid.Grid, w *Wavefield, s []float64) {
	step(g, w.Next, w.Curr, w.Prev, s)
}

// AddSource injects (sign=+1) or removes (sign=-1) source samples into p at
// the given flat grid positions.
func AddSource(p []float64, samples []float64, positions []int, sign float64) {
	for i, pos := range positions {
		p[pos] += sign * samples[i]
	}
}

// RecordSeis samples p at the given receiver positions into out.
func RecordSeis(out []float64, p []float64, positions []int) {
	for ig, pos := range positions {
		out[ig] = p[pos]
	}
}

// CheckCFL reports whether every cell of s satisfies the CFL stability
// invariant s >= (dx/(dt*vmax))^2, and how many cells violate it. This is a
// checked-not-enforced invariant per the design: callers log a warning and
// continue rather than treating a violation as fatal.
func CheckCFL(s []float64, dx, dt, vmax float64) (ok bool, violations int) {
	threshold := grid.ToSlowness(vmax, dx, dt)
	for _, v := range s {
		if v < threshold {
			violations++
		}
	}
	return violations == 0, violations
}

// Mode selects which direct-arrival mute threshold applies: the outer
// residual uses tau = 1.5/fm, the line-search evaluation a fixed 0.15s, so
// the outer window is the narrower one whenever fm > 10 Hz.
type Mode int

const (
	ModeObserved Mode = iota
	ModeLineSearch
)

// DirectArrivalTau returns the mute half-width tau for the given mode.
func DirectArrivalTau(mode Mode, fm float64) float64 {
	if mode == ModeObserved {
		return 1.5 / fm
	}
	return 0.15
}

// RemoveDirectArrival zeroes every sample of trace (shape [nt][ng]) whose
// time is within tau of the straight-ray travel time from src to the
// corresponding receiver, using vbg as the background wave speed.
func RemoveDirectArrival(trace [][]float64, src grid.Position, receivers []grid.Position, vbg, dx, dt, tau float64) {
	for ig, rcv := range receivers {
		dz := float64(src.Iz-rcv.Iz) * dx
		dxv := float64(src.Ix-rcv.Ix) * dx
		dist := math.Hypot(dz, dxv)
		travel := dist / vbg
		for it := range trace {
			t := float64(it) * dt
			if math.Abs(t-travel) < tau {
				trace[it][ig] = 0
			}
		}
	}
}
