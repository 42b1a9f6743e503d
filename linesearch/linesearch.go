// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package linesearch implements the parabolic line search: given the
// current objective J1 and a search direction, it brackets and then fits a
// parabola to pick a step length alpha, subject to a physics-derived
// maximum velocity change per iteration.
package linesearch

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/saucebing/swfwi/grid"
)

// MaxDv is the maximum physical velocity change (m/s) allowed in one outer
// iteration.
const MaxDv = 200.0

const bracketLeftMaxIter = 5

// ObjectiveFunc evaluates J(v + alpha*d) along the search ray for a given
// step length.
type ObjectiveFunc func(alpha float64) float64

// JEvalKind selects what data the objective is evaluated against.
// JEvalEncoded scores a trial step against the same encoded super-shot
// the gradient was computed from; JEvalFull scores it against every
// shot's own unencoded data and sums the result. outer.Driver.JEval picks
// the strategy a run uses.
type JEvalKind int

const (
	JEvalEncoded JEvalKind = iota
	JEvalFull
)

// Persist threads the per-problem initial step length across outer
// iterations. It replaces the reference's process-wide singleton registry
// with an explicit struct owned by the outer driver (design note §9).
type Persist struct {
	Alpha       float64
	initialized bool
}

// NewPersist returns an empty Persist; its first Init call seeds Alpha from
// alpha3max.
func NewPersist() *Persist { return &Persist{} }

// Init returns this iteration's initial (alpha2, alpha3) per spec §4.5.
func (p *Persist) Init(alpha3max float64) (alpha2init, alpha3init float64) {
	if !p.initialized {
		p.Alpha = alpha3max
		p.initialized = true
	}
	if p.Alpha < 1e-7 {
		alpha3init = math.Max(p.Alpha, 1e-4)
	} else {
		alpha3init = p.Alpha
	}
	alpha2init = alpha3init / 2
	return
}

// Store persists the chosen step length for the next outer iteration.
func (p *Persist) Store(alpha4 float64) { p.Alpha = alpha4 }

// PhysicsCap computes alpha2max and alpha3max from the maximum allowed
// per-cell velocity change MaxDv: alpha2max is the smallest step length
// that would push any cell's physical speed by exactly MaxDv m/s, and
// alpha3max = 2*alpha2max.
func PhysicsCap(s, d []float64, dx, dt float64) (alpha2max, alpha3max float64) {
	const eps = 1e-12
	alpha2max = math.Inf(1)
	for i, di := range d {
		if math.Abs(di) <= eps {
			continue
		}
		c := grid.ToSpeed(s[i], dx, dt)
		sShift := grid.ToSlowness(c-MaxDv, dx, dt)
		cap := math.Abs((sShift - s[i]) / di)
		if cap < alpha2max {
			alpha2max = cap
		}
	}
	if math.IsInf(alpha2max, 1) {
		alpha2max = 0
	}
	alpha3max = 2 * alpha2max
	return
}

// trial records one (alpha, J) evaluation.
type trial struct {
	alpha, j float64
}

// bestOf returns the trial with the lowest J.
func bestOf(trials []trial) trial {
	best := trials[0]
	for _, t := range trials[1:] {
		if t.j < best.j {
			best = t
		}
	}
	return best
}

func linearExtrapolate(j1, j2, alpha2, alpha3 float64) float64 {
	slope := (j2 - j1) / alpha2
	return j1 + slope*alpha3
}

// parabolaVertex fits the unique parabola through (0, j1), (alpha2, j2),
// (alpha3, j3) and returns its vertex abscissa and value.
func parabolaVertex(j1, alpha2, j2, alpha3, j3 float64) (alpha4, j4 float64) {
	d1 := j2 - j1
	d2 := j3 - j1
	det := alpha2 * alpha3 * (alpha2 - alpha3)
	a := (d1*alpha3 - d2*alpha2) / det
	b := (alpha2*alpha2*d2 - alpha3*alpha3*d1) / det
	alpha4 = -b / (2 * a)
	j4 = j1 - b*b/(4*a)
	return
}

// Result carries the outcome of one line search.
type Result struct {
	Alpha      float64
	J          float64
	Fallback   bool // bracket-left exhausted its iteration budget or bracket-right hit the cap; recovered with the best trial
	Degenerate bool // the three evaluated points were near-collinear; parabolic fit skipped
}

// Search finds a step length alpha minimizing J along the ray v + alpha*d,
// implementing the bracket/fallback/parabolic state machine of spec §4.5.
func Search(j1 float64, alpha2init, alpha3init, alpha3max float64, evalJ ObjectiveFunc) Result {
	alpha2, alpha3 := alpha2init, alpha3init
	j2 := evalJ(alpha2)
	j3 := evalJ(alpha3)
	tried := []trial{{alpha2, j2}, {alpha3, j3}}

	// Bracket-left / Fallback-left
	iters := 0
	for j2 > j1 && iters < bracketLeftMaxIter {
		alpha3, j3 = alpha2, j2
		alpha2 /= 2
		j2 = evalJ(alpha2)
		tried = append(tried, trial{alpha2, j2})
		iters++
	}
	if j2 > j1 {
		io.PfRed("linesearch: bracket-left exhausted after %d iterations, falling back to best trial\n", bracketLeftMaxIter)
		best := bestOf(tried)
		alpha2, j2 = best.alpha, best.j
		alpha3 = math.Min(2*alpha2, alpha3max)
		j3 = evalJ(alpha3)
		return Result{Alpha: alpha2, J: j2, Fallback: true}
	}

	// Bracket-right / Fallback-right
	for j2 <= j1 && j3 < linearExtrapolate(j1, j2, alpha2, alpha3) && j3 < j1 && alpha3 < alpha3max {
		alpha2, j2 = alpha3, j3
		alpha3 = math.Min(2*alpha3, alpha3max)
		j3 = evalJ(alpha3)
		tried = append(tried, trial{alpha3, j3})
	}
	if alpha3 >= alpha3max && !(j2 <= j1 && j3 < j1) {
		io.PfRed("linesearch: bracket-right hit the physics cap without bracketing, falling back to best trial\n")
		best := bestOf(tried)
		alpha3, j3 = best.alpha, best.j
		alpha2 = alpha3 / 2
		j2 = evalJ(alpha2)
		return Result{Alpha: alpha3, J: j3, Fallback: true}
	}

	// Parabolic
	k1 := (j2 - j1) / alpha2
	k2 := (j3 - j2) / (alpha3 - alpha2)
	maxK := math.Max(math.Abs(k1), math.Abs(k2))
	degenerate := maxK == 0 || math.Abs(k2-k1) < 0.001*maxK

	var alpha4, j4 float64
	if degenerate {
		io.PfRed("linesearch: near-collinear J samples, skipping parabolic fit\n")
		alpha4 = math.Min(2*alpha3, alpha3max)
		j4 = evalJ(alpha4)
	} else {
		alpha4, j4 = parabolaVertex(j1, alpha2, j2, alpha3, j3)
	}
	alpha4 = math.Min(alpha4, alpha3max)
	return Result{Alpha: alpha4, J: j4, Degenerate: degenerate}
}
