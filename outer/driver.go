// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package outer implements the outer FWI iteration: per iteration it
// encodes a fresh super-shot, calls the gradient engine, builds a CG
// direction, runs the line search, and updates the velocity model under
// the clamp/border-refill invariants.
package outer

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/saucebing/swfwi/cgdir"
	"github.com/saucebing/swfwi/encode"
	"github.com/saucebing/swfwi/gradient"
	"github.com/saucebing/swfwi/grid"
	"github.com/saucebing/swfwi/linesearch"
)

// Bounds restricts the accepted velocity (physical units, m/s) during the
// clamp step; converted to slowness units internally.
type Bounds struct {
	Vmin, Vmax float64
}

// Driver owns the state that persists across outer iterations: the current
// velocity model (transformed units), the CG direction-builder state, and
// the line search's per-problem step-length memory.
type Driver struct {
	G      *grid.Grid
	Engine *gradient.Engine

	S      []float64 // current velocity model, transformed units
	Wavelet []float64
	Dobs   [][][]float64 // observed data, shape [ns][nt][ng]

	Bounds Bounds
	Niter  int

	cg      *cgdir.State
	persist *linesearch.Persist

	// JEval selects what data the line search evaluates trial steps
	// against. JEvalEncoded (the zero value) reuses the same encoded
	// super-shot the gradient was computed from; JEvalFull re-evaluates
	// every shot's own unencoded data individually and sums the result, at
	// the cost of one extra forward pass per shot per trial step.
	JEval linesearch.JEvalKind

	// ShowMsg gates the per-iteration progress print.
	ShowMsg bool

	// History records one objective value per completed iteration, in
	// order, for callers that want to check the monotone-decrease property.
	History []float64
}

// NewDriver wires a Driver around an already-built gradient.Engine and
// initial velocity model, transformed to slowness units by the caller.
func NewDriver(g *grid.Grid, engine *gradient.Engine, s0 []float64, wavelet []float64, dobs [][][]float64, bounds Bounds, niter int) *Driver {
	return &Driver{
		G:       g,
		Engine:  engine,
		S:       s0,
		Wavelet: wavelet,
		Dobs:    dobs,
		Bounds:  bounds,
		Niter:   niter,
		cg:      cgdir.NewState(),
		persist: linesearch.NewPersist(),
	}
}

// Run executes Niter outer iterations in sequence, invoking onIteration
// (if non-nil) after each accepted update with the 1-based iteration index
// and the current velocity snapshot (physical units, m/s) for the caller to
// persist. Returns the final objective history.
func (d *Driver) Run(onIteration func(it int, vPhys []float64)) ([]float64, error) {
	dt := d.G.Dt
	for it := 1; it <= d.Niter; it++ {
		e := encode.NewSignVector(len(d.Dobs))
		encSrc := encode.Source(e, d.Wavelet)
		encObs := encode.Observed(e, d.Dobs)

		result, err := d.Engine.Compute(d.S, dt, encSrc, encObs)
		if err != nil {
			return d.History, chk.Err("outer: iteration %d gradient failed: %v", it, err)
		}

		dir := d.cg.Direction(result.Gradient)

		alpha2max, alpha3max := linesearch.PhysicsCap(d.S, dir, d.G.Dx, d.G.Dt)
		alpha2init, alpha3init := d.persist.Init(alpha3max)

		evalJ := d.evalJFunc(dt, encSrc, encObs, dir, it)

		lsResult := linesearch.Search(result.Objective, alpha2init, alpha3init, alpha3max, evalJ)
		d.persist.Store(lsResult.Alpha)

		for i := range d.S {
			d.S[i] += lsResult.Alpha * dir[i]
		}
		d.clamp(d.S)
		grid.RefillBorder(d.G, d.S)

		d.History = append(d.History, result.Objective)
		if d.ShowMsg {
			io.Pf("> outer iteration %3d: J = %12.6e, alpha = %10.4e\n", it, result.Objective, lsResult.Alpha)
		}

		if onIteration != nil {
			onIteration(it, d.physical())
		}
	}
	return d.History, nil
}

// evalJFunc builds the line search's trial-step objective, choosing its
// data source from d.JEval: JEvalEncoded scores against the same encoded
// super-shot the gradient was computed from, JEvalFull scores against
// every shot's own unencoded data and sums the result.
func (d *Driver) evalJFunc(dt float64, encSrc, encObs [][]float64, dir []float64, it int) linesearch.ObjectiveFunc {
	sTrial := make([]float64, len(d.S))
	trialAt := func(alpha float64) {
		for i := range sTrial {
			sTrial[i] = d.S[i] + alpha*dir[i]
		}
		d.clamp(sTrial)
	}

	if d.JEval == linesearch.JEvalFull {
		ns := len(d.Dobs)
		return func(alpha float64) float64 {
			trialAt(alpha)
			total := 0.0
			for k := 0; k < ns; k++ {
				srcK := soloSource(ns, k, d.Wavelet)
				j, err := d.Engine.Objective(sTrial, dt, srcK, d.Dobs[k])
				if err != nil {
					chk.Panic("outer: line-search objective failed at iteration %d, shot %d: %v", it, k, err)
				}
				total += j
			}
			return total
		}
	}

	return func(alpha float64) float64 {
		trialAt(alpha)
		j, err := d.Engine.Objective(sTrial, dt, encSrc, encObs)
		if err != nil {
			chk.Panic("outer: line-search objective failed at iteration %d: %v", it, err)
		}
		return j
	}
}

// soloSource builds an encoded-shape source array ([nt][ns]) with every
// column zero except shot k, so a single shot's own unencoded data can be
// evaluated against the shared Engine without re-encoding the whole shard.
func soloSource(ns, k int, wavelet []float64) [][]float64 {
	src := make([][]float64, len(wavelet))
	for it, v := range wavelet {
		row := make([]float64, ns)
		row[k] = v
		src[it] = row
	}
	return src
}

// clamp restricts s to the slowness range implied by Bounds, in place.
func (d *Driver) clamp(s []float64) {
	sMax := grid.ToSlowness(d.Bounds.Vmin, d.G.Dx, d.G.Dt) // slower speed -> larger s
	sMin := grid.ToSlowness(d.Bounds.Vmax, d.G.Dx, d.G.Dt)
	grid.Clamp(s, sMin, sMax)
}

// physical returns the current velocity model converted to m/s.
func (d *Driver) physical() []float64 {
	v := make([]float64, len(d.S))
	for i, s := range d.S {
		v[i] = grid.ToSpeed(s, d.G.Dx, d.G.Dt)
	}
	return v
}
