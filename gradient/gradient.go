// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package gradient implements the adjoint-state gradient engine: forward
// modeling, a temporal filter on the residual, a checkpointed
// reconstruction pass, and a reverse correlation loop that accumulates the
// velocity gradient.
package gradient

import (
	"github.com/cpmech/gosl/chk"

	"github.com/saucebing/swfwi/checkpoint"
	"github.com/saucebing/swfwi/grid"
	"github.com/saucebing/swfwi/wave"
)

// filterCoef is the 5-point second-derivative stencil applied to each
// receiver trace of the residual before it is used as the adjoint source.
var filterCoef = [5]float64{-1.0 / 12, 4.0 / 3, -5.0 / 2, 4.0 / 3, -1.0 / 12}

// Engine owns the grid, checkpoint store and shot geometry needed to turn a
// velocity model and an encoded shot into a gradient and an objective
// value. One Engine serves every outer iteration; its checkpoint store is
// reused and overwritten each call.
type Engine struct {
	G           *grid.Grid
	Store       checkpoint.Store
	SourceIdx   []int // flat padded-grid indices, len ns
	ReceiverIdx []int // flat padded-grid indices, len ng

	// RefSource is the position used for straight-ray direct-arrival
	// removal against the combined encoded gather: the centroid of the
	// physical source line (see DESIGN.md).
	RefSource grid.Position
	Receivers []grid.Position

	Vbg float64 // background speed used for the direct-arrival mute
	Fm  float64 // dominant frequency, sets the observed-data mute width

	// TopMuteRows zeroes this many interior rows below the free surface in
	// the gradient mask, in addition to the padded border. Defaults to
	// G.Nb when zero.
	TopMuteRows int

	// CheckpointK overrides the checkpoint save/reload interval
	// (checkpoint.K when zero). Larger values trade more reverse-pass
	// reconstruction error for fewer stored wavefields.
	CheckpointK int
}

func (e *Engine) checkpointK() int {
	if e.CheckpointK > 0 {
		return e.CheckpointK
	}
	return checkpoint.K
}

// Result carries a computed gradient and the objective value it was
// produced from.
type Result struct {
	Gradient  []float64
	Objective float64
}

// Compute runs Stages A-D against slowness field s (padded-grid, transformed
// units, see grid.ToSlowness) and an encoded shot (encSrc, encObs of shape
// [nt][*]), returning the gradient and the Stage A objective.
func (e *Engine) Compute(s []float64, dt float64, encSrc, encObs [][]float64) (Result, error) {
	objective, vsrc, err := e.residual(s, dt, encSrc, encObs, wave.ModeObserved)
	if err != nil {
		return Result{}, err
	}
	nt := len(encSrc)
	adjointSrc := temporalFilter(vsrc, nt, len(e.ReceiverIdx))

	if err := e.forwardCheckpoint(s, encSrc, nt); err != nil {
		return Result{}, err
	}

	g, err := e.reverseCorrelate(s, dt, encSrc, adjointSrc, nt)
	if err != nil {
		return Result{}, err
	}
	e.mask(g)

	return Result{Gradient: g, Objective: objective}, nil
}

// Objective evaluates the Stage A residual objective alone, against the
// line-search direct-arrival mute width (a fixed 0.15s, where Compute uses
// 1.5/fm): used by the line search to score a trial step without paying for a
// reverse-correlation pass.
func (e *Engine) Objective(s []float64, dt float64, encSrc, encObs [][]float64) (float64, error) {
	objective, _, err := e.residual(s, dt, encSrc, encObs, wave.ModeLineSearch)
	return objective, err
}

// residual runs Stage A's forward pass and direct-arrival-muted misfit,
// returning the objective value and the per-sample residual traces (the
// Stage B "virtual source" input) for the given mute mode.
func (e *Engine) residual(s []float64, dt float64, encSrc, encObs [][]float64, mode wave.Mode) (float64, [][]float64, error) {
	nt := len(encSrc)
	if len(encObs) != nt {
		return 0, nil, chk.Err("gradient: encSrc and encObs have different nt (%d vs %d)", nt, len(encObs))
	}
	ng := len(e.ReceiverIdx)

	dcal, err := e.forwardObserve(s, encSrc, nt, ng)
	if err != nil {
		return 0, nil, err
	}

	obs := copyTrace(encObs)
	tau := wave.DirectArrivalTau(mode, e.Fm)
	wave.RemoveDirectArrival(obs, e.RefSource, e.Receivers, e.Vbg, e.G.Dx, dt, tau)
	wave.RemoveDirectArrival(dcal, e.RefSource, e.Receivers, e.Vbg, e.G.Dx, dt, tau)

	vsrc := make([][]float64, nt)
	objective := 0.0
	for it := 0; it < nt; it++ {
		row := make([]float64, ng)
		for ig := 0; ig < ng; ig++ {
			d := obs[it][ig] - dcal[it][ig]
			row[ig] = d
			objective += 0.5 * d * d
		}
		vsrc[it] = row
	}
	return objective, vsrc, nil
}

// forwardObserve runs Stage A's forward pass, recording the synthetic
// gather without writing any checkpoints.
func (e *Engine) forwardObserve(s []float64, encSrc [][]float64, nt, ng int) ([][]float64, error) {
	fld := wave.NewWavefield(e.G.Size())
	dcal := make([][]float64, nt)
	for it := 0; it < nt; it++ {
		wave.StepForward(e.G, fld, s)
		wave.AddSource(fld.Next, encSrc[it], e.SourceIdx, 1)
		row := make([]float64, ng)
		wave.RecordSeis(row, fld.Next, e.ReceiverIdx)
		dcal[it] = row
		fld.Rotate()
	}
	return dcal, nil
}

// forwardCheckpoint runs Stage C's forward pass, persisting the (prev,
// curr) pair every CheckpointK steps (checkpoint.K by default) and
// unconditionally at the last step.
func (e *Engine) forwardCheckpoint(s []float64, encSrc [][]float64, nt int) error {
	fld := wave.NewWavefield(e.G.Size())
	for it := 0; it < nt; it++ {
		wave.StepForward(e.G, fld, s)
		wave.AddSource(fld.Next, encSrc[it], e.SourceIdx, 1)
		fld.Rotate()
		if it == nt-1 {
			if err := e.Store.Save(checkpoint.Last, 1, fld.Prev); err != nil {
				return err
			}
			if err := e.Store.Save(checkpoint.Last, 2, fld.Curr); err != nil {
				return err
			}
		} else if checkpoint.ShouldSaveForwardK(it, nt, e.checkpointK()) {
			if err := e.Store.Save(it, 1, fld.Prev); err != nil {
				return err
			}
			if err := e.Store.Save(it, 2, fld.Curr); err != nil {
				return err
			}
		}
	}
	return nil
}

// reverseCorrelate implements Stage D: it reconstructs the source wavefield
// backward from checkpoints, propagates the adjoint wavefield forward from
// the receivers, and accumulates the gradient with the time-mute ramp.
func (e *Engine) reverseCorrelate(s []float64, dt float64, encSrc [][]float64, adjointSrc [][]float64, nt int) ([]float64, error) {
	g := make([]float64, e.G.Size())
	sp := wave.NewWavefield(e.G.Size())
	gp := wave.NewWavefield(e.G.Size())

	for it := nt - 1; it >= 0; it-- {
		t := dt * float64(it)
		weight, active := muteWeight(t)
		if !active {
			break
		}

		if it == nt-1 || checkpoint.ShouldLoadReverseK(it, e.checkpointK()) {
			key := it
			if it == nt-1 {
				key = checkpoint.Last
			}
			loadedPrev, err := e.Store.Load(key, 1)
			if err != nil {
				return nil, err
			}
			loadedCurr, err := e.Store.Load(key, 2)
			if err != nil {
				return nil, err
			}
			// sp.Next holds the later sample (p(it)), sp.Curr the earlier
			// one (p(it-1)); StepBackward then produces p(it-2) into
			// sp.Prev, mirroring the forward checkpoint's (prev, curr)
			// naming rotated one slot.
			copy(sp.Next, loadedCurr)
			copy(sp.Curr, loadedPrev)
		}

		wave.StepBackward(e.G, sp, s)
		wave.AddSource(sp.Next, encSrc[it], e.SourceIdx, -1)

		wave.StepForward(e.G, gp, s)
		wave.AddSource(gp.Next, adjointSrc[it], e.ReceiverIdx, 1)

		for i := range g {
			g[i] -= weight * sp.Next[i] * gp.Next[i]
		}

		sp.RotateBackward()
		gp.Rotate()
	}
	return g, nil
}

// mask zeroes the padded border and a band of near-source rows below the
// free surface, per the gradient mask step of Stage D.
func (e *Engine) mask(g []float64) {
	top := e.TopMuteRows
	if top == 0 {
		top = e.G.Nb
	}
	zlo, zhi := grid.InteriorBounds(e.G.Nb, e.G.Nz)
	xlo, xhi := grid.InteriorBounds(e.G.Nb, e.G.Nx)
	for ix := 0; ix < e.G.NxPad; ix++ {
		for iz := 0; iz < e.G.NzPad; iz++ {
			inInterior := iz >= zlo && iz < zhi && ix >= xlo && ix < xhi
			nearSurface := inInterior && iz < zlo+top
			if !inInterior || nearSurface {
				g[e.G.Index(iz, ix)] = 0
			}
		}
	}
}

// muteWeight returns the time-mute contribution weight for a sample at time
// t (= dt*it): full weight beyond 0.4s, a linear ramp between 0.3s and
// 0.4s, and inactive (the reverse loop should stop) at or before 0.3s.
func muteWeight(t float64) (weight float64, active bool) {
	switch {
	case t > 0.4:
		return 1, true
	case t > 0.3:
		return (t - 0.3) / 0.1, true
	default:
		return 0, false
	}
}

// temporalFilter applies the 5-point second-derivative stencil to each
// receiver trace of vsrc (shape [nt][ng]), zeroing the first two and last
// two samples of every trace.
func temporalFilter(vsrc [][]float64, nt, ng int) [][]float64 {
	out := make([][]float64, nt)
	for it := range out {
		out[it] = make([]float64, ng)
	}
	for ig := 0; ig < ng; ig++ {
		for it := 2; it < nt-2; it++ {
			acc := 0.0
			for k := -2; k <= 2; k++ {
				acc += filterCoef[k+2] * vsrc[it+k][ig]
			}
			out[it][ig] = acc
		}
	}
	return out
}

func copyTrace(trace [][]float64) [][]float64 {
	out := make([][]float64, len(trace))
	for i, row := range trace {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
