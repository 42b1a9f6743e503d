// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package outer

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/saucebing/swfwi/checkpoint"
	"github.com/saucebing/swfwi/gradient"
	"github.com/saucebing/swfwi/grid"
	"github.com/saucebing/swfwi/linesearch"
	"github.com/saucebing/swfwi/ricker"
)

func newTestDriver(tst *testing.T, niter int) *Driver {
	g, err := grid.New(20, 20, 4, 10, 10, 0.001)
	if err != nil {
		tst.Fatalf("grid.New: %v", err)
	}
	src := []grid.Position{{Iz: g.Nb + 1, Ix: g.Nb + 10}}
	rcv := []grid.Position{
		{Iz: g.Nb + 1, Ix: g.Nb + 2},
		{Iz: g.Nb + 1, Ix: g.Nb + 18},
	}
	srcIdx := make([]int, len(src))
	for i, p := range src {
		srcIdx[i] = g.Index(p.Iz, p.Ix)
	}
	rcvIdx := make([]int, len(rcv))
	for i, p := range rcv {
		rcvIdx[i] = g.Index(p.Iz, p.Ix)
	}

	engine := &gradient.Engine{
		G:           g,
		Store:       checkpoint.NewInMemoryStore(),
		SourceIdx:   srcIdx,
		ReceiverIdx: rcvIdx,
		RefSource:   src[0],
		Receivers:   rcv,
		Vbg:         2000,
		Fm:          15,
	}

	nt := 400
	wavelet := ricker.Wavelet(nt, engine.Fm, g.Dt, 1.0)

	ns := 1
	ng := len(rcvIdx)
	dobs := make([][][]float64, ns)
	for is := range dobs {
		dobs[is] = make([][]float64, nt)
		for it := range dobs[is] {
			dobs[is][it] = make([]float64, ng)
		}
	}

	s0 := make([]float64, g.Size())
	for i := range s0 {
		s0[i] = grid.ToSlowness(2000, g.Dx, g.Dt)
	}

	bounds := Bounds{Vmin: 1000, Vmax: 4000}
	return NewDriver(g, engine, s0, wavelet, dobs, bounds, niter)
}

// newMultiShotTestDriver is newTestDriver generalized to ns independent
// sources sharing one receiver line, for exercising JEvalFull's per-shot
// summation (which needs more than one real shot to differ from
// JEvalEncoded's single combined evaluation).
func newMultiShotTestDriver(tst *testing.T, ns, niter int) *Driver {
	g, err := grid.New(20, 20, 4, 10, 10, 0.001)
	if err != nil {
		tst.Fatalf("grid.New: %v", err)
	}
	rcv := []grid.Position{
		{Iz: g.Nb + 1, Ix: g.Nb + 2},
		{Iz: g.Nb + 1, Ix: g.Nb + 18},
	}
	rcvIdx := make([]int, len(rcv))
	for i, p := range rcv {
		rcvIdx[i] = g.Index(p.Iz, p.Ix)
	}

	src := make([]grid.Position, ns)
	srcIdx := make([]int, ns)
	for i := range src {
		src[i] = grid.Position{Iz: g.Nb + 1, Ix: g.Nb + 5 + i}
		srcIdx[i] = g.Index(src[i].Iz, src[i].Ix)
	}

	engine := &gradient.Engine{
		G:           g,
		Store:       checkpoint.NewInMemoryStore(),
		SourceIdx:   srcIdx,
		ReceiverIdx: rcvIdx,
		RefSource:   src[0],
		Receivers:   rcv,
		Vbg:         2000,
		Fm:          15,
	}

	nt := 400
	wavelet := ricker.Wavelet(nt, engine.Fm, g.Dt, 1.0)

	ng := len(rcvIdx)
	dobs := make([][][]float64, ns)
	for is := range dobs {
		dobs[is] = make([][]float64, nt)
		for it := range dobs[is] {
			dobs[is][it] = make([]float64, ng)
		}
	}

	s0 := make([]float64, g.Size())
	for i := range s0 {
		s0[i] = grid.ToSlowness(2000, g.Dx, g.Dt)
	}

	bounds := Bounds{Vmin: 1000, Vmax: 4000}
	return NewDriver(g, engine, s0, wavelet, dobs, bounds, niter)
}

func TestRunWithJEvalFullRecordsSaneHistory(tst *testing.T) {
	chk.PrintTitle("RunWithJEvalFullRecordsSaneHistory")
	d := newMultiShotTestDriver(tst, 3, 2)
	d.JEval = linesearch.JEvalFull
	history, err := d.Run(nil)
	if err != nil {
		tst.Fatalf("Run: %v", err)
	}
	if len(history) != 2 {
		tst.Fatalf("expected 2 history entries, got %d", len(history))
	}
	for i, j := range history {
		if math.IsNaN(j) || j < 0 {
			tst.Errorf("history[%d] = %v is not a sane objective value", i, j)
		}
	}
}

func TestRunKeepsVelocityWithinBounds(tst *testing.T) {
	chk.PrintTitle("RunKeepsVelocityWithinBounds")
	d := newTestDriver(tst, 2)
	_, err := d.Run(nil)
	if err != nil {
		tst.Fatalf("Run: %v", err)
	}
	sMaxBound := grid.ToSlowness(d.Bounds.Vmin, d.G.Dx, d.G.Dt)
	sMinBound := grid.ToSlowness(d.Bounds.Vmax, d.G.Dx, d.G.Dt)
	for i, s := range d.S {
		if s < sMinBound-1e-9 || s > sMaxBound+1e-9 {
			tst.Errorf("cell %d: s=%v out of bounds [%v, %v]", i, s, sMinBound, sMaxBound)
		}
	}
}

func TestRunRefillsBorder(tst *testing.T) {
	chk.PrintTitle("RunRefillsBorder")
	d := newTestDriver(tst, 1)
	_, err := d.Run(nil)
	if err != nil {
		tst.Fatalf("Run: %v", err)
	}
	zlo, zhi := grid.InteriorBounds(d.G.Nb, d.G.Nz)
	xlo, xhi := grid.InteriorBounds(d.G.Nb, d.G.Nx)
	mid := (xlo + xhi) / 2
	top := d.S[d.G.Index(zlo, mid)]
	for iz := 0; iz < zlo; iz++ {
		chk.Scalar(tst, "border refill top", 1e-15, d.S[d.G.Index(iz, mid)], top)
	}
}

func TestRunRecordsOneObjectivePerIteration(tst *testing.T) {
	chk.PrintTitle("RunRecordsOneObjectivePerIteration")
	d := newTestDriver(tst, 3)
	history, err := d.Run(nil)
	if err != nil {
		tst.Fatalf("Run: %v", err)
	}
	if len(history) != 3 {
		tst.Fatalf("expected 3 history entries, got %d", len(history))
	}
	for i, j := range history {
		if math.IsNaN(j) || j < 0 {
			tst.Errorf("history[%d] = %v is not a sane objective value", i, j)
		}
	}
}

func TestRunCallsOnIterationWithPhysicalVelocity(tst *testing.T) {
	chk.PrintTitle("RunCallsOnIterationWithPhysicalVelocity")
	d := newTestDriver(tst, 2)
	calls := 0
	_, err := d.Run(func(it int, vPhys []float64) {
		calls++
		if it != calls {
			tst.Errorf("expected iteration %d, got %d", calls, it)
		}
		for _, v := range vPhys {
			if v < d.Bounds.Vmin-1e-6 || v > d.Bounds.Vmax+1e-6 {
				tst.Errorf("physical velocity %v outside [%v, %v]", v, d.Bounds.Vmin, d.Bounds.Vmax)
			}
		}
	})
	if err != nil {
		tst.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		tst.Errorf("expected 2 onIteration calls, got %d", calls)
	}
}
