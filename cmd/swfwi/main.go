// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"math"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/rnd"

	"github.com/saucebing/swfwi/checkpoint"
	"github.com/saucebing/swfwi/config"
	"github.com/saucebing/swfwi/geom"
	"github.com/saucebing/swfwi/gradient"
	"github.com/saucebing/swfwi/grid"
	"github.com/saucebing/swfwi/outer"
	"github.com/saucebing/swfwi/ricker"
	"github.com/saucebing/swfwi/seisio"
	"github.com/saucebing/swfwi/wave"
)

func main() {
	exitCode := 0

	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
			exitCode = 1
		}
		mpi.Stop(false)
		os.Exit(exitCode)
	}()
	mpi.Start(false)

	if mpi.Rank() == 0 {
		io.PfWhite("\nswfwi -- time-domain acoustic full waveform inversion\n\n")
	}

	flag.Parse()
	if len(flag.Args()) < 1 {
		chk.Panic("Please provide a configuration file. Ex.: swfwi run.json")
	}
	cfg := config.Read(flag.Arg(0))

	checkpointDir := os.Getenv("CHECKPOINTDIR")
	if checkpointDir == "" {
		chk.Panic("CHECKPOINTDIR environment variable is required")
	}

	rnd.Init(10)

	g, err := grid.New(cfg.Nz, cfg.Nx, cfg.Nb, cfg.Dx, cfg.Dz, cfg.Dt)
	if err != nil {
		chk.Panic("%v", err)
	}

	srcPos := geom.BuildLine(cfg.Szbeg, cfg.Sxbeg, cfg.Jsz, cfg.Jsx, cfg.Ns)
	rcvPos := geom.BuildLine(cfg.Gzbeg, cfg.Gxbeg, cfg.Jgz, cfg.Jgx, cfg.Ng)
	if err := geom.Validate("source", srcPos, g); err != nil {
		chk.Panic("%v", err)
	}
	if err := geom.Validate("receiver", rcvPos, g); err != nil {
		chk.Panic("%v", err)
	}

	vinitHeader, err := seisio.ReadHeader(cfg.Vinit)
	if err != nil {
		chk.Panic("%v", err)
	}
	checkHeaderShape(cfg.Vinit, vinitHeader, []int{g.NzPad, g.NxPad}, g.Dx)

	vinitPhys, err := seisio.ReadFloats(cfg.Vinit)
	if err != nil {
		chk.Panic("%v", err)
	}
	if len(vinitPhys) != g.Size() {
		chk.Panic("vinit file %q has %d samples, want %d (padded grid size)", cfg.Vinit, len(vinitPhys), g.Size())
	}
	s0 := make([]float64, g.Size())
	vbgSum, vmaxPhys := 0.0, 0.0
	for i, v := range vinitPhys {
		s0[i] = grid.ToSlowness(v, g.Dx, g.Dt)
		vbgSum += v
		if v > vmaxPhys {
			vmaxPhys = v
		}
	}
	vbg := vbgSum / float64(len(vinitPhys))

	if ok, violations := wave.CheckCFL(s0, g.Dx, g.Dt, vmaxPhys); !ok {
		io.PfRed("cfl: %d of %d cells violate s >= (dx/(dt*vmax))^2 at vmax=%v m/s\n", violations, len(s0), vmaxPhys)
	}

	shotsHeader, err := seisio.ReadHeader(cfg.Shots)
	if err != nil {
		chk.Panic("%v", err)
	}
	checkHeaderShape(cfg.Shots, shotsHeader, []int{cfg.Ns, cfg.Nt, cfg.Ng}, g.Dx)

	shotsFlat, err := seisio.ReadFloats(cfg.Shots)
	if err != nil {
		chk.Panic("%v", err)
	}
	if len(shotsFlat) != cfg.Ns*cfg.Nt*cfg.Ng {
		chk.Panic("shots file %q has %d samples, want %d (ns*nt*ng)", cfg.Shots, len(shotsFlat), cfg.Ns*cfg.Nt*cfg.Ng)
	}
	dobs := reshapeShots(shotsFlat, cfg.Ns, cfg.Nt, cfg.Ng)

	// trivial per-shot partition across MPI ranks: each rank inverts its own
	// contiguous slice of shots independently and writes to its own
	// vupdates file, rather than a domain-decomposed solve.
	nproc, rank := 1, 0
	if mpi.IsOn() {
		nproc, rank = mpi.Size(), mpi.Rank()
	}
	localDobs, loSrc, hiSrc := shardShots(dobs, srcPos, nproc, rank)
	if len(localDobs) == 0 {
		mpi.Stop(false)
		os.Exit(0)
	}
	io.Pf("> rank %d: shots [%d, %d)\n", rank, hiSrc-len(localDobs), hiSrc)

	prms := ricker.NewParams(cfg.Fm, cfg.Amp)
	wavelet := ricker.Generate(prms, cfg.Nt, cfg.Dt)

	refSrc := centroid(loSrc)
	store, err := checkpoint.NewFileStore(checkpointDirFor(checkpointDir, rank), g.Size())
	if err != nil {
		chk.Panic("%v", err)
	}

	engine := &gradient.Engine{
		G:           g,
		Store:       store,
		SourceIdx:   geom.ToIndex(g, loSrc),
		ReceiverIdx: geom.ToIndex(g, rcvPos),
		RefSource:   refSrc,
		Receivers:   rcvPos,
		Vbg:         vbg,
		Fm:          cfg.Fm,
	}

	bounds := outer.Bounds{Vmin: 500, Vmax: 6000}
	driver := outer.NewDriver(g, engine, s0, wavelet, localDobs, bounds, cfg.Niter)
	driver.ShowMsg = rank == 0

	vupdatesPath := cfg.Vupdates
	if nproc > 1 {
		vupdatesPath = io.Sf("%s.rank%d", cfg.Vupdates, rank)
	}
	vupdatesHeader := seisio.Header{Shape: []int{cfg.Niter, g.NzPad, g.NxPad}, Spacing: g.Dx, Units: "m/s"}
	if err := seisio.WriteHeader(vupdatesPath, vupdatesHeader); err != nil {
		chk.Panic("%v", err)
	}

	_, err = driver.Run(func(it int, vPhys []float64) {
		if err := seisio.AppendFloats(vupdatesPath, vPhys); err != nil {
			chk.Panic("writing vupdates at iteration %d: %v", it, err)
		}
	})
	if err != nil {
		chk.Panic("%v", err)
	}
	if rank == 0 {
		io.PfGreen("> done: %d iterations\n", cfg.Niter)
	}
}

// checkHeaderShape panics if h's declared shape or spacing disagrees with
// what the config says path should hold.
func checkHeaderShape(path string, h seisio.Header, wantShape []int, wantSpacing float64) {
	if len(h.Shape) != len(wantShape) {
		chk.Panic("%s header declares shape %v, want %v", path, h.Shape, wantShape)
	}
	for i, n := range wantShape {
		if h.Shape[i] != n {
			chk.Panic("%s header declares shape %v, want %v", path, h.Shape, wantShape)
		}
	}
	if math.Abs(h.Spacing-wantSpacing) > 1e-9 {
		chk.Panic("%s header declares spacing %v, want %v", path, h.Spacing, wantSpacing)
	}
}

func reshapeShots(flat []float64, ns, nt, ng int) [][][]float64 {
	dobs := make([][][]float64, ns)
	k := 0
	for is := 0; is < ns; is++ {
		dobs[is] = make([][]float64, nt)
		for it := 0; it < nt; it++ {
			row := make([]float64, ng)
			copy(row, flat[k:k+ng])
			dobs[is][it] = row
			k += ng
		}
	}
	return dobs
}

// shardShots splits shots and their source positions into nproc contiguous
// blocks and returns rank's block of shots, its source positions, and the
// exclusive end hi of its [lo, hi) shot-index range.
func shardShots(dobs [][][]float64, srcPos []grid.Position, nproc, rank int) (local [][][]float64, localSrc []grid.Position, hi int) {
	ns := len(dobs)
	base := ns / nproc
	rem := ns % nproc
	lo := rank*base + min(rank, rem)
	hi = lo + base
	if rank < rem {
		hi++
	}
	return dobs[lo:hi], srcPos[lo:hi], hi
}

func centroid(pos []grid.Position) grid.Position {
	if len(pos) == 0 {
		return grid.Position{}
	}
	zs, xs := 0, 0
	for _, p := range pos {
		zs += p.Iz
		xs += p.Ix
	}
	return grid.Position{Iz: zs / len(pos), Ix: xs / len(pos)}
}

func checkpointDirFor(dir string, rank int) string {
	if rank == 0 {
		return dir
	}
	return io.Sf("%s/rank%d", dir, rank)
}
