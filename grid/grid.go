// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package grid implements the padded finite-difference grid and the
// velocity model carried in transformed units.
package grid

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Grid describes the padded nz_pad x nx_pad finite-difference grid built by
// expanding an nz x nx interior grid by nb cells on every side. Cells are
// addressed in column-major order: x is the slow axis, z is the fast axis.
type Grid struct {
	Nz, Nx       int     // interior dimensions
	Nb           int     // border (damping zone) thickness, cells
	Dx, Dz       float64 // cell spacing; Dx == Dz is required
	Dt           float64 // time step
	NzPad, NxPad int     // padded dimensions
}

// New allocates a Grid, checking that the spacing is isotropic (dx == dz) as
// required by the stencil in the wave package.
func New(nz, nx, nb int, dx, dz, dt float64) (*Grid, error) {
	if nz <= 0 || nx <= 0 {
		return nil, chk.Err("grid: nz and nx must be positive (nz=%d, nx=%d)", nz, nx)
	}
	if nb < 0 {
		return nil, chk.Err("grid: nb must be non-negative (nb=%d)", nb)
	}
	if math.Abs(dx-dz) > 1e-9 {
		return nil, chk.Err("grid: dx and dz must be equal (dx=%v, dz=%v)", dx, dz)
	}
	if dt <= 0 {
		return nil, chk.Err("grid: dt must be positive (dt=%v)", dt)
	}
	return &Grid{
		Nz: nz, Nx: nx, Nb: nb,
		Dx: dx, Dz: dz, Dt: dt,
		NzPad: nz + 2*nb, NxPad: nx + 2*nb,
	}, nil
}

// Position is a single padded-grid coordinate, used for source and
// receiver geometry.
type Position struct {
	Iz, Ix int
}

// Size returns the total number of cells on the padded grid.
func (g *Grid) Size() int { return g.NzPad * g.NxPad }

// Index converts padded-grid (iz, ix) coordinates to a flat array index.
func (g *Grid) Index(iz, ix int) int { return ix*g.NzPad + iz }

// Alloc returns a new zeroed slice sized for one padded-grid field.
func (g *Grid) Alloc() []float64 { return make([]float64, g.Size()) }

// InteriorBounds returns the padded-grid index range [lo, hi) of the
// physical interior along one axis (z or x), given that axis's nb/n.
func InteriorBounds(nb, n int) (lo, hi int) { return nb, nb + n }

// ToSlowness converts a physical speed c (m/s) to the transformed unit
// s = (dx/(dt*c))^2 used throughout the core.
func ToSlowness(c, dx, dt float64) float64 {
	r := dx / (dt * c)
	return r * r
}

// ToSpeed is the inverse of ToSlowness.
func ToSpeed(s, dx, dt float64) float64 {
	return dx / (dt * math.Sqrt(s))
}

// Clamp restricts every value of s to [sMin, sMax] in place.
func Clamp(s []float64, sMin, sMax float64) {
	for i, v := range s {
		if v < sMin {
			s[i] = sMin
		} else if v > sMax {
			s[i] = sMax
		}
	}
}

// RefillBorder copies the nearest interior physical-edge cell into every
// border cell of the padded grid, restoring the refill invariant after a
// velocity update has touched only the interior.
func RefillBorder(g *Grid, v []float64) {
	zlo, zhi := InteriorBounds(g.Nb, g.Nz)
	xlo, xhi := InteriorBounds(g.Nb, g.Nx)

	// grow in z within each interior column, then grow in x across all rows
	for ix := xlo; ix < xhi; ix++ {
		top := v[g.Index(zlo, ix)]
		bot := v[g.Index(zhi-1, ix)]
		for iz := 0; iz < zlo; iz++ {
			v[g.Index(iz, ix)] = top
		}
		for iz := zhi; iz < g.NzPad; iz++ {
			v[g.Index(iz, ix)] = bot
		}
	}
	for iz := 0; iz < g.NzPad; iz++ {
		srcZ := iz
		if srcZ < zlo {
			srcZ = zlo
		} else if srcZ >= zhi {
			srcZ = zhi - 1
		}
		left := v[g.Index(srcZ, xlo)]
		right := v[g.Index(srcZ, xhi-1)]
		for ix := 0; ix < xlo; ix++ {
			v[g.Index(iz, ix)] = left
		}
		for ix := xhi; ix < g.NxPad; ix++ {
			v[g.Index(iz, ix)] = right
		}
	}
}
