// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package geom builds source and receiver index lists ("shot geometry") on
// the padded grid and validates them against the computing zone.
package geom

import (
	"github.com/cpmech/gosl/chk"

	"github.com/saucebing/swfwi/grid"
)

// BuildLine generates n padded-grid positions starting at (zBegin, xBegin)
// with strides (jz, jx), the shared layout of both source and receiver
// linear arrays (spec: ShotPosition / receiver geometry).
func BuildLine(zBegin, xBegin, jz, jx, n int) []grid.Position {
	pos := make([]grid.Position, n)
	for i := 0; i < n; i++ {
		pos[i] = grid.Position{Iz: zBegin + i*jz, Ix: xBegin + i*jx}
	}
	return pos
}

// Validate returns an error if any position lies outside the padded
// computing zone; cmd/swfwi treats it as fatal (spec §7, "geometry
// out-of-bounds").
func Validate(name string, pos []grid.Position, g *grid.Grid) error {
	for i, p := range pos {
		if p.Iz < 0 || p.Iz >= g.NzPad || p.Ix < 0 || p.Ix >= g.NxPad {
			return chk.Err("geom: %s position %d = (iz=%d, ix=%d) is outside the computing zone (nz_pad=%d, nx_pad=%d)",
				name, i, p.Iz, p.Ix, g.NzPad, g.NxPad)
		}
	}
	return nil
}

// ToIndex converts a position list into flat grid indices.
func ToIndex(g *grid.Grid, pos []grid.Position) []int {
	idx := make([]int, len(pos))
	for i, p := range pos {
		idx[i] = g.Index(p.Iz, p.Ix)
	}
	return idx
}
