// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/saucebing/swfwi/grid"
)

func TestBuildLine(tst *testing.T) {
	chk.PrintTitle("BuildLine")
	pos := BuildLine(2, 3, 0, 5, 4)
	expected := []grid.Position{{Iz: 2, Ix: 3}, {Iz: 2, Ix: 8}, {Iz: 2, Ix: 13}, {Iz: 2, Ix: 18}}
	for i := range expected {
		if pos[i] != expected[i] {
			tst.Errorf("position %d: got %v, want %v", i, pos[i], expected[i])
		}
	}
}

func TestValidateOutOfBounds(tst *testing.T) {
	chk.PrintTitle("ValidateOutOfBounds")
	g, err := grid.New(10, 10, 2, 10, 10, 0.001)
	if err != nil {
		tst.Fatalf("grid.New failed: %v", err)
	}
	ok := []grid.Position{{Iz: 2, Ix: 2}, {Iz: 13, Ix: 13}}
	if err := Validate("source", ok, g); err != nil {
		tst.Errorf("unexpected error: %v", err)
	}
	bad := []grid.Position{{Iz: -1, Ix: 2}}
	if err := Validate("source", bad, g); err == nil {
		tst.Errorf("expected error for out-of-bounds position")
	}
}

func TestToIndex(tst *testing.T) {
	chk.PrintTitle("ToIndex")
	g, _ := grid.New(5, 5, 0, 10, 10, 0.001)
	pos := []grid.Position{{Iz: 1, Ix: 2}}
	idx := ToIndex(g, pos)
	if idx[0] != g.Index(1, 2) {
		tst.Errorf("got %d, want %d", idx[0], g.Index(1, 2))
	}
}
