// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestShouldSaveForward(tst *testing.T) {
	chk.PrintTitle("ShouldSaveForward")
	nt := 1000
	cases := map[int]bool{0: false, 50: true, 100: true, 999: false, 51: false}
	for it, want := range cases {
		got := ShouldSaveForward(it, nt)
		if got != want {
			tst.Errorf("ShouldSaveForward(%d, %d) = %v, want %v", it, nt, got, want)
		}
	}
}

func TestShouldLoadReverse(tst *testing.T) {
	chk.PrintTitle("ShouldLoadReverse")
	cases := map[int]bool{0: false, 50: true, 100: true, 25: false}
	for it, want := range cases {
		got := ShouldLoadReverse(it)
		if got != want {
			tst.Errorf("ShouldLoadReverse(%d) = %v, want %v", it, got, want)
		}
	}
}

func TestShouldSaveForwardKScalesWithInterval(tst *testing.T) {
	chk.PrintTitle("ShouldSaveForwardKScalesWithInterval")
	nt := 1000
	cases := map[int]bool{0: false, 25: true, 100: true, 999: false, 50: true, 26: false}
	for it, want := range cases {
		got := ShouldSaveForwardK(it, nt, 25)
		if got != want {
			tst.Errorf("ShouldSaveForwardK(%d, %d, 25) = %v, want %v", it, nt, got, want)
		}
	}
}

func TestInMemoryStoreRoundTrip(tst *testing.T) {
	chk.PrintTitle("InMemoryStoreRoundTrip")
	s := NewInMemoryStore()
	p := []float64{1, 2, 3, 4}
	if err := s.Save(50, 1, p); err != nil {
		tst.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(50, 1)
	if err != nil {
		tst.Fatalf("Load failed: %v", err)
	}
	chk.Vector(tst, "round trip", 1e-15, got, p)

	if _, err := s.Load(999, 1); err == nil {
		tst.Errorf("expected error loading an unsaved checkpoint")
	}
}

func TestFileStoreRoundTrip(tst *testing.T) {
	chk.PrintTitle("FileStoreRoundTrip")
	dir := filepath.Join(tst.TempDir(), "ckp")
	s, err := NewFileStore(dir, 4)
	if err != nil {
		tst.Fatalf("NewFileStore failed: %v", err)
	}
	p := []float64{1.5, -2.25, 3.0, 0.0}
	if err := s.Save(Last, 2, p); err != nil {
		tst.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(Last, 2)
	if err != nil {
		tst.Fatalf("Load failed: %v", err)
	}
	chk.Vector(tst, "round trip", 1e-6, got, p)

	if _, err := os.Stat(filepath.Join(dir, "check_time_last_2")); err != nil {
		tst.Errorf("expected checkpoint file check_time_last_2: %v", err)
	}

	if err := s.Save(100, 1, p); err != nil {
		tst.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "check_time_100_1")); err != nil {
		tst.Errorf("expected checkpoint file check_time_100_1: %v", err)
	}
}
