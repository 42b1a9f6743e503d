// Copyright 2016 The swfwi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package config implements the input data read from a run's JSON config
// file: grid geometry, shot/receiver layout, the Ricker wavelet parameters
// and the file paths a run reads from and writes to.
package config

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/saucebing/swfwi/wave"
)

// Config holds every option recognized by a run. It is a flat record: there
// is exactly one JSON object, no nested stages or per-shot overrides.
type Config struct {
	// grid geometry
	Nz int     `json:"nz"` // interior grid rows
	Nx int     `json:"nx"` // interior grid columns
	Dz float64 `json:"dz"` // cell spacing, z; must equal Dx
	Dx float64 `json:"dx"` // cell spacing, x
	Nb int     `json:"nb"` // damping border thickness, cells

	// time stepping
	Dt float64 `json:"dt"`
	Nt int     `json:"nt"`

	// shot / receiver layout
	Ns int `json:"ns"` // number of shots
	Ng int `json:"ng"` // receivers per shot

	Sxbeg int `json:"sxbeg"`
	Szbeg int `json:"szbeg"`
	Jsx   int `json:"jsx"`
	Jsz   int `json:"jsz"`

	Gxbeg int `json:"gxbeg"`
	Gzbeg int `json:"gzbeg"`
	Jgx   int `json:"jgx"`
	Jgz   int `json:"jgz"`

	// source wavelet
	Fm  float64 `json:"fm"`  // Ricker dominant frequency, Hz
	Amp float64 `json:"amp"` // Ricker amplitude

	// outer iteration
	Niter int `json:"niter"`

	// file paths
	Vinit    string `json:"vinit"`    // initial velocity model
	Shots    string `json:"shots"`    // observed data
	Vupdates string `json:"vupdates"` // output: updated velocity per iteration
}

// Read loads and validates a Config from a JSON file, panicking via
// chk.Panic if the file cannot be read, cannot be parsed, or omits a field
// a run cannot proceed without.
func Read(fnpath string) *Config {
	b, err := io.ReadFile(fnpath)
	if err != nil {
		chk.Panic("config.Read: cannot read config file %q: %v", fnpath, err)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		chk.Panic("config.Read: cannot unmarshal config file %q: %v", fnpath, err)
	}
	c.checkRequired()
	if c.Nb < wave.MinBorder {
		io.PfRed("config: nb=%d is thinner than wave.MinBorder=%d; the propagator will leave a strip of interior cells near the border unupdated\n", c.Nb, wave.MinBorder)
	}
	return &c
}

// checkRequired panics via chk.Panic on the first missing or nonsensical
// field. Geometry and file-path fields are required; everything with a
// sane zero value (e.g. Sxbeg=0) is left to the caller's geometry builder.
func (c *Config) checkRequired() {
	switch {
	case c.Nz <= 0:
		chk.Panic("config: nz must be positive (nz=%d)", c.Nz)
	case c.Nx <= 0:
		chk.Panic("config: nx must be positive (nx=%d)", c.Nx)
	case c.Dz <= 0 || c.Dx <= 0:
		chk.Panic("config: dx and dz must be positive (dx=%v, dz=%v)", c.Dx, c.Dz)
	case c.Dz != c.Dx:
		chk.Panic("config: dx and dz must be equal (dx=%v, dz=%v)", c.Dx, c.Dz)
	case c.Dt <= 0:
		chk.Panic("config: dt must be positive (dt=%v)", c.Dt)
	case c.Nt <= 0:
		chk.Panic("config: nt must be positive (nt=%d)", c.Nt)
	case c.Ns <= 0:
		chk.Panic("config: ns must be positive (ns=%d)", c.Ns)
	case c.Ng <= 0:
		chk.Panic("config: ng must be positive (ng=%d)", c.Ng)
	case c.Nb <= 0:
		chk.Panic("config: nb must be positive (nb=%d)", c.Nb)
	case c.Niter <= 0:
		chk.Panic("config: niter must be positive (niter=%d)", c.Niter)
	case c.Fm <= 0:
		chk.Panic("config: fm must be positive (fm=%v)", c.Fm)
	case c.Vinit == "":
		chk.Panic("config: vinit is required")
	case c.Shots == "":
		chk.Panic("config: shots is required")
	case c.Vupdates == "":
		chk.Panic("config: vupdates is required")
	}
}
