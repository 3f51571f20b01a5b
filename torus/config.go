// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package torus

import (
	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/metadata"
)

// Config is the layout of a torus network, taken from the hardware
// metadata of a run.
type Config struct {
	Run     datatree.Handle
	Network string

	// Coords names the axes, and Shape gives the extent of each.
	Coords []string
	Shape  []int
	Wrap   bool

	// CoordsTable names the table whose Coords columns place each
	// node.
	CoordsTable string

	// LinkCoordsTable names the table whose LinkColumns place each
	// link. LinkColumns holds the source columns and then the
	// destination columns, in Coords order. Both are empty if the run
	// does not describe links.
	LinkCoordsTable string
	LinkColumns     []string
}

// ConfigFor returns the torus layout of the run that h belongs to.
func ConfigFor(tree *datatree.Tree, h datatree.Handle) (*Config, error) {
	run, err := tree.Run(h)
	if err != nil {
		return nil, err
	}
	var hw metadata.Hardware
	if err := tree.DecodeMetadata(run, metadata.HardwareKey, &hw); err != nil {
		return nil, err
	}
	if len(hw.Coords) == 0 {
		return nil, errors.New("torus: hardware metadata has no coords")
	}
	shape, err := hw.Shape()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Run:             run,
		Network:         hw.Network,
		Coords:          hw.Coords,
		Shape:           shape,
		Wrap:            hw.Wraps(),
		CoordsTable:     hw.CoordsTable,
		LinkCoordsTable: hw.LinkCoordsTable,
	}
	if len(hw.SourceCoords) > 0 || len(hw.DestinationCoords) > 0 {
		if cfg.LinkColumns, err = hw.LinkColumns(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
