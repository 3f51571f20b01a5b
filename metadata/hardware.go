// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metadata

import (
	"github.com/kevinabrown/boxfish/errors"
)

// HardwareKey is the run metadata key describing the machine that
// produced a run.
const HardwareKey = "hardware"

// Hardware describes the coordinate scheme of a machine as recorded in
// a run's "hardware" metadata block. For example:
//
//	hardware:
//	  network: torus
//	  coords: [x, y, z]
//	  dim: {x: 4, y: 4, z: 4}
//	  coords_table: nodes.csv
//	  source_coords: {x: sx, y: sy, z: sz}
//	  destination_coords: {x: dx, y: dy, z: dz}
//	  link_coords_table: links.csv
type Hardware struct {
	Network           string            `mapstructure:"network"`
	Coords            []string          `mapstructure:"coords"`
	Dim               map[string]int    `mapstructure:"dim"`
	CoordsTable       string            `mapstructure:"coords_table"`
	SourceCoords      map[string]string `mapstructure:"source_coords"`
	DestinationCoords map[string]string `mapstructure:"destination_coords"`
	LinkCoordsTable   string            `mapstructure:"link_coords_table"`

	// Wrap reports whether the network wraps around at its edges.
	// Nil means the default, true.
	Wrap *bool `mapstructure:"wrap"`
}

// DecodeHardware decodes a "hardware" metadata value.
func DecodeHardware(v any) (Hardware, error) {
	var hw Hardware
	if err := Decode(v, &hw); err != nil {
		return Hardware{}, errors.Wrap(err, HardwareKey)
	}
	return hw, nil
}

// Shape returns the extent of each coordinate in Coords order.
func (hw Hardware) Shape() ([]int, error) {
	shape := make([]int, len(hw.Coords))
	for i, c := range hw.Coords {
		n, ok := hw.Dim[c]
		if !ok {
			return nil, errors.Newf("hardware: no dim for coordinate %q", c)
		}
		if n <= 0 {
			return nil, errors.Newf("hardware: dim %q is %d", c, n)
		}
		shape[i] = n
	}
	return shape, nil
}

// Wraps reports whether the network wraps around at its edges.
func (hw Hardware) Wraps() bool {
	return hw.Wrap == nil || *hw.Wrap
}

// LinkColumns returns the link table columns holding the source and
// then the destination coordinates, in Coords order.
func (hw Hardware) LinkColumns() ([]string, error) {
	cols := make([]string, 0, 2*len(hw.Coords))
	for _, m := range []map[string]string{hw.SourceCoords, hw.DestinationCoords} {
		for _, c := range hw.Coords {
			col, ok := m[c]
			if !ok {
				return nil, errors.Newf("hardware: no link column for coordinate %q", c)
			}
			cols = append(cols, col)
		}
	}
	return cols, nil
}
