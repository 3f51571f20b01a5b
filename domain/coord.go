// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package domain

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"math"
	"strings"
	"sync"
)

// A Coord is an immutable tuple of scalar values addressing a point in
// a Domain. Two Coords are == if and only if they have the same values,
// so Coords can be used as Go map keys when grouping measurements.
//
// Integer values of any width are stored as int and float32 values as
// float64, so MakeCoord(int64(1)) == MakeCoord(1).
//
// The zero Coord is the empty tuple.
type Coord struct {
	n *coordNode
}

// coordNode is the interned object backing a Coord. Equality of Coords
// is pointer equality of their coordNodes.
type coordNode struct {
	vals []any
}

// coordSpace interns coordNodes process-wide.
type coordSpace struct {
	mu    sync.Mutex
	nodes map[uint64][]*coordNode
}

var (
	coords    = coordSpace{nodes: make(map[uint64][]*coordNode)}
	coordSeed = maphash.MakeSeed()
)

// MakeCoord returns the Coord holding vals. Each value must be a
// comparable scalar: a bool, an integer, a float or a string.
// MakeCoord panics on other types.
func MakeCoord(vals ...any) Coord {
	if len(vals) == 0 {
		return Coord{}
	}
	row := make([]any, len(vals))
	for i, v := range vals {
		x, ok := Scalar(v)
		if !ok {
			panic(fmt.Sprintf("coordinate value %v has unsupported type %T", v, v))
		}
		row[i] = x
	}
	return coords.intern(row)
}

// Concat returns the Coord holding the values of cs in order.
func Concat(cs ...Coord) Coord {
	var vals []any
	for _, c := range cs {
		vals = append(vals, c.Values()...)
	}
	return MakeCoord(vals...)
}

// Scalar returns v in the canonical form used by Coords: integers of
// any width become int and float32 becomes float64. It reports false
// if v is not a bool, integer, float or string.
func Scalar(v any) (any, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return float64(v), true
	case float64, string, bool:
		return v, true
	}
	return nil, false
}

func (s *coordSpace) intern(row []any) Coord {
	var h maphash.Hash
	h.SetSeed(coordSeed)
	var buf [8]byte
	for _, v := range row {
		switch v := v.(type) {
		case int:
			h.WriteByte('i')
			binary.LittleEndian.PutUint64(buf[:], uint64(v))
			h.Write(buf[:])
		case float64:
			h.WriteByte('f')
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		case string:
			h.WriteByte('s')
			h.WriteString(v)
			h.WriteByte(0)
		case bool:
			h.WriteByte('b')
			if v {
				h.WriteByte(1)
			} else {
				h.WriteByte(0)
			}
		}
	}
	hash := h.Sum64()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes[hash] {
		if n.equalRow(row) {
			return Coord{n}
		}
	}
	n := &coordNode{row}
	s.nodes[hash] = append(s.nodes[hash], n)
	return Coord{n}
}

func (n *coordNode) equalRow(row []any) bool {
	if len(n.vals) != len(row) {
		return false
	}
	for i, v := range n.vals {
		if row[i] != v {
			return false
		}
	}
	return true
}

// IsZero reports whether c is the empty tuple.
func (c Coord) IsZero() bool {
	return c.n == nil
}

// Len returns the number of values in c.
func (c Coord) Len() int {
	if c.n == nil {
		return 0
	}
	return len(c.n.vals)
}

// At returns the i'th value of c. It panics if i is out of range.
func (c Coord) At(i int) any {
	if i < 0 || i >= c.Len() {
		panic(fmt.Sprintf("coordinate index %d out of range [0,%d)", i, c.Len()))
	}
	return c.n.vals[i]
}

// Values returns a copy of the values of c.
func (c Coord) Values() []any {
	if c.n == nil {
		return nil
	}
	return append([]any(nil), c.n.vals...)
}

// Ints returns the values of c as ints. It reports false if any value
// is not an int.
func (c Coord) Ints() ([]int, bool) {
	out := make([]int, c.Len())
	for i := range out {
		v, ok := c.n.vals[i].(int)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Slice returns the Coord holding values [i, j) of c.
func (c Coord) Slice(i, j int) Coord {
	if c.n == nil {
		return Coord{}
	}
	return MakeCoord(c.n.vals[i:j]...)
}

// String returns c in the form "(v1,v2,...)".
func (c Coord) String() string {
	var buf strings.Builder
	buf.WriteByte('(')
	if c.n != nil {
		for i, v := range c.n.vals {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprint(&buf, v)
		}
	}
	buf.WriteByte(')')
	return buf.String()
}
