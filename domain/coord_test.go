// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordEquality(t *testing.T) {
	a := MakeCoord(1, 2, 3)
	b := MakeCoord(int64(1), int32(2), uint8(3))
	assert.True(t, a == b, "integer widths must normalize")
	assert.False(t, a == MakeCoord(1, 2, 4))
	assert.False(t, MakeCoord(1) == MakeCoord(1.0), "int and float differ")
	assert.False(t, MakeCoord("1") == MakeCoord(1))
	assert.True(t, MakeCoord() == Coord{})

	m := map[Coord]int{}
	m[MakeCoord(0, 0)]++
	m[MakeCoord(0, 0)]++
	m[MakeCoord(1, 0)]++
	assert.Equal(t, map[Coord]int{MakeCoord(0, 0): 2, MakeCoord(1, 0): 1}, m)
}

func TestCoordAccessors(t *testing.T) {
	c := MakeCoord(4, 5, 6)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 5, c.At(1))
	assert.Equal(t, "(4,5,6)", c.String())
	assert.Equal(t, MakeCoord(5, 6), c.Slice(1, 3))
	assert.Equal(t, MakeCoord(4, 5, 6, 1), Concat(c, MakeCoord(1)))

	ints, ok := c.Ints()
	assert.True(t, ok)
	assert.Equal(t, []int{4, 5, 6}, ints)
	_, ok = MakeCoord(1, "a").Ints()
	assert.False(t, ok)

	vals := c.Values()
	vals[0] = 100
	assert.Equal(t, 4, c.At(0), "Values must return a copy")

	assert.Panics(t, func() { MakeCoord([]int{1}) })
}

func TestSortCoords(t *testing.T) {
	want := []Coord{
		MakeCoord(0, 0),
		MakeCoord(0, 1),
		MakeCoord(1, 0),
		MakeCoord(1, 0, 0),
		MakeCoord(2, -1),
		MakeCoord(10, 0),
	}
	got := append([]Coord(nil), want...)
	rand.New(rand.NewSource(1)).Shuffle(len(got), func(i, j int) {
		got[i], got[j] = got[j], got[i]
	})
	SortCoords(got)
	assert.Equal(t, want, got)

	assert.True(t, MakeCoord("a").Less(MakeCoord("b")))
	assert.True(t, MakeCoord(false).Less(MakeCoord(true)))
}
