// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package domain

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/aclements/go-gg/generic"
)

// Less reports whether c comes before o. Coords are ordered
// lexicographically by value. Values of the same kind compare in their
// natural order; values of different kinds compare by kind name. A
// shorter Coord that is a prefix of a longer one sorts first.
func (c Coord) Less(o Coord) bool {
	return compare(c, o) < 0
}

func compare(a, b Coord) int {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		if cmp := compareValue(a.n.vals[i], b.n.vals[i]); cmp != 0 {
			return cmp
		}
	}
	return a.Len() - b.Len()
}

func compareValue(a, b any) int {
	if a == b {
		return 0
	}
	ak, bk := reflect.ValueOf(a).Kind(), reflect.ValueOf(b).Kind()
	if ak != bk {
		if ak.String() < bk.String() {
			return -1
		}
		return 1
	}
	if generic.CanOrderR(ak) {
		if cmp := generic.Order(a, b); cmp != 0 {
			return cmp
		}
	}
	// Unorderable (bool) or unordered (NaN) values that are not
	// equal. Fall back to their printed form so the order is total.
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// SortCoords sorts cs in the order given by Coord.Less.
func SortCoords(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool {
		return compare(cs[i], cs[j]) < 0
	})
}
