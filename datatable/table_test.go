// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatable

import (
	"testing"

	"github.com/aclements/go-gg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
)

var nodeDomain = &domain.Domain{Type: "torus_node", Dims: 3}

// sample is the table {a:(x=0,y=0), b:(x=0,y=0), c:(x=1,y=0)} with
// v = {a:2, b:4, c:10}.
func sample(t *testing.T) *Table {
	t.Helper()
	data := new(table.Builder).
		Add("id", []string{"a", "b", "c"}).
		Add("x", []int{0, 0, 1}).
		Add("y", []int{0, 0, 0}).
		Add("v", []int{2, 4, 10}).
		Add("name", []string{"n0", "n1", "n2"}).
		Done()
	tab, err := New(nodeDomain, "id", data)
	require.NoError(t, err)
	return tab
}

func TestNew(t *testing.T) {
	tab := sample(t)
	assert.Equal(t, nodeDomain, tab.Domain())
	assert.Equal(t, "id", tab.KeyColumn())
	assert.Equal(t, 3, tab.Len())
	assert.Equal(t, []string{"x", "y", "v", "name"}, tab.Attributes())
	assert.Equal(t, []any{"a", "b", "c"}, tab.Identifiers())
	assert.True(t, tab.Has("id"))
	assert.True(t, tab.Contains("b"))
	assert.False(t, tab.Contains("z"))
}

func TestDuplicateIdentifier(t *testing.T) {
	data := new(table.Builder).
		Add("id", []int{1, 2, 1}).
		Add("v", []float64{1, 2, 3}).
		Done()
	_, err := New(nodeDomain, "id", data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateIdentifier))
}

func TestMissingKeyColumn(t *testing.T) {
	data := new(table.Builder).Add("v", []float64{1}).Done()
	_, err := New(nodeDomain, "id", data)
	assert.True(t, errors.Is(err, errors.ErrUnknownAttribute))
}

func TestFromStrings(t *testing.T) {
	tab, err := FromStrings(nodeDomain, "nodeid",
		[]string{"nodeid", "x", "load", "label"},
		[][]string{
			{"0", "0", "1.5", "a"},
			{"1", "1", "2", "b"},
			{"2", "0", "3", "c"},
		})
	require.NoError(t, err)
	assert.Equal(t, 3, tab.Len())

	vals, err := tab.ValuesFor(1, "x", "load", "label")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2.0, "b"}, vals)

	// Identifier widths normalize.
	_, err = tab.ValuesFor(int64(2), "x")
	assert.NoError(t, err)

	_, err = FromStrings(nodeDomain, "nodeid", []string{"nodeid", "x"}, [][]string{{"0"}})
	assert.Error(t, err)

	_, err = FromStrings(nodeDomain, "nodeid", []string{"nodeid", "nodeid"}, nil)
	assert.Error(t, err)

	_, err = FromStrings(nodeDomain, "nodeid", []string{"nodeid"}, [][]string{{"7"}, {"7"}})
	assert.True(t, errors.Is(err, errors.ErrDuplicateIdentifier))
}

func TestIdentifiersMatchRows(t *testing.T) {
	rows := make([][]string, 50)
	for i := range rows {
		rows[i] = []string{string(rune('A' + i)), "1"}
	}
	tab, err := FromStrings(nodeDomain, "k", []string{"k", "v"}, rows)
	require.NoError(t, err)
	assert.Len(t, tab.Identifiers(), len(rows))
}

func TestValuesFor(t *testing.T) {
	tab := sample(t)
	vals, err := tab.ValuesFor("c", "v", "x")
	require.NoError(t, err)
	assert.Equal(t, []any{10, 1}, vals)

	_, err = tab.ValuesFor("zz", "v")
	assert.True(t, errors.Is(err, errors.ErrMissingIdentifier))

	_, err = tab.ValuesFor("a", "nope")
	assert.True(t, errors.Is(err, errors.ErrUnknownAttribute))

	c, err := tab.CoordFor("c", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, domain.MakeCoord(1, 0), c)
}

func TestWithRowIdentifiers(t *testing.T) {
	data := new(table.Builder).
		Add("node", []int{0, 0, 1}).
		Add("link", []int{5, 6, 7}).
		Done()
	tab, err := WithRowIdentifiers(nodeDomain, data)
	require.NoError(t, err)
	assert.Equal(t, RowColumn, tab.KeyColumn())
	assert.Equal(t, []any{0, 1, 2}, tab.Identifiers())
	assert.Equal(t, []string{"node", "link"}, tab.Attributes())
}

func TestSelect(t *testing.T) {
	tab := sample(t)
	sel, err := tab.Select([]any{"c", "a", "c"}, "v", "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"v", "name"}, sel.Columns())
	assert.Equal(t, []int{10, 2, 10}, sel.MustColumn("v"))
	assert.Equal(t, []string{"n2", "n0", "n2"}, sel.MustColumn("name"))

	_, err = tab.Select([]any{"q"}, "v")
	assert.True(t, errors.Is(err, errors.ErrMissingIdentifier))
	_, err = tab.Select([]any{"a"}, "nope")
	assert.True(t, errors.Is(err, errors.ErrUnknownAttribute))
}
