// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/metadata"
)

func TestLoad(t *testing.T) {
	r, err := Load(filepath.Join("testdata", "sample", "run.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "run.yaml", r.Name)
	assert.Equal(t, "sample", r.Metadata["name"])
	assert.NotContains(t, r.Metadata, "files")
	var hw metadata.Hardware
	require.NoError(t, metadata.Decode(r.Metadata[metadata.HardwareKey], &hw))
	assert.Equal(t, "nodes.csv", hw.CoordsTable)
	assert.False(t, hw.Wraps())

	require.Len(t, r.Tables, 4)
	nodes := r.Tables[0]
	assert.Equal(t, "nodes.csv", nodes.Name)
	assert.Equal(t, "torus", nodes.Domain)
	assert.Equal(t, "node", nodes.Type)
	assert.Equal(t, "nid", nodes.Field)
	assert.Equal(t, "bytes", nodes.Metadata["unit"])
	assert.Equal(t, true, nodes.Metadata["sampled"])
	assert.Equal(t, "nid", nodes.Metadata["field"], "descriptor overrides file metadata")
	assert.Equal(t, []string{"nid", "x", "y", "z", "load"}, nodes.Data.Columns())
	assert.Equal(t, []int{0, 1, 2, 3}, nodes.Data.MustColumn("nid"))
	assert.Equal(t, []float64{1.5, 2, 3, 4}, nodes.Data.MustColumn("load"))

	ranks := r.Tables[2]
	assert.Equal(t, []string{"rank", "time"}, ranks.Data.Columns())

	require.Len(t, r.Projections, 2)
	placement := r.Projections[0]
	assert.Equal(t, "file", placement.Type)
	require.Len(t, placement.Subdomains, 2)
	assert.Equal(t, datatree.SubdomainSpec{Domain: "app", Type: "rank", Field: "rank"}, placement.Subdomains[0])
	assert.Equal(t, 3, placement.Data.Len())
	computed := r.Projections[1]
	assert.Equal(t, "torus_node_link", computed.Type)
	assert.Nil(t, computed.Data)
}

func TestInsert(t *testing.T) {
	r, err := Load(filepath.Join("testdata", "sample", "run.yaml"))
	require.NoError(t, err)

	tree := datatree.New()
	run, report, err := r.Insert(tree)
	require.NoError(t, err)
	assert.Len(t, report.Tables, 3)
	assert.Len(t, report.Projections, 2)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "cores.csv", report.Skipped[0].Name)
	assert.True(t, errors.Is(report.Skipped[0].Err, errors.ErrUnknownDomain))

	h, ok, err := tree.FindTable(run, "nodes.csv")
	require.NoError(t, err)
	require.True(t, ok)
	v, ok, err := tree.Metadata(h, "name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sample", v)
}

func TestLoadErrors(t *testing.T) {
	for _, tc := range []struct {
		file string
		want string
	}{
		{"missing.yaml", "nowhere.csv"},
		{"badtype.yaml", "unknown filetype"},
		{"ragged.yaml", "ragged.csv"},
		{"invalid.yaml", "invalid.yaml"},
		{"absent.yaml", "reading run descriptor"},
	} {
		t.Run(tc.file, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", "broken", tc.file))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseTable(t *testing.T) {
	md, data, err := parseTable(strings.NewReader("---\na: 1\n---\n# comment\nk,v\n1,x\n2,y\n"))
	require.NoError(t, err)
	assert.Equal(t, metadata.Metadata{"a": 1}, md)
	assert.Equal(t, []int{1, 2}, data.MustColumn("k"))
	assert.Equal(t, []string{"x", "y"}, data.MustColumn("v"))

	md, _, err = parseTable(strings.NewReader("k\n1\n"))
	require.NoError(t, err)
	assert.Nil(t, md)

	for _, in := range []string{
		"",
		"---\na: 1\n",
		"k,k\n1,2\n",
		"---\n: [\n---\nk\n1\n",
	} {
		_, _, err := parseTable(strings.NewReader(in))
		assert.Error(t, err, "%q", in)
	}
}
