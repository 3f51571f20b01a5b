// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import (
	"sync"
	"testing"

	"github.com/aclements/go-gg/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/metadata"
	"github.com/kevinabrown/boxfish/projection"
)

func runMetadata() metadata.Metadata {
	return metadata.Metadata{
		"k":    1,
		"name": "sample",
		"hardware": map[string]any{
			"network": "torus",
			"coords":  []any{"x", "y", "z"},
			"dim":     map[string]any{"x": 2, "y": 2, "z": 2},
		},
	}
}

func nodeSpec() TableSpec {
	return TableSpec{
		Name:     "nodes",
		Domain:   "torus",
		Type:     "node",
		Field:    "nid",
		Metadata: metadata.Metadata{"k": 2, "unit": "bytes"},
		Data: new(table.Builder).
			Add("nid", []int{0, 1, 2, 3}).
			Add("x", []int{0, 1, 0, 1}).
			Add("y", []int{0, 0, 1, 1}).
			Add("z", []int{0, 0, 0, 0}).
			Add("load", []float64{1, 2, 3, 4}).
			Done(),
	}
}

func rankSpec() TableSpec {
	return TableSpec{
		Name:   "ranks",
		Domain: "app",
		Type:   "rank",
		Field:  "rank",
		Data: new(table.Builder).
			Add("rank", []int{0, 1, 2}).
			Add("time", []float64{5, 6, 7}).
			Done(),
	}
}

func sampleSpecs() ([]TableSpec, []ProjectionSpec) {
	tables := []TableSpec{
		nodeSpec(),
		{
			Name:   "bogus",
			Domain: "gpu",
			Type:   "core",
			Field:  "id",
			Data:   new(table.Builder).Add("id", []int{0}).Done(),
		},
		rankSpec(),
	}
	projections := []ProjectionSpec{
		{
			Name: "placement",
			Type: FileProjection,
			Subdomains: []SubdomainSpec{
				{Domain: "app", Type: "rank", Field: "rank"},
				{Domain: "torus", Type: "node", Field: "nid"},
			},
			Data: new(table.Builder).
				Add("rank", []int{0, 1, 2}).
				Add("nid", []int{0, 0, 3}).
				Done(),
		},
		{
			Type: "torus_node_link",
			Subdomains: []SubdomainSpec{
				{Domain: "torus", Type: "node"},
				{Domain: "torus", Type: "link"},
			},
		},
		{
			Name: "half",
			Type: "identity",
			Subdomains: []SubdomainSpec{
				{Domain: "torus", Type: "node"},
				{Domain: "gpu", Type: "core"},
			},
		},
	}
	return tables, projections
}

// loaded returns a tree holding the sample run and that run's handle.
func loaded(t *testing.T, opts ...Option) (*Tree, Handle, *LoadReport) {
	t.Helper()
	tr := New(opts...)
	tables, projections := sampleSpecs()
	run, report, err := tr.InsertRun("run0", runMetadata(), tables, projections)
	require.NoError(t, err)
	return tr, run, report
}

func find(t *testing.T, tr *Tree, run Handle, name string) Handle {
	t.Helper()
	h, ok, err := tr.FindTable(run, name)
	require.NoError(t, err)
	require.True(t, ok, "table %q", name)
	return h
}

func TestInsertRunStructure(t *testing.T) {
	tr, run, report := loaded(t)

	assert.Equal(t, []Handle{run}, tr.Roots())
	n, err := tr.Get(run)
	require.NoError(t, err)
	assert.Equal(t, KindRun, n.Kind())
	assert.Equal(t, "run0", n.Name())

	groups, err := tr.Children(run)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	for i, want := range []string{TablesGroup, ProjectionsGroup} {
		g, err := tr.Get(groups[i])
		require.NoError(t, err)
		assert.Equal(t, KindGroup, g.Kind())
		assert.Equal(t, want, g.Name())
	}

	tables, err := tr.Tables(run)
	require.NoError(t, err)
	assert.Equal(t, report.Tables, tables)
	assert.Len(t, tables, 2)
	projections, err := tr.Projections(run)
	require.NoError(t, err)
	assert.Equal(t, report.Projections, projections)
	assert.Len(t, projections, 2)

	nodes := find(t, tr, run, "nodes")
	attrs, err := tr.Children(nodes)
	require.NoError(t, err)
	var names []string
	for _, a := range attrs {
		name, owner, err := tr.Attribute(a)
		require.NoError(t, err)
		assert.Equal(t, nodes, owner)
		names = append(names, name)
	}
	assert.Equal(t, []string{"x", "y", "z", "load"}, names)

	p, err := tr.Get(projections[1])
	require.NoError(t, err)
	assert.Equal(t, "torus_node<->torus_link", p.Name())
	roles, err := tr.Children(projections[0])
	require.NoError(t, err)
	require.Len(t, roles, 2)
	r, err := tr.Get(roles[0])
	require.NoError(t, err)
	assert.Equal(t, domain.AppRank, r.Name())

	count := 0
	require.NoError(t, tr.Walk(Handle{}, func(*Node, int) error {
		count++
		return nil
	}))
	// run, 2 groups, nodes with 4 attributes, ranks with 1,
	// 2 projections with 2 roles each.
	assert.Equal(t, 16, count)
	assert.Equal(t, count, tr.Len())
}

func TestInsertRunSkips(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	_, _, report := loaded(t, WithLogger(zap.New(core)))

	require.Len(t, report.Skipped, 2)
	unknown := 0
	for _, s := range report.Skipped {
		if errors.Is(s.Err, errors.ErrUnknownDomain) {
			unknown++
			assert.Equal(t, KindTable, s.Kind)
			assert.Equal(t, "bogus", s.Name)
		}
	}
	assert.Equal(t, 1, unknown)
	assert.Equal(t, KindProjection, report.Skipped[1].Kind)
	assert.True(t, errors.Is(report.Skipped[1].Err, errors.ErrInsufficientDomains))

	entries := logs.FilterMessage("skipping table").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "bogus", fields["item"])
	assert.Equal(t, "gpu_core", fields["type"])
	assert.Equal(t, "run0", fields["run"])
	assert.Contains(t, fields["error"], "gpu_core")
	assert.NotContains(t, fields, "errorVerbose")
	assert.Equal(t, 1, logs.FilterMessage("skipping projection").Len())
}

func TestInsertRunBadShape(t *testing.T) {
	md := runMetadata()
	md["hardware"].(map[string]any)["dim"] = map[string]any{"x": 2, "y": 2}
	_, projections := sampleSpecs()
	_, report, err := New().InsertRun("run0", md, nil, projections[1:3])
	require.NoError(t, err)

	require.Len(t, report.Skipped, 2)
	assert.Empty(t, report.Projections)
	assert.ErrorContains(t, report.Skipped[0].Err, `no dim for coordinate "z"`)
	assert.True(t, errors.Is(report.Skipped[1].Err, errors.ErrInsufficientDomains))
}

func TestInsertRunNoName(t *testing.T) {
	_, _, err := New().InsertRun("", nil, nil, nil)
	assert.Error(t, err)
}

func TestMetadataPrecedence(t *testing.T) {
	tr, run, _ := loaded(t)
	nodes := find(t, tr, run, "nodes")
	attrs, err := tr.Children(nodes)
	require.NoError(t, err)

	for _, h := range []Handle{run, nodes, attrs[0]} {
		v, ok, err := tr.Metadata(h, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, v, "run metadata wins at %s", h)
	}

	v, ok, err := tr.Metadata(attrs[0], "unit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bytes", v)

	ok, err = tr.HasMetadata(run, "unit")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = tr.Metadata(run, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = tr.Metadata(Handle{}, "k")
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))
}

func TestMetadataIsolation(t *testing.T) {
	tr, run, _ := loaded(t)
	nodes := find(t, tr, run, "nodes")

	v, ok, err := tr.Metadata(nodes, "hardware")
	require.NoError(t, err)
	require.True(t, ok)
	hw := v.(map[string]any)
	hw["network"] = "mesh"
	hw["extra"] = true

	v, _, err = tr.Metadata(nodes, "hardware")
	require.NoError(t, err)
	hw = v.(map[string]any)
	assert.Equal(t, "torus", hw["network"])
	assert.NotContains(t, hw, "extra")

	n, err := tr.Get(nodes)
	require.NoError(t, err)
	own := n.OwnMetadata()
	own["k"] = 99
	v, _, err = tr.Metadata(nodes, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDecodeMetadata(t *testing.T) {
	tr, run, _ := loaded(t)
	var hw metadata.Hardware
	require.NoError(t, tr.DecodeMetadata(find(t, tr, run, "ranks"), metadata.HardwareKey, &hw))
	shape, err := hw.Shape()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, shape)
	assert.True(t, hw.Wraps())

	assert.Error(t, tr.DecodeMetadata(run, "missing", &hw))
}

func TestRun(t *testing.T) {
	tr, run, _ := loaded(t)
	nodes := find(t, tr, run, "nodes")
	attrs, err := tr.Children(nodes)
	require.NoError(t, err)
	for _, h := range []Handle{run, nodes, attrs[2]} {
		got, err := tr.Run(h)
		require.NoError(t, err)
		assert.Equal(t, run, got)
	}
}

func TestFind(t *testing.T) {
	tr, run, _ := loaded(t)
	reg := tr.Registry()
	node, _ := reg.Find(domain.TorusNode)
	link, _ := reg.Find(domain.TorusLink)
	rank, _ := reg.Find(domain.AppRank)

	_, ok, err := tr.FindTable(run, "bogus")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, pair := range [][2]*domain.Domain{{rank, node}, {node, rank}} {
		h, ok, err := tr.FindProjection(run, pair[0], pair[1])
		require.NoError(t, err)
		require.True(t, ok)
		p, err := tr.Projection(h)
		require.NoError(t, err)
		assert.Equal(t, projection.KindJoinTable, p.Kind())
	}
	h, ok, err := tr.FindProjection(run, link, node)
	require.NoError(t, err)
	require.True(t, ok)
	p, err := tr.Projection(h)
	require.NoError(t, err)
	assert.Equal(t, projection.KindComputed, p.Kind())
	assert.Equal(t, []int{2, 2, 2}, p.Params().Shape)

	_, ok, err = tr.FindProjection(run, rank, link)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = tr.Table(h)
	assert.True(t, errors.Is(err, errors.ErrWrongKind))
	_, _, err = tr.FindTable(h, "nodes")
	assert.True(t, errors.Is(err, errors.ErrWrongKind))
}

func TestSubdomains(t *testing.T) {
	tr, run, _ := loaded(t)
	types := func(ds []*domain.Domain, err error) []string {
		require.NoError(t, err)
		var out []string
		for _, d := range ds {
			out = append(out, d.Type)
		}
		return out
	}
	assert.Equal(t, []string{domain.TorusNode, domain.AppRank}, types(tr.TableSubdomains(run)))
	assert.Equal(t, []string{domain.TorusNode, domain.AppRank, domain.TorusLink}, types(tr.Subdomains(run)))

	require.NoError(t, tr.RemoveTable(find(t, tr, run, "ranks")))
	assert.Equal(t, []string{domain.TorusNode}, types(tr.TableSubdomains(run)))

	// Single inserts leave subdomains alone until refreshed.
	_, err := tr.InsertTable(run, rankSpec())
	require.NoError(t, err)
	assert.Equal(t, []string{domain.TorusNode}, types(tr.TableSubdomains(run)))
	require.NoError(t, tr.RefreshSubdomains(run))
	assert.Equal(t, []string{domain.TorusNode, domain.AppRank}, types(tr.TableSubdomains(run)))
}

func TestRemoveTable(t *testing.T) {
	tr, run, _ := loaded(t)
	nodes := find(t, tr, run, "nodes")
	ranks := find(t, tr, run, "ranks")
	rankAttrs, err := tr.Children(ranks)
	require.NoError(t, err)
	nodeAttrs, err := tr.Children(nodes)
	require.NoError(t, err)
	before := tr.Len()

	require.NoError(t, tr.RemoveTable(ranks))
	assert.Equal(t, before-1-len(rankAttrs), tr.Len())

	for _, h := range append([]Handle{ranks}, rankAttrs...) {
		_, err := tr.Get(h)
		assert.True(t, errors.Is(err, errors.ErrInvalidHandle), "%s", h)
	}
	for _, h := range append([]Handle{nodes}, nodeAttrs...) {
		_, err := tr.Get(h)
		assert.NoError(t, err)
	}
	_, ok, err := tr.FindTable(run, "ranks")
	require.NoError(t, err)
	assert.False(t, ok)

	// A new node may reuse the slot, but not the handle.
	again, err := tr.InsertTable(run, rankSpec())
	require.NoError(t, err)
	assert.NotEqual(t, ranks, again)
	_, err = tr.Get(ranks)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))

	assert.True(t, errors.Is(tr.RemoveTable(ranks), errors.ErrInvalidHandle))
	assert.True(t, errors.Is(tr.RemoveTable(run), errors.ErrWrongKind))
}

func TestRemoveProjectionAndRun(t *testing.T) {
	tr, run, report := loaded(t)
	p := report.Projections[0]
	require.NoError(t, tr.RemoveProjection(p))
	_, err := tr.Get(p)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))
	row, err := tr.Row(report.Projections[1])
	require.NoError(t, err)
	assert.Equal(t, 0, row)

	other, _, err := tr.InsertRun("run1", nil, []TableSpec{nodeSpec()}, nil)
	require.NoError(t, err)
	require.NoError(t, tr.RemoveRun(run))
	assert.Equal(t, []Handle{other}, tr.Roots())
	_, err = tr.Get(report.Tables[0])
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle))
	row, err = tr.Row(other)
	require.NoError(t, err)
	assert.Equal(t, 0, row)
}

func TestEvents(t *testing.T) {
	tr := New()
	var events []Event
	var sizes []int
	tr.Subscribe(func(e Event) {
		events = append(events, e)
		sizes = append(sizes, tr.Len())
	})

	run, _, err := tr.InsertRun("run0", nil, nil, nil)
	require.NoError(t, err)
	groups, err := tr.Children(run)
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{BeginInsert, Handle{}, 0, 0},
		{EndInsert, Handle{}, 0, 0},
		{BeginInsert, run, 0, 1},
		{EndInsert, run, 0, 1},
	}, events)
	assert.Equal(t, []int{0, 1, 1, 3}, sizes)

	events = nil
	h, err := tr.InsertTable(run, nodeSpec())
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{BeginInsert, groups[0], 0, 0},
		{EndInsert, groups[0], 0, 0},
		{BeginInsert, h, 0, 3},
		{EndInsert, h, 0, 3},
	}, events)

	events = nil
	require.NoError(t, tr.RemoveRun(run))
	assert.Equal(t, []Event{
		{BeginRemove, Handle{}, 0, 0},
		{EndRemove, Handle{}, 0, 0},
	}, events)
	assert.Equal(t, 0, tr.Len())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	tr, _, _ := loaded(t, WithMetrics(m))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsInserted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsLoaded.WithLabelValues("TABLE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsLoaded.WithLabelValues("PROJECTION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsSkipped.WithLabelValues("TABLE", "unknown_domain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsSkipped.WithLabelValues("PROJECTION", "insufficient_domains")))
	assert.Equal(t, float64(tr.Len()), testutil.ToFloat64(m.nodes))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice")
}

func TestInvalidHandles(t *testing.T) {
	tr, run, _ := loaded(t)
	for _, h := range []Handle{{}, {tree: run.tree, slot: 1000, gen: 1}, {tree: run.tree, slot: run.slot, gen: run.gen + 1}} {
		_, err := tr.Get(h)
		assert.True(t, errors.Is(err, errors.ErrInvalidHandle), "%s", h)
	}
	assert.True(t, Handle{}.IsZero())
	assert.False(t, run.IsZero())
}

func TestForeignHandles(t *testing.T) {
	a, run, _ := loaded(t)
	nodes := find(t, a, run, "nodes")

	b := New()
	other, _, err := b.InsertRun("other", metadata.Metadata{"k": 3}, []TableSpec{nodeSpec()}, nil)
	require.NoError(t, err)
	require.Equal(t, run.slot, other.slot, "both runs occupy the first slot")

	_, err = b.Get(run)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle), "Get")
	_, err = b.Children(run)
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle), "Children")
	_, _, err = b.Metadata(nodes, "k")
	assert.True(t, errors.Is(err, errors.ErrInvalidHandle), "Metadata")
	assert.True(t, errors.Is(b.RemoveTable(nodes), errors.ErrInvalidHandle), "RemoveTable")

	// Both trees are untouched.
	_, err = a.Get(nodes)
	assert.NoError(t, err)
	n, err := b.Get(other)
	require.NoError(t, err)
	assert.Equal(t, "other", n.Name())
}

func TestConcurrentReads(t *testing.T) {
	tr, run, _ := loaded(t)
	nodes := find(t, tr, run, "nodes")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v, ok, err := tr.Metadata(nodes, "k")
				assert.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, 1, v)
				_, _, err = tr.FindTable(run, "ranks")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
