// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import (
	"fmt"
	"strings"

	"github.com/aclements/go-gg/table"
	"go.uber.org/zap"

	"github.com/kevinabrown/boxfish/datatable"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/metadata"
	"github.com/kevinabrown/boxfish/projection"
)

// FileProjection is the ProjectionSpec type of a projection backed by a
// join table.
const FileProjection = "FILE"

// A TableSpec describes a table to load into a run.
type TableSpec struct {
	// Name names the table within its run.
	Name string

	// Domain and Type select the registered domain of the table's
	// identifiers, as domain.Key(Domain, Type).
	Domain, Type string

	// Field is the key column of Data.
	Field string

	Metadata metadata.Metadata
	Data     *table.Table
}

// A SubdomainSpec is one side of a ProjectionSpec.
type SubdomainSpec struct {
	Domain, Type string

	// Field is the join table column holding this side's values. It
	// is unused by computed projections.
	Field string
}

// A ProjectionSpec describes a projection to load into a run.
type ProjectionSpec struct {
	// Name names the projection within its run. If empty, the
	// projection's own name is used.
	Name string

	// Type is FileProjection for a join table, or the name of a
	// computed strategy such as "torus_node_link".
	Type string

	// Subdomains lists the source and then the destination side.
	Subdomains []SubdomainSpec

	Metadata metadata.Metadata

	// Data is the join table of a FileProjection.
	Data *table.Table
}

// A LoadReport describes the outcome of InsertRun.
type LoadReport struct {
	Tables      []Handle
	Projections []Handle
	Skipped     []Skipped
}

// Skipped records an item that was not loaded.
type Skipped struct {
	Kind Kind
	Name string
	Err  error
}

func (s Skipped) String() string {
	return fmt.Sprintf("%s %q: %v", s.Kind, s.Name, s.Err)
}

// InsertRun adds a run with metadata md and loads the given tables and
// projections into it.
//
// Loading is best effort. A table or projection that cannot be built,
// for example because its domain is not registered, is logged, recorded
// in the report and skipped; the rest of the run still loads. After
// loading, InsertRun refreshes the run's subdomains.
func (t *Tree) InsertRun(name string, md metadata.Metadata, tables []TableSpec, projections []ProjectionSpec) (Handle, *LoadReport, error) {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	if name == "" {
		return Handle{}, nil, errors.New("datatree: run has no name")
	}

	hs, err := t.attach(Handle{}, &Node{name: name, kind: KindRun, md: md.Clone(), run: &runInfo{}})
	if err != nil {
		return Handle{}, nil, err
	}
	run := hs[0]
	groups, err := t.attach(run,
		&Node{name: TablesGroup, kind: KindGroup},
		&Node{name: ProjectionsGroup, kind: KindGroup})
	if err != nil {
		return Handle{}, nil, err
	}
	t.mu.Lock()
	rn, _ := t.node(run)
	rn.run.tables, rn.run.projections = groups[0], groups[1]
	t.mu.Unlock()
	t.metrics.runInserted()
	log := t.log.With(zap.String("run", name))
	log.Debug("inserted run", zap.Stringer("handle", run))

	report := new(LoadReport)
	for _, spec := range tables {
		h, err := t.insertTable(run, spec)
		if err != nil {
			t.skip(log, report, KindTable, spec.Name, domain.Key(spec.Domain, spec.Type), err)
			continue
		}
		report.Tables = append(report.Tables, h)
	}
	for _, spec := range projections {
		h, err := t.insertProjection(run, spec)
		if err != nil {
			t.skip(log, report, KindProjection, spec.Name, spec.Type, err)
			continue
		}
		report.Projections = append(report.Projections, h)
	}

	if err := t.refreshSubdomains(run); err != nil {
		return run, report, err
	}
	return run, report, nil
}

func (t *Tree) skip(log *zap.Logger, r *LoadReport, kind Kind, name, typ string, err error) {
	// Expected skips carry the message without stack traces.
	errField := zap.String("error", err.Error())
	if skipReason(err) == "other" {
		errField = zap.Error(err)
	}
	log.Warn("skipping "+strings.ToLower(kind.String()),
		zap.String("item", name),
		zap.String("type", typ),
		errField)
	t.metrics.skipped(kind, err)
	r.Skipped = append(r.Skipped, Skipped{Kind: kind, Name: name, Err: err})
}

// InsertTable loads a single table into run. It does not refresh the
// run's subdomains.
func (t *Tree) InsertTable(run Handle, spec TableSpec) (Handle, error) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	return t.insertTable(run, spec)
}

func (t *Tree) insertTable(run Handle, spec TableSpec) (Handle, error) {
	group, err := t.group(run, KindTable)
	if err != nil {
		return Handle{}, err
	}
	typ := domain.Key(spec.Domain, spec.Type)
	d, err := t.reg.Lookup(typ)
	if err != nil {
		return Handle{}, errors.Wrapf(err, "table %q", spec.Name)
	}
	tab, err := datatable.New(d, spec.Field, spec.Data)
	if err != nil {
		return Handle{}, errors.Wrapf(err, "table %q", spec.Name)
	}

	hs, err := t.attach(group, &Node{name: spec.Name, kind: KindTable, md: spec.Metadata.Clone(), table: tab})
	if err != nil {
		return Handle{}, err
	}
	attrs := tab.Attributes()
	nodes := make([]*Node, len(attrs))
	for i, a := range attrs {
		nodes[i] = &Node{name: a, kind: KindAttribute}
	}
	if _, err := t.attach(hs[0], nodes...); err != nil {
		return Handle{}, err
	}
	t.metrics.loaded(KindTable)
	t.log.Debug("inserted table",
		zap.String("item", spec.Name),
		zap.String("type", typ),
		zap.Int("rows", tab.Len()))
	return hs[0], nil
}

// InsertProjection loads a single projection into run. It does not
// refresh the run's subdomains.
func (t *Tree) InsertProjection(run Handle, spec ProjectionSpec) (Handle, error) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	return t.insertProjection(run, spec)
}

func (t *Tree) insertProjection(run Handle, spec ProjectionSpec) (Handle, error) {
	group, err := t.group(run, KindProjection)
	if err != nil {
		return Handle{}, err
	}

	var ds []*domain.Domain
	var fields, unknown []string
	for _, sd := range spec.Subdomains {
		typ := domain.Key(sd.Domain, sd.Type)
		d, ok := t.reg.Find(typ)
		if !ok {
			unknown = append(unknown, typ)
			continue
		}
		ds = append(ds, d)
		fields = append(fields, sd.Field)
	}
	switch {
	case len(ds) < 2:
		err := errors.Wrapf(errors.ErrInsufficientDomains, "projection %q: resolved %d of %d", spec.Name, len(ds), len(spec.Subdomains))
		if len(unknown) > 0 {
			err = errors.WithDetailf(err, "unknown domains: %s", strings.Join(unknown, ", "))
		}
		return Handle{}, err
	case len(ds) > 2:
		return Handle{}, errors.Newf("projection %q: %d domains, want 2", spec.Name, len(ds))
	}

	var p *projection.Projection
	if strings.EqualFold(spec.Type, FileProjection) {
		tab, err := datatable.WithRowIdentifiers(ds[0], spec.Data)
		if err != nil {
			return Handle{}, errors.Wrapf(err, "projection %q", spec.Name)
		}
		p, err = projection.NewJoin(ds[0], ds[1], tab, fields[0], fields[1])
		if err != nil {
			return Handle{}, errors.Wrapf(err, "projection %q", spec.Name)
		}
	} else {
		s, err := projection.ParseStrategy(spec.Type)
		if err != nil {
			return Handle{}, errors.Wrapf(err, "projection %q", spec.Name)
		}
		params, err := t.params(run, s)
		if err != nil {
			return Handle{}, errors.Wrapf(err, "projection %q", spec.Name)
		}
		p, err = projection.NewComputed(ds[0], ds[1], s, params)
		if err != nil {
			return Handle{}, errors.Wrapf(err, "projection %q", spec.Name)
		}
	}

	name := spec.Name
	if name == "" {
		name = p.Name()
	}
	hs, err := t.attach(group, &Node{name: name, kind: KindProjection, md: spec.Metadata.Clone(), proj: p})
	if err != nil {
		return Handle{}, err
	}
	roles := p.Roles()
	nodes := make([]*Node, len(roles))
	for i, r := range roles {
		nodes[i] = &Node{name: r, kind: KindAttribute}
	}
	if _, err := t.attach(hs[0], nodes...); err != nil {
		return Handle{}, err
	}
	t.metrics.loaded(KindProjection)
	t.log.Debug("inserted projection",
		zap.String("item", name),
		zap.String("type", spec.Type),
		zap.Stringer("projection", p))
	return hs[0], nil
}

// group returns the group of run that holds nodes of kind k.
func (t *Tree) group(run Handle, k Kind) (Handle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.nodeOf(run, KindRun)
	if err != nil {
		return Handle{}, err
	}
	if k == KindTable {
		return n.run.tables, nil
	}
	return n.run.projections, nil
}

// params derives the parameters of strategy s from the hardware
// description of run.
func (t *Tree) params(run Handle, s projection.Strategy) (projection.Params, error) {
	t.mu.RLock()
	n, err := t.nodeOf(run, KindRun)
	var v any
	var ok bool
	if err == nil {
		v, ok = n.md.Get(metadata.HardwareKey)
	}
	t.mu.RUnlock()
	if err != nil {
		return projection.Params{}, err
	}
	if !ok {
		return projection.Params{Wrap: true}, nil
	}
	hw, err := metadata.DecodeHardware(v)
	if err != nil {
		return projection.Params{}, err
	}
	shape, err := hw.Shape()
	if err != nil {
		if s.NeedsShape() {
			return projection.Params{}, err
		}
		shape = nil
	}
	return projection.Params{Shape: shape, Wrap: hw.Wraps()}, nil
}
