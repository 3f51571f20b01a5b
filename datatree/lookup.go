// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import (
	"github.com/kevinabrown/boxfish/datatable"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/projection"
)

// RefreshSubdomains recomputes the domains used by the tables and
// projections of run.
func (t *Tree) RefreshSubdomains(run Handle) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	return t.refreshSubdomains(run)
}

func (t *Tree) refreshSubdomains(run Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rn, err := t.nodeOf(run, KindRun)
	if err != nil {
		return err
	}
	var all, tables []*domain.Domain
	add := func(ds []*domain.Domain, d *domain.Domain) []*domain.Domain {
		for _, x := range ds {
			if x == d {
				return ds
			}
		}
		return append(ds, d)
	}
	for _, n := range t.childrenOf(rn.run.tables) {
		d := n.table.Domain()
		tables = add(tables, d)
		all = add(all, d)
	}
	for _, n := range t.childrenOf(rn.run.projections) {
		all = add(all, n.proj.Source())
		all = add(all, n.proj.Destination())
	}
	rn.run.subdomains, rn.run.tableSubdomains = all, tables
	return nil
}

// childrenOf returns the child nodes of h. t.mu must be held.
func (t *Tree) childrenOf(h Handle) []*Node {
	n, err := t.node(h)
	if err != nil {
		return nil
	}
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if cn, err := t.node(c); err == nil {
			out = append(out, cn)
		}
	}
	return out
}

// Subdomains returns the distinct domains of the tables and projections
// of run as of the last refresh, in order of first use.
func (t *Tree) Subdomains(run Handle) ([]*domain.Domain, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rn, err := t.nodeOf(run, KindRun)
	if err != nil {
		return nil, err
	}
	return append([]*domain.Domain(nil), rn.run.subdomains...), nil
}

// TableSubdomains is like Subdomains, but considers only tables.
func (t *Tree) TableSubdomains(run Handle) ([]*domain.Domain, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rn, err := t.nodeOf(run, KindRun)
	if err != nil {
		return nil, err
	}
	return append([]*domain.Domain(nil), rn.run.tableSubdomains...), nil
}

// Tables returns the handles of the tables of run.
func (t *Tree) Tables(run Handle) ([]Handle, error) {
	return t.members(run, KindTable)
}

// Projections returns the handles of the projections of run.
func (t *Tree) Projections(run Handle) ([]Handle, error) {
	return t.members(run, KindProjection)
}

func (t *Tree) members(run Handle, k Kind) ([]Handle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rn, err := t.nodeOf(run, KindRun)
	if err != nil {
		return nil, err
	}
	g := rn.run.tables
	if k == KindProjection {
		g = rn.run.projections
	}
	var out []Handle
	for _, n := range t.childrenOf(g) {
		out = append(out, n.self)
	}
	return out, nil
}

// FindTable returns the first table of run named name.
func (t *Tree) FindTable(run Handle, name string) (Handle, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rn, err := t.nodeOf(run, KindRun)
	if err != nil {
		return Handle{}, false, err
	}
	for _, n := range t.childrenOf(rn.run.tables) {
		if n.name == name {
			return n.self, true, nil
		}
	}
	return Handle{}, false, nil
}

// FindProjection returns the first projection of run between a and b,
// in either direction.
func (t *Tree) FindProjection(run Handle, a, b *domain.Domain) (Handle, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rn, err := t.nodeOf(run, KindRun)
	if err != nil {
		return Handle{}, false, err
	}
	for _, n := range t.childrenOf(rn.run.projections) {
		if n.proj.Connects(a, b) {
			return n.self, true, nil
		}
	}
	return Handle{}, false, nil
}

// Table returns the table at h.
func (t *Tree) Table(h Handle) (*datatable.Table, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.nodeOf(h, KindTable)
	if err != nil {
		return nil, err
	}
	return n.table, nil
}

// Projection returns the projection at h.
func (t *Tree) Projection(h Handle) (*projection.Projection, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.nodeOf(h, KindProjection)
	if err != nil {
		return nil, err
	}
	return n.proj, nil
}

// Attribute returns the name of the attribute at h and the handle of
// the table or projection that owns it.
func (t *Tree) Attribute(h Handle) (name string, owner Handle, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.nodeOf(h, KindAttribute)
	if err != nil {
		return "", Handle{}, err
	}
	return n.name, n.parent, nil
}
