// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package projection correlates the coordinates of one domain with the
// coordinates of another.
//
// A Projection maps coordinates of its source domain to coordinates of
// its destination domain and back. Join projections are backed by a
// table whose rows pair a source key with a destination key. Computed
// projections evaluate one of a fixed set of coordinate transforms.
//
// A coordinate may have any number of counterparts. For example, a
// node of a 3D torus is the source of six links, and a coordinate
// outside the data has none.
package projection

import (
	"fmt"

	"github.com/kevinabrown/boxfish/datatable"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
)

// Kind distinguishes how a Projection resolves coordinates.
type Kind int

const (
	// KindJoinTable projections look up rows of a join table.
	KindJoinTable Kind = iota
	// KindComputed projections evaluate a Strategy.
	KindComputed
)

func (k Kind) String() string {
	switch k {
	case KindJoinTable:
		return "join-table"
	case KindComputed:
		return "computed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Direction selects which way Resolve maps a coordinate.
type Direction int

const (
	// Forward maps source coordinates to destination coordinates.
	Forward Direction = iota
	// Inverse maps destination coordinates to source coordinates.
	Inverse
)

func (d Direction) String() string {
	if d == Inverse {
		return "inverse"
	}
	return "forward"
}

// A Projection is an immutable, bidirectional correlation between two
// domains. It is safe for concurrent use.
type Projection struct {
	src, dst *domain.Domain
	kind     Kind

	// Join projections.
	table          *datatable.Table
	srcKey, dstKey string
	fwd, inv       map[domain.Coord][]domain.Coord

	// Computed projections.
	strategy Strategy
	params   Params
	eval     evaluator
}

// NewJoin returns a Projection from src to dst backed by t. Each row of
// t pairs the value of column srcKey, a src coordinate, with the value
// of column dstKey, a dst coordinate. t must belong to domain src.
func NewJoin(src, dst *domain.Domain, t *datatable.Table, srcKey, dstKey string) (*Projection, error) {
	if src == nil || dst == nil || t == nil {
		return nil, errors.New("projection: nil domain or table")
	}
	if t.Domain().Type != src.Type {
		return nil, errors.Wrapf(errors.ErrDomainMismatch,
			"join table is in %s, projection source is %s", t.Domain(), src)
	}
	for _, col := range []string{srcKey, dstKey} {
		if !t.Has(col) {
			return nil, errors.Wrapf(errors.ErrUnknownAttribute, "join column %q", col)
		}
	}

	p := &Projection{
		src:    src,
		dst:    dst,
		kind:   KindJoinTable,
		table:  t,
		srcKey: srcKey,
		dstKey: dstKey,
		fwd:    make(map[domain.Coord][]domain.Coord),
		inv:    make(map[domain.Coord][]domain.Coord),
	}
	for _, id := range t.Identifiers() {
		s, err := t.CoordFor(id, srcKey)
		if err != nil {
			return nil, err
		}
		d, err := t.CoordFor(id, dstKey)
		if err != nil {
			return nil, err
		}
		p.fwd[s] = appendUnique(p.fwd[s], d)
		p.inv[d] = appendUnique(p.inv[d], s)
	}
	return p, nil
}

func appendUnique(cs []domain.Coord, c domain.Coord) []domain.Coord {
	for _, x := range cs {
		if x == c {
			return cs
		}
	}
	return append(cs, c)
}

// Source returns the source domain of p.
func (p *Projection) Source() *domain.Domain { return p.src }

// Destination returns the destination domain of p.
func (p *Projection) Destination() *domain.Domain { return p.dst }

// Kind returns how p resolves coordinates.
func (p *Projection) Kind() Kind { return p.kind }

// Table returns the join table backing p, or nil for computed
// projections.
func (p *Projection) Table() *datatable.Table { return p.table }

// Keys returns the source and destination key columns of a join
// projection.
func (p *Projection) Keys() (src, dst string) { return p.srcKey, p.dstKey }

// Strategy returns the strategy of a computed projection.
func (p *Projection) Strategy() Strategy { return p.strategy }

// Roles returns the names of the coordinate roles of p: the source
// domain type and then the destination domain type.
func (p *Projection) Roles() []string {
	return []string{p.src.Type, p.dst.Type}
}

// Name returns the conventional name of p, "src<->dst".
func (p *Projection) Name() string {
	return p.src.Type + "<->" + p.dst.Type
}

// Resolve returns the coordinates that c corresponds to in direction
// dir. A coordinate with no counterpart resolves to an empty slice.
// The caller may modify the returned slice.
func (p *Projection) Resolve(c domain.Coord, dir Direction) []domain.Coord {
	switch p.kind {
	case KindJoinTable:
		m := p.fwd
		if dir == Inverse {
			m = p.inv
		}
		return append([]domain.Coord{}, m[c]...)
	case KindComputed:
		f := p.eval.forward
		if dir == Inverse {
			f = p.eval.inverse
		}
		out := f(p.params, c)
		if out == nil {
			out = []domain.Coord{}
		}
		return out
	}
	panic("unknown projection kind " + p.kind.String())
}

// Connects reports whether p relates domains a and b, in either
// orientation.
func (p *Projection) Connects(a, b *domain.Domain) bool {
	if a == nil || b == nil {
		return false
	}
	return (p.src.Type == a.Type && p.dst.Type == b.Type) ||
		(p.src.Type == b.Type && p.dst.Type == a.Type)
}

// DirectionFrom returns the direction that maps coordinates of domain d
// across p. It reports false if d is neither end of p.
func (p *Projection) DirectionFrom(d *domain.Domain) (Direction, bool) {
	switch {
	case d == nil:
		return Forward, false
	case p.src.Type == d.Type:
		return Forward, true
	case p.dst.Type == d.Type:
		return Inverse, true
	}
	return Forward, false
}

func (p *Projection) String() string {
	return fmt.Sprintf("%s projection %s", p.kind, p.Name())
}
