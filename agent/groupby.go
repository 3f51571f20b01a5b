// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agent

import (
	"github.com/aclements/go-gg/table"
	"go.uber.org/zap"

	"github.com/kevinabrown/boxfish/datatable"
	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/projection"
)

// valueColumn holds attribute values in staged tables.
const valueColumn = ".value"

// GroupBy reduces the attributes of requirement name over the
// coordinate tuples that coordCols take in the table at tab, using the
// aggregator named agg.
//
// Each attribute is matched to rows of tab by identifier when it lives
// in the same domain as tab. Otherwise GroupBy uses a projection
// between the two domains from the attribute's run, and each value
// counts once for every row of tab it projects to.
//
// The result lists each coordinate tuple that every attribute reaches,
// in ascending order, and values[i][k] is the reduced value of the k-th
// attribute at coords[i]. A requirement without attributes yields nil
// results and no error.
func (a *Agent) GroupBy(name string, coordCols []string, tab datatree.Handle, agg string) ([]domain.Coord, [][]float64, error) {
	hs, err := a.Indices(name)
	if err != nil {
		return nil, nil, err
	}
	if len(hs) == 0 {
		return nil, nil, nil
	}
	ct, err := a.tree.Table(tab)
	if err != nil {
		return nil, nil, err
	}
	for _, col := range coordCols {
		if col == valueColumn || col == datatable.RowColumn {
			return nil, nil, errors.Wrapf(errors.ErrUnknownAttribute, "reserved column %q", col)
		}
	}
	aggr, err := datatable.LookupAggregator(agg)
	if err != nil {
		return nil, nil, err
	}

	var common map[domain.Coord][]float64
	for k, h := range hs {
		res, err := a.reduce(h, tab, ct, coordCols, aggr)
		if err != nil {
			return nil, nil, err
		}
		if k == 0 {
			common = make(map[domain.Coord][]float64, len(res))
			for c, v := range res {
				common[c] = []float64{v}
			}
			continue
		}
		for c, vs := range common {
			if v, ok := res[c]; ok {
				common[c] = append(vs, v)
			} else {
				delete(common, c)
			}
		}
	}

	coords := make([]domain.Coord, 0, len(common))
	for c := range common {
		coords = append(coords, c)
	}
	domain.SortCoords(coords)
	values := make([][]float64, len(coords))
	for i, c := range coords {
		values[i] = common[c]
	}
	a.log.Debug("group by",
		zap.String("requirement", name),
		zap.Strings("coords", coordCols),
		zap.String("aggregator", aggr.Name()),
		zap.Int("attributes", len(hs)),
		zap.Int("groups", len(coords)))
	return coords, values, nil
}

// reduce aggregates the attribute at h over the coordinates of ct.
func (a *Agent) reduce(h, tab datatree.Handle, ct *datatable.Table, coordCols []string, agg *datatable.Aggregator) (map[domain.Coord]float64, error) {
	attr, owner, err := a.tree.Attribute(h)
	if err != nil {
		return nil, err
	}
	at, err := a.tree.Table(owner)
	if err != nil {
		return nil, errors.Wrapf(err, "attribute %q", attr)
	}

	var res map[domain.Coord][]float64
	if owner == tab {
		res, err = ct.AggregateByCoordinate(ct.Identifiers(), coordCols, []string{attr}, agg)
	} else {
		var aids, cids []any
		if at.Domain().Type == ct.Domain().Type {
			for _, id := range at.Identifiers() {
				if ct.Contains(id) {
					aids = append(aids, id)
					cids = append(cids, id)
				}
			}
		} else if aids, cids, err = a.project(owner, at, ct); err != nil {
			return nil, errors.Wrapf(err, "attribute %q", attr)
		}
		res, err = stage(ct, at, aids, cids, coordCols, attr, agg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "attribute %q", attr)
	}

	out := make(map[domain.Coord]float64, len(res))
	for c, vs := range res {
		out[c] = vs[0]
	}
	return out, nil
}

// stage joins the coordinate columns of ct at cids with the values of
// attr in at at aids, pairwise, and aggregates the joined rows.
func stage(ct, at *datatable.Table, aids, cids []any, coordCols []string, attr string, agg *datatable.Aggregator) (map[domain.Coord][]float64, error) {
	coords, err := ct.Select(cids, coordCols...)
	if err != nil {
		return nil, err
	}
	vals, err := at.Select(aids, attr)
	if err != nil {
		return nil, err
	}
	data := table.NewBuilder(coords).Add(valueColumn, vals.MustColumn(attr)).Done()
	joined, err := datatable.WithRowIdentifiers(ct.Domain(), data)
	if err != nil {
		return nil, err
	}
	return joined.AggregateByCoordinate(joined.Identifiers(), coordCols, []string{valueColumn}, agg)
}

// project pairs the identifiers of at with the identifiers of ct they
// reach through a projection of at's run.
func (a *Agent) project(owner datatree.Handle, at, ct *datatable.Table) (aids, cids []any, err error) {
	run, err := a.tree.Run(owner)
	if err != nil {
		return nil, nil, err
	}
	ph, ok, err := a.tree.FindProjection(run, at.Domain(), ct.Domain())
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrDomainMismatch, "no projection between %s and %s", at.Domain(), ct.Domain())
	}
	p, err := a.tree.Projection(ph)
	if err != nil {
		return nil, nil, err
	}
	dir, _ := p.DirectionFrom(at.Domain())

	index := make(map[domain.Coord][]any)
	for _, id := range ct.Identifiers() {
		c, err := locate(ct, p, id)
		if err != nil {
			return nil, nil, err
		}
		index[c] = append(index[c], id)
	}
	for _, id := range at.Identifiers() {
		c, err := locate(at, p, id)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range p.Resolve(c, dir) {
			for _, cid := range index[r] {
				aids = append(aids, id)
				cids = append(cids, cid)
			}
		}
	}
	return aids, cids, nil
}

// locate returns the coordinate of row id of t as seen by p. Join
// projections relate identifiers. Computed projections relate domain
// coordinates, which t must carry in columns named after the domain's
// coordinate roles.
func locate(t *datatable.Table, p *projection.Projection, id any) (domain.Coord, error) {
	roles := t.Domain().Coords
	if p.Kind() == projection.KindJoinTable || len(roles) == 0 {
		return domain.MakeCoord(id), nil
	}
	return t.CoordFor(id, roles...)
}
