// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatable

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"

	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
)

// An Aggregator is a named reduction of a group of attribute values to
// a single value.
type Aggregator struct {
	name   string
	prefix string
	agg    func(cols ...string) ggstat.Aggregator
}

// Name returns the name a was registered under.
func (a *Aggregator) Name() string {
	return a.name
}

// column returns the name of the output column a produces for col.
func (a *Aggregator) column(col string) string {
	return a.prefix + col
}

var aggregators = struct {
	sync.RWMutex
	m map[string]*Aggregator
}{m: map[string]*Aggregator{
	"mean":    {name: "mean", prefix: "mean ", agg: ggstat.AggMean},
	"min":     {name: "min", prefix: "min ", agg: ggstat.AggMin},
	"max":     {name: "max", prefix: "max ", agg: ggstat.AggMax},
	"sum":     {name: "sum", prefix: "sum ", agg: ggstat.AggSum},
	"geomean": {name: "geomean", prefix: "geomean ", agg: ggstat.AggGeoMean},
	"median": {name: "median", prefix: "median ", agg: func(cols ...string) ggstat.Aggregator {
		return ggstat.AggQuantile("median", 0.5, cols...)
	}},
	"count":  reducer("count", func(xs []float64) float64 { return float64(len(xs)) }),
	"stddev": reducer("stddev", stats.StdDev),
}}

// LookupAggregator returns the aggregator registered under name.
func LookupAggregator(name string) (*Aggregator, error) {
	aggregators.RLock()
	defer aggregators.RUnlock()
	a, ok := aggregators.m[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownAggregator, "%q", name)
	}
	return a, nil
}

// RegisterAggregator adds an aggregator that reduces each group with f.
// f is only called with non-empty groups.
func RegisterAggregator(name string, f func(xs []float64) float64) (*Aggregator, error) {
	aggregators.Lock()
	defer aggregators.Unlock()
	if _, ok := aggregators.m[name]; ok {
		return nil, errors.Newf("aggregator %q already registered", name)
	}
	a := reducer(name, f)
	aggregators.m[name] = a
	return a, nil
}

// Aggregators returns the names of all registered aggregators, sorted.
func Aggregators() []string {
	aggregators.RLock()
	defer aggregators.RUnlock()
	names := make([]string, 0, len(aggregators.m))
	for name := range aggregators.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reducer returns an Aggregator applying f to the float64 values of
// each group.
func reducer(name string, f func([]float64) float64) *Aggregator {
	a := &Aggregator{name: name, prefix: name + " "}
	a.agg = func(cols ...string) ggstat.Aggregator {
		return func(input table.Grouping, b *table.Builder) {
			for _, col := range cols {
				out := make([]float64, 0, len(input.Tables()))
				var xs []float64
				for _, gid := range input.Tables() {
					slice.Convert(&xs, input.Table(gid).MustColumn(col))
					out = append(out, f(xs))
				}
				b.Add(a.column(col), out)
			}
		}
	}
	return a
}

// AggregateByCoordinate groups the rows of ids by the tuple of values
// in coordCols and reduces the values of each of attrs within each
// group using agg. The result maps each coordinate tuple that occurs
// among ids to the reduced value of each attribute, in attrs order.
// Coordinates that no identifier maps to are absent from the result.
//
// Every attribute must be numeric. Repeated identifiers in ids count
// once.
func (t *Table) AggregateByCoordinate(ids []any, coordCols, attrs []string, agg *Aggregator) (map[domain.Coord][]float64, error) {
	if agg == nil {
		return nil, errors.Wrap(errors.ErrUnknownAggregator, "nil aggregator")
	}
	cols := make([]table.Slice, len(coordCols))
	for i, name := range coordCols {
		col, err := t.Column(name)
		if err != nil {
			return nil, errors.Wrap(err, "coordinate column")
		}
		if !numeric(col) && !scalar(col) {
			return nil, errors.Newf("coordinate column %q has unsupported type %T", name, col)
		}
		cols[i] = col
	}
	vals := make([]table.Slice, len(attrs))
	for i, name := range attrs {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if !numeric(col) {
			return nil, errors.Wrapf(errors.ErrNotNumeric, "%q", name)
		}
		vals[i] = col
	}

	rows := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		i, ok := t.row(id)
		if !ok {
			return nil, errors.Wrapf(errors.ErrMissingIdentifier, "%v", id)
		}
		if !seen[i] {
			seen[i] = true
			rows = append(rows, i)
		}
	}
	out := make(map[domain.Coord][]float64)
	if len(rows) == 0 {
		return out, nil
	}

	// Columns get positional names so coordinate and attribute
	// names can overlap without clashing.
	var b table.Builder
	xnames := make([]string, len(cols))
	for i, col := range cols {
		xnames[i] = fmt.Sprintf(".x%d", i)
		b.Add(xnames[i], slice.Select(col, rows))
	}
	vnames := make([]string, len(vals))
	for i, col := range vals {
		vnames[i] = fmt.Sprintf(".v%d", i)
		var xs []float64
		slice.Convert(&xs, slice.Select(col, rows))
		b.Add(vnames[i], xs)
	}

	g := ggstat.Agg(xnames...)(agg.agg(vnames...)).F(b.Done())
	for _, gid := range g.Tables() {
		res := g.Table(gid)
		xcols := make([]reflect.Value, len(xnames))
		for i, name := range xnames {
			xcols[i] = reflect.ValueOf(res.MustColumn(name))
		}
		vcols := make([][]float64, len(vnames))
		for i, name := range vnames {
			slice.Convert(&vcols[i], res.MustColumn(agg.column(name)))
		}
		key := make([]any, len(xcols))
		for r := 0; r < res.Len(); r++ {
			for i, x := range xcols {
				key[i] = scalarValue(x.Index(r))
			}
			reduced := make([]float64, len(vcols))
			for i, v := range vcols {
				reduced[i] = v[r]
			}
			out[domain.MakeCoord(key...)] = reduced
		}
	}
	return out, nil
}

func numeric(col table.Slice) bool {
	switch reflect.TypeOf(col).Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func scalar(col table.Slice) bool {
	switch reflect.TypeOf(col).Elem().Kind() {
	case reflect.String, reflect.Bool:
		return true
	}
	return false
}

// scalarValue returns v in the canonical form used by domain.Coord,
// looking through named types.
func scalarValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	}
	return v.Interface()
}
