// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package datatable provides typed columnar tables of measurements
// keyed by identifiers in a domain.
//
// A Table wraps an immutable go-gg table. One column, the key column,
// holds the identifier of each row; every other column is an attribute
// with exactly one value per identifier. Identifiers are unique and
// stable for the lifetime of the Table.
package datatable

import (
	"fmt"
	"reflect"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"

	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
)

// RowColumn is the key column added by WithRowIdentifiers.
const RowColumn = ".row"

// A Table is a set of attribute columns over a set of identifiers.
//
// A Table is immutable and safe for concurrent use.
type Table struct {
	dom  *domain.Domain
	key  string
	data *table.Table

	attrs []string
	ids   []any
	index map[any]int
}

// New returns a Table in domain d whose identifiers are the values of
// column key of data. It fails with errors.ErrDuplicateIdentifier if
// any identifier repeats.
func New(d *domain.Domain, key string, data *table.Table) (*Table, error) {
	if d == nil {
		return nil, errors.New("datatable: nil domain")
	}
	if data == nil {
		data = new(table.Table)
	}
	col := data.Column(key)
	if col == nil {
		return nil, errors.Wrapf(errors.ErrUnknownAttribute, "key column %q", key)
	}

	t := &Table{
		dom:   d,
		key:   key,
		data:  data,
		index: make(map[any]int, data.Len()),
	}
	rv := reflect.ValueOf(col)
	t.ids = make([]any, rv.Len())
	for i := range t.ids {
		id, ok := domain.Scalar(scalarValue(rv.Index(i)))
		if !ok {
			return nil, errors.Newf("key column %q has unsupported type %s", key, rv.Type())
		}
		if prev, dup := t.index[id]; dup {
			return nil, errors.Wrapf(errors.ErrDuplicateIdentifier,
				"%v in column %q at rows %d and %d", id, key, prev, i)
		}
		t.index[id] = i
		t.ids[i] = id
	}
	for _, name := range data.Columns() {
		if name != key {
			t.attrs = append(t.attrs, name)
		}
	}
	return t, nil
}

// FromStrings is like New, but builds the data from text cells. Columns
// whose cells all parse as integers become int columns, columns whose
// cells all parse as floats become float64 columns, and the rest stay
// strings.
func FromStrings(d *domain.Domain, key string, cols []string, rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, errors.Newf("row %d has %d cells, want %d", i, len(row), len(cols))
		}
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c] {
			return nil, errors.Newf("column %q appears twice", c)
		}
		seen[c] = true
	}
	return New(d, key, table.TableFromStrings(cols, rows, true))
}

// WithRowIdentifiers returns a Table whose identifiers are the row
// numbers of data, stored in an added RowColumn. This suits tables whose
// natural keys repeat, such as join tables.
func WithRowIdentifiers(d *domain.Domain, data *table.Table) (*Table, error) {
	if data == nil {
		data = new(table.Table)
	}
	rows := make([]int, data.Len())
	for i := range rows {
		rows[i] = i
	}
	return New(d, RowColumn, table.NewBuilder(data).Add(RowColumn, rows).Done())
}

// Domain returns the domain the identifiers of t belong to.
func (t *Table) Domain() *domain.Domain {
	return t.dom
}

// KeyColumn returns the name of the column holding identifiers.
func (t *Table) KeyColumn() string {
	return t.key
}

// Len returns the number of identifiers in t.
func (t *Table) Len() int {
	return len(t.ids)
}

// Attributes returns the names of the attribute columns of t in
// column order. The key column is not an attribute.
func (t *Table) Attributes() []string {
	return append([]string(nil), t.attrs...)
}

// Has reports whether t has a column named name. The key column counts.
func (t *Table) Has(name string) bool {
	return t.data.Column(name) != nil
}

// Identifiers returns the identifiers of t in row order.
func (t *Table) Identifiers() []any {
	return append([]any(nil), t.ids...)
}

// Contains reports whether id is an identifier of t.
func (t *Table) Contains(id any) bool {
	_, ok := t.row(id)
	return ok
}

// Data returns the underlying go-gg table. Callers must not modify the
// returned column slices.
func (t *Table) Data() *table.Table {
	return t.data
}

// Column returns the values of column name, which may be the key
// column. Callers must not modify the returned slice.
func (t *Table) Column(name string) (table.Slice, error) {
	col := t.data.Column(name)
	if col == nil {
		return nil, errors.Wrapf(errors.ErrUnknownAttribute, "%q", name)
	}
	return col, nil
}

// ValuesFor returns the values of attrs for identifier id.
func (t *Table) ValuesFor(id any, attrs ...string) ([]any, error) {
	i, ok := t.row(id)
	if !ok {
		return nil, errors.Wrapf(errors.ErrMissingIdentifier, "%v", id)
	}
	out := make([]any, len(attrs))
	for j, attr := range attrs {
		col, err := t.Column(attr)
		if err != nil {
			return nil, err
		}
		out[j] = scalarValue(reflect.ValueOf(col).Index(i))
	}
	return out, nil
}

// CoordFor returns the tuple of values of cols for identifier id.
func (t *Table) CoordFor(id any, cols ...string) (domain.Coord, error) {
	vals, err := t.ValuesFor(id, cols...)
	if err != nil {
		return domain.Coord{}, err
	}
	for i, v := range vals {
		if _, ok := domain.Scalar(v); !ok {
			return domain.Coord{}, errors.Newf("column %q value %v is not a scalar", cols[i], v)
		}
	}
	return domain.MakeCoord(vals...), nil
}

// Select returns the rows of ids, in order, restricted to cols. An
// identifier may appear in ids more than once; its row is repeated.
func (t *Table) Select(ids []any, cols ...string) (*table.Table, error) {
	rows := make([]int, len(ids))
	for i, id := range ids {
		r, ok := t.row(id)
		if !ok {
			return nil, errors.Wrapf(errors.ErrMissingIdentifier, "%v", id)
		}
		rows[i] = r
	}
	var b table.Builder
	for _, name := range cols {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		b.Add(name, slice.Select(col, rows))
	}
	return b.Done(), nil
}

func (t *Table) row(id any) (int, bool) {
	id, ok := domain.Scalar(id)
	if !ok {
		return 0, false
	}
	i, ok := t.index[id]
	return i, ok
}

// String returns a short description of t.
func (t *Table) String() string {
	return fmt.Sprintf("table(%s by %s, %d rows, %d attributes)", t.dom, t.key, len(t.ids), len(t.attrs))
}
