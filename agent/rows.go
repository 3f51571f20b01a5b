// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agent

import (
	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/errors"
)

// TableRows holds the raw values of some attributes of one table.
type TableRows struct {
	Table datatree.Handle
	Run   datatree.Handle
	Name  string

	// Key names the key column, and Columns the attributes.
	Key     string
	Columns []string

	// IDs lists every identifier of the table. Rows[i][j] is the value
	// of Columns[j] at IDs[i].
	IDs  []any
	Rows [][]any
}

// Rows returns the values of the attributes of requirement name,
// grouped by the table that owns them, in order of first appearance.
func (a *Agent) Rows(name string) ([]TableRows, error) {
	hs, err := a.Indices(name)
	if err != nil {
		return nil, err
	}
	var out []TableRows
	pos := make(map[datatree.Handle]int)
	for _, h := range hs {
		attr, owner, err := a.tree.Attribute(h)
		if err != nil {
			return nil, err
		}
		i, ok := pos[owner]
		if !ok {
			n, err := a.tree.Get(owner)
			if err != nil {
				return nil, err
			}
			if n.Kind() != datatree.KindTable {
				return nil, errors.Wrapf(errors.ErrWrongKind, "attribute %q belongs to a %s", attr, n.Kind())
			}
			run, err := a.tree.Run(owner)
			if err != nil {
				return nil, err
			}
			i = len(out)
			pos[owner] = i
			out = append(out, TableRows{
				Table: owner,
				Run:   run,
				Name:  n.Name(),
				Key:   n.Table().KeyColumn(),
			})
		}
		out[i].Columns = append(out[i].Columns, attr)
	}

	for i := range out {
		tr := &out[i]
		t, err := a.tree.Table(tr.Table)
		if err != nil {
			return nil, err
		}
		tr.IDs = t.Identifiers()
		tr.Rows = make([][]any, len(tr.IDs))
		for r, id := range tr.IDs {
			if tr.Rows[r], err = t.ValuesFor(id, tr.Columns...); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
