// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out plain-text tables for terminal output.
package texttab

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Row and Cell return the Table so callers can chain them:
//
//	var tab texttab.Table
//	tab.Row().Cell("x").Cell("mean", texttab.Right)
//	tab.Row().Cell("0").Cell("1.5", texttab.Right)
//	tab.Format(os.Stdout)
type Table struct {
	rows   [][]cell
	indent []int
}

type cell struct {
	value string
	align align
}

// A CellOption adjusts the layout of a cell.
type CellOption func(c *cell)

var (
	Left  CellOption = func(c *cell) { c.align = alignLeft }
	Right CellOption = func(c *cell) { c.align = alignRight }
)

type align int

const (
	alignLeft align = iota
	alignRight
)

func (a align) pad(s string, w int) string {
	if a == alignRight {
		return fmt.Sprintf("%*s", w, s)
	}
	return s
}

// Row starts a new row in table t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	t.indent = append(t.indent, 0)
	return t
}

// Indent starts a new row whose first cell is indented by depth
// levels, for printing trees.
func (t *Table) Indent(depth int) *Table {
	t.Row()
	t.indent[len(t.indent)-1] = depth
	return t
}

// Cell adds a cell to the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	c := cell{value: value}
	for _, o := range opts {
		o(&c)
	}
	r := len(t.rows) - 1
	t.rows[r] = append(t.rows[r], c)
	return t
}

// Float adds a right-aligned numeric cell.
func (t *Table) Float(v float64) *Table {
	return t.Cell(strconv.FormatFloat(v, 'g', 6, 64), Right)
}

// Len returns the number of rows in t.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) text(r, col int) string {
	s := t.rows[r][col].value
	if col == 0 && t.indent[r] > 0 {
		s = strings.Repeat("  ", t.indent[r]) + s
	}
	return s
}

// Format lays out table t and writes it to w. Columns are separated
// by a single space, and trailing blanks are omitted.
func (t *Table) Format(w io.Writer) error {
	var ws []int
	for r, row := range t.rows {
		for col := range row {
			if col == len(ws) {
				ws = append(ws, 0)
			}
			ws[col] = max(ws[col], utf8.RuneCountInString(t.text(r, col)))
		}
	}

	var line strings.Builder
	for r, row := range t.rows {
		line.Reset()
		for col, c := range row {
			if col > 0 {
				line.WriteByte(' ')
			}
			s := c.align.pad(t.text(r, col), ws[col])
			line.WriteString(s)
			if pad := ws[col] - utf8.RuneCountInString(s); pad > 0 && col < len(row)-1 {
				line.WriteString(strings.Repeat(" ", pad))
			}
		}
		out := strings.TrimRight(line.String(), " ")
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}
