// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kevinabrown/boxfish/agent"
	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/internal/texttab"
	"github.com/kevinabrown/boxfish/projection"
	"github.com/kevinabrown/boxfish/torus"
)

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree run.yaml",
		Short: "Print the tables and projections of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, run, report, err := a.load(args[0])
			if err != nil {
				return err
			}
			var tab texttab.Table
			err = tree.Walk(run, func(n *datatree.Node, depth int) error {
				tab.Indent(depth).Cell(n.Kind().String()).Cell(n.Name())
				switch {
				case n.Table() != nil:
					t := n.Table()
					tab.Cell(fmt.Sprintf("%s by %s, %d rows", t.Domain(), t.KeyColumn(), t.Len()))
				case n.Projection() != nil:
					p := n.Projection()
					tab.Cell(p.String())
					if p.Kind() == projection.KindJoinTable {
						src, dst := p.Keys()
						tab.Cell(fmt.Sprintf("%s to %s, %d rows", src, dst, p.Table().Len()))
					} else {
						tab.Cell(p.Strategy().String())
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, s := range report.Skipped {
				tab.Row().Cell("SKIPPED").Cell(s.Name).Cell(s.Err.Error())
			}
			return tab.Format(cmd.OutOrStdout())
		},
	}
}

func (a *app) groupByCmd() *cobra.Command {
	var tableName string
	var attrs, coords []string
	cmd := &cobra.Command{
		Use:   "groupby run.yaml",
		Short: "Aggregate attributes over the coordinates of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, run, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			tab, ok, err := tree.FindTable(run, tableName)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Newf("run has no table %q", tableName)
			}
			hs := make([]datatree.Handle, len(attrs))
			names := make([]string, len(attrs))
			for i, name := range attrs {
				if hs[i], names[i], err = findAttribute(tree, run, tab, name); err != nil {
					return err
				}
			}

			ag := agent.New(tree, agent.WithLogger(a.log))
			ag.AddRequirement("groupby")
			if err := ag.AddIndices("groupby", hs); err != nil {
				return err
			}
			cs, vals, err := ag.GroupBy("groupby", coords, tab, a.v.GetString("aggregator"))
			if err != nil {
				return err
			}
			return writeValues(cmd.OutOrStdout(), coords, names, cs, vals)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&tableName, "table", "", "coordinate `table`")
	flags.StringSliceVar(&attrs, "attr", nil, "attributes to aggregate, as name or table:name")
	flags.StringSliceVar(&coords, "coords", nil, "coordinate `columns` to group by")
	flags.String("agg", "mean", "aggregator: mean, median, min, max, sum, geomean, count or stddev")
	_ = a.v.BindPFlag("aggregator", flags.Lookup("agg"))
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("attr")
	return cmd
}

func (a *app) torusCmd() *cobra.Command {
	var nodes, links []string
	cmd := &cobra.Command{
		Use:   "torus run.yaml",
		Short: "Aggregate node and link attributes over a torus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, run, _, err := a.load(args[0])
			if err != nil {
				return err
			}
			ta := torus.NewAgent(tree, torus.WithLogger(a.log), torus.WithAggregator(a.v.GetString("aggregator")))
			w := cmd.OutOrStdout()
			var werr error
			ta.OnNodes(func(u torus.NodeUpdate) {
				fmt.Fprintf(w, "nodes %v\n", u.Shape)
				werr = writeValues(w, ta.Config().Coords, u.Attributes, u.Coords, u.Values)
			})
			ta.OnLinks(func(u torus.LinkUpdate) {
				fmt.Fprintf(w, "links %v\n", u.Shape)
				werr = writeValues(w, ta.Config().LinkColumns, u.Attributes, u.Links, u.Values)
			})

			for _, req := range []struct {
				names    []string
				table    func(*torus.Config) string
				register func([]datatree.Handle) error
			}{
				{nodes, func(c *torus.Config) string { return c.CoordsTable }, ta.RegisterNodeAttributes},
				{links, func(c *torus.Config) string { return c.LinkCoordsTable }, ta.RegisterLinkAttributes},
			} {
				if len(req.names) == 0 {
					continue
				}
				cfg, err := torus.ConfigFor(tree, run)
				if err != nil {
					return err
				}
				tab, ok, err := tree.FindTable(run, req.table(cfg))
				if err != nil {
					return err
				}
				if !ok {
					return errors.Newf("run has no table %q", req.table(cfg))
				}
				hs := make([]datatree.Handle, len(req.names))
				for i, name := range req.names {
					if hs[i], _, err = findAttribute(tree, run, tab, name); err != nil {
						return err
					}
				}
				if err := req.register(hs); err != nil {
					return err
				}
				if werr != nil {
					return werr
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "node `attributes`")
	cmd.Flags().StringSliceVar(&links, "links", nil, "link `attributes`")
	return cmd
}

// findAttribute resolves name to an attribute handle and the attribute's
// own name. A name of the form "table:attr" selects a table of run;
// otherwise tab is searched first and then the other tables of run in
// order.
func findAttribute(tree *datatree.Tree, run, tab datatree.Handle, name string) (datatree.Handle, string, error) {
	tables := []datatree.Handle{tab}
	if t, attr, ok := strings.Cut(name, ":"); ok {
		h, found, err := tree.FindTable(run, t)
		if err != nil {
			return datatree.Handle{}, "", err
		}
		if !found {
			return datatree.Handle{}, "", errors.Newf("run has no table %q", t)
		}
		tables, name = []datatree.Handle{h}, attr
	} else {
		all, err := tree.Tables(run)
		if err != nil {
			return datatree.Handle{}, "", err
		}
		for _, h := range all {
			if h != tab {
				tables = append(tables, h)
			}
		}
	}
	for _, t := range tables {
		hs, err := tree.Children(t)
		if err != nil {
			return datatree.Handle{}, "", err
		}
		for _, h := range hs {
			if n, _, err := tree.Attribute(h); err == nil && n == name {
				return h, n, nil
			}
		}
	}
	return datatree.Handle{}, "", errors.Wrapf(errors.ErrUnknownAttribute, "%q", name)
}

// writeValues prints one row per coordinate tuple.
func writeValues(w io.Writer, coordCols, attrs []string, cs []domain.Coord, vals [][]float64) error {
	var tab texttab.Table
	tab.Row()
	for _, c := range coordCols {
		tab.Cell(c)
	}
	for _, a := range attrs {
		tab.Cell(a, texttab.Right)
	}
	for i, c := range cs {
		tab.Row()
		for _, v := range c.Values() {
			tab.Cell(formatValue(v))
		}
		for _, v := range vals[i] {
			tab.Float(v)
		}
	}
	return tab.Format(w)
}

func formatValue(v any) string {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
