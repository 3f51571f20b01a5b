// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Boxstat loads boxfish runs and summarizes them.
//
// Usage:
//
//	boxstat [--config file] [--log-level level] command run.yaml [flags]
//
// The tree command prints the tables and projections loaded from a run
// descriptor, along with any items that were skipped:
//
//	boxstat tree run.yaml
//
// The groupby command aggregates attributes over the coordinates of a
// table. Attributes may be qualified by table, as in "ranks.csv:time";
// an unqualified attribute is looked up first in the coordinate table
// and then in the run's other tables:
//
//	boxstat groupby run.yaml --table nodes.csv --coords x,y --attr load --agg max
//
// The torus command aggregates node and link attributes over the torus
// described by the run's hardware metadata:
//
//	boxstat torus run.yaml --nodes load --links bytes
//
// Settings may also come from a YAML config file or from BOXSTAT_
// environment variables. The config file may register extra domains:
//
//	log:
//	  level: debug
//	aggregator: median
//	domains:
//	  - type: gpu_core
//	    dims: 1
//	    coords: [core]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "boxstat:", err)
		os.Exit(1)
	}
}
