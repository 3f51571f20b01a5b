// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package domain

// Type strings of the built-in domains.
const (
	TorusNode = "torus_node"
	TorusLink = "torus_link"
	AppRank   = "app_rank"
)

// Builtin returns a new Registry holding the built-in domains: the
// nodes and links of a 3D torus network and the ranks of a parallel
// application. Callers may register further domains on it.
func Builtin() *Registry {
	r, err := NewRegistry(
		Domain{
			Type:        TorusNode,
			Dims:        3,
			Coords:      []string{"x", "y", "z"},
			Description: "node of a 3D torus network",
		},
		Domain{
			Type:        TorusLink,
			Dims:        6,
			Coords:      []string{"sx", "sy", "sz", "dx", "dy", "dz"},
			Description: "directed link between adjacent torus nodes",
		},
		Domain{
			Type:        AppRank,
			Dims:        1,
			Coords:      []string{"rank"},
			Description: "rank of a parallel application",
		},
	)
	if err != nil {
		panic(err)
	}
	return r
}
