// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import (
	"fmt"

	"github.com/kevinabrown/boxfish/datatable"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/metadata"
	"github.com/kevinabrown/boxfish/projection"
)

// Kind is the variant of a Node.
type Kind int

const (
	KindRun Kind = iota + 1
	KindGroup
	KindTable
	KindProjection
	KindAttribute
)

func (k Kind) String() string {
	switch k {
	case KindRun:
		return "RUN"
	case KindGroup:
		return "GROUP"
	case KindTable:
		return "TABLE"
	case KindProjection:
		return "PROJECTION"
	case KindAttribute:
		return "ATTRIBUTE"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Names of the two groups under every run.
const (
	TablesGroup      = "tables"
	ProjectionsGroup = "projections"
)

// A Handle is the stable address of a node in a Tree. A Handle stays
// valid until its node is removed, and is never valid again afterwards.
// The zero Handle is never valid, and a Handle is valid only in the
// Tree that issued it.
type Handle struct {
	tree uint64
	slot int
	gen  uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "#nil"
	}
	return fmt.Sprintf("#%d.%d", h.slot, h.gen)
}

// A Node is one element of a Tree. Which payload a Node carries depends
// on its Kind: runs carry metadata and derived subdomains, tables carry
// a datatable.Table and metadata, projections a projection.Projection
// and metadata. Groups and attributes carry only a name.
//
// Nodes are owned by their Tree. The accessors return copies, so a
// Node obtained from Get may be read freely, but it reflects the
// Tree only at the time of the call.
type Node struct {
	name     string
	kind     Kind
	self     Handle
	parent   Handle
	children []Handle

	md    metadata.Metadata
	table *datatable.Table
	proj  *projection.Projection
	run   *runInfo
}

// runInfo holds the derived state of a run.
type runInfo struct {
	tables      Handle
	projections Handle

	subdomains      []*domain.Domain
	tableSubdomains []*domain.Domain
}

// Name returns the name of n.
func (n *Node) Name() string { return n.name }

// Kind returns the variant of n.
func (n *Node) Kind() Kind { return n.kind }

// Handle returns the address of n.
func (n *Node) Handle() Handle { return n.self }

// Parent returns the address of n's parent, or the zero Handle for a
// run.
func (n *Node) Parent() Handle { return n.parent }

// Children returns the addresses of n's children in order.
func (n *Node) Children() []Handle {
	return append([]Handle(nil), n.children...)
}

// Table returns the table of a table node, or nil.
func (n *Node) Table() *datatable.Table { return n.table }

// Projection returns the projection of a projection node, or nil.
func (n *Node) Projection() *projection.Projection { return n.proj }

// OwnMetadata returns a copy of the metadata attached directly to n.
// It is nil for groups and attributes. Use Tree.Metadata to resolve
// keys through n's ancestors.
func (n *Node) OwnMetadata() metadata.Metadata {
	return n.md.Clone()
}

func (n *Node) String() string {
	return fmt.Sprintf("%s %q", n.kind, n.name)
}

// snapshot returns a copy of n safe to hand out.
func (n *Node) snapshot() *Node {
	c := *n
	c.children = append([]Handle(nil), n.children...)
	return &c
}
