// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package datatree holds loaded runs as a tree of typed nodes.
//
// The top level of a Tree is a sequence of runs. Each run has two
// groups, "tables" and "projections", holding the tables and
// projections loaded for it; each table and projection has one
// attribute child per column or role:
//
//	Run
//	├── Group "tables"
//	│   └── Table
//	│       └── Attribute ...
//	└── Group "projections"
//	    └── Projection
//	        └── Attribute (source role), Attribute (destination role)
//
// Nodes are addressed by Handles, which stay valid until the node is
// removed. Metadata attached to runs, tables and projections is scoped:
// looking up a key on a node searches the node and its ancestors, and
// the value nearest the run wins.
//
// A Tree has a single writer. Reads may proceed concurrently with each
// other, and a mutation excludes all reads. Subscribers are notified of
// structural changes synchronously on the writer's goroutine, while the
// tree is unlocked; a subscriber may read the tree but must not modify
// it.
package datatree

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
)

// treeIDs issues the identity stamped into every Handle of a Tree.
var treeIDs atomic.Uint64

// A Tree is a forest of runs.
type Tree struct {
	id      uint64
	reg     *domain.Registry
	log     *zap.Logger
	metrics *Metrics

	// wmu serializes writers so events are delivered in mutation
	// order. It is held for the whole of a mutating operation.
	wmu sync.Mutex

	// mu guards everything below.
	mu    sync.RWMutex
	slots []slot
	free  []int
	roots []Handle
	live  int

	subs []func(Event)
}

type slot struct {
	gen  uint32
	node *Node
}

// An Option configures a Tree.
type Option func(*Tree)

// WithRegistry sets the domain registry used to resolve the type
// strings of tables and projections. The default is domain.Builtin().
func WithRegistry(r *domain.Registry) Option {
	return func(t *Tree) { t.reg = r }
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tree) { t.log = l }
}

// WithMetrics records loading activity in m.
func WithMetrics(m *Metrics) Option {
	return func(t *Tree) { t.metrics = m }
}

// New returns an empty Tree.
func New(opts ...Option) *Tree {
	t := &Tree{id: treeIDs.Add(1)}
	for _, o := range opts {
		o(t)
	}
	if t.reg == nil {
		t.reg = domain.Builtin()
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	return t
}

// Registry returns the domain registry of t.
func (t *Tree) Registry() *domain.Registry {
	return t.reg
}

// Len returns the number of live nodes in t.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// node returns the node at h. t.mu must be held.
func (t *Tree) node(h Handle) (*Node, error) {
	if h.gen == 0 || h.tree != t.id || h.slot < 0 || h.slot >= len(t.slots) {
		return nil, errors.Wrapf(errors.ErrInvalidHandle, "handle %s", h)
	}
	s := t.slots[h.slot]
	if s.gen != h.gen || s.node == nil {
		return nil, errors.Wrapf(errors.ErrInvalidHandle, "handle %s", h)
	}
	return s.node, nil
}

// nodeOf returns the node at h, which must be of kind k. t.mu must be
// held.
func (t *Tree) nodeOf(h Handle, k Kind) (*Node, error) {
	n, err := t.node(h)
	if err != nil {
		return nil, err
	}
	if n.kind != k {
		return nil, errors.Wrapf(errors.ErrWrongKind, "%s is a %s, not a %s", h, n.kind, k)
	}
	return n, nil
}

// alloc places n in the arena and returns its handle. t.mu must be
// held for writing.
func (t *Tree) alloc(n *Node) Handle {
	h := Handle{tree: t.id}
	if k := len(t.free); k > 0 {
		h.slot = t.free[k-1]
		t.free = t.free[:k-1]
		h.gen = t.slots[h.slot].gen + 1
		if h.gen == 0 {
			h.gen = 1
		}
	} else {
		h.slot = len(t.slots)
		h.gen = 1
		t.slots = append(t.slots, slot{})
	}
	t.slots[h.slot] = slot{gen: h.gen, node: n}
	n.self = h
	t.live++
	return h
}

// release frees the subtree rooted at n. t.mu must be held for
// writing.
func (t *Tree) release(n *Node) {
	for _, c := range n.children {
		if cn, err := t.node(c); err == nil {
			t.release(cn)
		}
	}
	s := &t.slots[n.self.slot]
	s.node = nil
	t.free = append(t.free, n.self.slot)
	t.live--
}

// Get returns a snapshot of the node at h.
func (t *Tree) Get(h Handle) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.node(h)
	if err != nil {
		return nil, err
	}
	return n.snapshot(), nil
}

// Roots returns the handles of all runs in insertion order.
func (t *Tree) Roots() []Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Handle(nil), t.roots...)
}

// Children returns the handles of the children of h in order.
func (t *Tree) Children(h Handle) ([]Handle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.node(h)
	if err != nil {
		return nil, err
	}
	return append([]Handle(nil), n.children...), nil
}

// Parent returns the handle of the parent of h. The parent of a run is
// the zero Handle.
func (t *Tree) Parent(h Handle) (Handle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.node(h)
	if err != nil {
		return Handle{}, err
	}
	return n.parent, nil
}

// Row returns the position of h among its siblings. Runs are numbered
// among the roots.
func (t *Tree) Row(h Handle) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.node(h)
	if err != nil {
		return 0, err
	}
	return t.row(n), nil
}

// row returns the index of n in its parent's children. t.mu must be
// held.
func (t *Tree) row(n *Node) int {
	sibs := t.roots
	if !n.parent.IsZero() {
		p, err := t.node(n.parent)
		if err != nil {
			return -1
		}
		sibs = p.children
	}
	for i, h := range sibs {
		if h == n.self {
			return i
		}
	}
	return -1
}

// Walk calls fn for h and each of its descendants in depth-first
// order. If h is the zero Handle, Walk visits every run. depth is 0 at
// the node Walk starts from. If fn returns an error, Walk stops and
// returns it.
//
// fn is called with t locked for reading and must not modify t.
func (t *Tree) Walk(h Handle, fn func(n *Node, depth int) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if h.IsZero() {
		for _, r := range t.roots {
			if err := t.walk(r, 0, fn); err != nil {
				return err
			}
		}
		return nil
	}
	return t.walk(h, 0, fn)
}

func (t *Tree) walk(h Handle, depth int, fn func(*Node, int) error) error {
	n, err := t.node(h)
	if err != nil {
		return err
	}
	if err := fn(n.snapshot(), depth); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := t.walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
