// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import "fmt"

// An Op is the kind of a structural Event.
type Op int

const (
	BeginInsert Op = iota
	EndInsert
	BeginRemove
	EndRemove
)

func (o Op) String() string {
	switch o {
	case BeginInsert:
		return "BeginInsert"
	case EndInsert:
		return "EndInsert"
	case BeginRemove:
		return "BeginRemove"
	case EndRemove:
		return "EndRemove"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// An Event describes a structural change to a Tree. Every change is
// bracketed by a Begin event, delivered before the tree changes, and
// the matching End event, delivered after.
//
// Parent is the node whose children change, or the zero Handle when
// runs are inserted or removed. First and Last are the inclusive range
// of child positions affected. For inserts they are the positions the
// new children will occupy; for removes, the positions they occupied.
type Event struct {
	Op          Op
	Parent      Handle
	First, Last int
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s [%d,%d]", e.Op, e.Parent, e.First, e.Last)
}

// Subscribe registers fn to be called on every structural change to t.
// Subscribers are called in registration order.
func (t *Tree) Subscribe(fn func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, fn)
}

// emit delivers e to all subscribers. t.mu must not be held.
func (t *Tree) emit(e Event) {
	t.mu.RLock()
	subs := t.subs
	t.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

// attach appends nodes as children of parent, bracketed by insert
// events, and returns their handles. A zero parent appends runs.
// t.wmu must be held and t.mu must not be.
func (t *Tree) attach(parent Handle, nodes ...*Node) ([]Handle, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	t.mu.RLock()
	first := len(t.roots)
	if !parent.IsZero() {
		p, err := t.node(parent)
		if err != nil {
			t.mu.RUnlock()
			return nil, err
		}
		first = len(p.children)
	}
	t.mu.RUnlock()

	last := first + len(nodes) - 1
	t.emit(Event{BeginInsert, parent, first, last})

	t.mu.Lock()
	hs := make([]Handle, len(nodes))
	for i, n := range nodes {
		n.parent = parent
		hs[i] = t.alloc(n)
	}
	if parent.IsZero() {
		t.roots = append(t.roots, hs...)
	} else {
		// Writers are serialized, so parent is still live.
		p, _ := t.node(parent)
		p.children = append(p.children, hs...)
	}
	live := t.live
	t.mu.Unlock()

	t.metrics.setNodes(live)
	t.emit(Event{EndInsert, parent, first, last})
	return hs, nil
}

// detach removes h and its subtree, bracketed by remove events.
// t.wmu must be held and t.mu must not be.
func (t *Tree) detach(h Handle) error {
	t.mu.RLock()
	n, err := t.node(h)
	if err != nil {
		t.mu.RUnlock()
		return err
	}
	parent, row := n.parent, t.row(n)
	t.mu.RUnlock()

	t.emit(Event{BeginRemove, parent, row, row})

	t.mu.Lock()
	if parent.IsZero() {
		t.roots = deleteAt(t.roots, row)
	} else {
		p, _ := t.node(parent)
		p.children = deleteAt(p.children, row)
	}
	t.release(n)
	live := t.live
	t.mu.Unlock()

	t.metrics.setNodes(live)
	t.emit(Event{EndRemove, parent, row, row})
	return nil
}

func deleteAt(hs []Handle, i int) []Handle {
	copy(hs[i:], hs[i+1:])
	hs[len(hs)-1] = Handle{}
	return hs[:len(hs)-1]
}
