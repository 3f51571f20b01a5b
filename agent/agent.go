// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package agent aggregates attributes of a datatree.Tree onto the
// coordinates of a table.
//
// An Agent holds named requirements. Each requirement is an ordered set
// of attribute handles, typically chosen by a user. GroupBy reduces the
// values of a requirement's attributes over the coordinate tuples of a
// table, following projections when an attribute lives in a different
// domain than the table.
package agent

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/errors"
)

// An Update reports the new index set of a requirement.
type Update struct {
	Requirement string
	Indices     []datatree.Handle
}

// An Agent tracks requirements over a Tree.
type Agent struct {
	tree *datatree.Tree
	log  *zap.Logger

	mu        sync.Mutex
	reqs      map[string][]datatree.Handle
	listeners []func(Update)
}

// An Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger of the agent.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// New returns an Agent with no requirements.
func New(tree *datatree.Tree, opts ...Option) *Agent {
	a := &Agent{
		tree: tree,
		log:  zap.NewNop(),
		reqs: make(map[string][]datatree.Handle),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Tree returns the tree a reads from.
func (a *Agent) Tree() *datatree.Tree {
	return a.tree
}

// AddRequirement declares a requirement with an empty index set. It is
// a no-op if the requirement already exists.
func (a *Agent) AddRequirement(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.reqs[name]; !ok {
		a.reqs[name] = nil
	}
}

// HasRequirement reports whether name is a declared requirement.
func (a *Agent) HasRequirement(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.reqs[name]
	return ok
}

// AddIndices appends the attributes hs to requirement name, skipping
// any already present, and notifies listeners. Every handle must refer
// to an attribute.
func (a *Agent) AddIndices(name string, hs []datatree.Handle) error {
	if err := a.check(hs); err != nil {
		return err
	}
	return a.update(name, func(cur []datatree.Handle) []datatree.Handle {
		for _, h := range hs {
			if !contains(cur, h) {
				cur = append(cur, h)
			}
		}
		return cur
	})
}

// SetIndices replaces the index set of requirement name.
func (a *Agent) SetIndices(name string, hs []datatree.Handle) error {
	if err := a.check(hs); err != nil {
		return err
	}
	return a.update(name, func([]datatree.Handle) []datatree.Handle {
		var out []datatree.Handle
		for _, h := range hs {
			if !contains(out, h) {
				out = append(out, h)
			}
		}
		return out
	})
}

// ClearIndices empties the index set of requirement name.
func (a *Agent) ClearIndices(name string) error {
	return a.update(name, func([]datatree.Handle) []datatree.Handle { return nil })
}

// Indices returns the index set of requirement name.
func (a *Agent) Indices(name string) ([]datatree.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	hs, ok := a.reqs[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownRequirement, "%q", name)
	}
	return append([]datatree.Handle(nil), hs...), nil
}

// Listen registers fn to be called whenever the index set of a
// requirement changes. Listeners run synchronously on the goroutine
// making the change.
func (a *Agent) Listen(fn func(Update)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

func (a *Agent) check(hs []datatree.Handle) error {
	for _, h := range hs {
		if _, _, err := a.tree.Attribute(h); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) update(name string, f func([]datatree.Handle) []datatree.Handle) error {
	a.mu.Lock()
	cur, ok := a.reqs[name]
	if !ok {
		a.mu.Unlock()
		return errors.Wrapf(errors.ErrUnknownRequirement, "%q", name)
	}
	next := f(append([]datatree.Handle(nil), cur...))
	a.reqs[name] = next
	listeners := a.listeners
	a.mu.Unlock()

	a.log.Debug("requirement updated", zap.String("requirement", name), zap.Int("indices", len(next)))
	u := Update{Requirement: name, Indices: next}
	for _, fn := range listeners {
		u.Indices = append([]datatree.Handle(nil), next...)
		fn(u)
	}
	return nil
}

func contains(hs []datatree.Handle, h datatree.Handle) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}
