// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import (
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/metadata"
)

// HasMetadata reports whether key is defined on h or any of its
// ancestors.
func (t *Tree) HasMetadata(h Handle, key string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok, err := t.lookup(h, key)
	return ok, err
}

// Metadata returns the value of key as seen from h.
//
// The value comes from the most distant ancestor of h that defines key,
// so run metadata overrides table metadata and table metadata overrides
// nothing below it. Map and slice values are returned as shallow
// copies; modifying them does not affect the tree.
func (t *Tree) Metadata(h Handle, key string) (any, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok, err := t.lookup(h, key)
	if !ok || err != nil {
		return nil, false, err
	}
	return metadata.Copy(v), true, nil
}

// DecodeMetadata resolves key as Metadata does and decodes the value
// into out. It fails if key is not defined.
func (t *Tree) DecodeMetadata(h Handle, key string, out any) error {
	v, ok, err := t.Metadata(h, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Newf("metadata key %q not defined at %s", key, h)
	}
	return errors.Wrapf(metadata.Decode(v, out), "metadata key %q", key)
}

// lookup resolves key from h. t.mu must be held.
func (t *Tree) lookup(h Handle, key string) (any, bool, error) {
	n, err := t.node(h)
	if err != nil {
		return nil, false, err
	}
	var v any
	var found bool
	for {
		if x, ok := n.md[key]; ok {
			v, found = x, true
		}
		if n.parent.IsZero() {
			return v, found, nil
		}
		if n, err = t.node(n.parent); err != nil {
			return nil, false, err
		}
	}
}

// Run returns the run that h belongs to. The run of a run is itself.
func (t *Tree) Run(h Handle) (Handle, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runOf(h)
}

func (t *Tree) runOf(h Handle) (Handle, error) {
	n, err := t.node(h)
	if err != nil {
		return Handle{}, err
	}
	for n.kind != KindRun {
		if n, err = t.node(n.parent); err != nil {
			return Handle{}, err
		}
	}
	return n.self, nil
}
