// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import (
	"go.uber.org/zap"
)

// RemoveTable removes the table at h and its attributes, and refreshes
// the subdomains of its run. Handles into the removed subtree become
// invalid; all other handles stay valid.
func (t *Tree) RemoveTable(h Handle) error {
	return t.removeMember(h, KindTable)
}

// RemoveProjection is like RemoveTable, for a projection.
func (t *Tree) RemoveProjection(h Handle) error {
	return t.removeMember(h, KindProjection)
}

func (t *Tree) removeMember(h Handle, k Kind) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	t.mu.RLock()
	n, err := t.nodeOf(h, k)
	var run Handle
	var name string
	if err == nil {
		name = n.name
		run, err = t.runOf(h)
	}
	t.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := t.detach(h); err != nil {
		return err
	}
	t.log.Debug("removed "+k.String(), zap.String("item", name), zap.Stringer("handle", h))
	return t.refreshSubdomains(run)
}

// RemoveRun removes the run at h with everything loaded into it.
func (t *Tree) RemoveRun(h Handle) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	t.mu.RLock()
	n, err := t.nodeOf(h, KindRun)
	var name string
	if err == nil {
		name = n.name
	}
	t.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := t.detach(h); err != nil {
		return err
	}
	t.log.Debug("removed run", zap.String("run", name), zap.Stringer("handle", h))
	return nil
}
