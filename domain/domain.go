// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package domain describes the typed coordinate spaces that measurement
// data lives in, such as the nodes or the links of a network.
//
// A Domain is identified by its type string, conventionally
// "{domain}_{type}" as produced by Key. Domains are registered once in a
// Registry and never change afterwards. Data whose type string is not
// registered is expected: input files may describe domains that the
// running configuration does not know about, and callers should skip
// such data rather than fail.
//
// Points in a domain are addressed by Coords, immutable tuples of
// scalar values that compare == when their values are equal.
package domain

import (
	"sort"
	"sync"

	"github.com/kevinabrown/boxfish/errors"
)

// A Domain is a structural description of a coordinate space.
type Domain struct {
	// Type is the registry key of this domain, for example
	// "torus_node".
	Type string

	// Dims is the number of values in a coordinate of this domain.
	Dims int

	// Coords names the role of each coordinate value, if known. The
	// core does not interpret these; consumers may.
	Coords []string

	// Description is a human-readable summary.
	Description string
}

// String returns the type string of d.
func (d *Domain) String() string {
	if d == nil {
		return "<nil>"
	}
	return d.Type
}

// Key returns the registry key for a domain and type pair as they
// appear in run descriptors.
func Key(domain, typ string) string {
	return domain + "_" + typ
}

// A Registry maps type strings to Domains.
//
// The zero Registry is empty and ready to use. A Registry is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]*Domain
}

// NewRegistry returns a Registry holding the given domains.
func NewRegistry(ds ...Domain) (*Registry, error) {
	r := new(Registry)
	for _, d := range ds {
		if err := r.Register(d.Type, d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d to r under typ. The stored Domain is a copy of d
// whose Type is typ. Registering typ a second time fails with
// errors.ErrDomainExists.
func (r *Registry) Register(typ string, d Domain) error {
	if typ == "" {
		return errors.New("empty domain type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.domains == nil {
		r.domains = make(map[string]*Domain)
	}
	if _, ok := r.domains[typ]; ok {
		return errors.Wrapf(errors.ErrDomainExists, "register %q", typ)
	}
	d.Type = typ
	d.Coords = append([]string(nil), d.Coords...)
	r.domains[typ] = &d
	return nil
}

// Find returns the Domain registered under typ. The match is exact.
// The returned Domain must not be modified.
func (r *Registry) Find(typ string) (*Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.domains[typ]
	return d, ok
}

// Lookup is like Find, but returns an error wrapping
// errors.ErrUnknownDomain if typ is not registered.
func (r *Registry) Lookup(typ string) (*Domain, error) {
	if d, ok := r.Find(typ); ok {
		return d, nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownDomain, "%q", typ)
}

// Types returns the registered type strings in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.domains))
	for typ := range r.domains {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
