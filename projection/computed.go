// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package projection

import (
	"fmt"
	"strings"

	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
)

// A Strategy is a coordinate transform a computed Projection evaluates.
// The set of strategies is closed; each one defines both a forward and
// an inverse evaluator.
type Strategy int

const (
	// Identity maps every coordinate to itself. Source and destination
	// must have the same dimensionality.
	Identity Strategy = iota

	// TorusNodeLink maps a node of a D-dimensional torus to the 2·D
	// links leaving it (one step in each direction along each axis),
	// and a link to its two endpoint nodes. The destination domain's
	// coordinates are the source node followed by the destination node.
	TorusNodeLink
)

var strategyNames = map[Strategy]string{
	Identity:      "identity",
	TorusNodeLink: "torus_node_link",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// NeedsShape reports whether s evaluates against Params.Shape.
func (s Strategy) NeedsShape() bool {
	return s == TorusNodeLink
}

// ParseStrategy returns the Strategy named name. Matching ignores case.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnknownStrategy, "%q", name)
}

// Params parameterizes a computed projection, typically from the
// metadata of the run it belongs to.
type Params struct {
	// Shape is the extent of each axis of a torus.
	Shape []int

	// Wrap reports whether the torus wraps around at its edges. If
	// false, the network is a mesh and boundary nodes have fewer
	// links.
	Wrap bool
}

type evaluator struct {
	check   func(src, dst *domain.Domain, p Params) error
	forward func(p Params, c domain.Coord) []domain.Coord
	inverse func(p Params, c domain.Coord) []domain.Coord
}

var evaluators = map[Strategy]evaluator{
	Identity: {
		check: func(src, dst *domain.Domain, p Params) error {
			if src.Dims != dst.Dims {
				return errors.Wrapf(errors.ErrDomainMismatch,
					"identity between %s (%d dims) and %s (%d dims)", src, src.Dims, dst, dst.Dims)
			}
			return nil
		},
		forward: identity,
		inverse: identity,
	},
	TorusNodeLink: {
		check:   checkTorus,
		forward: torusLinks,
		inverse: torusEndpoints,
	},
}

// NewComputed returns a Projection from src to dst that evaluates
// strategy s with parameters p. It fails with errors.ErrDomainMismatch
// if the domains do not fit the strategy.
func NewComputed(src, dst *domain.Domain, s Strategy, p Params) (*Projection, error) {
	if src == nil || dst == nil {
		return nil, errors.New("projection: nil domain")
	}
	ev, ok := evaluators[s]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownStrategy, "%v", s)
	}
	if err := ev.check(src, dst, p); err != nil {
		return nil, err
	}
	p.Shape = append([]int(nil), p.Shape...)
	return &Projection{
		src:      src,
		dst:      dst,
		kind:     KindComputed,
		strategy: s,
		params:   p,
		eval:     ev,
	}, nil
}

// Params returns the parameters of a computed projection.
func (p *Projection) Params() Params {
	out := p.params
	out.Shape = append([]int(nil), out.Shape...)
	return out
}

func identity(_ Params, c domain.Coord) []domain.Coord {
	return []domain.Coord{c}
}

func checkTorus(src, dst *domain.Domain, p Params) error {
	if len(p.Shape) == 0 {
		return errors.New("torus projection: empty shape")
	}
	for _, n := range p.Shape {
		if n <= 0 {
			return errors.Newf("torus projection: bad shape %v", p.Shape)
		}
	}
	if src.Dims != len(p.Shape) || dst.Dims != 2*len(p.Shape) {
		return errors.Wrapf(errors.ErrDomainMismatch,
			"torus of %d dims needs %d-dim nodes and %d-dim links, have %s (%d) and %s (%d)",
			len(p.Shape), len(p.Shape), 2*len(p.Shape), src, src.Dims, dst, dst.Dims)
	}
	return nil
}

// inShape returns the integer values of c if it is a point of the
// torus.
func inShape(p Params, c domain.Coord) ([]int, bool) {
	if c.Len() != len(p.Shape) {
		return nil, false
	}
	xs, ok := c.Ints()
	if !ok {
		return nil, false
	}
	for i, x := range xs {
		if x < 0 || x >= p.Shape[i] {
			return nil, false
		}
	}
	return xs, true
}

// step returns x moved by delta along an axis of extent n, and whether
// the result is on the torus.
func step(p Params, x, delta, n int) (int, bool) {
	y := x + delta
	if y >= 0 && y < n {
		return y, true
	}
	if !p.Wrap {
		return 0, false
	}
	return (y%n + n) % n, true
}

func torusLinks(p Params, c domain.Coord) []domain.Coord {
	node, ok := inShape(p, c)
	if !ok {
		return nil
	}
	var out []domain.Coord
	for axis, n := range p.Shape {
		for _, delta := range []int{+1, -1} {
			y, ok := step(p, node[axis], delta, n)
			if !ok || y == node[axis] {
				continue
			}
			nb := append([]int(nil), node...)
			nb[axis] = y
			out = appendUnique(out, domain.Concat(c, intCoord(nb)))
		}
	}
	return out
}

func torusEndpoints(p Params, c domain.Coord) []domain.Coord {
	d := len(p.Shape)
	if c.Len() != 2*d {
		return nil
	}
	a, b := c.Slice(0, d), c.Slice(d, 2*d)
	src, ok1 := inShape(p, a)
	dst, ok2 := inShape(p, b)
	if !ok1 || !ok2 {
		return nil
	}
	// Adjacent nodes differ by one step along exactly one axis.
	differ := 0
	for axis, n := range p.Shape {
		if src[axis] == dst[axis] {
			continue
		}
		differ++
		up, okUp := step(p, src[axis], +1, n)
		down, okDown := step(p, src[axis], -1, n)
		if !(okUp && up == dst[axis]) && !(okDown && down == dst[axis]) {
			return nil
		}
	}
	if differ != 1 {
		return nil
	}
	return []domain.Coord{a, b}
}

func intCoord(xs []int) domain.Coord {
	vals := make([]any, len(xs))
	for i, x := range xs {
		vals[i] = x
	}
	return domain.MakeCoord(vals...)
}
