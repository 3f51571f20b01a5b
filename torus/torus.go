// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package torus colors the nodes and links of a torus network with
// aggregated measurements.
//
// A torus Agent keeps two requirements, "nodes" and "links". Whenever
// either changes, the agent groups the registered attributes by the
// node or link coordinates that the run's hardware metadata names and
// reports the result to its subscribers.
package torus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kevinabrown/boxfish/agent"
	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
)

// Requirement names.
const (
	Nodes = "nodes"
	Links = "links"
)

// A NodeUpdate carries aggregated node values. Coords holds one tuple
// per node in Config.Coords order, and Values[i][k] is the k-th
// attribute at Coords[i].
type NodeUpdate struct {
	Run        datatree.Handle
	Shape      []int
	Attributes []string
	Coords     []domain.Coord
	Values     [][]float64
}

// A LinkUpdate carries aggregated link values. Each of Links is the
// source coordinate followed by the destination coordinate.
type LinkUpdate struct {
	Run        datatree.Handle
	Shape      []int
	Attributes []string
	Links      []domain.Coord
	Values     [][]float64
}

// An Agent aggregates attributes over a torus.
type Agent struct {
	agent *agent.Agent
	tree  *datatree.Tree
	log   *zap.Logger
	agg   string

	mu      sync.Mutex
	cfg     *Config
	errs    map[string]error
	onNodes []func(NodeUpdate)
	onLinks []func(LinkUpdate)
}

// An Option configures an Agent.
type Option func(*Agent)

// WithAggregator sets the aggregator used to combine values that share
// a coordinate. The default is "mean".
func WithAggregator(name string) Option {
	return func(a *Agent) { a.agg = name }
}

// WithLogger sets the logger of the agent.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// NewAgent returns a torus Agent over tree.
func NewAgent(tree *datatree.Tree, opts ...Option) *Agent {
	a := &Agent{
		tree: tree,
		log:  zap.NewNop(),
		agg:  "mean",
		errs: make(map[string]error),
	}
	for _, o := range opts {
		o(a)
	}
	a.agent = agent.New(tree, agent.WithLogger(a.log))
	a.agent.AddRequirement(Nodes)
	a.agent.AddRequirement(Links)
	a.agent.Listen(a.updated)
	return a
}

// Requirements returns the underlying agent, whose requirements Nodes
// and Links may be changed directly.
func (a *Agent) Requirements() *agent.Agent {
	return a.agent
}

// OnNodes registers fn to receive node updates.
func (a *Agent) OnNodes(fn func(NodeUpdate)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onNodes = append(a.onNodes, fn)
}

// OnLinks registers fn to receive link updates.
func (a *Agent) OnLinks(fn func(LinkUpdate)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLinks = append(a.onLinks, fn)
}

// RegisterNodeAttributes adds attributes to color nodes by. The torus
// layout is taken from the run of the first attribute.
func (a *Agent) RegisterNodeAttributes(hs []datatree.Handle) error {
	return a.register(Nodes, hs)
}

// RegisterLinkAttributes adds attributes to color links by.
func (a *Agent) RegisterLinkAttributes(hs []datatree.Handle) error {
	return a.register(Links, hs)
}

func (a *Agent) register(req string, hs []datatree.Handle) error {
	if len(hs) == 0 {
		return nil
	}
	cfg, err := ConfigFor(a.tree, hs[0])
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
	if err := a.agent.AddIndices(req, hs); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errs[req]
}

// Shape returns the extent of each axis of the current torus, or nil
// before any attribute is registered.
func (a *Agent) Shape() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg == nil {
		return nil
	}
	return append([]int(nil), a.cfg.Shape...)
}

// Config returns the current torus layout, or nil.
func (a *Agent) Config() *Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// updated recomputes the values of a changed requirement.
func (a *Agent) updated(u agent.Update) {
	var err error
	switch u.Requirement {
	case Nodes:
		err = a.updateNodes()
	case Links:
		err = a.updateLinks()
	}
	if err != nil {
		a.log.Warn("torus update failed", zap.String("requirement", u.Requirement), zap.Error(err))
	}
	a.mu.Lock()
	a.errs[u.Requirement] = err
	a.mu.Unlock()
}

func (a *Agent) updateNodes() error {
	cfg := a.Config()
	if cfg == nil {
		return nil
	}
	coords, vals, names, err := a.groupBy(Nodes, cfg.CoordsTable, cfg.Coords)
	if err != nil {
		return err
	}
	u := NodeUpdate{
		Run:        cfg.Run,
		Shape:      append([]int(nil), cfg.Shape...),
		Attributes: names,
		Coords:     coords,
		Values:     vals,
	}
	a.mu.Lock()
	fns := a.onNodes
	a.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
	return nil
}

func (a *Agent) updateLinks() error {
	cfg := a.Config()
	if cfg == nil {
		return nil
	}
	if len(cfg.LinkColumns) == 0 {
		return errors.Newf("torus: run %s does not describe links", cfg.Run)
	}
	links, vals, names, err := a.groupBy(Links, cfg.LinkCoordsTable, cfg.LinkColumns)
	if err != nil {
		return err
	}
	u := LinkUpdate{
		Run:        cfg.Run,
		Shape:      append([]int(nil), cfg.Shape...),
		Attributes: names,
		Links:      links,
		Values:     vals,
	}
	a.mu.Lock()
	fns := a.onLinks
	a.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
	return nil
}

func (a *Agent) groupBy(req, tableName string, cols []string) ([]domain.Coord, [][]float64, []string, error) {
	cfg := a.Config()
	tab, ok, err := a.tree.FindTable(cfg.Run, tableName)
	if err != nil {
		return nil, nil, nil, err
	}
	if !ok {
		return nil, nil, nil, errors.Newf("torus: run has no table %q", tableName)
	}
	hs, err := a.agent.Indices(req)
	if err != nil {
		return nil, nil, nil, err
	}
	names := make([]string, len(hs))
	for i, h := range hs {
		if names[i], _, err = a.tree.Attribute(h); err != nil {
			return nil, nil, nil, err
		}
	}
	coords, vals, err := a.agent.GroupBy(req, cols, tab, a.agg)
	if err != nil {
		return nil, nil, nil, err
	}
	return coords, vals, names, nil
}
