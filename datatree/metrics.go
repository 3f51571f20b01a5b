// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datatree

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kevinabrown/boxfish/errors"
)

// Metrics records loading activity of a Tree. A nil *Metrics records
// nothing.
type Metrics struct {
	runsInserted prometheus.Counter
	itemsLoaded  *prometheus.CounterVec
	itemsSkipped *prometheus.CounterVec
	nodes        prometheus.Gauge
}

// NewMetrics creates the tree metrics and registers them with reg. If
// reg is nil, the metrics are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxfish",
			Subsystem: "tree",
			Name:      "runs_inserted_total",
			Help:      "Total number of runs inserted.",
		}),
		itemsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boxfish",
			Subsystem: "tree",
			Name:      "items_loaded_total",
			Help:      "Total number of tables and projections loaded.",
		}, []string{"kind"}),
		itemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boxfish",
			Subsystem: "tree",
			Name:      "items_skipped_total",
			Help:      "Total number of tables and projections skipped while loading.",
		}, []string{"kind", "reason"}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "boxfish",
			Subsystem: "tree",
			Name:      "nodes",
			Help:      "Number of live nodes in the tree.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.runsInserted, m.itemsLoaded, m.itemsSkipped, m.nodes} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering tree metrics")
		}
	}
	return m, nil
}

func (m *Metrics) runInserted() {
	if m != nil {
		m.runsInserted.Inc()
	}
}

func (m *Metrics) loaded(kind Kind) {
	if m != nil {
		m.itemsLoaded.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) skipped(kind Kind, err error) {
	if m != nil {
		m.itemsSkipped.WithLabelValues(kind.String(), skipReason(err)).Inc()
	}
}

func (m *Metrics) setNodes(n int) {
	if m != nil {
		m.nodes.Set(float64(n))
	}
}

// skipReason returns a low-cardinality label for a load error.
func skipReason(err error) string {
	switch {
	case errors.Is(err, errors.ErrUnknownDomain):
		return "unknown_domain"
	case errors.Is(err, errors.ErrInsufficientDomains):
		return "insufficient_domains"
	case errors.Is(err, errors.ErrDomainMismatch):
		return "domain_mismatch"
	case errors.Is(err, errors.ErrDuplicateIdentifier):
		return "duplicate_identifier"
	case errors.Is(err, errors.ErrUnknownAttribute):
		return "unknown_attribute"
	case errors.Is(err, errors.ErrUnknownStrategy):
		return "unknown_strategy"
	}
	return "other"
}
