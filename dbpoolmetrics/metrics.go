// YSM - Yandere SQL Manager
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/dbpool

// Package dbpoolmetrics wires the object pool and lifecycle engine to
// Prometheus, grounded on the registry-per-component pattern used in
// bencoepp-bib's gRPC server lifecycle.
package dbpoolmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every gauge/counter this library emits. Construct with
// NewMetrics and register on the caller's registry (or prometheus's
// default registry via NewDefaultMetrics).
type Metrics struct {
	StashDepth   prometheus.Gauge
	PulledTotal  prometheus.Counter
	DestroyedTotal prometheus.Counter

	LifecycleOpsTotal  *prometheus.CounterVec
	LifecycleOpSeconds *prometheus.HistogramVec
}

// NewMetrics builds a Metrics bound to reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid colliding with other
// registrations in the same process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StashDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dbpool",
			Name:      "stash_depth",
			Help:      "Number of reusable connection-pool wrappers currently stashed.",
		}),
		PulledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dbpool",
			Name:      "pulled_total",
			Help:      "Total number of successful Pull calls against the object pool.",
		}),
		DestroyedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dbpool",
			Name:      "destroyed_total",
			Help:      "Total number of items destroyed instead of being returned to the stash.",
		}),
		LifecycleOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbpool",
			Name:      "lifecycle_ops_total",
			Help:      "Lifecycle operations by engine, operation, and outcome.",
		}, []string{"engine", "op", "outcome"}),
		LifecycleOpSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dbpool",
			Name:      "lifecycle_op_seconds",
			Help:      "Lifecycle operation latency by engine and operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine", "op"}),
	}

	reg.MustRegister(m.StashDepth, m.PulledTotal, m.DestroyedTotal, m.LifecycleOpsTotal, m.LifecycleOpSeconds)
	return m
}

// NewDefaultMetrics registers against prometheus.DefaultRegisterer. Most
// long-running processes embedding this library want this; test suites
// should prefer NewMetrics with a scratch registry.
func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// ObserveStashDepth implements objectpool.Recorder.
func (m *Metrics) ObserveStashDepth(n int) {
	if m == nil {
		return
	}
	m.StashDepth.Set(float64(n))
}

// ObservePulled implements objectpool.Recorder.
func (m *Metrics) ObservePulled() {
	if m == nil {
		return
	}
	m.PulledTotal.Inc()
}

// ObserveDestroyed implements objectpool.Recorder.
func (m *Metrics) ObserveDestroyed() {
	if m == nil {
		return
	}
	m.DestroyedTotal.Inc()
}

// ObserveLifecycleOp records one lifecycle operation's outcome and
// duration in seconds.
func (m *Metrics) ObserveLifecycleOp(engine, op, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.LifecycleOpsTotal.WithLabelValues(engine, op, outcome).Inc()
	m.LifecycleOpSeconds.WithLabelValues(engine, op).Observe(seconds)
}
