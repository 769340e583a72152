/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics defines the provider-agnostic instrumentation surface
// litefab's endorse/order/commit path reports through: a small
// Counter/Gauge/Histogram API backed by a pluggable Provider, the same
// shape fabric's common/metrics exposes to core/ledger/kvledger and
// orderer/consensus instrumentation.
package metrics

// Counter is a monotonically increasing value, labeled by With.
type Counter interface {
	Add(delta float64)
	With(labelValues ...string) Counter
}

// Gauge is a value that can move up or down, labeled by With.
type Gauge interface {
	Add(delta float64)
	Set(value float64)
	With(labelValues ...string) Gauge
}

// Histogram records a distribution of observed values, labeled by With.
type Histogram interface {
	Observe(value float64)
	With(labelValues ...string) Histogram
}

// CounterOpts describes a Counter at registration time.
type CounterOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	LabelNames []string
}

// GaugeOpts describes a Gauge at registration time.
type GaugeOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	LabelNames []string
}

// HistogramOpts describes a Histogram at registration time, including its
// bucket boundaries.
type HistogramOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	LabelNames []string
	Buckets    []float64
}

// Provider constructs the metric instruments a component needs at
// startup. Components hold onto the Counter/Gauge/Histogram values
// returned here, not the Provider itself.
type Provider interface {
	NewCounter(CounterOpts) Counter
	NewGauge(GaugeOpts) Gauge
	NewHistogram(HistogramOpts) Histogram
}
