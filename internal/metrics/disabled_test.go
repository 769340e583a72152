/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics_test

import (
	"testing"

	"github.com/litefab/litefab/internal/metrics"
)

func TestDisabledProviderCounterDoesNotPanic(t *testing.T) {
	p := &metrics.DisabledProvider{}
	c := p.NewCounter(metrics.CounterOpts{})
	c.Add(1)
	c.With("whatever").Add(2)
}

func TestDisabledProviderGaugeDoesNotPanic(t *testing.T) {
	p := &metrics.DisabledProvider{}
	g := p.NewGauge(metrics.GaugeOpts{})
	g.Set(1)
	g.Add(1)
	g.With("whatever").Set(2)
}

func TestDisabledProviderHistogramDoesNotPanic(t *testing.T) {
	p := &metrics.DisabledProvider{}
	h := p.NewHistogram(metrics.HistogramOpts{})
	h.Observe(1)
	h.With("whatever").Observe(2)
}
