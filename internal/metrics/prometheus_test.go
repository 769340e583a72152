/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics_test

import (
	"testing"

	"github.com/litefab/litefab/internal/metrics"
	"github.com/stretchr/testify/require"
)

func TestPrometheusProviderCounter(t *testing.T) {
	p := &metrics.PrometheusProvider{}
	c := p.NewCounter(metrics.CounterOpts{Namespace: "test", Name: "counter_total", LabelNames: []string{"channel"}})
	require.NotNil(t, c)
	c.Add(1)
	c.With("ch1").Add(2)
}

func TestPrometheusProviderGauge(t *testing.T) {
	p := &metrics.PrometheusProvider{}
	g := p.NewGauge(metrics.GaugeOpts{Namespace: "test", Name: "gauge", LabelNames: []string{"channel"}})
	require.NotNil(t, g)
	g.Set(3)
	g.With("ch1").Add(1)
}

func TestPrometheusProviderHistogram(t *testing.T) {
	p := &metrics.PrometheusProvider{}
	h := p.NewHistogram(metrics.HistogramOpts{Namespace: "test", Name: "histogram", LabelNames: []string{"channel"}, Buckets: []float64{0.1, 1}})
	require.NotNil(t, h)
	h.Observe(0.5)
	h.With("ch1").Observe(1.2)
}

func TestPrometheusProviderHandlerIsNotNil(t *testing.T) {
	p := &metrics.PrometheusProvider{}
	require.NotNil(t, p.Handler())
}
