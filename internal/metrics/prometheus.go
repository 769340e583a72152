/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"net/http"

	kitmetrics "github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusProvider backs Counter/Gauge/Histogram with go-kit's
// prometheus adapters, grounded on common/metrics/prometheus's own
// Provider.
type PrometheusProvider struct{}

func (p *PrometheusProvider) NewCounter(o CounterOpts) Counter {
	return &promCounter{
		Counter: kitprometheus.NewCounterFrom(
			prom.CounterOpts{Namespace: o.Namespace, Subsystem: o.Subsystem, Name: o.Name, Help: o.Help},
			o.LabelNames,
		),
	}
}

func (p *PrometheusProvider) NewGauge(o GaugeOpts) Gauge {
	return &promGauge{
		Gauge: kitprometheus.NewGaugeFrom(
			prom.GaugeOpts{Namespace: o.Namespace, Subsystem: o.Subsystem, Name: o.Name, Help: o.Help},
			o.LabelNames,
		),
	}
}

func (p *PrometheusProvider) NewHistogram(o HistogramOpts) Histogram {
	return &promHistogram{
		Histogram: kitprometheus.NewHistogramFrom(
			prom.HistogramOpts{Namespace: o.Namespace, Subsystem: o.Subsystem, Name: o.Name, Help: o.Help, Buckets: o.Buckets},
			o.LabelNames,
		),
	}
}

// Handler returns the HTTP handler a node mounts at /metrics for
// Prometheus to scrape.
func (p *PrometheusProvider) Handler() http.Handler { return promhttp.Handler() }

type promCounter struct{ kitmetrics.Counter }

func (c *promCounter) With(labelValues ...string) Counter {
	return &promCounter{Counter: c.Counter.With(labelValues...)}
}

type promGauge struct{ kitmetrics.Gauge }

func (g *promGauge) With(labelValues ...string) Gauge {
	return &promGauge{Gauge: g.Gauge.With(labelValues...)}
}

type promHistogram struct{ kitmetrics.Histogram }

func (h *promHistogram) With(labelValues ...string) Histogram {
	return &promHistogram{Histogram: h.Histogram.With(labelValues...)}
}
