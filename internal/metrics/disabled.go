/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

// DisabledProvider returns no-op instruments, for components (tests, a
// node started without metrics configured) that need a Provider but
// should not pay for or expose instrumentation. Grounded on
// common/metrics/disabled's no-op Provider.
type DisabledProvider struct{}

func (p *DisabledProvider) NewCounter(CounterOpts) Counter     { return disabledCounter{} }
func (p *DisabledProvider) NewGauge(GaugeOpts) Gauge           { return disabledGauge{} }
func (p *DisabledProvider) NewHistogram(HistogramOpts) Histogram { return disabledHistogram{} }

type disabledCounter struct{}

func (disabledCounter) Add(float64)                  {}
func (d disabledCounter) With(...string) Counter     { return d }

type disabledGauge struct{}

func (disabledGauge) Add(float64)              {}
func (disabledGauge) Set(float64)              {}
func (d disabledGauge) With(...string) Gauge   { return d }

type disabledHistogram struct{}

func (disabledHistogram) Observe(float64)             {}
func (d disabledHistogram) With(...string) Histogram  { return d }
