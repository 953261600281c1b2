// Copyright The Dubbo Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides Prometheus metrics for the extension engine
// and the exchange codec.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the framework's Prometheus collectors.
type Metrics struct {
	extensionLoadGauge  *prometheus.GaugeVec
	extensionErrorGauge *prometheus.GaugeVec
	framesTotal         *prometheus.CounterVec
	decodeErrorsTotal   prometheus.Counter
	pendingRequests     prometheus.Gauge
}

const (
	ExtensionLoadGauge  = "dubbo_extension_names"
	ExtensionErrorGauge = "dubbo_extension_load_errors"
	FramesTotal         = "dubbo_frames_total"
	DecodeErrorsTotal   = "dubbo_frame_decode_errors_total"
	PendingRequests     = "dubbo_pending_requests"
)

// NewMetrics creates the metric set and registers it with the supplied
// registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := Metrics{
		extensionLoadGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: ExtensionLoadGauge,
				Help: "Number of extension names loaded, by extension point.",
			},
			[]string{"point"},
		),
		extensionErrorGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: ExtensionErrorGauge,
				Help: "Number of descriptor lines recorded as unusable, by extension point.",
			},
			[]string{"point"},
		),
		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: FramesTotal,
				Help: "Frames handled by the exchange codec, by direction and kind.",
			},
			[]string{"direction", "kind"},
		),
		decodeErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: DecodeErrorsTotal,
				Help: "Frame bodies that failed to decode.",
			},
		),
		pendingRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: PendingRequests,
				Help: "Outstanding correlated requests awaiting a response.",
			},
		),
	}

	registry.MustRegister(
		m.extensionLoadGauge,
		m.extensionErrorGauge,
		m.framesTotal,
		m.decodeErrorsTotal,
		m.pendingRequests,
	)
	return &m
}

// SetExtensionNames records the number of loaded names for a point.
func (m *Metrics) SetExtensionNames(point string, count int) {
	m.extensionLoadGauge.WithLabelValues(point).Set(float64(count))
}

// SetExtensionErrors records the number of unusable descriptor lines
// for a point.
func (m *Metrics) SetExtensionErrors(point string, count int) {
	m.extensionErrorGauge.WithLabelValues(point).Set(float64(count))
}

// MarkFrame counts one handled frame.
func (m *Metrics) MarkFrame(direction, kind string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(direction, kind).Inc()
}

// MarkDecodeError counts one body that failed to decode.
func (m *Metrics) MarkDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrorsTotal.Inc()
}

// PendingAdd moves the outstanding-request gauge by delta.
func (m *Metrics) PendingAdd(delta float64) {
	if m == nil {
		return
	}
	m.pendingRequests.Add(delta)
}
