// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
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

// Package metrics exposes decoder counters to Prometheus.
package metrics

import (
	"net/http"

	tblive "github.com/ZaparooProject/go-tblive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tblive"

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// DecoderMetrics counts what a stream decoder sees.
type DecoderMetrics struct {
	BytesReceived prometheus.Counter
	Frames        *prometheus.CounterVec // labels: kind, mode
	Errors        *prometheus.CounterVec // labels: kind, class
	Pending       prometheus.Gauge
	Firmware      *prometheus.GaugeVec // labels: version
	Discarded     prometheus.Counter
}

// NewDecoderMetrics registers and returns the decoder metrics.
func NewDecoderMetrics(reg prometheus.Registerer) *DecoderMetrics {
	m := &DecoderMetrics{
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total bytes read from the receiver.",
		}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Decoded frames by kind and mode.",
		}, []string{"kind", "mode"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Frames carrying an error by kind and class.",
		}, []string{"kind", "class"}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_bytes",
			Help:      "Undecoded bytes held by the decoder.",
		}),
		Firmware: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "firmware_info",
			Help:      "Active firmware grammar, 1 for the current version.",
		}, []string{"version"}),
		Discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_bytes_total",
			Help:      "Undecodable bytes dropped once the pending limit was reached.",
		}),
	}
	reg.MustRegister(m.BytesReceived, m.Frames, m.Errors, m.Pending, m.Firmware, m.Discarded)
	return m
}

// ObserveRead records n bytes read from the device.
func (m *DecoderMetrics) ObserveRead(n int) {
	m.BytesReceived.Add(float64(n))
}

// ObserveFrames records a batch of decoded frames.
func (m *DecoderMetrics) ObserveFrames(frames []tblive.OutputFrame) {
	for i := range frames {
		f := &frames[i]
		kind := string(f.Kind())
		m.Frames.WithLabelValues(kind, string(f.Mode)).Inc()
		if class := f.Class(); class != tblive.ClassNone {
			m.Errors.WithLabelValues(kind, string(class)).Inc()
		}
	}
}

// ObserveDecoder records the decoder state after a decode pass.
func (m *DecoderMetrics) ObserveDecoder(pending int, fw tblive.Firmware) {
	m.Pending.Set(float64(pending))
	for _, v := range tblive.SupportedFirmware() {
		value := 0.0
		if v == fw {
			value = 1
		}
		m.Firmware.WithLabelValues(string(v)).Set(value)
	}
}

// ObserveDiscard records bytes dropped from the pending input.
func (m *DecoderMetrics) ObserveDiscard(n int) {
	m.Discarded.Add(float64(n))
}
