// Copyright 2025 The NLP Odyssey Authors
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

package server

import (
	"net/http"

	"github.com/nlpodyssey/labscribe/generator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes used as metric label values.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
)

// Metrics holds the Prometheus collectors of the service, registered on
// a private registry so multiple servers can coexist in one process.
type Metrics struct {
	registry      *prometheus.Registry
	generations   *prometheus.CounterVec
	sections      prometheus.Counter
	modelRequests prometheus.Counter
	modelTokens   prometheus.Counter
	duration      prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labscribe_generations_total",
			Help: "Report generations by outcome.",
		}, []string{"outcome"}),
		sections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labscribe_report_sections_total",
			Help: "Report sections written.",
		}),
		modelRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labscribe_model_requests_total",
			Help: "Completion requests sent to model backends.",
		}),
		modelTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labscribe_model_tokens_total",
			Help: "Total tokens exchanged with model backends.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labscribe_generation_duration_seconds",
			Help:    "Wall-clock duration of report generations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	m.registry.MustRegister(m.generations, m.sections, m.modelRequests, m.modelTokens, m.duration)
	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOutcome counts a generation that produced no result.
func (m *Metrics) RecordOutcome(outcome string) {
	m.generations.WithLabelValues(outcome).Inc()
}

// RecordResult counts a completed generation with its usage.
func (m *Metrics) RecordResult(result *generator.Result) {
	m.generations.WithLabelValues(outcomeCompleted).Inc()
	m.sections.Add(float64(result.SectionCount))
	m.modelRequests.Add(float64(result.Usage.Requests))
	m.modelTokens.Add(float64(result.Usage.TotalTokens))
	m.duration.Observe(result.Duration.Seconds())
}
