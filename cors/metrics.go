// Copyright 2024 SpotHero
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

package cors

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spothero/corsproxy/log"
	"go.uber.org/zap"
)

// Metrics counts CORS decisions by outcome
type Metrics struct {
	counter *prometheus.CounterVec
}

// NewMetrics creates and registers the CORS decision counter. If registry is
// nil the global prometheus registry is used. If mustRegister is true a
// duplicate registration panics, otherwise it is logged.
func NewMetrics(registry prometheus.Registerer, mustRegister bool) *Metrics {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cors_requests_total",
			Help: "Total number of requests classified by the CORS middleware",
		},
		[]string{
			// The classification outcome, e.g. preflight or origin_not_allowed
			"outcome",
		},
	)
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	if mustRegister {
		registry.MustRegister(counter)
	} else if err := registry.Register(counter); err != nil {
		log.Get(context.Background()).Error("failed to register cors counter", zap.Error(err))
	}
	return &Metrics{counter: counter}
}

// Observe records a single decision.
func (m *Metrics) Observe(kind Kind) {
	m.counter.With(prometheus.Labels{"outcome": kind.String()}).Inc()
}
