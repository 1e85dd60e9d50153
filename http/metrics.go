// Copyright 2019 SpotHero
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

package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spothero/corsproxy/http/writer"
	"github.com/spothero/corsproxy/log"
	"go.uber.org/zap"
)

// Metrics is a bundle of prometheus HTTP server metrics recorders
type Metrics struct {
	counter    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	serverName string
}

// NewMetrics creates and returns a metrics bundle labeled with the server name. The user may
// optionally specify an existing Prometheus Registry. If no Registry is provided, the global
// Prometheus Registry is used. Finally, if mustRegister is true, and a registration error is
// encountered, the application will panic.
func NewMetrics(serverName string, registry prometheus.Registerer, mustRegister bool) Metrics {
	labels := []string{
		// The path recording the request
		"path",
		// The HTTP method of the request, OPTIONS for preflights
		"method",
		// The Specific HTTP Status Code
		"status_code",
	}
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Total duration histogram for the HTTP request",
			ConstLabels: prometheus.Labels{"server": serverName},
			// Power of 2 time - 1ms, 2ms, 4ms ... 32768ms, +Inf ms
			Buckets: prometheus.ExponentialBuckets(0.001, 2.0, 16),
		},
		labels,
	)
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP Requests received",
			ConstLabels: prometheus.Labels{"server": serverName},
		},
		labels,
	)
	// If the user hasnt provided a Prometheus Registry, use the global Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return Metrics{
		counter:    register(registry, counter, mustRegister).(*prometheus.CounterVec),
		duration:   register(registry, histogram, mustRegister).(*prometheus.HistogramVec),
		serverName: serverName,
	}
}

// register adds collector to registry. When mustRegister is false and an identical
// collector is already registered, the existing one is returned so that several
// servers in one process share the series.
func register(registry prometheus.Registerer, collector prometheus.Collector, mustRegister bool) prometheus.Collector {
	if mustRegister {
		registry.MustRegister(collector)
		return collector
	}
	if err := registry.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		log.Get(context.Background()).Error("failed to register http metric", zap.Error(err))
	}
	return collector
}

// Middleware provides standard HTTP middleware for recording prometheus metrics on every request.
// Note that this middleware must be attached after writer.StatusRecorderMiddleware
// for HTTP response code tagging to function.
func (m Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(durationSec float64) {
			labels := prometheus.Labels{
				"path":        writer.FetchRoutePathTemplate(r),
				"method":      r.Method,
				"status_code": "",
			}
			if statusRecorder, ok := w.(*writer.StatusRecorder); ok {
				labels["status_code"] = strconv.Itoa(statusRecorder.StatusCode)
			}
			m.counter.With(labels).Inc()
			m.duration.With(labels).Observe(durationSec)
		}))
		defer timer.ObserveDuration()
		next.ServeHTTP(w, r)
	})
}
